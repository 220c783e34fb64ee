package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"voice-connector/internal/domain/dto"
	"voice-connector/internal/infra/logger"

	"github.com/gorilla/websocket"
)

const (
	realtimeURL = "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"

	voice       = "echo"
	audioFormat = "g711_ulaw"
	temperature = 0.8
)

// RealtimeClient is the AI link: one outbound Realtime connection per
// call. The session configuration is pushed right after the handshake,
// before anything else is sent.
type RealtimeClient struct {
	Logger       *logger.Logger
	apiKey       string
	instructions string
	url          string

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu           sync.Mutex
	open         bool
	ready        bool
	firstMessage string
	hasFirst     bool
}

func NewRealtimeClient(logger *logger.Logger, apiKey, instructions string) *RealtimeClient {
	return &RealtimeClient{
		Logger:       logger,
		apiKey:       apiKey,
		instructions: instructions,
		url:          realtimeURL,
	}
}

// Connect dials the Realtime API, sends the session configuration and
// starts the event read loop. Events arrive on onEvent in connection
// order. If a first message was queued before the handshake finished,
// it is drained here.
func (c *RealtimeClient) Connect(onEvent func(event dto.RealtimeEvent)) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// The session configuration must be the first frame on the wire.
	// The connection is not published as open until it is written, so a
	// concurrent audio send cannot slip ahead of it.
	c.writeMu.Lock()
	err = conn.WriteJSON(c.sessionUpdate())
	c.writeMu.Unlock()
	if err != nil {
		conn.Close()
		return fmt.Errorf("realtime session update: %w", err)
	}

	c.mu.Lock()
	c.open = true
	c.ready = true
	c.mu.Unlock()

	c.Logger.Info("Connected to the OpenAI Realtime API")
	c.sendFirstMessageIfQueued()

	go c.readLoop(onEvent)
	return nil
}

// QueueFirstMessage stores the synthetic first user utterance. It is
// sent exactly once, as soon as both the message and the connection are
// in place, whichever happens second.
func (c *RealtimeClient) QueueFirstMessage(text string) {
	c.mu.Lock()
	c.firstMessage = text
	c.hasFirst = true
	ready := c.ready
	c.mu.Unlock()

	if ready {
		c.sendFirstMessageIfQueued()
	}
}

func (c *RealtimeClient) sendFirstMessageIfQueued() {
	c.mu.Lock()
	if !c.hasFirst || !c.ready {
		c.mu.Unlock()
		return
	}
	text := c.firstMessage
	c.firstMessage = ""
	c.hasFirst = false
	c.mu.Unlock()

	c.Logger.Info(fmt.Sprintf("Sending queued first message: %s", text))
	if err := c.SendUserMessage(text); err != nil {
		c.Logger.Error(fmt.Sprintf("Failed to send first message: %v", err))
		return
	}
	if err := c.CreateResponse(""); err != nil {
		c.Logger.Error(fmt.Sprintf("Failed to request first response: %v", err))
	}
}

func (c *RealtimeClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// SendAudio appends one chunk of caller audio to the input buffer.
func (c *RealtimeClient) SendAudio(payload string) error {
	return c.writeJSON(dto.InputAudioAppend{
		Type:  "input_audio_buffer.append",
		Audio: payload,
	})
}

// SendUserMessage injects a user text message into the conversation.
func (c *RealtimeClient) SendUserMessage(text string) error {
	return c.writeJSON(dto.ConversationItemCreate{
		Type: "conversation.item.create",
		Item: dto.ConversationItem{
			Type:    "message",
			Role:    "user",
			Content: []dto.ItemContent{{Type: "input_text", Text: text}},
		},
	})
}

// SendFunctionOutput feeds a tool invocation result back to the model.
func (c *RealtimeClient) SendFunctionOutput(output string) error {
	return c.writeJSON(dto.ConversationItemCreate{
		Type: "conversation.item.create",
		Item: dto.ConversationItem{
			Type:   "function_call_output",
			Role:   "system",
			Output: output,
		},
	})
}

// CreateResponse asks the model to produce a new response, optionally
// with an instruction override.
func (c *RealtimeClient) CreateResponse(instructions string) error {
	msg := dto.ResponseCreate{Type: "response.create"}
	if instructions != "" {
		msg.Response = &dto.ResponseConfig{
			Modalities:   []string{"text", "audio"},
			Instructions: instructions,
		}
	}
	return c.writeJSON(msg)
}

// CancelResponse aborts the in-flight response after a barge-in.
func (c *RealtimeClient) CancelResponse() error {
	return c.writeJSON(dto.ResponseCancel{Type: "response.cancel"})
}

// Close shuts the connection down. Safe to call more than once.
func (c *RealtimeClient) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *RealtimeClient) sessionUpdate() dto.SessionUpdate {
	return dto.SessionUpdate{
		Type: "session.update",
		Session: dto.RealtimeSession{
			TurnDetection:           &dto.TurnDetection{Type: "server_vad"},
			InputAudioFormat:        audioFormat,
			OutputAudioFormat:       audioFormat,
			Voice:                   voice,
			Instructions:            c.instructions,
			Modalities:              []string{"text", "audio"},
			Temperature:             temperature,
			InputAudioTranscription: &dto.AudioTranscription{Model: "whisper-1"},
			Tools:                   toolDeclarations(),
			ToolChoice:              "auto",
		},
	}
}

func toolDeclarations() []dto.Tool {
	return []dto.Tool{
		{
			Type:        "function",
			Name:        "end_call",
			Description: "End the call and say goodbye to the user.",
			Parameters: dto.ToolParameters{
				Type: "object",
				Properties: map[string]dto.ToolProperty{
					"message": {Type: "string", Default: "Até mais! Encerrando a ligação agora."},
				},
				Required: []string{"message"},
			},
		},
		{
			Type:        "function",
			Name:        "book_service",
			Description: "Book a car service for the customer",
			Parameters: dto.ToolParameters{
				Type: "object",
				Properties: map[string]dto.ToolProperty{
					"booking_time": {Type: "string"},
				},
				Required: []string{"booking_time"},
			},
		},
	}
}

func (c *RealtimeClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	open := c.open
	conn := c.conn
	c.mu.Unlock()

	if !open || conn == nil {
		return fmt.Errorf("realtime connection is not open")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (c *RealtimeClient) readLoop(onEvent func(event dto.RealtimeEvent)) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasOpen := c.open
			c.open = false
			c.mu.Unlock()
			if wasOpen {
				c.Logger.Error(fmt.Sprintf("Error in the OpenAI WebSocket: %v", err))
			}
			return
		}

		var event dto.RealtimeEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.Logger.Error(fmt.Sprintf("Error processing OpenAI message: %v raw: %s", err, string(raw)))
			continue
		}

		onEvent(event)
	}
}

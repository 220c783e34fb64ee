package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"voice-connector/internal/domain/dto"
	"voice-connector/internal/domain/entities"
	Iservices "voice-connector/internal/domain/interfaces/services"
	"voice-connector/internal/infra/logger"

	"github.com/sirupsen/logrus"
)

// State tracks where a call is in its lifecycle. There is no way back
// from StateClosed.
type State int

const (
	StateAwaitingStart State = iota
	StateStreaming
	StateClosed
)

// FrameWriter is the telephony-side sink for outbound frames.
// *websocket.Conn satisfies it.
type FrameWriter interface {
	WriteJSON(v interface{}) error
}

type Config struct {
	TranscriptWebhookURL string
	BookingWebhookURL    string
	// GoodbyeDelay gives the goodbye response time to be spoken before
	// the synthetic user reply is injected; HangupDelay runs after that
	// reply, before the call is terminated.
	GoodbyeDelay time.Duration
	HangupDelay  time.Duration
}

const (
	defaultFirstMessage = "Olá, como posso ajudar-lo?"
	defaultGoodbye      = "Até logo!"
	syntheticUserReply  = "Obrigado, até mais!"

	apologyInstruction = "Peço desculpas, mas estou tendo problemas para processar sua solicitação no momento. Há algo mais que eu possa fazer por você?"

	bookingFallbackMessage = "Desculpe, não consegui agendar o serviço neste momento. Você teria outra opção de horário?"
)

// logEventTypes is the diagnostic allow-list of Realtime events worth
// logging even though the relay takes no action on them.
var logEventTypes = map[string]struct{}{
	"response.content.done":                 {},
	"rate_limits.updated":                   {},
	"response.done":                         {},
	"input_audio_buffer.committed":          {},
	"input_audio_buffer.speech_stopped":     {},
	"input_audio_buffer.speech_started":     {},
	"session.created":                       {},
	"response.text.done":                    {},
	"conversation.item.input_audio_transcription.completed": {},
}

// MediaRelay bridges one Twilio media stream and one Realtime
// connection. It is the only component touching both sides of a call.
type MediaRelay struct {
	Logger   *logger.Logger
	ai       Iservices.IRealtimeClient
	store    Iservices.ISessionStore
	notifier Iservices.IWebhookNotifier
	calls    Iservices.ICallController
	cfg      Config

	twilioMu sync.Mutex
	twilio   FrameWriter

	mu         sync.Mutex
	state      State
	sessionKey string
	callSid    string
	streamSid  string
	session    *entities.Session
	timers     []*time.Timer

	teardownOnce sync.Once
}

// NewMediaRelay creates the relay and its session record. sessionKey
// identifies the session in the store; callSid may be empty until the
// start frame supplies it.
func NewMediaRelay(
	log *logger.Logger,
	twilio FrameWriter,
	ai Iservices.IRealtimeClient,
	store Iservices.ISessionStore,
	notifier Iservices.IWebhookNotifier,
	calls Iservices.ICallController,
	cfg Config,
	sessionKey, callSid string,
) *MediaRelay {
	return &MediaRelay{
		Logger:     log,
		twilio:     twilio,
		ai:         ai,
		store:      store,
		notifier:   notifier,
		calls:      calls,
		cfg:        cfg,
		state:      StateAwaitingStart,
		sessionKey: sessionKey,
		callSid:    callSid,
		session:    store.GetOrCreate(sessionKey),
	}
}

// HandleStreamMessage processes one inbound Twilio frame. Malformed
// frames are logged and dropped; the connection stays open.
func (r *MediaRelay) HandleStreamMessage(raw []byte) {
	var event dto.StreamEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		r.Logger.Error(fmt.Sprintf("Error parsing message: %v message: %s", err, string(raw)))
		return
	}

	switch event.Event {
	case "start":
		r.handleStart(event.Start)
	case "media":
		r.handleMedia(event.Media)
	}
}

func (r *MediaRelay) handleStart(start *dto.StreamStart) {
	if start == nil {
		return
	}

	r.mu.Lock()
	if r.state != StateAwaitingStart {
		r.mu.Unlock()
		return
	}
	r.state = StateStreaming
	r.streamSid = start.StreamSid
	if start.CallSid != "" {
		r.callSid = start.CallSid
	}

	callerNumber := start.CustomParameters["callerNumber"]
	if callerNumber == "" {
		callerNumber = "Unknown"
	}
	firstMessage := start.CustomParameters["firstMessage"]
	if firstMessage == "" {
		firstMessage = defaultFirstMessage
	}

	r.session.StreamSid = start.StreamSid
	r.session.CallSid = r.callSid
	r.session.CallerNumber = callerNumber
	r.mu.Unlock()

	r.Logger.Info("Media stream started", logrus.Fields{
		"callSid":      start.CallSid,
		"streamSid":    start.StreamSid,
		"callerNumber": callerNumber,
	})

	r.ai.QueueFirstMessage(firstMessage)
}

// handleMedia forwards caller audio to the AI link. Frames arriving
// before the link is open, or after it closed, are dropped, not
// buffered.
func (r *MediaRelay) handleMedia(media *dto.StreamMedia) {
	if media == nil || !r.ai.IsOpen() {
		return
	}
	if err := r.ai.SendAudio(media.Payload); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to forward audio to the AI link: %v", err))
	}
}

// HandleRealtimeEvent reacts to one inbound AI event. Events arrive in
// connection order.
func (r *MediaRelay) HandleRealtimeEvent(event dto.RealtimeEvent) {
	switch event.Type {
	case "input_audio_buffer.speech_started":
		r.handleInterruption()
	case "response.audio.delta":
		r.handleAudioDelta(event.Delta)
	case "response.function_call_arguments.done":
		r.dispatchTool(event.Name, event.Arguments)
	case "response.done":
		r.handleResponseDone(event.Response)
	case "conversation.item.input_audio_transcription.completed":
		r.handleUserTranscription(event.Transcript)
	}

	if _, ok := logEventTypes[event.Type]; ok {
		r.Logger.Debug("Received event", logrus.Fields{"type": event.Type})
	}
}

// handleInterruption runs the barge-in protocol: first clear the
// buffered audio on the telephony side, then cancel the in-flight
// response. Both are best-effort.
func (r *MediaRelay) handleInterruption() {
	r.mu.Lock()
	streamSid := r.streamSid
	r.mu.Unlock()

	if err := r.writeTwilio(dto.ClearFrame{Event: "clear", StreamSid: streamSid}); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to clear Twilio buffer: %v", err))
	}
	if err := r.ai.CancelResponse(); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to cancel AI response: %v", err))
	}
}

func (r *MediaRelay) handleAudioDelta(delta string) {
	if delta == "" {
		return
	}

	r.mu.Lock()
	streamSid := r.streamSid
	r.mu.Unlock()

	frame := dto.MediaFrame{
		Event:     "media",
		StreamSid: streamSid,
		Media:     dto.MediaPayload{Payload: delta},
	}
	if err := r.writeTwilio(frame); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to forward audio to Twilio: %v", err))
	}
}

func (r *MediaRelay) handleResponseDone(response *dto.ResponsePayload) {
	text, ok := firstTranscript(response)
	if !ok {
		return
	}

	r.mu.Lock()
	r.session.AppendAgentLine(text)
	r.mu.Unlock()

	r.Logger.Info(fmt.Sprintf("Agent (%s): %s", r.sessionKey, text))
}

func (r *MediaRelay) handleUserTranscription(transcript string) {
	if transcript == "" {
		return
	}
	text := strings.TrimSpace(transcript)

	r.mu.Lock()
	r.session.AppendUserLine(text)
	r.mu.Unlock()

	r.Logger.Info(fmt.Sprintf("User (%s): %s", r.sessionKey, text))
}

// firstTranscript returns the first transcript-bearing content segment
// of a completed response.
func firstTranscript(response *dto.ResponsePayload) (string, bool) {
	if response == nil {
		return "", false
	}
	for _, output := range response.Output {
		for _, content := range output.Content {
			if content.Transcript != "" {
				return content.Transcript, true
			}
		}
	}
	return "", false
}

func (r *MediaRelay) dispatchTool(name, arguments string) {
	invocation, err := parseToolInvocation(name, arguments)
	if err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to parse tool invocation %s: %v", name, err))
		return
	}

	switch invocation.kind {
	case toolEndCall:
		r.handleEndCall(invocation.goodbye)
	case toolBookService:
		// The booking webhook is a blocking HTTP call; it must not
		// stall the event stream of this or any other call.
		go r.handleBookService(invocation.bookingTime)
	default:
		r.Logger.Warn(fmt.Sprintf("Unknown tool invocation: %s", name))
	}
}

// handleEndCall speaks the goodbye message, injects a synthetic user
// reply to keep the turn sequence well-formed, and terminates the call
// after the configured delays.
func (r *MediaRelay) handleEndCall(goodbye string) {
	r.Logger.Info(fmt.Sprintf("Received end_call function. Goodbye message: %s", goodbye))

	if err := r.ai.SendFunctionOutput(goodbye); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to send end_call output: %v", err))
	}
	if err := r.ai.CreateResponse(fmt.Sprintf("Say: %q.", goodbye)); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to request goodbye response: %v", err))
	}

	r.schedule(r.cfg.GoodbyeDelay, func() {
		if err := r.ai.SendUserMessage(syntheticUserReply); err != nil {
			r.Logger.Error(fmt.Sprintf("Failed to send synthetic user reply: %v", err))
		}
		r.schedule(r.cfg.HangupDelay, r.terminateCall)
	})
}

func (r *MediaRelay) terminateCall() {
	r.mu.Lock()
	callSid := r.callSid
	r.mu.Unlock()

	if callSid == "" {
		r.Logger.Error("CallSid not found, cannot end call")
		return
	}

	if err := r.calls.EndCall(callSid); err != nil {
		r.Logger.Error(fmt.Sprintf("Error ending the call: %v", err))
	}
}

// handleBookService forwards the booking to the webhook and voices the
// outcome. Any failure turns into a spoken apology, never a stream
// error.
func (r *MediaRelay) handleBookService(bookingTime string) {
	r.mu.Lock()
	callerNumber := r.session.CallerNumber
	r.mu.Unlock()

	r.Logger.Info(fmt.Sprintf("Booking service for: %s", bookingTime))

	body, err := r.notifier.Send(dto.BookingRequest{
		Number:  callerNumber,
		Message: bookingTime,
	}, r.cfg.BookingWebhookURL)
	if err != nil {
		r.Logger.Error(fmt.Sprintf("Error booking service: %v", err))
		r.sendErrorResponse()
		return
	}

	var booking dto.BookingResponse
	if err := json.Unmarshal([]byte(body), &booking); err != nil {
		r.Logger.Error(fmt.Sprintf("Error parsing booking webhook response: %v", err))
		r.sendErrorResponse()
		return
	}

	bookingMessage := booking.BookingMessage
	if bookingMessage == "" {
		bookingMessage = bookingFallbackMessage
	}

	var responseMessage string
	if booking.Status == "Successful" {
		responseMessage = fmt.Sprintf("A reserva foi realizada com sucesso: %s", bookingMessage)
	} else {
		responseMessage = fmt.Sprintf("Infelizmente não foi possível realizar o seu agendamento. %s", bookingMessage)
	}

	if err := r.ai.SendFunctionOutput(responseMessage); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to send booking output: %v", err))
	}
	if err := r.ai.CreateResponse(fmt.Sprintf("Informe o usuário: %s. Seja simpático e vá direto ao ponto.", responseMessage)); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to request booking response: %v", err))
	}
}

func (r *MediaRelay) sendErrorResponse() {
	if err := r.ai.CreateResponse(apologyInstruction); err != nil {
		r.Logger.Error(fmt.Sprintf("Failed to send apology response: %v", err))
	}
}

// schedule runs f after d unless the call has already closed. The timer
// handle is tied to the call so teardown can stop pending actions.
func (r *MediaRelay) schedule(d time.Duration, f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateClosed {
		return
	}
	r.timers = append(r.timers, time.AfterFunc(d, f))
}

// Teardown closes the AI link, delivers the transcript and deletes the
// session. It runs exactly once no matter which side closed first or
// how many close/error events fire.
func (r *MediaRelay) Teardown() {
	r.teardownOnce.Do(func() {
		r.mu.Lock()
		r.state = StateClosed
		timers := r.timers
		r.timers = nil
		callerNumber := r.session.CallerNumber
		transcript := r.session.Transcript
		r.mu.Unlock()

		for _, t := range timers {
			t.Stop()
		}

		if r.ai.IsOpen() {
			r.ai.Close()
		}

		r.Logger.Info(fmt.Sprintf("Client disconnected (%s)", r.sessionKey))

		payload := dto.TranscriptPayload{
			Route: "2",
			Data1: callerNumber,
			Data2: transcript,
		}
		if _, err := r.notifier.Send(payload, r.cfg.TranscriptWebhookURL); err != nil {
			r.Logger.Error(fmt.Sprintf("Failed to deliver transcript: %v", err))
		}

		r.store.Delete(r.sessionKey)
	})
}

// State reports the current lifecycle state.
func (r *MediaRelay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *MediaRelay) writeTwilio(v interface{}) error {
	r.twilioMu.Lock()
	defer r.twilioMu.Unlock()
	return r.twilio.WriteJSON(v)
}

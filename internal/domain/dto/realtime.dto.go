package dto

// Outbound message shapes for the OpenAI Realtime connection.

type SessionUpdate struct {
	Type    string          `json:"type"`
	Session RealtimeSession `json:"session"`
}

type RealtimeSession struct {
	TurnDetection           *TurnDetection      `json:"turn_detection,omitempty"`
	InputAudioFormat        string              `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string              `json:"output_audio_format,omitempty"`
	Voice                   string              `json:"voice,omitempty"`
	Instructions            string              `json:"instructions,omitempty"`
	Modalities              []string            `json:"modalities,omitempty"`
	Temperature             float64             `json:"temperature,omitempty"`
	InputAudioTranscription *AudioTranscription `json:"input_audio_transcription,omitempty"`
	Tools                   []Tool              `json:"tools,omitempty"`
	ToolChoice              string              `json:"tool_choice,omitempty"`
}

type TurnDetection struct {
	Type string `json:"type"`
}

type AudioTranscription struct {
	Model string `json:"model"`
}

type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

type ToolProperty struct {
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

type ConversationItemCreate struct {
	Type string           `json:"type"`
	Item ConversationItem `json:"item"`
}

type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []ItemContent `json:"content,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type ItemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type InputAudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type ResponseCreate struct {
	Type     string          `json:"type"`
	Response *ResponseConfig `json:"response,omitempty"`
}

type ResponseConfig struct {
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

type ResponseCancel struct {
	Type string `json:"type"`
}

// RealtimeEvent is the inbound envelope. Only the fields the relay reads
// are declared; everything else stays in the raw JSON.
type RealtimeEvent struct {
	Type       string           `json:"type"`
	Delta      string           `json:"delta,omitempty"`
	Name       string           `json:"name,omitempty"`
	Arguments  string           `json:"arguments,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	Response   *ResponsePayload `json:"response,omitempty"`
}

type ResponsePayload struct {
	Output []ResponseOutput `json:"output"`
}

type ResponseOutput struct {
	Content []OutputContent `json:"content"`
}

type OutputContent struct {
	Transcript string `json:"transcript,omitempty"`
}

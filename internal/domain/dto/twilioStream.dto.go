package dto

// StreamEvent is the envelope for every frame Twilio sends over the
// media-stream WebSocket. The Event field discriminates the payload.
type StreamEvent struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid,omitempty"`
	Start     *StreamStart `json:"start,omitempty"`
	Media     *StreamMedia `json:"media,omitempty"`
}

type StreamStart struct {
	StreamSid        string            `json:"streamSid"`
	CallSid          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type StreamMedia struct {
	Payload string `json:"payload"`
}

// MediaFrame is sent back to Twilio carrying one chunk of AI audio. The
// payload is passed through opaque, no re-encoding.
type MediaFrame struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

type MediaPayload struct {
	Payload string `json:"payload"`
}

// ClearFrame tells Twilio to discard buffered, not yet played audio.
type ClearFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

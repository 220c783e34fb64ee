package Iservices

import "voice-connector/internal/domain/dto"

// IRealtimeClient owns one outbound speech-to-speech connection. Connect
// blocks until the handshake finishes, pushes the session configuration,
// then drains a queued first message if one is waiting.
type IRealtimeClient interface {
	Connect(onEvent func(event dto.RealtimeEvent)) error
	QueueFirstMessage(text string)
	IsOpen() bool
	SendAudio(payload string) error
	SendUserMessage(text string) error
	SendFunctionOutput(output string) error
	CreateResponse(instructions string) error
	CancelResponse() error
	Close()
}

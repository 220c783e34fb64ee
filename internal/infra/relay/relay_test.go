package relay

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-connector/internal/domain/dto"
	"voice-connector/internal/infra/logger"
	"voice-connector/internal/infra/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder keeps a cross-component ordering trace so tests can assert
// the sequence of side effects, not just their presence.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeWriter struct {
	rec    *recorder
	mu     sync.Mutex
	frames []interface{}
}

func (w *fakeWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	w.frames = append(w.frames, v)
	w.mu.Unlock()

	switch v.(type) {
	case dto.ClearFrame:
		w.rec.add("clear")
	case dto.MediaFrame:
		w.rec.add("media")
	}
	return nil
}

func (w *fakeWriter) mediaFrames() []dto.MediaFrame {
	w.mu.Lock()
	defer w.mu.Unlock()
	var frames []dto.MediaFrame
	for _, f := range w.frames {
		if mf, ok := f.(dto.MediaFrame); ok {
			frames = append(frames, mf)
		}
	}
	return frames
}

type fakeAI struct {
	rec *recorder

	mu              sync.Mutex
	open            bool
	firstMessages   []string
	audio           []string
	userMessages    []string
	functionOutputs []string
	responses       []string
	cancels         int
	closes          int
}

func (a *fakeAI) Connect(onEvent func(event dto.RealtimeEvent)) error { return nil }

func (a *fakeAI) QueueFirstMessage(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.firstMessages = append(a.firstMessages, text)
}

func (a *fakeAI) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

func (a *fakeAI) SendAudio(payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audio = append(a.audio, payload)
	return nil
}

func (a *fakeAI) SendUserMessage(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userMessages = append(a.userMessages, text)
	return nil
}

func (a *fakeAI) SendFunctionOutput(output string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.functionOutputs = append(a.functionOutputs, output)
	return nil
}

func (a *fakeAI) CreateResponse(instructions string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses = append(a.responses, instructions)
	return nil
}

func (a *fakeAI) CancelResponse() error {
	a.mu.Lock()
	a.cancels++
	a.mu.Unlock()
	a.rec.add("cancel")
	return nil
}

func (a *fakeAI) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = false
	a.closes++
}

type aiSnapshot struct {
	firstMessages   []string
	audio           []string
	userMessages    []string
	functionOutputs []string
	responses       []string
	cancels         int
	closes          int
}

func (a *fakeAI) snapshot() aiSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return aiSnapshot{
		firstMessages:   append([]string(nil), a.firstMessages...),
		audio:           append([]string(nil), a.audio...),
		userMessages:    append([]string(nil), a.userMessages...),
		functionOutputs: append([]string(nil), a.functionOutputs...),
		responses:       append([]string(nil), a.responses...),
		cancels:         a.cancels,
		closes:          a.closes,
	}
}

type sentPayload struct {
	payload interface{}
	url     string
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentPayload
	response string
	err      error
}

func (n *fakeNotifier) Send(payload interface{}, webhookURL string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentPayload{payload: payload, url: webhookURL})
	if n.err != nil {
		return "", n.err
	}
	return n.response, nil
}

func (n *fakeNotifier) sentTo(url string) []sentPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentPayload
	for _, s := range n.sent {
		if s.url == url {
			out = append(out, s)
		}
	}
	return out
}

type fakeCalls struct {
	mu    sync.Mutex
	ended []string
}

func (c *fakeCalls) CreateCall(to, twimlURL string) (string, error) { return "CA_fake", nil }

func (c *fakeCalls) EndCall(callSid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = append(c.ended, callSid)
	return nil
}

func (c *fakeCalls) endedCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ended...)
}

type relayFixture struct {
	relay    *MediaRelay
	writer   *fakeWriter
	ai       *fakeAI
	store    *services.SessionStore
	notifier *fakeNotifier
	calls    *fakeCalls
	rec      *recorder
}

func newFixture(t *testing.T, callSid string) *relayFixture {
	t.Helper()

	rec := &recorder{}
	writer := &fakeWriter{rec: rec}
	ai := &fakeAI{rec: rec, open: true}
	store := services.NewSessionStore()
	notifier := &fakeNotifier{response: `{}`}
	calls := &fakeCalls{}

	cfg := Config{
		TranscriptWebhookURL: "https://example.com/transcript",
		BookingWebhookURL:    "https://example.com/booking",
		GoodbyeDelay:         10 * time.Millisecond,
		HangupDelay:          10 * time.Millisecond,
	}

	sessionKey := callSid
	if sessionKey == "" {
		sessionKey = "session_test"
	}

	r := NewMediaRelay(logger.NewLogger(false), writer, ai, store, notifier, calls, cfg, sessionKey, callSid)
	return &relayFixture{relay: r, writer: writer, ai: ai, store: store, notifier: notifier, calls: calls, rec: rec}
}

func startFrame(callSid, streamSid string, params map[string]string) []byte {
	event := dto.StreamEvent{
		Event: "start",
		Start: &dto.StreamStart{
			StreamSid:        streamSid,
			CallSid:          callSid,
			CustomParameters: params,
		},
	}
	raw, _ := json.Marshal(event)
	return raw
}

func mediaFrame(payload string) []byte {
	raw, _ := json.Marshal(dto.StreamEvent{
		Event: "media",
		Media: &dto.StreamMedia{Payload: payload},
	})
	return raw
}

func TestStartFrameInitializesSessionAndQueuesGreeting(t *testing.T) {
	f := newFixture(t, "CA123")

	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", map[string]string{
		"callerNumber": "5511999999999",
		"firstMessage": "Olá",
	}))

	assert.Equal(t, StateStreaming, f.relay.State())

	session := f.store.GetOrCreate("CA123")
	assert.Equal(t, "5511999999999", session.CallerNumber)
	assert.Equal(t, "MZ123", session.StreamSid)

	assert.Equal(t, []string{"Olá"}, f.ai.snapshot().firstMessages)
}

func TestStartFrameDefaults(t *testing.T) {
	f := newFixture(t, "CA123")

	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", nil))

	session := f.store.GetOrCreate("CA123")
	assert.Equal(t, "Unknown", session.CallerNumber)
	assert.Equal(t, []string{defaultFirstMessage}, f.ai.snapshot().firstMessages)
}

func TestSecondStartFrameIgnored(t *testing.T) {
	f := newFixture(t, "CA123")

	f.relay.HandleStreamMessage(startFrame("CA123", "MZ1", map[string]string{"firstMessage": "Olá"}))
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ2", map[string]string{"firstMessage": "De novo"}))

	assert.Equal(t, []string{"Olá"}, f.ai.snapshot().firstMessages)
}

func TestMediaForwardedOnlyWhileLinkOpen(t *testing.T) {
	f := newFixture(t, "CA123")
	f.ai.open = false

	f.relay.HandleStreamMessage(mediaFrame("ZHJvcHBlZA=="))
	assert.Empty(t, f.ai.snapshot().audio, "audio before the link opens must be dropped")

	f.ai.open = true
	f.relay.HandleStreamMessage(mediaFrame("a2VwdA=="))
	assert.Equal(t, []string{"a2VwdA=="}, f.ai.snapshot().audio)
}

func TestMalformedFrameIgnored(t *testing.T) {
	f := newFixture(t, "CA123")

	f.relay.HandleStreamMessage([]byte(`{not json`))

	assert.Equal(t, StateAwaitingStart, f.relay.State())
}

func TestBargeInClearsThenCancels(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", nil))

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{Type: "input_audio_buffer.speech_started"})

	assert.Equal(t, []string{"clear", "cancel"}, f.rec.trace())
}

func TestAudioDeltaForwardedToTwilio(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", nil))

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{Type: "response.audio.delta", Delta: "YXVkaW8="})
	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{Type: "response.audio.delta", Delta: ""})

	frames := f.writer.mediaFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, "media", frames[0].Event)
	assert.Equal(t, "MZ123", frames[0].StreamSid)
	assert.Equal(t, "YXVkaW8=", frames[0].Media.Payload)
}

func TestAgentLineWrittenOnlyWithTranscript(t *testing.T) {
	f := newFixture(t, "CA123")
	session := f.store.GetOrCreate("CA123")

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type:     "response.done",
		Response: &dto.ResponsePayload{Output: []dto.ResponseOutput{{Content: []dto.OutputContent{{}}}}},
	})
	assert.Empty(t, session.Transcript)

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type: "response.done",
		Response: &dto.ResponsePayload{
			Output: []dto.ResponseOutput{{Content: []dto.OutputContent{
				{},
				{Transcript: "Olá, aqui é o Rafael."},
			}}},
		},
	})
	assert.Equal(t, "Agent: Olá, aqui é o Rafael.\n", session.Transcript)
}

func TestUserTranscriptionTrimmedAndAppended(t *testing.T) {
	f := newFixture(t, "CA123")
	session := f.store.GetOrCreate("CA123")

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type:       "conversation.item.input_audio_transcription.completed",
		Transcript: "  Quero agendar um horário.\n",
	})
	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type:       "conversation.item.input_audio_transcription.completed",
		Transcript: "",
	})

	assert.Equal(t, "User: Quero agendar um horário.\n", session.Transcript)
}

func TestTranscriptPreservesConversationOrder(t *testing.T) {
	f := newFixture(t, "CA123")
	session := f.store.GetOrCreate("CA123")

	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type: "response.done",
		Response: &dto.ResponsePayload{
			Output: []dto.ResponseOutput{{Content: []dto.OutputContent{{Transcript: "Olá!"}}}},
		},
	})
	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type:       "conversation.item.input_audio_transcription.completed",
		Transcript: "Oi, tudo bem?",
	})

	assert.Equal(t, "Agent: Olá!\nUser: Oi, tudo bem?\n", session.Transcript)
}

func endCallEvent(arguments string) dto.RealtimeEvent {
	return dto.RealtimeEvent{
		Type:      "response.function_call_arguments.done",
		Name:      "end_call",
		Arguments: arguments,
	}
}

func TestEndCallSpeaksGoodbyeAndTerminates(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", nil))

	f.relay.HandleRealtimeEvent(endCallEvent(`{"message":"Tchau!"}`))

	snap := f.ai.snapshot()
	assert.Equal(t, []string{"Tchau!"}, snap.functionOutputs)
	require.Len(t, snap.responses, 1)
	assert.Contains(t, snap.responses[0], "Tchau!")

	require.Eventually(t, func() bool {
		return len(f.calls.endedCalls()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"CA123"}, f.calls.endedCalls())
	assert.Contains(t, f.ai.snapshot().userMessages, syntheticUserReply)
}

func TestEndCallDefaultGoodbye(t *testing.T) {
	f := newFixture(t, "CA123")

	f.relay.HandleRealtimeEvent(endCallEvent(`{}`))

	assert.Equal(t, []string{defaultGoodbye}, f.ai.snapshot().functionOutputs)
}

func TestEndCallSkipsTerminationWithoutCallSid(t *testing.T) {
	f := newFixture(t, "")

	f.relay.HandleRealtimeEvent(endCallEvent(`{"message":"Tchau!"}`))

	require.Eventually(t, func() bool {
		return len(f.ai.snapshot().userMessages) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.calls.endedCalls())
}

func TestTeardownCancelsPendingHangup(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", nil))

	f.relay.HandleRealtimeEvent(endCallEvent(`{"message":"Tchau!"}`))
	f.relay.Teardown()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.calls.endedCalls())
}

func bookServiceEvent(arguments string) dto.RealtimeEvent {
	return dto.RealtimeEvent{
		Type:      "response.function_call_arguments.done",
		Name:      "book_service",
		Arguments: arguments,
	}
}

func waitForFunctionOutput(t *testing.T, ai *fakeAI) string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(ai.snapshot().functionOutputs) == 1
	}, time.Second, 5*time.Millisecond)
	return ai.snapshot().functionOutputs[0]
}

func TestBookServiceSuccess(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", map[string]string{"callerNumber": "5511999999999"}))
	f.notifier.response = `{"status":"Successful","bookingMessage":"31 de janeiro às 10h"}`

	f.relay.HandleRealtimeEvent(bookServiceEvent(`{"booking_time":"31 de janeiro às 10h"}`))

	output := waitForFunctionOutput(t, f.ai)
	assert.Contains(t, output, "sucesso")
	assert.Contains(t, output, "31 de janeiro às 10h")

	sent := f.notifier.sentTo("https://example.com/booking")
	require.Len(t, sent, 1)
	request, ok := sent[0].payload.(dto.BookingRequest)
	require.True(t, ok)
	assert.Equal(t, "5511999999999", request.Number)
	assert.Equal(t, "31 de janeiro às 10h", request.Message)
}

func TestBookServiceFailureStatus(t *testing.T) {
	f := newFixture(t, "CA123")
	f.notifier.response = `{"status":"Failed","bookingMessage":"Horário indisponível."}`

	f.relay.HandleRealtimeEvent(bookServiceEvent(`{"booking_time":"amanhã às 9h"}`))

	output := waitForFunctionOutput(t, f.ai)
	assert.True(t, strings.HasPrefix(output, "Infelizmente não foi possível realizar o seu agendamento."))
	assert.Contains(t, output, "Horário indisponível.")
}

func TestBookServiceEmptyMessageFallsBack(t *testing.T) {
	f := newFixture(t, "CA123")
	f.notifier.response = `{"status":"Successful","bookingMessage":""}`

	f.relay.HandleRealtimeEvent(bookServiceEvent(`{"booking_time":"amanhã às 9h"}`))

	output := waitForFunctionOutput(t, f.ai)
	assert.Contains(t, output, bookingFallbackMessage)
}

func TestBookServiceWebhookErrorApologizes(t *testing.T) {
	f := newFixture(t, "CA123")
	f.notifier.err = errors.New("connection refused")

	f.relay.HandleRealtimeEvent(bookServiceEvent(`{"booking_time":"amanhã às 9h"}`))

	require.Eventually(t, func() bool {
		snap := f.ai.snapshot()
		return len(snap.responses) == 1 && snap.responses[0] == apologyInstruction
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, f.ai.snapshot().functionOutputs)
}

func TestBookServiceBadResponseBodyApologizes(t *testing.T) {
	f := newFixture(t, "CA123")
	f.notifier.response = `not json`

	f.relay.HandleRealtimeEvent(bookServiceEvent(`{"booking_time":"amanhã às 9h"}`))

	require.Eventually(t, func() bool {
		snap := f.ai.snapshot()
		return len(snap.responses) == 1 && snap.responses[0] == apologyInstruction
	}, time.Second, 5*time.Millisecond)
}

func TestTeardownRunsExactlyOnce(t *testing.T) {
	f := newFixture(t, "CA123")
	f.relay.HandleStreamMessage(startFrame("CA123", "MZ123", map[string]string{"callerNumber": "5511999999999"}))
	f.relay.HandleRealtimeEvent(dto.RealtimeEvent{
		Type:       "conversation.item.input_audio_transcription.completed",
		Transcript: "Oi",
	})

	f.relay.Teardown()
	f.relay.Teardown()

	sent := f.notifier.sentTo("https://example.com/transcript")
	require.Len(t, sent, 1)

	payload, ok := sent[0].payload.(dto.TranscriptPayload)
	require.True(t, ok)
	assert.Equal(t, "2", payload.Route)
	assert.Equal(t, "5511999999999", payload.Data1)
	assert.Equal(t, "User: Oi\n", payload.Data2)

	assert.Equal(t, 1, f.ai.snapshot().closes)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, StateClosed, f.relay.State())
}

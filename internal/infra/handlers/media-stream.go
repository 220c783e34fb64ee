package handlers

import (
	"fmt"
	"net/http"

	Iservices "voice-connector/internal/domain/interfaces/services"
	"voice-connector/internal/infra/logger"
	"voice-connector/internal/infra/openai"
	"voice-connector/internal/infra/relay"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Twilio does not send a browser Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type MediaStreamHandler struct {
	Logger       *logger.Logger
	Store        Iservices.ISessionStore
	Notifier     Iservices.IWebhookNotifier
	Calls        Iservices.ICallController
	RelayConfig  relay.Config
	OpenAIKey    string
	Instructions string
}

func NewMediaStreamHandler(
	logger *logger.Logger,
	store Iservices.ISessionStore,
	notifier Iservices.IWebhookNotifier,
	calls Iservices.ICallController,
	relayConfig relay.Config,
	openAIKey, instructions string,
) *MediaStreamHandler {
	return &MediaStreamHandler{
		Logger:       logger,
		Store:        store,
		Notifier:     notifier,
		Calls:        calls,
		RelayConfig:  relayConfig,
		OpenAIKey:    openAIKey,
		Instructions: instructions,
	}
}

// MediaStream upgrades the Twilio connection and runs one relay for the
// lifetime of the call. The CallSid header is usually absent; the start
// frame fills it in later.
func (h *MediaStreamHandler) MediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error(fmt.Sprintf("Failed to upgrade media stream connection: %v", err))
		return
	}
	defer conn.Close()

	callSid := r.Header.Get("X-Twilio-Call-Sid")
	sessionKey := callSid
	if sessionKey == "" {
		sessionKey = "session_" + uuid.NewString()
	}

	h.Logger.Info("Client connected", logrus.Fields{"session": sessionKey})

	ai := openai.NewRealtimeClient(h.Logger, h.OpenAIKey, h.Instructions)
	mediaRelay := relay.NewMediaRelay(
		h.Logger, conn, ai,
		h.Store, h.Notifier, h.Calls,
		h.RelayConfig, sessionKey, callSid,
	)
	defer mediaRelay.Teardown()

	go func() {
		if err := ai.Connect(mediaRelay.HandleRealtimeEvent); err != nil {
			h.Logger.Error(fmt.Sprintf("Failed to connect to the Realtime API: %v", err))
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Warn(fmt.Sprintf("Media stream read ended: %v", err))
			}
			return
		}
		mediaRelay.HandleStreamMessage(raw)
	}
}

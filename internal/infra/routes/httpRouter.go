package routes

import (
	"encoding/json"
	"net/http"

	"voice-connector/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type Routes struct {
	Mux                *mux.Router
	HttpHandler        *handlers.HttpHandlers
	MediaStreamHandler *handlers.MediaStreamHandler
}

func NewRoutes(mux *mux.Router, httpHandler *handlers.HttpHandlers, mediaStreamHandler *handlers.MediaStreamHandler) *Routes {
	return &Routes{mux, httpHandler, mediaStreamHandler}
}

func (r *Routes) Init() {
	r.Mux.HandleFunc("/", r.HttpHandler.Root).Methods(http.MethodGet)

	r.Mux.HandleFunc("/healthCheck", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods(http.MethodGet)

	r.Mux.HandleFunc("/outgoing-call", r.HttpHandler.OutgoingCall).Methods(http.MethodPost)
	r.Mux.HandleFunc("/outgoing-call-twiml", r.HttpHandler.OutgoingCallTwiML)

	r.Mux.HandleFunc("/media-stream", r.MediaStreamHandler.MediaStream)
}

package handlers

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"voice-connector/internal/domain/dto"
	Iservices "voice-connector/internal/domain/interfaces/services"
	"voice-connector/internal/infra/logger"
)

type HttpHandlers struct {
	Logger *logger.Logger
	Calls  Iservices.ICallController
}

func NewHttpHandlers(logger *logger.Logger, calls Iservices.ICallController) *HttpHandlers {
	return &HttpHandlers{Logger: logger, Calls: calls}
}

func (h *HttpHandlers) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Twilio media stream server is running!"})
}

// OutgoingCall dials an outbound call. The call fetches its stream
// instructions from the TwiML route, which carries the greeting and the
// dialed number as query parameters.
func (h *HttpHandlers) OutgoingCall(w http.ResponseWriter, r *http.Request) {
	var request dto.OutgoingCallRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Error to process JSON", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if request.Number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}

	query := url.Values{}
	query.Set("firstMessage", request.FirstMessage)
	query.Set("number", request.Number)
	twimlURL := fmt.Sprintf("https://%s/outgoing-call-twiml?%s", r.Host, query.Encode())

	callSid, err := h.Calls.CreateCall(request.Number, twimlURL)
	if err != nil {
		http.Error(w, "Failed to initiate call", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.OutgoingCallResponse{
		Message: "Call initiated",
		CallSid: callSid,
	})
}

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string       `xml:"url,attr"`
	Parameters []twimlParam `xml:"Parameter"`
}

type twimlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// OutgoingCallTwiML answers Twilio's instruction fetch with a Stream
// verb pointing at the media stream route, passing the greeting and the
// caller number along as stream parameters.
func (h *HttpHandlers) OutgoingCallTwiML(w http.ResponseWriter, r *http.Request) {
	firstMessage := r.URL.Query().Get("firstMessage")
	if firstMessage == "" {
		firstMessage = "Olá, tudo bem?"
	}
	number := r.URL.Query().Get("number")
	if number == "" {
		number = "Unknown"
	}

	twiml := twimlResponse{
		Connect: twimlConnect{
			Stream: twimlStream{
				URL: fmt.Sprintf("wss://%s/media-stream", r.Host),
				Parameters: []twimlParam{
					{Name: "firstMessage", Value: firstMessage},
					{Name: "callerNumber", Value: number},
				},
			},
		},
	}

	body, err := xml.Marshal(twiml)
	if err != nil {
		h.Logger.Error(fmt.Sprintf("Failed to render TwiML: %v", err))
		http.Error(w, "Failed to render TwiML", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(xml.Header))
	w.Write(body)
}

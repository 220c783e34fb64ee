package dto

// TranscriptPayload is delivered to the transcript webhook when a call
// ends. Route discriminates the scenario on the receiving side.
type TranscriptPayload struct {
	Route string `json:"route"`
	Data1 string `json:"data1"`
	Data2 string `json:"data2"`
}

// BookingRequest is posted to the booking webhook when the model calls
// the book_service tool.
type BookingRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

type BookingResponse struct {
	Status         string `json:"status"`
	BookingMessage string `json:"bookingMessage"`
}

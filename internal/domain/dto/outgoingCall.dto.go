package dto

type OutgoingCallRequest struct {
	Number       string `json:"number"`
	FirstMessage string `json:"firstMessage"`
}

type OutgoingCallResponse struct {
	Message string `json:"message"`
	CallSid string `json:"callSid"`
}

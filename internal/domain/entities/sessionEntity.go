package entities

// Session is the transient per-call record. It is owned by exactly one
// media relay for the lifetime of one stream connection.
type Session struct {
	CallSid      string
	StreamSid    string
	CallerNumber string
	Transcript   string
}

// AppendAgentLine records one completed agent turn. The transcript is
// append-only, in completion order.
func (s *Session) AppendAgentLine(text string) {
	s.Transcript += "Agent: " + text + "\n"
}

// AppendUserLine records one completed user turn.
func (s *Session) AppendUserLine(text string) {
	s.Transcript += "User: " + text + "\n"
}

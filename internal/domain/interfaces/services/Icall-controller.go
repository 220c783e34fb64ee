package Iservices

type ICallController interface {
	CreateCall(to, twimlURL string) (string, error)
	EndCall(callSid string) error
}

package Iservices

// IWebhookNotifier posts a JSON payload to a destination URL and returns
// the raw response body. Non-2xx responses surface as errors; the caller
// decides whether that is fatal.
type IWebhookNotifier interface {
	Send(payload interface{}, webhookURL string) (string, error)
}

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voice-connector/internal/infra/logger"
)

type WebhookNotifier struct {
	Logger     *logger.Logger
	HttpClient *http.Client
}

func NewWebhookNotifier(logger *logger.Logger, httpClient *http.Client) *WebhookNotifier {
	return &WebhookNotifier{Logger: logger, HttpClient: httpClient}
}

// Send posts the payload as JSON to webhookURL and returns the raw
// response body on HTTP success.
func (wn *WebhookNotifier) Send(payload interface{}, webhookURL string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		wn.Logger.Error(fmt.Sprintf("Failed to marshal webhook payload %v", err))
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		wn.Logger.Error(fmt.Sprintf("Failed to create HTTP request %v", err))
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := wn.HttpClient.Do(req)
	if err != nil {
		wn.Logger.Error(fmt.Sprintf("HTTP request failed %v", err))
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(res.Body)
		wn.Logger.Error(fmt.Sprintf("Unexpected HTTP status %s response_body %s", res.Status, string(responseBody)))
		return "", fmt.Errorf("webhook request failed: %s", res.Status)
	}

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		wn.Logger.Error(fmt.Sprintf("Failed to read response body %v", err))
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(responseBody), nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const linePushEndpoint = "https://api.line.me/v2/bot/message/push"

// LineSink delivers plain-text messages through the LINE Messaging API push
// endpoint.
type LineSink struct {
	token    string
	endpoint string
	client   *http.Client
}

func NewLineSink(token string) *LineSink {
	return &LineSink{
		token:    token,
		endpoint: linePushEndpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Push sends one text message to one recipient id.
func (l *LineSink) Push(ctx context.Context, recipient string, message string) error {
	payload := map[string]interface{}{
		"to": recipient,
		"messages": []map[string]string{
			{"type": "text", "text": message},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line push failed for %s: status=%d body=%s", recipient, resp.StatusCode, string(detail))
	}
	return nil
}

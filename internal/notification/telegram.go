package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier delivers trade alerts to a Telegram chat through the
// Bot API. Messages go out as HTML: alert text carries rupee symbols,
// option symbols, and bracket levels, and HTML needs no escaping beyond
// the three entities, unlike MarkdownV2.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and
// target chat ID.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPI,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// sendMessageResponse is the slice of the Bot API envelope we act on.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the alert to the chat. The title is bolded and prefixed
// with a severity marker; entry/exit details arrive in the message body
// preformatted by the executor.
func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     formatAlert(alert),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram: api rejected message (status %d): %s", resp.StatusCode, out.Description)
	}

	log.Printf("[telegram] delivered: %s", alert.Title)
	return nil
}

// formatAlert renders the alert as a two-line HTML message with a
// severity marker.
func formatAlert(alert Alert) string {
	marker := "ℹ️"
	switch alert.Level {
	case AlertWarning:
		marker = "⚠️"
	case AlertCritical:
		marker = "🚨"
	}
	return fmt.Sprintf("%s <b>%s</b>\n%s",
		marker, html.EscapeString(alert.Title), html.EscapeString(alert.Message))
}

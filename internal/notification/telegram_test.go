package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramNotifier_SendsFormattedMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/botTOKEN/sendMessage") {
			t.Errorf("path = %q, want /botTOKEN/sendMessage", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.baseURL = srv.URL

	err := n.Send(context.Background(), Alert{
		Level:   AlertCritical,
		Title:   "Exit order failed",
		Message: "SELL NIFTY26200CE x75: timeout",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["chat_id"] != "42" {
		t.Errorf("chat_id = %v, want 42", got["chat_id"])
	}
	if got["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %v, want HTML", got["parse_mode"])
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, "🚨") || !strings.Contains(text, "<b>Exit order failed</b>") {
		t.Errorf("text = %q, want marker and bolded title", text)
	}
	if !strings.Contains(text, "NIFTY26200CE") {
		t.Errorf("text = %q, want the option symbol in the body", text)
	}
}

func TestTelegramNotifier_APIRejectionSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "0")
	n.baseURL = srv.URL

	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m"})
	if err == nil {
		t.Fatal("expected an error on ok=false")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want the API description included", err)
	}
}

func TestFormatAlert_EscapesHTML(t *testing.T) {
	text := formatAlert(Alert{
		Level:   AlertInfo,
		Title:   "Position opened",
		Message: "entry < stop & target > entry",
	})
	if strings.Contains(text, "< stop") || strings.Contains(text, "& target") {
		t.Errorf("text = %q, want angle brackets and ampersands escaped", text)
	}
	if !strings.Contains(text, "&lt; stop") || !strings.Contains(text, "&amp; target") {
		t.Errorf("text = %q, want HTML entities in the body", text)
	}
}

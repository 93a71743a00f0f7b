package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okEnvelope(result any) []byte {
	data, _ := json.Marshal(map[string]any{"ok": true, "result": result})
	return data
}

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.Write(okEnvelope(map[string]any{"message_id": 1}))
	}))
	defer srv.Close()

	client := New(Config{Token: "123:abc", BaseURL: srv.URL})

	if err := client.SendMessage(context.Background(), 42, "hello", 7); err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != float64(42) {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if gotPayload["text"] != "hello" {
		t.Errorf("text = %v", gotPayload["text"])
	}
	if gotPayload["reply_to_message_id"] != float64(7) {
		t.Errorf("reply_to_message_id = %v", gotPayload["reply_to_message_id"])
	}
}

func TestClient_SendMessageNoReply(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write(okEnvelope(map[string]any{"message_id": 1}))
	}))
	defer srv.Close()

	client := New(Config{Token: "t0ken", BaseURL: srv.URL})

	if err := client.SendMessage(context.Background(), 42, "hi", 0); err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if _, present := gotPayload["reply_to_message_id"]; present {
		t.Error("reply_to_message_id should be omitted when zero")
	}
}

func TestClient_SendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user",
		})
	}))
	defer srv.Close()

	client := New(Config{Token: "t0ken", BaseURL: srv.URL})

	err := client.SendMessage(context.Background(), 42, "hi", 0)
	if err == nil {
		t.Fatal("expected error for ok:false response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "blocked by the user") {
		t.Errorf("error should carry code and description, got %v", err)
	}
}

func TestClient_SendPhoto(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bott0ken/sendPhoto" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "-100" {
			t.Errorf("chat_id = %q", got)
		}
		if got := r.FormValue("reply_to_message_id"); got != "5" {
			t.Errorf("reply_to_message_id = %q", got)
		}
		file, _, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("photo file: %v", err)
		}
		defer file.Close()
		buf := make([]byte, len(payload))
		file.Read(buf)
		if string(buf) != string(payload) {
			t.Error("photo bytes were mangled in transit")
		}
		w.Write(okEnvelope(map[string]any{"message_id": 2}))
	}))
	defer srv.Close()

	client := New(Config{Token: "t0ken", BaseURL: srv.URL})

	if err := client.SendPhoto(context.Background(), -100, payload, 5); err != nil {
		t.Fatalf("SendPhoto() error: %v", err)
	}
}

func TestClient_LookupGroupTitle(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bott0ken/getChat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write(okEnvelope(Chat{ID: -200, Type: ChatTypeSupergroup, Title: "Gophers"}))
	}))
	defer srv.Close()

	client := New(Config{Token: "t0ken", BaseURL: srv.URL})

	title, err := client.LookupGroupTitle(context.Background(), -200)
	if err != nil {
		t.Fatalf("LookupGroupTitle() error: %v", err)
	}
	if title != "Gophers" {
		t.Errorf("title = %q, want Gophers", title)
	}
	if gotPayload["chat_id"] != float64(-200) {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
}

func TestClient_GetUpdates(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write(okEnvelope([]Update{
			{UpdateID: 100, Message: &Message{
				MessageID: 1,
				Chat:      Chat{ID: 42, Type: ChatTypePrivate, FirstName: "Ann"},
				Text:      "hello",
			}},
			{UpdateID: 101},
		}))
	}))
	defer srv.Close()

	client := New(Config{Token: "t0ken", BaseURL: srv.URL})

	updates, err := client.GetUpdates(context.Background(), 99, 60)
	if err != nil {
		t.Fatalf("GetUpdates() error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "hello" {
		t.Errorf("first update message = %+v", updates[0].Message)
	}
	if updates[1].Message != nil {
		t.Error("second update should carry no message")
	}
	if gotPayload["offset"] != float64(99) {
		t.Errorf("offset = %v", gotPayload["offset"])
	}
	if gotPayload["timeout"] != float64(60) {
		t.Errorf("timeout = %v", gotPayload["timeout"])
	}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_CompleteSuccess(t *testing.T) {
	var gotReq completionWireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello back"}},
			},
		})
	}))
	defer srv.Close()

	client := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	reply, err := client.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hello"}},
		Temperature: 1.5,
		MaxTokens:   1024,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("Complete() = %q, want %q", reply, "hello back")
	}

	if gotReq.Model != "gpt-3.5-turbo" {
		t.Errorf("default model not applied: %q", gotReq.Model)
	}
	if gotReq.Temperature != 1.5 {
		t.Errorf("temperature not forwarded: %v", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 1024 {
		t.Errorf("max tokens not forwarded: %d", gotReq.MaxTokens)
	}
}

func TestClient_CompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", "Tue, 14 Mar 2023 12:00:00 GMT")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "The server had an error", "type": "server_error"},
		})
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Op != "completion" {
		t.Errorf("Op = %q, want completion", apiErr.Op)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if apiErr.Message != "The server had an error" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Timestamp != "Tue, 14 Mar 2023 12:00:00 GMT" {
		t.Errorf("Timestamp = %q", apiErr.Timestamp)
	}
}

func TestClient_CompleteConnectionError(t *testing.T) {
	// A server that is already closed leaves nothing listening on its port.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("connection failures must be *APIError, got %T: %v", err, err)
	}
	if apiErr.Op != "completion" {
		t.Errorf("Op = %q, want completion", apiErr.Op)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failures", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Error("Message should carry the transport error text")
	}
}

func TestClient_FetchImageConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{APIKey: "k"})

	_, err := client.FetchImage(context.Background(), srv.URL+"/img.png")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("connection failures must be *APIError, got %T: %v", err, err)
	}
	if apiErr.Op != "image" || apiErr.StatusCode != 0 {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestClient_CompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("empty choices should not be an APIError, got %v", apiErr)
	}
}

func TestClient_GenerateImageSuccess(t *testing.T) {
	var gotReq imageWireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "https://images.example/abc.png"}},
		})
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k", BaseURL: srv.URL})

	url, err := client.GenerateImage(context.Background(), "a red fox", SizeMedium, 1)
	if err != nil {
		t.Fatalf("GenerateImage() error: %v", err)
	}
	if url != "https://images.example/abc.png" {
		t.Errorf("GenerateImage() = %q", url)
	}

	if gotReq.Prompt != "a red fox" || gotReq.N != 1 || gotReq.Size != "512x512" {
		t.Errorf("unexpected wire request: %+v", gotReq)
	}
}

func TestClient_GenerateImageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", "Wed, 15 Mar 2023 09:30:00 GMT")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Your request was rejected", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := client.GenerateImage(context.Background(), "prompt", SizeMedium, 1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Op != "image" || apiErr.StatusCode != 400 {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if apiErr.Timestamp == "" {
		t.Error("expected Date header captured in Timestamp")
	}
}

func TestClient_FetchImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k"})

	data, err := client.FetchImage(context.Background(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("FetchImage() error: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("FetchImage() returned wrong bytes")
	}
}

func TestClient_FetchImageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := New(Config{APIKey: "k"})

	_, err := client.FetchImage(context.Background(), srv.URL+"/missing.png")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

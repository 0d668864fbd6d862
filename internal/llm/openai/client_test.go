package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/plugin"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error when api key is missing")
	}
}

func TestSendSuccess(t *testing.T) {
	var captured struct {
		Authorization string
		Body          map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		captured.Authorization = r.Header.Get("Authorization")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": " 你好 "}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL + "/", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	reply, err := client.Send(context.Background(), "测试", plugin.SendOptions{Temperature: 0.7, MaxTokens: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "你好" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.HasPrefix(captured.Authorization, "Bearer ") {
		t.Fatalf("authorization header missing: %q", captured.Authorization)
	}
	if captured.Body["model"] != defaultModelName || captured.Body["max_tokens"] != float64(200) || captured.Body["temperature"] != 0.7 {
		t.Fatalf("unexpected request body: %+v", captured.Body)
	}
}

func TestSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	_, err = client.Send(context.Background(), "hi", plugin.SendOptions{})
	if xerrors.CodeOf(err) != xerrors.CodeProviderFailure {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/models" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "gpt-b"}, {"id": "gpt-a"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{Name: "primary", APIKey: "test", BaseURL: srv.URL, Model: "gpt-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if strings.Join(models, ",") != "gpt-a,gpt-b" {
		t.Fatalf("unexpected models: %v", models)
	}
	if model, _ := plugin.DefaultModel(context.Background(), client); model != "gpt-b" || client.Name() != "primary" {
		t.Fatalf("unexpected default model %q", model)
	}
}

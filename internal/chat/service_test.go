package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReplySendsSystemPromptAndHistory(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Prueba Portal 2"}}]}`))
	}))
	defer server.Close()

	svc := NewService(server.Client(), server.URL, "test-key", "deepseek-chat")

	history := []Message{
		{Role: "assistant", Content: Greeting},
		{Role: "system", Content: "injected"},
		{Role: "user", Content: "algo de puzzles"},
	}

	reply, err := svc.Reply(context.Background(), []string{"Team Fortress 2", "Portal"}, history)
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if reply != "Prueba Portal 2" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if captured.Model != "deepseek-chat" || captured.Temperature != 0.7 || captured.MaxTokens != 500 {
		t.Fatalf("unexpected request parameters: %+v", captured)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("expected system + 2 turns (client system turns dropped), got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || !strings.Contains(captured.Messages[0].Content, "Team Fortress 2, Portal") {
		t.Fatalf("expected liked games embedded in system prompt, got %q", captured.Messages[0].Content)
	}
	if captured.Messages[2].Content != "algo de puzzles" {
		t.Fatalf("expected user turn last, got %+v", captured.Messages[2])
	}
}

func TestSystemPromptWithoutFavorites(t *testing.T) {
	prompt := systemPrompt(nil)
	if !strings.Contains(prompt, "ninguno aún") {
		t.Fatalf("expected empty-favorites placeholder, got %q", prompt)
	}
}

func TestReplySurfacesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(server.Client(), server.URL, "test-key", "deepseek-chat")

	_, err := svc.Reply(context.Background(), nil, []Message{{Role: "user", Content: "hola"}})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestReplyRejectsEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc := NewService(server.Client(), server.URL, "test-key", "deepseek-chat")

	_, err := svc.Reply(context.Background(), nil, []Message{{Role: "user", Content: "hola"}})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestReplyWhenDisabled(t *testing.T) {
	svc := NewService(nil, "https://api.deepseek.com/v1", "", "deepseek-chat")

	if svc.Enabled() {
		t.Fatal("expected service without key to be disabled")
	}
	if _, err := svc.Reply(context.Background(), nil, nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

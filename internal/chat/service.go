package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrDisabled is returned when no chat upstream is configured.
var ErrDisabled = errors.New("recommendation chat is not configured")

// ErrUpstream is returned for any transport failure, non-2xx response, or
// malformed body from the chat-completion API. No retry is attempted.
var ErrUpstream = errors.New("chat completion failed")

// Apology is the fixed assistant reply shown when the upstream call fails.
const Apology = "Lo siento, hubo un error al procesar tu mensaje. Por favor intenta de nuevo."

// Greeting opens every fresh conversation.
const Greeting = "¿No sabes qué jugar? 🎮\n\nCuéntame qué tipo de experiencia buscas y te recomendaré juegos basándome en tus favoritos."

// Message is one turn of a conversation. Conversations live only in the page
// view; the client resends the full history with each request.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

const (
	defaultTimeout = 60 * time.Second

	temperature = 0.7
	maxTokens   = 500
)

// Service sends recommendation conversations to an OpenAI-compatible
// chat-completions endpoint.
type Service struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewService constructs a Service. An empty apiKey disables the chat.
func NewService(client *http.Client, baseURL, apiKey, model string) *Service {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Service{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

// Enabled reports whether an upstream is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.apiKey != "" && s.baseURL != ""
}

// systemPrompt embeds the caller's current liked games as recommendation context.
func systemPrompt(likedNames []string) string {
	games := strings.Join(likedNames, ", ")
	if games == "" {
		games = "ninguno aún"
	}

	return `Eres un asistente experto en recomendaciones de videojuegos.

El usuario tiene los siguientes juegos favoritos: ` + games + `.

INSTRUCCIONES:
- Recomienda juegos similares o que complementen sus favoritos
- Si pregunta por géneros específicos, sugiere juegos de ese género considerando sus gustos
- Si pregunta por historias, enfócate en narrativa y experiencias similares
- Sé conciso, amigable y entusiasta
- Menciona por qué crees que le gustará cada recomendación
- Limita tus respuestas a 3-5 recomendaciones por mensaje
- Si no tiene favoritos, pide más información sobre sus gustos

Responde siempre en español de manera casual y cercana.`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Reply sends one request carrying the system instruction plus the full turn
// history and returns the assistant's answer.
func (s *Service) Reply(ctx context.Context, likedNames []string, history []Message) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	messages := make([]completionMessage, 0, len(history)+1)
	messages = append(messages, completionMessage{Role: "system", Content: systemPrompt(likedNames)})
	for _, turn := range history {
		if turn.Role == "system" {
			continue
		}
		messages = append(messages, completionMessage{Role: turn.Role, Content: turn.Content})
	}

	body, err := json.Marshal(completionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: upstream returned status %d", ErrUpstream, resp.StatusCode)
	}

	var payload completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	return payload.Choices[0].Message.Content, nil
}

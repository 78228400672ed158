package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	historyTurns    = 10
	maxLLMBodyBytes = 1 << 20
)

var ErrEmptyCompletion = errors.New("llm returned no content")

const systemPrompt = `You are the assistant of a Philippine barangay (village) hall.
Answer questions about barangay services, documents, blotter procedures, emergency preparedness and community events.
Be brief and polite. Reply in the language the user writes in (English, Filipino or Taglish).
If you do not know a barangay-specific fact, say so and suggest contacting the barangay office. Never invent names, fees or phone numbers.`

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMClient calls an OpenAI-compatible chat-completions endpoint once per
// question, without streaming or retries.
type LLMClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewLLMClient(c Config) *LLMClient {
	return &LLMClient{
		apiKey:   c.APIKey,
		model:    c.Model,
		endpoint: c.Endpoint,
		client:   &http.Client{Timeout: c.Timeout},
	}
}

// Complete sends the system prompt, recent history and the question.
func (c *LLMClient) Complete(ctx context.Context, history []Message, question string) (string, error) {
	msgs := []Message{{Role: "system", Content: systemPrompt}}
	msgs = append(msgs, recentHistory(history)...)
	msgs = append(msgs, Message{Role: "user", Content: question})

	payload, err := json.Marshal(completionRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLLMBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out completionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// recentHistory keeps the last user/assistant turns.
func recentHistory(h []Message) []Message {
	var out []Message
	for _, m := range h {
		if (m.Role == "user" || m.Role == "assistant") && strings.TrimSpace(m.Content) != "" {
			out = append(out, m)
		}
	}
	if len(out) > historyTurns {
		out = out[len(out)-historyTurns:]
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Completer produces an answer from a language model.
type Completer interface {
	Complete(ctx context.Context, history []Message, question string) (string, error)
}

// LLMStage asks the language model. A nil completer disables it.
type LLMStage struct {
	llm Completer
}

func NewLLMStage(llm Completer) *LLMStage { return &LLMStage{llm: llm} }

func (s *LLMStage) Name() string { return "llm" }

func (s *LLMStage) Handle(ctx context.Context, q Query) (*Reply, error) {
	if s.llm == nil {
		return nil, nil
	}
	text, err := s.llm.Complete(ctx, q.History, q.Text)
	if err != nil {
		return nil, err
	}
	return &Reply{Message: text, Source: SourceAI, Category: "general"}, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DeepSeekProvider implements Provider against DeepSeek's OpenAI-compatible
// chat completions endpoint. It is the CLI's default provider, with
// GeminiProvider as the alternative; the Extractor and Analyst see either
// only through Provider. One provider is chosen per process; there is no
// automatic failover from one vendor to the other.
type DeepSeekProvider struct {
	APIKey string
	Model  string
}

var _ Provider = (*DeepSeekProvider)(nil)

type deepSeekRequest struct {
	Messages       []deepSeekMessage   `json:"messages"`
	Model          string              `json:"model"`
	Thinking       *deepSeekThinking   `json:"thinking,omitempty"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat deepSeekResponseFmt `json:"response_format"`
	Stream         bool                `json:"stream"`
	Temperature    float64             `json:"temperature"`
	TopP           float64             `json:"top_p"`
}

type deepSeekMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type deepSeekThinking struct {
	Type string `json:"type"`
}

type deepSeekResponseFmt struct {
	Type string `json:"type"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate posts a single chat-completion request to the DeepSeek API and
// returns the first choice's message content. Non-2xx responses are wrapped
// with NewHTTPStatusError so CallWithRetry can route 5xx/429 to KindTransient.
func (p *DeepSeekProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("llm: deepseek provider requires an API key")
	}

	model := p.Model
	if model == "" {
		model = "deepseek-chat"
	}

	reqBody := deepSeekRequest{
		Messages: []deepSeekMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Model:          model,
		Thinking:       &deepSeekThinking{Type: "disabled"},
		MaxTokens:      4096,
		ResponseFormat: deepSeekResponseFmt{Type: "json_object"},
		Stream:         false,
		Temperature:    0.1,
		TopP:           1.0,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("deepseek: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.deepseek.com/chat/completions", bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepseek: read response: %w", err)
	}

	if statusErr := classifyHTTPResponse(resp, body); statusErr != nil {
		return "", statusErr
	}

	var parsed deepSeekResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("deepseek: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("deepseek: response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

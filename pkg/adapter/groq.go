package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zen-systems/proofgate/pkg/artifact"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqAdapter implements the Adapter interface for Groq-hosted models.
// Groq exposes an OpenAI-compatible API and serves as the fallback provider
// when no Google API key is configured.
type GroqAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// groqRequest represents the OpenAI-compatible request format.
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int64         `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
}

// groqMessage represents a chat message.
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// groqResponse represents the OpenAI-compatible response format.
type groqResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewGroqAdapter creates a new Groq adapter.
func NewGroqAdapter(apiKey string) (*GroqAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	return &GroqAdapter{
		apiKey:     apiKey,
		baseURL:    groqBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name returns the adapter identifier.
func (a *GroqAdapter) Name() string {
	return "groq"
}

// Models returns the list of supported Groq models.
func (a *GroqAdapter) Models() []string {
	return []string{
		"llama-3.3-70b-versatile",
		"llama-3.1-8b-instant",
	}
}

// Generate sends a prompt to Groq and returns the completion.
func (a *GroqAdapter) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (*Response, error) {
	reqBody := groqRequest{
		Model: model,
		Messages: []groqMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   opts.maxTokens(),
		Temperature: opts.Temperature,
		TopP:        0.95,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var groqResp groqResponse
	if err := json.Unmarshal(body, &groqResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if groqResp.Error != nil {
		return nil, &AdapterError{
			Status: resp.StatusCode,
			Err: fmt.Errorf("groq API error: %s (type: %s, code: %s)",
				groqResp.Error.Message, groqResp.Error.Type, groqResp.Error.Code),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AdapterError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq returned no choices")
	}

	content := groqResp.Choices[0].Message.Content
	return &Response{
		Artifact: artifact.New(content, a.Name(), model, prompt),
		Usage: &Usage{
			PromptTokens:     groqResp.Usage.PromptTokens,
			CompletionTokens: groqResp.Usage.CompletionTokens,
			TotalTokens:      groqResp.Usage.TotalTokens,
		},
	}, nil
}

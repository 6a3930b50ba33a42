package adapter

import (
	"context"

	"github.com/zen-systems/proofgate/pkg/artifact"
)

// Adapter defines the interface for LLM provider adapters. Reasoning
// capabilities talk to providers only through this interface; everything a
// capability needs to normalize (bad JSON, refusals, transport failures) is
// surfaced as plain errors or raw artifact content.
type Adapter interface {
	// Generate sends a prompt to the model and returns the completion.
	Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// GenerateOptions carries per-call sampling settings. The reasoning
// capabilities run near-deterministic, so temperature defaults low.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int64
}

const defaultMaxTokens = 2048

func (o GenerateOptions) maxTokens() int64 {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps an adapter output and optional usage data.
type Response struct {
	Artifact *artifact.Artifact
	Usage    *Usage
}

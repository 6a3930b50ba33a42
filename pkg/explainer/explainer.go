// Package explainer implements the explaining capability. It annotates an
// already-admitted solution for a student audience and is forbidden from
// changing the answer or the steps: a non-compliant model yields an empty
// explanation, never an altered solution.
package explainer

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/schema"
)

const explainerTemperature = 0.2

// Explainer is the explaining capability backed by an LLM adapter.
type Explainer struct {
	adapter adapter.Adapter
	model   string
}

// New creates an explaining capability.
func New(a adapter.Adapter, model string) *Explainer {
	return &Explainer{adapter: a, model: model}
}

// explainerOutput is the strict JSON shape the explaining model must return.
type explainerOutput struct {
	Explanation    []string `json:"explanation"`
	KeyConcepts    []string `json:"key_concepts"`
	CommonMistakes []string `json:"common_mistakes"`
}

// Explain annotates the candidate's steps one-to-one. The explanation is
// always non-nil; when the model's output does not line up with the steps
// it is discarded and an empty explanation is returned with a diagnostic
// error. Explanation is best-effort and never blocks a run.
func (e *Explainer) Explain(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Explanation, error) {
	if candidate == nil || candidate.Status != schema.CandidateSolved {
		return &schema.Explanation{}, fmt.Errorf("explain called without a solved candidate")
	}

	prompt := buildExplainerPrompt(problem, candidate)
	resp, err := e.adapter.Generate(ctx, e.model, prompt, adapter.GenerateOptions{Temperature: explainerTemperature})
	if err != nil {
		return &schema.Explanation{}, fmt.Errorf("explainer call failed: %w", err)
	}
	if resp == nil || resp.Artifact == nil {
		return &schema.Explanation{}, fmt.Errorf("explainer returned empty response")
	}

	var out explainerOutput
	if err := adapter.DecodeJSON(resp.Artifact.Content, &out); err != nil {
		return &schema.Explanation{}, fmt.Errorf("explainer response invalid: %w", err)
	}

	if len(out.Explanation) != len(candidate.Steps) {
		return &schema.Explanation{}, fmt.Errorf("explainer returned %d annotations for %d steps",
			len(out.Explanation), len(candidate.Steps))
	}

	return &schema.Explanation{
		PerStep:        out.Explanation,
		KeyConcepts:    out.KeyConcepts,
		CommonMistakes: out.CommonMistakes,
	}, nil
}

func buildExplainerPrompt(problem *schema.ProblemInput, candidate *schema.Candidate) string {
	var b strings.Builder
	b.WriteString("You are a patient math tutor. Explain a verified solution to a student.\n")
	b.WriteString("Do NOT change the answer or the steps; only explain them.\n\n")
	fmt.Fprintf(&b, "Problem: %s\n\n", problem.ProblemText)
	fmt.Fprintf(&b, "Final answer: %s\n", candidate.FinalAnswer)
	b.WriteString("Steps:\n")
	for i, step := range candidate.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	fmt.Fprintf(&b, `
Respond with ONLY a JSON object, no prose and no code fences:
{"explanation": ["<why step 1 works>", ...], "key_concepts": ["<concept>", ...], "common_mistakes": ["<mistake>", ...]}

explanation must contain exactly %d entries, one per step, in order.`, len(candidate.Steps))
	return b.String()
}

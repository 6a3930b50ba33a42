// Package verifier implements the verifying capability: an independent
// correctness check of a candidate solution. It fails closed: any model
// failure or contract violation yields an uncertain, review-requiring
// verification rather than a silent pass.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/schema"
)

const verifierTemperature = 0.1

// Verifier is the verifying capability backed by an LLM adapter.
type Verifier struct {
	adapter   adapter.Adapter
	model     string
	threshold float64
}

// New creates a verifying capability. The threshold is the same confidence
// threshold the admission gate uses; verifications below it are flagged for
// review at the source.
func New(a adapter.Adapter, model string, threshold float64) *Verifier {
	return &Verifier{adapter: a, model: model, threshold: threshold}
}

// verifierOutput is the strict JSON shape the verifying model must return.
type verifierOutput struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Issues     []string `json:"issues"`
}

// Verify judges the candidate against the problem. The verification is
// always non-nil; the error is diagnostic only. NeedsReview is derived
// here from the verdict and confidence, never taken from the model.
func (v *Verifier) Verify(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Verification, error) {
	if candidate == nil || candidate.Status != schema.CandidateSolved {
		return uncertain("no solved candidate to verify"), fmt.Errorf("verify called without a solved candidate")
	}

	prompt := buildVerifierPrompt(problem, candidate)
	resp, err := v.adapter.Generate(ctx, v.model, prompt, adapter.GenerateOptions{Temperature: verifierTemperature})
	if err != nil {
		return uncertain("verifier model call failed"), fmt.Errorf("verifier call failed: %w", err)
	}
	if resp == nil || resp.Artifact == nil {
		return uncertain("verifier returned empty response"), fmt.Errorf("verifier returned empty response")
	}

	var out verifierOutput
	if err := adapter.DecodeJSON(resp.Artifact.Content, &out); err != nil {
		return uncertain("verifier did not return valid JSON"), fmt.Errorf("verifier response invalid: %w", err)
	}

	return v.normalize(&out), nil
}

// normalize maps raw model output onto the closed verification contract:
// unknown verdicts become uncertain, missing or out-of-range confidence
// becomes 0.0, and NeedsReview is recomputed from scratch.
func (v *Verifier) normalize(out *verifierOutput) *schema.Verification {
	verification := &schema.Verification{}

	verdict := schema.Verdict(strings.ToLower(strings.TrimSpace(out.Verdict)))
	if !verdict.Valid() {
		verdict = schema.VerdictUncertain
		verification.Issues = append(verification.Issues, fmt.Sprintf("verifier returned unknown verdict %q", out.Verdict))
	}
	verification.Verdict = verdict

	if out.Confidence == nil {
		verification.Issues = append(verification.Issues, "verifier confidence missing")
	} else {
		verification.Confidence = *out.Confidence
		if !verification.ConfidenceValid() {
			verification.Issues = append(verification.Issues, "verifier confidence out of range")
			verification.Confidence = 0.0
		}
	}

	for _, issue := range out.Issues {
		if issue = strings.TrimSpace(issue); issue != "" {
			verification.Issues = append(verification.Issues, issue)
		}
	}

	verification.NeedsReview = verification.Verdict != schema.VerdictCorrect ||
		verification.Confidence < v.threshold
	return verification
}

// uncertain is the fail-closed verification: uncertain verdict, zero
// confidence, review required.
func uncertain(issue string) *schema.Verification {
	return &schema.Verification{
		Verdict:     schema.VerdictUncertain,
		Confidence:  0.0,
		Issues:      []string{issue},
		NeedsReview: true,
	}
}

func buildVerifierPrompt(problem *schema.ProblemInput, candidate *schema.Candidate) string {
	var b strings.Builder
	b.WriteString("You are a strict math verifier. Check the proposed solution for correctness.\n")
	b.WriteString("Re-derive the answer independently; do not trust the shown steps.\n\n")
	fmt.Fprintf(&b, "Problem: %s\n\n", problem.ProblemText)
	fmt.Fprintf(&b, "Proposed final answer: %s\n", candidate.FinalAnswer)
	b.WriteString("Proposed steps:\n")
	for i, step := range candidate.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if len(candidate.UsedTools) > 0 {
		fmt.Fprintf(&b, "Tools reported: %s\n", strings.Join(candidate.UsedTools, ", "))
	}
	b.WriteString(`
Respond with ONLY a JSON object, no prose and no code fences:
{"verdict": "correct" | "incorrect" | "uncertain", "confidence": <0.0-1.0>, "issues": ["<issue>", ...]}

Use "uncertain" whenever you cannot fully re-derive the answer. issues lists
every flaw found; leave it empty only for a clean solution.`)
	return b.String()
}

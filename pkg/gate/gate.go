// Package gate implements the confidence gate: the single decision point
// between automated verification and mandatory human review.
package gate

import (
	"fmt"

	"github.com/zen-systems/proofgate/pkg/schema"
)

// Decision is the gate's verdict on a verification.
type Decision string

const (
	// Pass admits the candidate to the explaining stage.
	Pass Decision = "PASS"
	// Review suspends the run for human review.
	Review Decision = "REVIEW"
)

// Result contains the outcome of a gate evaluation.
type Result struct {
	Decision Decision `json:"decision"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Passed reports whether the gate admitted the candidate.
func (r *Result) Passed() bool {
	return r != nil && r.Decision == Pass
}

// Admit decides PASS or REVIEW for a verification. PASS requires a correct
// verdict, a well-formed confidence at or above the threshold, and no review
// flag; every other combination fails toward human review.
func Admit(v *schema.Verification, threshold float64) *Result {
	if v == nil {
		return review("no verification available")
	}
	if !v.ConfidenceValid() {
		return review(fmt.Sprintf("confidence %v outside [0, 1]", v.Confidence))
	}

	var reasons []string
	if v.Verdict != schema.VerdictCorrect {
		reasons = append(reasons, fmt.Sprintf("verdict is %q", v.Verdict))
	}
	if v.Confidence < threshold {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below threshold %.2f", v.Confidence, threshold))
	}
	if v.NeedsReview {
		reasons = append(reasons, "verifier flagged for review")
	}

	if len(reasons) > 0 {
		return &Result{Decision: Review, Reasons: reasons}
	}
	return &Result{Decision: Pass}
}

func review(reason string) *Result {
	return &Result{Decision: Review, Reasons: []string{reason}}
}

package schema

import (
	"fmt"
	"math"
	"strings"
)

// Route identifies the solver route a problem is classified into.
type Route string

const (
	RouteAlgebraEquation      Route = "algebra_equation"
	RouteProbabilityBasic     Route = "probability_basic"
	RouteCalculusLimit        Route = "calculus_limit"
	RouteCalculusDerivative   Route = "calculus_derivative"
	RouteCalculusOptimization Route = "calculus_optimization"
	RouteLinearAlgebraBasic   Route = "linear_algebra_basic"
	RouteOutOfScope           Route = "out_of_scope"
)

// Routes lists every valid route, out_of_scope included.
var Routes = []Route{
	RouteAlgebraEquation,
	RouteProbabilityBasic,
	RouteCalculusLimit,
	RouteCalculusDerivative,
	RouteCalculusOptimization,
	RouteLinearAlgebraBasic,
	RouteOutOfScope,
}

// Valid reports whether the route is part of the closed route set.
func (r Route) Valid() bool {
	for _, known := range Routes {
		if r == known {
			return true
		}
	}
	return false
}

// Difficulty is a rough estimate attached by the routing capability.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// Valid reports whether the difficulty is one of the known values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUnknown:
		return true
	default:
		return false
	}
}

// ProblemInput is the immutable input to a pipeline run.
type ProblemInput struct {
	ProblemText      string   `json:"problem_text"`
	Topic            string   `json:"topic,omitempty"`
	Variables        []string `json:"variables,omitempty"`
	Constraints      []string `json:"constraints,omitempty"`
	RetrievedContext []string `json:"retrieved_context,omitempty"`
}

// Validate checks the input satisfies the run preconditions.
func (p *ProblemInput) Validate() error {
	if p == nil {
		return fmt.Errorf("problem input required")
	}
	if strings.TrimSpace(p.ProblemText) == "" {
		return fmt.Errorf("problem_text required")
	}
	return nil
}

// WithText returns a copy of the input carrying replacement problem text.
// Used by the edit_problem review action; the original input is never mutated.
func (p *ProblemInput) WithText(text string) *ProblemInput {
	edited := p.Clone()
	edited.ProblemText = text
	return edited
}

// Clone returns a deep copy of the input.
func (p *ProblemInput) Clone() *ProblemInput {
	if p == nil {
		return nil
	}
	return &ProblemInput{
		ProblemText:      p.ProblemText,
		Topic:            p.Topic,
		Variables:        append([]string(nil), p.Variables...),
		Constraints:      append([]string(nil), p.Constraints...),
		RetrievedContext: append([]string(nil), p.RetrievedContext...),
	}
}

// RouteDecision is the routing capability's output, produced once per run.
type RouteDecision struct {
	Route        Route      `json:"route"`
	Difficulty   Difficulty `json:"difficulty"`
	ToolsAllowed []string   `json:"tools_allowed"`
}

// Allows reports whether the decision grants the named tool.
func (d *RouteDecision) Allows(tool string) bool {
	if d == nil {
		return false
	}
	for _, allowed := range d.ToolsAllowed {
		if allowed == tool {
			return true
		}
	}
	return false
}

// Validate checks the decision against the closed route and difficulty sets.
func (d *RouteDecision) Validate() error {
	if d == nil {
		return fmt.Errorf("route decision required")
	}
	if !d.Route.Valid() {
		return fmt.Errorf("route %q not in valid route set", d.Route)
	}
	if !d.Difficulty.Valid() {
		return fmt.Errorf("difficulty %q not in valid difficulty set", d.Difficulty)
	}
	return nil
}

// CandidateStatus marks whether the solving capability produced a candidate.
type CandidateStatus string

const (
	CandidateSolved CandidateStatus = "SOLVED"
	CandidateFailed CandidateStatus = "FAILED"
)

// Candidate is a proposed solution. It is never authoritative: correctness
// is judged by the verifying capability and, when needed, a human reviewer.
type Candidate struct {
	Status        CandidateStatus `json:"status"`
	FinalAnswer   string          `json:"final_answer,omitempty"`
	Steps         []string        `json:"steps,omitempty"`
	UsedTools     []string        `json:"used_tools,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// Validate enforces the candidate invariants against its route decision.
// A SOLVED candidate must carry a non-empty final answer and may only use
// tools the decision granted.
func (c *Candidate) Validate(decision *RouteDecision) error {
	if c == nil {
		return fmt.Errorf("candidate required")
	}
	switch c.Status {
	case CandidateSolved:
		if strings.TrimSpace(c.FinalAnswer) == "" {
			return fmt.Errorf("solved candidate must have a final answer")
		}
		for _, tool := range c.UsedTools {
			if !decision.Allows(tool) {
				return fmt.Errorf("candidate used unauthorized tool %q", tool)
			}
		}
		return nil
	case CandidateFailed:
		return nil
	default:
		return fmt.Errorf("candidate status %q not allowed", c.Status)
	}
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	return &Candidate{
		Status:        c.Status,
		FinalAnswer:   c.FinalAnswer,
		Steps:         append([]string(nil), c.Steps...),
		UsedTools:     append([]string(nil), c.UsedTools...),
		FailureReason: c.FailureReason,
	}
}

// Verdict is the verifying capability's correctness judgement.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictUncertain Verdict = "uncertain"
)

// Valid reports whether the verdict is one of the known values.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictCorrect, VerdictIncorrect, VerdictUncertain:
		return true
	default:
		return false
	}
}

// Verification is the verifying capability's output. NeedsReview is always
// derived from the verdict and the confidence threshold, never supplied by
// the underlying model.
type Verification struct {
	Verdict     Verdict  `json:"verdict"`
	Confidence  float64  `json:"confidence"`
	Issues      []string `json:"issues,omitempty"`
	NeedsReview bool     `json:"needs_review"`
}

// ConfidenceValid reports whether the confidence is a real value in [0, 1].
func (v *Verification) ConfidenceValid() bool {
	if v == nil {
		return false
	}
	if math.IsNaN(v.Confidence) || math.IsInf(v.Confidence, 0) {
		return false
	}
	return v.Confidence >= 0 && v.Confidence <= 1
}

// Explanation is the explaining capability's output. An empty PerStep slice
// is a valid outcome meaning the capability could not comply.
type Explanation struct {
	PerStep        []string `json:"per_step_explanation"`
	KeyConcepts    []string `json:"key_concepts,omitempty"`
	CommonMistakes []string `json:"common_mistakes,omitempty"`
}

// Empty reports whether the explanation carries no per-step content.
func (e *Explanation) Empty() bool {
	return e == nil || len(e.PerStep) == 0
}

// Stage names as they appear in run traces.
const (
	StageRoute   = "route"
	StageSolve   = "solve"
	StageVerify  = "verify"
	StageGate    = "gate"
	StageExplain = "explain"
)

// StageEvent is one entry of a run's append-only audit trail.
type StageEvent struct {
	StageName string `json:"stage_name"`
	Output    any    `json:"output"`
}

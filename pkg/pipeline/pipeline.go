// Package pipeline drives a problem through the reasoning stages in order
// (route, solve, verify, gate, explain) and owns the suspend/resume state
// machine around the human-review gate. It never judges math itself; it
// sequences capabilities and enforces their contracts.
package pipeline

import (
	"context"
	"time"

	"github.com/zen-systems/proofgate/pkg/config"
	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// Capability interfaces consumed by the orchestrator. The concrete
// model-backed implementations live in their own packages; tests substitute
// local fakes.
type (
	// Router classifies a problem into a route decision.
	Router interface {
		Route(ctx context.Context, problem *schema.ProblemInput) (*schema.RouteDecision, error)
	}

	// Solver produces a candidate solution for a routed problem.
	Solver interface {
		Solve(ctx context.Context, problem *schema.ProblemInput, decision *schema.RouteDecision) (*schema.Candidate, error)
	}

	// Verifier judges a solved candidate.
	Verifier interface {
		Verify(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Verification, error)
	}

	// Explainer annotates an admitted candidate for the end user.
	Explainer interface {
		Explain(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Explanation, error)
	}
)

// runState enumerates the orchestrator's per-run states. Transitions only
// move forward; terminal exits are expressed as outcomes, not states.
type runState int

const (
	stateRouting runState = iota
	stateSolving
	stateVerifying
	stateGate
	stateExplaining
)

// Outcome tags a terminal run result.
type Outcome string

const (
	OutcomeDone       Outcome = "DONE"
	OutcomeOutOfScope Outcome = "OUT_OF_SCOPE"
	OutcomeFailed     Outcome = "FAILED"
	OutcomeSuspended  Outcome = "SUSPENDED"
	OutcomeRejected   Outcome = "REJECTED"
	OutcomeNeedsRerun Outcome = "NEEDS_RERUN"
	OutcomeError      Outcome = "ERROR"
)

// RunOutcome is the tagged result of StartRun. Exactly the fields implied
// by the Outcome tag are populated.
type RunOutcome struct {
	Outcome       Outcome             `json:"outcome"`
	Reason        string              `json:"reason,omitempty"`
	RecordID      string              `json:"record_id,omitempty"`
	ReasonSummary string              `json:"reason_summary,omitempty"`
	FinalAnswer   string              `json:"final_answer,omitempty"`
	Steps         []string            `json:"steps,omitempty"`
	Explanation   *schema.Explanation `json:"explanation,omitempty"`
	Confidence    float64             `json:"confidence"`
	Trace         []schema.StageEvent `json:"trace,omitempty"`
}

// ResumeOutcome is the tagged result of Resume.
type ResumeOutcome struct {
	Outcome        Outcome              `json:"outcome"`
	Message        string               `json:"message,omitempty"`
	UpdatedProblem *schema.ProblemInput `json:"updated_problem,omitempty"`
	FinalAnswer    string               `json:"final_answer,omitempty"`
	Steps          []string             `json:"steps,omitempty"`
	Explanation    *schema.Explanation  `json:"explanation,omitempty"`
	Confidence     float64              `json:"confidence"`
}

// Action is a human review decision applied to a suspended run.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionEditProblem     Action = "edit_problem"
	ActionCorrectSolution Action = "correct_solution"
)

// ResumePayload carries the action-specific fields of a resume request.
type ResumePayload struct {
	EditedText string            `json:"edited_text,omitempty"`
	Corrected  *schema.Candidate `json:"corrected,omitempty"`
}

// Options configures an orchestrator. Zero values fall back to the shared
// defaults in pkg/config.
type Options struct {
	Threshold    float64
	StageTimeout time.Duration
	EvidenceDir  string
	Logger       func(format string, args ...any)
}

// Orchestrator coordinates one pipeline. Safe for concurrent StartRun and
// Resume calls; the ledger is the only shared mutable state.
type Orchestrator struct {
	router    Router
	solver    Solver
	verifier  Verifier
	explainer Explainer
	store     ledger.Store

	threshold    float64
	stageTimeout time.Duration
	evidenceDir  string
	logf         func(format string, args ...any)
}

// New creates an orchestrator over the given capabilities and ledger store.
func New(router Router, solver Solver, verifier Verifier, explainer Explainer, store ledger.Store, opts Options) *Orchestrator {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = config.DefaultConfidenceThreshold
	}
	stageTimeout := opts.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = config.DefaultStageTimeout
	}
	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}

	return &Orchestrator{
		router:       router,
		solver:       solver,
		verifier:     verifier,
		explainer:    explainer,
		store:        store,
		threshold:    threshold,
		stageTimeout: stageTimeout,
		evidenceDir:  opts.EvidenceDir,
		logf:         logf,
	}
}

// Threshold returns the confidence threshold the gate applies.
func (o *Orchestrator) Threshold() float64 {
	return o.threshold
}

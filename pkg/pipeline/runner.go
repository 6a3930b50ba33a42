package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/proofgate/pkg/evidence"
	"github.com/zen-systems/proofgate/pkg/gate"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// run accumulates the state of one pipeline execution.
type run struct {
	id      string
	problem *schema.ProblemInput

	decision     *schema.RouteDecision
	candidate    *schema.Candidate
	verification *schema.Verification
	gateResult   *gate.Result
	explanation  *schema.Explanation

	trace     []schema.StageEvent
	durations map[string]time.Duration
}

// record appends the stage event and remembers how long the stage took.
// Exactly one event is appended per stage actually entered.
func (r *run) record(stage string, output any, took time.Duration) {
	r.trace = append(r.trace, schema.StageEvent{StageName: stage, Output: output})
	r.durations[stage] = took
}

// StartRun drives a problem through the pipeline until a terminal outcome.
// Stage failures never escape as errors: every path returns a well-typed
// outcome, with a catch-all converting internal faults into ERROR carrying
// the trace gathered so far.
func (o *Orchestrator) StartRun(ctx context.Context, problem *schema.ProblemInput) (out *RunOutcome) {
	r := &run{
		id:        uuid.NewString(),
		problem:   problem,
		durations: make(map[string]time.Duration),
	}

	defer func() {
		if fault := recover(); fault != nil {
			o.logf("run %s internal fault: %v", r.id, fault)
			out = &RunOutcome{
				Outcome: OutcomeError,
				Reason:  fmt.Sprintf("internal fault: %v", fault),
				Trace:   r.trace,
			}
		}
		o.writeEvidence(r, out)
	}()

	if err := problem.Validate(); err != nil {
		return &RunOutcome{Outcome: OutcomeError, Reason: err.Error()}
	}
	r.problem = problem.Clone()

	state := stateRouting
	for {
		switch state {
		case stateRouting:
			out = o.routeStage(ctx, r)
			state = stateSolving
		case stateSolving:
			out = o.solveStage(ctx, r)
			state = stateVerifying
		case stateVerifying:
			o.verifyStage(ctx, r)
			state = stateGate
		case stateGate:
			out = o.gateStage(r)
			state = stateExplaining
		case stateExplaining:
			return o.explainStage(ctx, r)
		}
		if out != nil {
			return out
		}
	}
}

// routeStage returns a terminal outcome for out-of-scope problems, nil to
// continue.
func (o *Orchestrator) routeStage(ctx context.Context, r *run) *RunOutcome {
	start := time.Now()
	decision, err := o.callRoute(ctx, r.problem)
	if err != nil {
		o.logf("run %s route degraded: %v", r.id, err)
	}
	r.decision = decision
	r.record(schema.StageRoute, decision, time.Since(start))

	if decision.Route == schema.RouteOutOfScope {
		return &RunOutcome{Outcome: OutcomeOutOfScope, Trace: r.trace}
	}
	return nil
}

// solveStage returns a terminal FAILED outcome for unsolved candidates, nil
// to continue. Solver failures carry no concrete solution to review, so
// they never create a ledger record.
func (o *Orchestrator) solveStage(ctx context.Context, r *run) *RunOutcome {
	start := time.Now()
	candidate, err := o.callSolve(ctx, r.problem, r.decision)
	if err != nil {
		o.logf("run %s solve degraded: %v", r.id, err)
	}
	r.candidate = candidate
	r.record(schema.StageSolve, candidate, time.Since(start))

	if candidate.Status != schema.CandidateSolved {
		return &RunOutcome{Outcome: OutcomeFailed, Reason: candidate.FailureReason, Trace: r.trace}
	}
	if err := candidate.Validate(r.decision); err != nil {
		return &RunOutcome{Outcome: OutcomeFailed, Reason: err.Error(), Trace: r.trace}
	}
	return nil
}

func (o *Orchestrator) verifyStage(ctx context.Context, r *run) {
	start := time.Now()
	verification, err := o.callVerify(ctx, r.problem, r.candidate)
	if err != nil {
		o.logf("run %s verify degraded: %v", r.id, err)
	}
	r.verification = verification
	r.record(schema.StageVerify, verification, time.Since(start))
}

// gateStage suspends the run into the ledger on REVIEW, nil to continue.
func (o *Orchestrator) gateStage(r *run) *RunOutcome {
	start := time.Now()
	result := gate.Admit(r.verification, o.threshold)
	r.gateResult = result
	r.record(schema.StageGate, result, time.Since(start))

	if result.Passed() {
		return nil
	}

	recordID, err := o.store.Create(r.problem, r.candidate, r.verification, r.trace)
	if err != nil {
		return &RunOutcome{Outcome: OutcomeError, Reason: fmt.Sprintf("suspend run: %v", err), Trace: r.trace}
	}
	o.logf("run %s suspended for review as %s", r.id, recordID)
	return &RunOutcome{
		Outcome:       OutcomeSuspended,
		RecordID:      recordID,
		ReasonSummary: strings.Join(result.Reasons, "; "),
		Trace:         r.trace,
	}
}

func (o *Orchestrator) explainStage(ctx context.Context, r *run) *RunOutcome {
	start := time.Now()
	explanation, err := o.callExplain(ctx, r.problem, r.candidate)
	if err != nil {
		o.logf("run %s explain degraded: %v", r.id, err)
	}
	r.explanation = explanation
	r.record(schema.StageExplain, explanation, time.Since(start))

	return &RunOutcome{
		Outcome:     OutcomeDone,
		FinalAnswer: r.candidate.FinalAnswer,
		Steps:       r.candidate.Steps,
		Explanation: explanation,
		Confidence:  r.verification.Confidence,
		Trace:       r.trace,
	}
}

// Capability calls share one shape: bounded timeout, fail-closed fallback
// when the capability both errors and returns no normalized result.

func (o *Orchestrator) callRoute(ctx context.Context, problem *schema.ProblemInput) (*schema.RouteDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	decision, err := o.router.Route(ctx, problem)
	if decision == nil {
		decision = &schema.RouteDecision{Route: schema.RouteOutOfScope, Difficulty: schema.DifficultyUnknown}
	}
	return decision, err
}

func (o *Orchestrator) callSolve(ctx context.Context, problem *schema.ProblemInput, decision *schema.RouteDecision) (*schema.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	candidate, err := o.solver.Solve(ctx, problem, decision)
	if candidate == nil {
		reason := "solver returned no candidate"
		if err != nil {
			reason = err.Error()
		}
		candidate = &schema.Candidate{Status: schema.CandidateFailed, FailureReason: reason}
	}
	return candidate, err
}

func (o *Orchestrator) callVerify(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	verification, err := o.verifier.Verify(ctx, problem, candidate)
	if verification == nil {
		verification = &schema.Verification{
			Verdict:     schema.VerdictUncertain,
			Confidence:  0.0,
			Issues:      []string{"verifier returned no verification"},
			NeedsReview: true,
		}
	}
	return verification, err
}

func (o *Orchestrator) callExplain(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate) (*schema.Explanation, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	explanation, err := o.explainer.Explain(ctx, problem, candidate)
	if explanation == nil {
		explanation = &schema.Explanation{}
	}
	return explanation, err
}

// writeEvidence persists the audit bundle for a finished run. Best effort:
// evidence failures are logged, never surfaced to the caller.
func (o *Orchestrator) writeEvidence(r *run, out *RunOutcome) {
	if o.evidenceDir == "" || out == nil {
		return
	}

	writer, err := evidence.NewWriter(o.evidenceDir, r.id)
	if err != nil {
		o.logf("run %s evidence writer: %v", r.id, err)
		return
	}

	record := evidence.RunRecord{
		ID:        r.id,
		Timestamp: time.Now().UTC(),
		Outcome:   string(out.Outcome),
		LedgerID:  out.RecordID,
	}
	if r.problem != nil {
		record.ProblemHash = evidence.Hash(r.problem.ProblemText)
		record.ProblemText = r.problem.ProblemText
	}
	if r.decision != nil {
		record.Route = string(r.decision.Route)
	}
	if err := writer.WriteRun(record); err != nil {
		o.logf("run %s evidence run record: %v", r.id, err)
	}

	for _, event := range r.trace {
		stage := evidence.StageRecord{
			Name:           event.StageName,
			DurationMillis: r.durations[event.StageName].Milliseconds(),
		}
		if data, err := json.Marshal(event.Output); err == nil {
			stage.Output = data
		} else {
			stage.Error = err.Error()
		}
		if err := writer.WriteStage(stage); err != nil {
			o.logf("run %s evidence stage %s: %v", r.id, event.StageName, err)
		}
	}
}

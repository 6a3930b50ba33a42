package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// Local fakes; each capability is a function field so tests can steer one
// stage without redefining the rest.

type fakeRouter struct {
	fn func(context.Context, *schema.ProblemInput) (*schema.RouteDecision, error)
}

func (f *fakeRouter) Route(ctx context.Context, p *schema.ProblemInput) (*schema.RouteDecision, error) {
	return f.fn(ctx, p)
}

type fakeSolver struct {
	fn func(context.Context, *schema.ProblemInput, *schema.RouteDecision) (*schema.Candidate, error)
}

func (f *fakeSolver) Solve(ctx context.Context, p *schema.ProblemInput, d *schema.RouteDecision) (*schema.Candidate, error) {
	return f.fn(ctx, p, d)
}

type fakeVerifier struct {
	calls int
	fn    func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, p *schema.ProblemInput, c *schema.Candidate) (*schema.Verification, error) {
	f.calls++
	return f.fn(ctx, p, c)
}

type fakeExplainer struct {
	calls int
	fn    func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Explanation, error)
}

func (f *fakeExplainer) Explain(ctx context.Context, p *schema.ProblemInput, c *schema.Candidate) (*schema.Explanation, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx, p, c)
	}
	per := make([]string, len(c.Steps))
	for i := range per {
		per[i] = "explained"
	}
	return &schema.Explanation{PerStep: per}, nil
}

type harness struct {
	router    *fakeRouter
	solver    *fakeSolver
	verifier  *fakeVerifier
	explainer *fakeExplainer
	store     *ledger.MemoryStore
}

// newHarness wires a happy-path pipeline: algebra route, solved candidate,
// confident correct verification.
func newHarness() *harness {
	return &harness{
		router: &fakeRouter{fn: func(context.Context, *schema.ProblemInput) (*schema.RouteDecision, error) {
			return &schema.RouteDecision{
				Route:        schema.RouteAlgebraEquation,
				Difficulty:   schema.DifficultyEasy,
				ToolsAllowed: []string{"math_eval"},
			}, nil
		}},
		solver: &fakeSolver{fn: func(context.Context, *schema.ProblemInput, *schema.RouteDecision) (*schema.Candidate, error) {
			return &schema.Candidate{
				Status:      schema.CandidateSolved,
				FinalAnswer: "x = 5",
				Steps:       []string{"2x = 10", "x = 5"},
			}, nil
		}},
		verifier: &fakeVerifier{fn: func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error) {
			return &schema.Verification{Verdict: schema.VerdictCorrect, Confidence: 0.92}, nil
		}},
		explainer: &fakeExplainer{},
		store:     ledger.NewMemoryStore(),
	}
}

func (h *harness) orchestrator(opts Options) *Orchestrator {
	return New(h.router, h.solver, h.verifier, h.explainer, h.store, opts)
}

func stageNames(trace []schema.StageEvent) []string {
	names := make([]string, len(trace))
	for i, event := range trace {
		names[i] = event.StageName
	}
	return names
}

func assertStages(t *testing.T, trace []schema.StageEvent, want ...string) {
	t.Helper()
	got := stageNames(trace)
	if len(got) != len(want) {
		t.Fatalf("trace stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace stages = %v, want %v", got, want)
		}
	}
}

func algebraProblem() *schema.ProblemInput {
	return &schema.ProblemInput{ProblemText: "Solve 2x+5=15", Topic: "algebra"}
}

func TestStartRunDone(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeDone {
		t.Fatalf("outcome = %s (%s), want DONE", out.Outcome, out.Reason)
	}
	if out.FinalAnswer != "x = 5" || out.Confidence != 0.92 {
		t.Errorf("outcome = %+v", out)
	}
	if out.Explanation.Empty() {
		t.Error("explanation empty on DONE")
	}
	assertStages(t, out.Trace,
		schema.StageRoute, schema.StageSolve, schema.StageVerify, schema.StageGate, schema.StageExplain)
	if pending := h.store.Pending(); len(pending) != 0 {
		t.Errorf("pending records = %d, want 0", len(pending))
	}
}

func TestStartRunOutOfScope(t *testing.T) {
	h := newHarness()
	h.router.fn = func(context.Context, *schema.ProblemInput) (*schema.RouteDecision, error) {
		return &schema.RouteDecision{Route: schema.RouteOutOfScope, Difficulty: schema.DifficultyUnknown}, nil
	}
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), &schema.ProblemInput{ProblemText: "tell me a joke"})
	if out.Outcome != OutcomeOutOfScope {
		t.Fatalf("outcome = %s, want OUT_OF_SCOPE", out.Outcome)
	}
	assertStages(t, out.Trace, schema.StageRoute)
	if len(h.store.Pending()) != 0 {
		t.Error("out-of-scope run created a review record")
	}
}

func TestStartRunSolverFailure(t *testing.T) {
	h := newHarness()
	h.solver.fn = func(context.Context, *schema.ProblemInput, *schema.RouteDecision) (*schema.Candidate, error) {
		return &schema.Candidate{Status: schema.CandidateFailed, FailureReason: "model call failed"}, nil
	}
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeFailed || out.Reason != "model call failed" {
		t.Fatalf("outcome = %+v, want FAILED with reason", out)
	}
	assertStages(t, out.Trace, schema.StageRoute, schema.StageSolve)
	if h.verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0 for failed candidate", h.verifier.calls)
	}
	if len(h.store.Pending()) != 0 {
		t.Error("solver failure created a review record")
	}
}

func TestStartRunSuspends(t *testing.T) {
	h := newHarness()
	h.verifier.fn = func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error) {
		return &schema.Verification{
			Verdict:     schema.VerdictUncertain,
			Confidence:  0.4,
			NeedsReview: true,
		}, nil
	}
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeSuspended {
		t.Fatalf("outcome = %s, want SUSPENDED", out.Outcome)
	}
	if out.RecordID == "" {
		t.Fatal("record id empty on suspension")
	}
	if out.ReasonSummary == "" {
		t.Error("reason summary empty on suspension")
	}
	if out.FinalAnswer != "" {
		t.Error("suspended outcome carries a final answer")
	}
	assertStages(t, out.Trace,
		schema.StageRoute, schema.StageSolve, schema.StageVerify, schema.StageGate)
	if h.explainer.calls != 0 {
		t.Errorf("explainer calls = %d, want 0 before review", h.explainer.calls)
	}

	record, err := h.store.Get(out.RecordID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.State != ledger.StatePendingReview {
		t.Errorf("record state = %s, want PENDING_REVIEW", record.State)
	}
	if record.Candidate.FinalAnswer != "x = 5" {
		t.Errorf("record candidate = %+v", record.Candidate)
	}
}

func TestStartRunBelowThresholdSuspends(t *testing.T) {
	h := newHarness()
	h.verifier.fn = func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error) {
		return &schema.Verification{Verdict: schema.VerdictCorrect, Confidence: 0.80, NeedsReview: true}, nil
	}
	o := h.orchestrator(Options{Threshold: 0.85})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeSuspended {
		t.Fatalf("outcome = %s, want SUSPENDED below threshold", out.Outcome)
	}
}

func TestStartRunCapabilityPanic(t *testing.T) {
	h := newHarness()
	h.verifier.fn = func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error) {
		panic("verifier blew up")
	}
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeError {
		t.Fatalf("outcome = %s, want ERROR on internal fault", out.Outcome)
	}
	assertStages(t, out.Trace, schema.StageRoute, schema.StageSolve)
}

func TestStartRunInvalidInput(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), &schema.ProblemInput{ProblemText: "   "})
	if out.Outcome != OutcomeError {
		t.Fatalf("outcome = %s, want ERROR for blank problem", out.Outcome)
	}
}

func TestStartRunNilCapabilityResults(t *testing.T) {
	h := newHarness()
	h.verifier.fn = func(context.Context, *schema.ProblemInput, *schema.Candidate) (*schema.Verification, error) {
		return nil, nil
	}
	o := h.orchestrator(Options{})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeSuspended {
		t.Fatalf("outcome = %s, want SUSPENDED when verification is missing", out.Outcome)
	}
}

func TestStartRunWritesEvidence(t *testing.T) {
	dir := t.TempDir()
	h := newHarness()
	o := h.orchestrator(Options{EvidenceDir: dir})

	out := o.StartRun(context.Background(), algebraProblem())
	if out.Outcome != OutcomeDone {
		t.Fatalf("outcome = %s", out.Outcome)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("evidence dir entries = %v, err %v", entries, err)
	}
	runDir := filepath.Join(dir, entries[0].Name())
	if _, err := os.Stat(filepath.Join(runDir, "run.json")); err != nil {
		t.Errorf("missing run.json: %v", err)
	}
	for _, stage := range []string{"route", "solve", "verify", "gate", "explain"} {
		if _, err := os.Stat(filepath.Join(runDir, "stages", stage+".json")); err != nil {
			t.Errorf("missing stage record %s: %v", stage, err)
		}
	}
}

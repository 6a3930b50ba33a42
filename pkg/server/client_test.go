package server

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/pipeline"
	"github.com/zen-systems/proofgate/pkg/schema"
)

func startTestServer(t *testing.T, resumer Resumer, store ledger.Store) *Client {
	t.Helper()
	s := New(&fakeStarter{}, resumer, store, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientPending(t *testing.T) {
	store := ledger.NewMemoryStore()
	id, err := store.Create(
		&schema.ProblemInput{ProblemText: "Solve 2x+5=15"},
		&schema.Candidate{Status: schema.CandidateSolved, FinalAnswer: "x = 5", Steps: []string{"2x = 10"}},
		&schema.Verification{Verdict: schema.VerdictUncertain, NeedsReview: true},
		nil,
	)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	client := startTestServer(t, &fakeResumer{}, store)
	pending, err := client.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v, want the suspended record", pending)
	}
	if pending[0].Candidate.FinalAnswer != "x = 5" {
		t.Errorf("pending candidate = %+v", pending[0].Candidate)
	}
}

func TestClientPendingEmpty(t *testing.T) {
	client := startTestServer(t, &fakeResumer{}, ledger.NewMemoryStore())
	pending, err := client.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want none", pending)
	}
}

func TestClientResume(t *testing.T) {
	resumer := &fakeResumer{outcome: &pipeline.ResumeOutcome{Outcome: pipeline.OutcomeDone, FinalAnswer: "x = 5", Confidence: 0.4}}
	client := startTestServer(t, resumer, ledger.NewMemoryStore())

	payload := &pipeline.ResumePayload{EditedText: "Solve 3x+5=20"}
	outcome, err := client.Resume(context.Background(), "rec-1", pipeline.ActionEditProblem, payload)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if outcome.Outcome != pipeline.OutcomeDone || outcome.FinalAnswer != "x = 5" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if resumer.id != "rec-1" || resumer.action != pipeline.ActionEditProblem {
		t.Errorf("server saw id=%s action=%s", resumer.id, resumer.action)
	}
}

func TestClientResumeConflictCarriesOutcome(t *testing.T) {
	resumer := &fakeResumer{outcome: &pipeline.ResumeOutcome{Outcome: pipeline.OutcomeError, Message: "already resolved"}}
	client := startTestServer(t, resumer, ledger.NewMemoryStore())

	outcome, err := client.Resume(context.Background(), "rec-1", pipeline.ActionReject, nil)
	if err != nil {
		t.Fatalf("Resume() error = %v, want the ERROR outcome instead", err)
	}
	if outcome.Outcome != pipeline.OutcomeError || outcome.Message != "already resolved" {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestClientResumeBadRequest(t *testing.T) {
	client := startTestServer(t, &fakeResumer{}, ledger.NewMemoryStore())

	// Empty action fails server-side binding before the resumer runs.
	_, err := client.Resume(context.Background(), "rec-1", pipeline.Action(""), nil)
	if err == nil {
		t.Fatal("Resume() error = nil, want binding error surfaced")
	}
}

// End to end over HTTP: suspend through the real orchestrator, list it,
// resolve it, and confirm the second decision loses.
func TestClientReviewRoundTrip(t *testing.T) {
	store := ledger.NewMemoryStore()
	id, err := store.Create(
		&schema.ProblemInput{ProblemText: "Solve 2x+5=15"},
		&schema.Candidate{Status: schema.CandidateSolved, FinalAnswer: "x = 5", Steps: []string{"2x = 10"}},
		&schema.Verification{Verdict: schema.VerdictUncertain, Confidence: 0.4, NeedsReview: true},
		nil,
	)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	orchestrator := pipeline.New(nil, nil, nil, nil, store, pipeline.Options{})
	client := startTestServer(t, orchestrator, store)

	pending, err := client.Pending(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %+v, err %v", pending, err)
	}

	outcome, err := client.Resume(context.Background(), id, pipeline.ActionReject, nil)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if outcome.Outcome != pipeline.OutcomeRejected {
		t.Fatalf("outcome = %+v, want REJECTED", outcome)
	}

	again, err := client.Resume(context.Background(), id, pipeline.ActionReject, nil)
	if err != nil {
		t.Fatalf("second Resume() error = %v", err)
	}
	if again.Outcome != pipeline.OutcomeError {
		t.Fatalf("second outcome = %+v, want ERROR", again)
	}

	pending, err = client.Pending(context.Background())
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending after reject = %+v, err %v", pending, err)
	}
}

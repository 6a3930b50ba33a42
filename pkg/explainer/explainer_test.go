package explainer

import (
	"context"
	"errors"
	"testing"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/schema"
)

func solvedCandidate() *schema.Candidate {
	return &schema.Candidate{
		Status:      schema.CandidateSolved,
		FinalAnswer: "x = 5",
		Steps:       []string{"2x = 10", "x = 5"},
	}
}

func explain(t *testing.T, response string) (*schema.Explanation, error) {
	t.Helper()
	mock := adapter.NewMockAdapterWithResponses(nil, response)
	e := New(mock, "mock-1")
	return e.Explain(context.Background(), &schema.ProblemInput{ProblemText: "Solve 2x + 5 = 15"}, solvedCandidate())
}

func TestExplainHappyPath(t *testing.T) {
	got, err := explain(t, `{
		"explanation": ["Subtracting 5 isolates the x term.", "Dividing by 2 gives the value of x."],
		"key_concepts": ["inverse operations"],
		"common_mistakes": ["forgetting to apply the operation to both sides"]
	}`)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got.Empty() {
		t.Fatal("explanation empty on compliant output")
	}
	if len(got.PerStep) != 2 || len(got.KeyConcepts) != 1 || len(got.CommonMistakes) != 1 {
		t.Errorf("explanation = %+v", got)
	}
}

func TestExplainLengthMismatchDiscarded(t *testing.T) {
	got, err := explain(t, `{"explanation": ["only one entry"], "key_concepts": [], "common_mistakes": []}`)
	if err == nil {
		t.Error("Explain() error = nil, want length mismatch error")
	}
	if !got.Empty() {
		t.Errorf("explanation = %+v, want empty on mismatch", got)
	}
}

func TestExplainMalformedOutput(t *testing.T) {
	got, err := explain(t, "Here is my explanation in prose.")
	if err == nil {
		t.Error("Explain() error = nil, want decode error")
	}
	if got == nil || !got.Empty() {
		t.Errorf("explanation = %+v, want empty", got)
	}
}

func TestExplainAdapterError(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Err = errors.New("upstream down")
	e := New(mock, "mock-1")

	got, err := e.Explain(context.Background(), &schema.ProblemInput{ProblemText: "p"}, solvedCandidate())
	if err == nil {
		t.Error("Explain() error = nil, want wrapped adapter error")
	}
	if !got.Empty() {
		t.Errorf("explanation = %+v, want empty", got)
	}
}

func TestExplainUnsolvedCandidate(t *testing.T) {
	mock := adapter.NewMockAdapter()
	e := New(mock, "mock-1")

	got, err := e.Explain(context.Background(), &schema.ProblemInput{ProblemText: "p"},
		&schema.Candidate{Status: schema.CandidateFailed})
	if err == nil {
		t.Error("Explain() error = nil, want diagnostic error")
	}
	if !got.Empty() {
		t.Error("explanation not empty for unsolved candidate")
	}
	if mock.Calls != 0 {
		t.Errorf("model calls = %d, want 0", mock.Calls)
	}
}

// Package ledger holds pipeline runs suspended for human review. The ledger
// is the only mutable state shared between runs; record state transitions
// use compare-and-swap semantics so concurrent review decisions on the same
// record resolve to exactly one winner.
package ledger

import (
	"errors"
	"time"

	"github.com/zen-systems/proofgate/pkg/schema"
)

// Record states.
type State string

const (
	StatePendingReview State = "PENDING_REVIEW"
	StateResolved      State = "RESOLVED"
)

var (
	// ErrNotFound means no record exists with the given id.
	ErrNotFound = errors.New("review record not found")
	// ErrAlreadyResolved means the record was resolved by an earlier decision.
	ErrAlreadyResolved = errors.New("review record already resolved")
)

// Record captures everything a human reviewer needs: the problem, the
// proposed candidate, the verification that tripped the gate, and the trace
// of stages executed so far. Records are owned exclusively by the store;
// accessors hand out copies.
type Record struct {
	ID           string               `json:"id"`
	State        State                `json:"state"`
	Problem      *schema.ProblemInput `json:"problem"`
	Candidate    *schema.Candidate    `json:"candidate"`
	Verification *schema.Verification `json:"verification"`
	Trace        []schema.StageEvent  `json:"created_trace"`
	Resolution   string               `json:"resolution,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	ResolvedAt   time.Time            `json:"resolved_at,omitempty"`
}

func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		ID:           r.ID,
		State:        r.State,
		Problem:      r.Problem.Clone(),
		Candidate:    r.Candidate.Clone(),
		Verification: cloneVerification(r.Verification),
		Trace:        append([]schema.StageEvent(nil), r.Trace...),
		Resolution:   r.Resolution,
		CreatedAt:    r.CreatedAt,
		ResolvedAt:   r.ResolvedAt,
	}
}

func cloneVerification(v *schema.Verification) *schema.Verification {
	if v == nil {
		return nil
	}
	copied := *v
	copied.Issues = append([]string(nil), v.Issues...)
	return &copied
}

// Store is the ledger interface the orchestrator depends on. The in-memory
// implementation covers process lifetime; persistence and TTL eviction are
// policy for an alternative implementation behind this interface.
type Store interface {
	// Create stores a new PENDING_REVIEW record and returns its id.
	Create(problem *schema.ProblemInput, candidate *schema.Candidate, verification *schema.Verification, trace []schema.StageEvent) (string, error)

	// Get returns a copy of the record, or ErrNotFound.
	Get(id string) (*Record, error)

	// Resolve atomically transitions PENDING_REVIEW -> RESOLVED and returns
	// a copy of the record as it was before resolution. A non-empty
	// editedText replaces the stored problem's text as part of the same
	// transition. Returns ErrAlreadyResolved when another decision won the
	// race, ErrNotFound when the id is unknown.
	Resolve(id, resolution, editedText string) (*Record, error)

	// Pending returns copies of all records awaiting review.
	Pending() []*Record
}

package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// MemoryStore is the process-lifetime ledger implementation.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Create stores a new PENDING_REVIEW record and returns its id.
func (s *MemoryStore) Create(problem *schema.ProblemInput, candidate *schema.Candidate, verification *schema.Verification, trace []schema.StageEvent) (string, error) {
	if problem == nil {
		return "", fmt.Errorf("problem is required")
	}
	if candidate == nil {
		return "", fmt.Errorf("candidate is required")
	}
	if verification == nil {
		return "", fmt.Errorf("verification is required")
	}

	record := &Record{
		ID:           uuid.NewString(),
		State:        StatePendingReview,
		Problem:      problem.Clone(),
		Candidate:    candidate.Clone(),
		Verification: cloneVerification(verification),
		Trace:        append([]schema.StageEvent(nil), trace...),
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()

	return record.ID, nil
}

// Get returns a copy of the record, or ErrNotFound.
func (s *MemoryStore) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.clone(), nil
}

// Resolve atomically transitions PENDING_REVIEW -> RESOLVED. The state
// check, the flip, and any problem-text edit happen under one lock
// acquisition, so of two racing decisions exactly one observes
// PENDING_REVIEW and only the winner's edit lands.
func (s *MemoryStore) Resolve(id, resolution, editedText string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if record.State != StatePendingReview {
		return nil, ErrAlreadyResolved
	}

	snapshot := record.clone()
	record.State = StateResolved
	record.Resolution = resolution
	record.ResolvedAt = time.Now().UTC()
	if editedText != "" {
		record.Problem = record.Problem.WithText(editedText)
	}

	return snapshot, nil
}

// Pending returns copies of all records awaiting review, oldest first.
func (s *MemoryStore) Pending() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Record
	for _, record := range s.records {
		if record.State == StatePendingReview {
			pending = append(pending, record.clone())
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}

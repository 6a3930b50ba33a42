package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// humanConfidence is the confidence assigned to a human-corrected
// solution. A human override is authoritative and is never re-judged by
// the gate.
const humanConfidence = 1.0

// Resume applies a human decision to a suspended run. Payload validation
// happens before the ledger transition, so an invalid request leaves the
// record PENDING_REVIEW and resumable; once validation passes the record
// is resolved atomically and exactly one concurrent caller wins.
func (o *Orchestrator) Resume(ctx context.Context, recordID string, action Action, payload *ResumePayload) *ResumeOutcome {
	if recordID == "" {
		return resumeError("record id is required")
	}
	if err := validateResume(action, payload); err != nil {
		return resumeError(err.Error())
	}

	editedText := ""
	if action == ActionEditProblem {
		editedText = payload.EditedText
	}
	record, err := o.store.Resolve(recordID, string(action), editedText)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return resumeError(fmt.Sprintf("no review record %s", recordID))
		case errors.Is(err, ledger.ErrAlreadyResolved):
			return resumeError(fmt.Sprintf("review record %s already resolved", recordID))
		default:
			return resumeError(err.Error())
		}
	}
	o.logf("record %s resolved with action %s", recordID, action)

	switch action {
	case ActionApprove:
		return o.finishApproved(ctx, record.Problem, record.Candidate, record.Verification.Confidence)
	case ActionReject:
		return &ResumeOutcome{Outcome: OutcomeRejected}
	case ActionEditProblem:
		return &ResumeOutcome{
			Outcome:        OutcomeNeedsRerun,
			UpdatedProblem: record.Problem.WithText(payload.EditedText),
		}
	case ActionCorrectSolution:
		corrected := &schema.Candidate{
			Status:      schema.CandidateSolved,
			FinalAnswer: payload.Corrected.FinalAnswer,
			Steps:       append([]string(nil), payload.Corrected.Steps...),
			UsedTools:   append([]string(nil), payload.Corrected.UsedTools...),
		}
		return o.finishApproved(ctx, record.Problem, corrected, humanConfidence)
	default:
		// validateResume already rejected unknown actions.
		return resumeError(fmt.Sprintf("unsupported action %q", action))
	}
}

// validateResume checks the action and its required payload fields without
// touching the ledger.
func validateResume(action Action, payload *ResumePayload) error {
	switch action {
	case ActionApprove, ActionReject:
		return nil
	case ActionEditProblem:
		if payload == nil || strings.TrimSpace(payload.EditedText) == "" {
			return fmt.Errorf("edit_problem requires edited_text")
		}
		return nil
	case ActionCorrectSolution:
		if payload == nil || payload.Corrected == nil {
			return fmt.Errorf("correct_solution requires a corrected solution")
		}
		if strings.TrimSpace(payload.Corrected.FinalAnswer) == "" {
			return fmt.Errorf("correct_solution requires a non-empty final_answer")
		}
		if len(payload.Corrected.Steps) == 0 {
			return fmt.Errorf("correct_solution requires non-empty steps")
		}
		return nil
	default:
		return fmt.Errorf("unknown resume action %q", action)
	}
}

// finishApproved runs the explain stage for a human-admitted candidate and
// returns the DONE outcome.
func (o *Orchestrator) finishApproved(ctx context.Context, problem *schema.ProblemInput, candidate *schema.Candidate, confidence float64) *ResumeOutcome {
	explanation, err := o.callExplain(ctx, problem, candidate)
	if err != nil {
		o.logf("resume explain degraded: %v", err)
	}
	return &ResumeOutcome{
		Outcome:     OutcomeDone,
		FinalAnswer: candidate.FinalAnswer,
		Steps:       candidate.Steps,
		Explanation: explanation,
		Confidence:  confidence,
	}
}

func resumeError(message string) *ResumeOutcome {
	return &ResumeOutcome{Outcome: OutcomeError, Message: message}
}

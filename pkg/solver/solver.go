// Package solver implements the solving capability. It produces candidate
// solutions only; it never decides correctness. Every candidate is subject
// to verification and, when confidence is low, human review.
package solver

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/mathtool"
	"github.com/zen-systems/proofgate/pkg/schema"
)

const solverTemperature = 0.2

// Solver is the solving capability backed by an LLM adapter and the
// deterministic math tool.
type Solver struct {
	adapter adapter.Adapter
	model   string
	tool    *mathtool.Tool
}

// New creates a solving capability. The tool may be nil; tool hints are
// then skipped even for routes that grant the tool.
func New(a adapter.Adapter, model string, tool *mathtool.Tool) *Solver {
	return &Solver{adapter: a, model: model, tool: tool}
}

// solverOutput is the strict JSON shape the solving model must return.
type solverOutput struct {
	FinalAnswer  string `json:"final_answer"`
	Steps        any    `json:"steps"`
	ToolRequests any    `json:"tool_requests"`
}

// Solve produces a candidate for the problem. The candidate is always
// non-nil: model failures, malformed output, and contract violations all
// normalize to a FAILED candidate carrying the failure reason. An
// out_of_scope route is rejected before any model call.
func (s *Solver) Solve(ctx context.Context, problem *schema.ProblemInput, decision *schema.RouteDecision) (*schema.Candidate, error) {
	if decision == nil || decision.Route == schema.RouteOutOfScope {
		return failed("problem out of supported scope"), nil
	}

	toolHint, toolUsed := s.toolHint(problem, decision)

	prompt := buildSolverPrompt(problem, decision, toolHint)
	resp, err := s.adapter.Generate(ctx, s.model, prompt, adapter.GenerateOptions{Temperature: solverTemperature})
	if err != nil {
		return failed("model call failed"), fmt.Errorf("solver call failed: %w", err)
	}
	if resp == nil || resp.Artifact == nil {
		return failed("model returned empty response"), fmt.Errorf("solver returned empty response")
	}

	var out solverOutput
	if err := adapter.DecodeJSON(resp.Artifact.Content, &out); err != nil {
		return failed("model did not return valid JSON"), fmt.Errorf("solver response invalid: %w", err)
	}

	steps, err := normalizeSteps(out.Steps)
	if err != nil {
		return failed(err.Error()), err
	}

	finalAnswer := strings.TrimSpace(out.FinalAnswer)
	if finalAnswer == "" {
		err := fmt.Errorf("final answer is empty")
		return failed(err.Error()), err
	}

	usedTools, err := normalizeToolRequests(out.ToolRequests, decision)
	if err != nil {
		return failed(err.Error()), err
	}
	if toolUsed && !contains(usedTools, mathtool.Name) {
		usedTools = append(usedTools, mathtool.Name)
	}

	return &schema.Candidate{
		Status:      schema.CandidateSolved,
		FinalAnswer: finalAnswer,
		Steps:       steps,
		UsedTools:   usedTools,
	}, nil
}

// toolHint runs the deterministic tool ahead of the model for routes that
// grant it, so the model can anchor on an exact result. It never mutates
// model output; the hint is advisory prompt context only.
func (s *Solver) toolHint(problem *schema.ProblemInput, decision *schema.RouteDecision) (string, bool) {
	if s.tool == nil || !decision.Allows(mathtool.Name) {
		return "", false
	}

	if decision.Route == schema.RouteAlgebraEquation {
		equation, variable, ok := extractEquation(problem.ProblemText)
		if !ok {
			return "", false
		}
		res := s.tool.SolveEquation(equation, variable)
		if !res.Success {
			return "", false
		}
		return fmt.Sprintf("Deterministic tool (%s) solved %q for %s: %s", mathtool.Name, equation, variable, res.Result), true
	}

	return "", false
}

// normalizeSteps accepts a JSON array of strings, or a newline-joined
// string, and rejects everything else.
func normalizeSteps(raw any) ([]string, error) {
	switch value := raw.(type) {
	case nil:
		return nil, fmt.Errorf("steps missing")
	case string:
		var steps []string
		for _, line := range strings.Split(value, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				steps = append(steps, line)
			}
		}
		return steps, nil
	case []any:
		steps := make([]string, 0, len(value))
		for _, item := range value {
			step, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("steps must be atomic strings")
			}
			steps = append(steps, step)
		}
		return steps, nil
	default:
		return nil, fmt.Errorf("steps must be a list")
	}
}

// normalizeToolRequests enforces the tool authorization invariant: a request
// for any tool outside the route's grants is a hard failure, never a silent
// drop.
func normalizeToolRequests(raw any, decision *schema.RouteDecision) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("tool_requests must be a list")
	}

	var used []string
	for _, item := range items {
		tool, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("tool_requests must be strings")
		}
		if !decision.Allows(tool) {
			return nil, fmt.Errorf("unauthorized tool request: %s", tool)
		}
		used = append(used, tool)
	}
	return used, nil
}

func failed(reason string) *schema.Candidate {
	return &schema.Candidate{
		Status:        schema.CandidateFailed,
		FailureReason: reason,
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

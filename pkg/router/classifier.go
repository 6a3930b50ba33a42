package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/schema"
)

const classifierTemperature = 0.0

// routePick is the strict JSON shape the classifier model must return.
type routePick struct {
	Route        string   `json:"route"`
	Difficulty   string   `json:"difficulty"`
	ToolsAllowed []string `json:"tools_allowed"`
}

// classify asks the model to pick a route. Any malformed or unrecognized
// output is normalized to out_of_scope/unknown; the underlying cause is
// returned alongside for logging.
func (r *Router) classify(ctx context.Context, problem *schema.ProblemInput) (*schema.RouteDecision, error) {
	if r.adapter == nil {
		return outOfScopeDecision(), fmt.Errorf("no classifier adapter configured")
	}

	prompt := buildClassifierPrompt(problem)
	resp, err := r.adapter.Generate(ctx, r.model, prompt, adapter.GenerateOptions{Temperature: classifierTemperature})
	if err != nil {
		return outOfScopeDecision(), fmt.Errorf("classifier call failed: %w", err)
	}
	if resp == nil || resp.Artifact == nil {
		return outOfScopeDecision(), fmt.Errorf("classifier returned empty response")
	}

	var pick routePick
	if err := adapter.DecodeJSON(resp.Artifact.Content, &pick); err != nil {
		return outOfScopeDecision(), fmt.Errorf("classifier response invalid: %w", err)
	}

	route := schema.Route(strings.TrimSpace(pick.Route))
	if !route.Valid() {
		return outOfScopeDecision(), fmt.Errorf("classifier route %q not in route set", pick.Route)
	}

	difficulty := schema.Difficulty(strings.TrimSpace(pick.Difficulty))
	if !difficulty.Valid() {
		difficulty = schema.DifficultyUnknown
	}

	// The model never grants tools beyond the route's own grants.
	allowed := toolsFor(route)
	var tools []string
	for _, requested := range pick.ToolsAllowed {
		for _, grant := range allowed {
			if requested == grant {
				tools = append(tools, requested)
			}
		}
	}
	if tools == nil {
		tools = allowed
	}

	return &schema.RouteDecision{
		Route:        route,
		Difficulty:   difficulty,
		ToolsAllowed: tools,
	}, nil
}

func buildClassifierPrompt(problem *schema.ProblemInput) string {
	var sb strings.Builder
	sb.WriteString("You are an intent router for a math reasoning system.\n")
	sb.WriteString("Your ONLY task is to classify the problem into ONE predefined route.\n")
	sb.WriteString("You must NOT solve, explain, rewrite, or analyze the problem.\n\n")

	sb.WriteString("ALLOWED ROUTES (EXACT MATCH ONLY):\n")
	for _, route := range schema.Routes {
		sb.WriteString(fmt.Sprintf("- %s\n", route))
	}

	sb.WriteString("\nCLASSIFICATION RULES:\n")
	sb.WriteString("1. Choose the single dominant mathematical intent.\n")
	sb.WriteString("2. If intent is unclear, mixed, or outside scope, use out_of_scope.\n")
	sb.WriteString("3. Difficulty is a rough estimate: easy, medium, hard, or unknown.\n\n")

	sb.WriteString("OUTPUT FORMAT (STRICT JSON, no text outside JSON):\n")
	sb.WriteString(`{"route": "<allowed_route>", "difficulty": "<easy|medium|hard|unknown>", "tools_allowed": []}`)
	sb.WriteString("\n\nProblem:\n")
	sb.WriteString(problem.ProblemText)

	if len(problem.Variables) > 0 {
		sb.WriteString("\n\nVariables: ")
		sb.WriteString(strings.Join(problem.Variables, ", "))
	}
	if len(problem.Constraints) > 0 {
		sb.WriteString("\nConstraints: ")
		sb.WriteString(strings.Join(problem.Constraints, "; "))
	}

	return sb.String()
}

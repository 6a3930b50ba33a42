package solver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zen-systems/proofgate/pkg/schema"
)

var (
	// equationField matches one whitespace-delimited piece of an equation:
	// numbers, operators, parens, and single-letter variables. Prose words
	// ("Solve", "for") fail the second check below and bound the equation.
	equationField   = regexp.MustCompile(`^[0-9a-zA-Z.+\-*/^()=]+$`)
	nonLetter       = regexp.MustCompile(`[^a-zA-Z]`)
	variablePattern = regexp.MustCompile(`[a-zA-Z]`)
)

func isEquationField(field string) bool {
	if !equationField.MatchString(field) {
		return false
	}
	// A bare multi-letter word is prose, not algebra.
	return len(field) == 1 || nonLetter.MatchString(field)
}

// extractEquation pulls the first equation-shaped run of fields out of the
// problem text, anchored on the "=" sign, along with its variable.
func extractEquation(text string) (equation, variable string, ok bool) {
	fields := strings.Fields(text)
	center := -1
	for i, f := range fields {
		if strings.Contains(f, "=") && isEquationField(f) {
			center = i
			break
		}
	}
	if center < 0 {
		return "", "", false
	}

	lo, hi := center, center
	for lo > 0 && isEquationField(fields[lo-1]) {
		lo--
	}
	for hi < len(fields)-1 && isEquationField(fields[hi+1]) {
		hi++
	}

	equation = strings.Join(fields[lo:hi+1], " ")
	variable = variablePattern.FindString(equation)
	if variable == "" || !strings.Contains(equation, "=") {
		return "", "", false
	}
	return equation, variable, true
}

func buildSolverPrompt(problem *schema.ProblemInput, decision *schema.RouteDecision, toolHint string) string {
	var b strings.Builder
	b.WriteString("You are a meticulous math solver. Solve the problem step by step.\n\n")
	fmt.Fprintf(&b, "Problem: %s\n", problem.ProblemText)
	fmt.Fprintf(&b, "Problem type: %s (difficulty: %s)\n", decision.Route, decision.Difficulty)

	if problem.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", problem.Topic)
	}
	if len(problem.Variables) > 0 {
		fmt.Fprintf(&b, "Variables: %s\n", strings.Join(problem.Variables, ", "))
	}
	if len(problem.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s\n", strings.Join(problem.Constraints, "; "))
	}
	if len(problem.RetrievedContext) > 0 {
		fmt.Fprintf(&b, "\nReference material:\n%s\n", strings.Join(problem.RetrievedContext, "\n"))
	}
	if toolHint != "" {
		fmt.Fprintf(&b, "\n%s\nUse this exact result; show the working that leads to it.\n", toolHint)
	}
	if len(decision.ToolsAllowed) > 0 {
		fmt.Fprintf(&b, "\nTools you may report using: %s. Do not claim any other tool.\n", strings.Join(decision.ToolsAllowed, ", "))
	}

	b.WriteString(`
Respond with ONLY a JSON object, no prose and no code fences:
{"final_answer": "<the final answer>", "steps": ["<step 1>", "<step 2>", ...], "tool_requests": []}

Each step is one atomic reasoning step. final_answer must be the bare answer, not a sentence.`)
	return b.String()
}

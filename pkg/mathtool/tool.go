// Package mathtool is a deterministic symbolic math capability covering the
// polynomial arithmetic the solving stage is allowed to delegate: expression
// evaluation, equation solving, differentiation, and integration. It never
// mutates solver output; results are advisory inputs to the solving stage.
package mathtool

import (
	"fmt"
	"math"
	"strings"
)

// Name is the tool identifier used in route tool grants and candidate
// used_tools entries.
const Name = "math_eval"

// Result is the uniform outcome shape of every tool operation.
type Result struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

func success(result string) Result {
	return Result{Success: true, Result: result}
}

// Tool evaluates polynomial expressions deterministically.
type Tool struct{}

// New creates the deterministic math tool.
func New() *Tool {
	return &Tool{}
}

// Evaluate evaluates or simplifies an expression. Purely numeric input
// yields a number; input over a single variable yields the simplified
// polynomial.
func (t *Tool) Evaluate(expression string) Result {
	tree, err := parse(expression)
	if err != nil {
		return failure("parse error: %v", err)
	}

	// Numeric first, like a calculator.
	if p, err := polyFromNode(tree, ""); err == nil {
		value, _ := p.constant()
		return success(formatNumber(value))
	}

	variable, err := soleVariable(tree)
	if err != nil {
		return failure("%v", err)
	}
	p, err := polyFromNode(tree, variable)
	if err != nil {
		return failure("%v", err)
	}
	return success(p.format(variable))
}

// SolveEquation solves a linear or quadratic equation for the variable.
// The equation may be "lhs = rhs" or an expression implicitly equal to zero.
func (t *Tool) SolveEquation(equation, variable string) Result {
	if strings.TrimSpace(variable) == "" {
		return failure("variable required")
	}

	lhs := equation
	rhs := "0"
	if idx := strings.Index(equation, "="); idx >= 0 {
		lhs = equation[:idx]
		rhs = equation[idx+1:]
	}

	left, err := parseToPoly(lhs, variable)
	if err != nil {
		return failure("%v", err)
	}
	right, err := parseToPoly(rhs, variable)
	if err != nil {
		return failure("%v", err)
	}

	p := left.add(right.scale(-1))
	switch p.degree() {
	case 0:
		if value, _ := p.constant(); value == 0 {
			return success("all values") // 0 = 0
		}
		return failure("equation has no solution")
	case 1:
		root := -p[0] / p[1]
		return success(formatNumber(root))
	case 2:
		return solveQuadratic(p)
	default:
		return failure("only linear and quadratic equations are supported")
	}
}

// Derivative computes the order-th derivative of a polynomial expression.
func (t *Tool) Derivative(expression, variable string, order int) Result {
	if order < 1 {
		return failure("order must be at least 1")
	}
	p, err := parseToPoly(expression, variable)
	if err != nil {
		return failure("%v", err)
	}
	for i := 0; i < order; i++ {
		p = p.derive()
	}
	return success(p.format(variable))
}

// Integral computes an antiderivative, or a definite integral when both
// bounds are supplied.
func (t *Tool) Integral(expression, variable string, lower, upper *float64) Result {
	p, err := parseToPoly(expression, variable)
	if err != nil {
		return failure("%v", err)
	}
	antiderivative := p.integrate()
	if lower != nil && upper != nil {
		value := antiderivative.eval(*upper) - antiderivative.eval(*lower)
		return success(formatNumber(value))
	}
	if lower != nil || upper != nil {
		return failure("definite integral requires both bounds")
	}
	return success(antiderivative.format(variable))
}

func parseToPoly(expression, variable string) (poly, error) {
	tree, err := parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	p, err := polyFromNode(tree, variable)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func solveQuadratic(p poly) Result {
	a, b, c := p[2], p[1], p[0]
	discriminant := b*b - 4*a*c
	switch {
	case discriminant < 0:
		return failure("no real solutions")
	case discriminant == 0:
		return success(formatNumber(-b / (2 * a)))
	default:
		sqrtD := math.Sqrt(discriminant)
		first := (-b - sqrtD) / (2 * a)
		second := (-b + sqrtD) / (2 * a)
		if first > second {
			first, second = second, first
		}
		return success(formatNumber(first) + ", " + formatNumber(second))
	}
}

// soleVariable returns the single identifier used in the tree, or an error
// when the expression mixes variables.
func soleVariable(n *node) (string, error) {
	seen := map[string]struct{}{}
	collectIdents(n, seen)
	switch len(seen) {
	case 0:
		return "", nil
	case 1:
		for name := range seen {
			return name, nil
		}
	}
	return "", fmt.Errorf("expression uses more than one variable")
}

func collectIdents(n *node, seen map[string]struct{}) {
	if n == nil {
		return
	}
	if n.kind == kindIdent {
		seen[n.name] = struct{}{}
	}
	collectIdents(n.left, seen)
	collectIdents(n.right, seen)
}

package mathtool

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// poly is a univariate polynomial: exponent -> coefficient. Zero
// coefficients are pruned after every operation.
type poly map[int]float64

// polyFromNode lowers an expression tree to a polynomial in variable.
// Any other identifier, or a non-polynomial operation, is an error.
func polyFromNode(n *node, variable string) (poly, error) {
	switch n.kind {
	case kindNumber:
		return poly{0: n.value}.prune(), nil
	case kindIdent:
		if variable != "" && n.name == variable {
			return poly{1: 1}, nil
		}
		return nil, fmt.Errorf("unknown symbol %q", n.name)
	case kindNegate:
		operand, err := polyFromNode(n.left, variable)
		if err != nil {
			return nil, err
		}
		return operand.scale(-1), nil
	case kindBinary:
		left, err := polyFromNode(n.left, variable)
		if err != nil {
			return nil, err
		}
		right, err := polyFromNode(n.right, variable)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case '+':
			return left.add(right), nil
		case '-':
			return left.add(right.scale(-1)), nil
		case '*':
			return left.mul(right), nil
		case '/':
			divisor, ok := right.constant()
			if !ok {
				return nil, fmt.Errorf("division by a polynomial is not supported")
			}
			if divisor == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return left.scale(1 / divisor), nil
		case '^':
			exponent, ok := right.constant()
			if !ok {
				return nil, fmt.Errorf("polynomial exponents are not supported")
			}
			if exponent != math.Trunc(exponent) || exponent < 0 {
				return nil, fmt.Errorf("exponent must be a non-negative integer")
			}
			return left.pow(int(exponent)), nil
		default:
			return nil, fmt.Errorf("unsupported operator %q", string(n.op))
		}
	default:
		return nil, fmt.Errorf("unsupported expression")
	}
}

func (p poly) prune() poly {
	for exp, coeff := range p {
		if coeff == 0 {
			delete(p, exp)
		}
	}
	return p
}

func (p poly) add(q poly) poly {
	sum := poly{}
	for exp, coeff := range p {
		sum[exp] += coeff
	}
	for exp, coeff := range q {
		sum[exp] += coeff
	}
	return sum.prune()
}

func (p poly) scale(factor float64) poly {
	scaled := poly{}
	for exp, coeff := range p {
		scaled[exp] = coeff * factor
	}
	return scaled.prune()
}

func (p poly) mul(q poly) poly {
	product := poly{}
	for pe, pc := range p {
		for qe, qc := range q {
			product[pe+qe] += pc * qc
		}
	}
	return product.prune()
}

func (p poly) pow(exponent int) poly {
	result := poly{0: 1}
	for i := 0; i < exponent; i++ {
		result = result.mul(p)
	}
	return result
}

// constant returns the value of a degree-zero polynomial.
func (p poly) constant() (float64, bool) {
	for exp := range p {
		if exp != 0 {
			return 0, false
		}
	}
	return p[0], true
}

func (p poly) degree() int {
	degree := 0
	for exp := range p {
		if exp > degree {
			degree = exp
		}
	}
	return degree
}

// derive returns the polynomial's derivative.
func (p poly) derive() poly {
	derived := poly{}
	for exp, coeff := range p {
		if exp > 0 {
			derived[exp-1] = coeff * float64(exp)
		}
	}
	return derived.prune()
}

// integrate returns the polynomial's antiderivative with zero constant term.
func (p poly) integrate() poly {
	integrated := poly{}
	for exp, coeff := range p {
		integrated[exp+1] = coeff / float64(exp+1)
	}
	return integrated.prune()
}

// eval evaluates the polynomial at x.
func (p poly) eval(x float64) float64 {
	total := 0.0
	for exp, coeff := range p {
		total += coeff * math.Pow(x, float64(exp))
	}
	return total
}

// format renders the polynomial in descending-degree order: 3x^2 - 2x + 1.
func (p poly) format(variable string) string {
	if len(p) == 0 {
		return "0"
	}

	exponents := make([]int, 0, len(p))
	for exp := range p {
		exponents = append(exponents, exp)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(exponents)))

	var sb strings.Builder
	for i, exp := range exponents {
		coeff := p[exp]
		if i == 0 {
			if coeff < 0 {
				sb.WriteString("-")
			}
		} else {
			if coeff < 0 {
				sb.WriteString(" - ")
			} else {
				sb.WriteString(" + ")
			}
		}

		magnitude := math.Abs(coeff)
		switch {
		case exp == 0:
			sb.WriteString(formatNumber(magnitude))
		case magnitude == 1:
			sb.WriteString(variableTerm(variable, exp))
		default:
			sb.WriteString(formatNumber(magnitude))
			sb.WriteString(variableTerm(variable, exp))
		}
	}
	return sb.String()
}

func variableTerm(variable string, exp int) string {
	if exp == 1 {
		return variable
	}
	return fmt.Sprintf("%s^%d", variable, exp)
}

// formatNumber renders a float without trailing zeros: 5, 2.5, 0.125.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package mathtool

import "testing"

func TestEvaluate(t *testing.T) {
	tool := New()

	cases := []struct {
		name string
		expr string
		want string
		ok   bool
	}{
		{"arithmetic", "2 + 3 * 4", "14", true},
		{"parens", "(2 + 3) * 4", "20", true},
		{"power caret", "2^10", "1024", true},
		{"power doublestar", "2**3", "8", true},
		{"negative", "-5 + 3", "-2", true},
		{"fraction", "7 / 2", "3.5", true},
		{"simplify", "x + x + 1", "2x + 1", true},
		{"expand", "(x + 1)(x - 1)", "x^2 - 1", true},
		{"two variables", "x + y", "", false},
		{"garbage", "2 +* 3", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tool.Evaluate(tc.expr)
			if res.Success != tc.ok {
				t.Fatalf("Evaluate(%q) success = %v (%s), want %v", tc.expr, res.Success, res.Error, tc.ok)
			}
			if tc.ok && res.Result != tc.want {
				t.Fatalf("Evaluate(%q) = %q, want %q", tc.expr, res.Result, tc.want)
			}
		})
	}
}

func TestSolveEquation(t *testing.T) {
	tool := New()

	cases := []struct {
		name     string
		equation string
		variable string
		want     string
		ok       bool
	}{
		{"linear", "2x + 5 = 15", "x", "5", true},
		{"linear no rhs", "3x - 9", "x", "3", true},
		{"implicit mult", "2(x - 1) = 8", "x", "5", true},
		{"quadratic two roots", "x^2 - 5x + 6 = 0", "x", "2, 3", true},
		{"quadratic double root", "x^2 - 4x + 4 = 0", "x", "2", true},
		{"quadratic no real roots", "x^2 + 1 = 0", "x", "", false},
		{"contradiction", "x + 1 = x + 2", "x", "", false},
		{"cubic unsupported", "x^3 = 8", "x", "", false},
		{"missing variable", "2x = 4", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tool.SolveEquation(tc.equation, tc.variable)
			if res.Success != tc.ok {
				t.Fatalf("SolveEquation(%q) success = %v (%s), want %v", tc.equation, res.Success, res.Error, tc.ok)
			}
			if tc.ok && res.Result != tc.want {
				t.Fatalf("SolveEquation(%q) = %q, want %q", tc.equation, res.Result, tc.want)
			}
		})
	}
}

func TestDerivative(t *testing.T) {
	tool := New()

	cases := []struct {
		name  string
		expr  string
		order int
		want  string
		ok    bool
	}{
		{"power rule", "x^3", 1, "3x^2", true},
		{"polynomial", "3x^2 + 2x + 1", 1, "6x + 2", true},
		{"second order", "x^4", 2, "12x^2", true},
		{"constant", "7", 1, "0", true},
		{"bad order", "x^2", 0, "", false},
		{"not polynomial", "x^x", 1, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tool.Derivative(tc.expr, "x", tc.order)
			if res.Success != tc.ok {
				t.Fatalf("Derivative(%q, %d) success = %v (%s), want %v", tc.expr, tc.order, res.Success, res.Error, tc.ok)
			}
			if tc.ok && res.Result != tc.want {
				t.Fatalf("Derivative(%q, %d) = %q, want %q", tc.expr, tc.order, res.Result, tc.want)
			}
		})
	}
}

func TestIntegral(t *testing.T) {
	tool := New()

	t.Run("indefinite", func(t *testing.T) {
		res := tool.Integral("2x", "x", nil, nil)
		if !res.Success {
			t.Fatalf("Integral failed: %s", res.Error)
		}
		if res.Result != "x^2" {
			t.Fatalf("Integral(2x) = %q, want %q", res.Result, "x^2")
		}
	})

	t.Run("definite", func(t *testing.T) {
		lower, upper := 0.0, 2.0
		res := tool.Integral("3x^2", "x", &lower, &upper)
		if !res.Success {
			t.Fatalf("Integral failed: %s", res.Error)
		}
		if res.Result != "8" {
			t.Fatalf("definite Integral(3x^2, 0, 2) = %q, want %q", res.Result, "8")
		}
	})

	t.Run("single bound", func(t *testing.T) {
		lower := 0.0
		res := tool.Integral("x", "x", &lower, nil)
		if res.Success {
			t.Fatalf("expected failure with a single bound")
		}
	})
}

package router

import (
	"sort"
	"strings"

	"github.com/zen-systems/proofgate/pkg/schema"
)

// routeTriggers lists the keyword phrases scoring toward each route.
var routeTriggers = map[schema.Route][]string{
	schema.RouteAlgebraEquation: {
		"equation", "solve for", "linear equation", "quadratic", "roots of",
	},
	schema.RouteProbabilityBasic: {
		"probability", "dice", "die", "coin", "odds", "chance", "at random",
	},
	schema.RouteCalculusLimit: {
		"limit", "approaches", "tends to",
	},
	schema.RouteCalculusDerivative: {
		"derivative", "differentiate", "rate of change", "d/dx", "tangent line",
	},
	schema.RouteCalculusOptimization: {
		"maximize", "minimize", "optimization", "maximum value", "minimum value",
	},
	schema.RouteLinearAlgebraBasic: {
		"matrix", "matrices", "vector", "determinant", "eigenvalue", "dot product",
	},
}

type routeCandidate struct {
	route schema.Route
	score int
}

// heuristicRoute scores routes by trigger matches. It reports confident=true
// only when one route clearly dominates; ambiguity falls through to the LLM
// classifier.
func heuristicRoute(problemText string) (schema.Route, bool) {
	textLower := strings.ToLower(problemText)

	var candidates []routeCandidate
	for route, triggers := range routeTriggers {
		score := 0
		for _, trigger := range triggers {
			if containsTrigger(textLower, trigger) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, routeCandidate{route: route, score: score})
		}
	}

	if len(candidates) == 0 {
		return schema.RouteOutOfScope, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].route < candidates[j].route
		}
		return candidates[i].score > candidates[j].score
	})

	topScore := candidates[0].score
	secondScore := 0
	if len(candidates) > 1 {
		secondScore = candidates[1].score
	}

	// A single matching route is decisive; tied scores are not.
	if secondScore == 0 || topScore >= secondScore+2 {
		return candidates[0].route, true
	}
	return schema.RouteOutOfScope, false
}

// containsTrigger checks if the text contains the trigger phrase at word
// boundaries.
func containsTrigger(text, trigger string) bool {
	idx := strings.Index(text, trigger)
	if idx == -1 {
		return false
	}

	if idx > 0 && isWordChar(text[idx-1]) {
		return false
	}

	endIdx := idx + len(trigger)
	if endIdx < len(text) && isWordChar(text[endIdx]) {
		return false
	}

	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

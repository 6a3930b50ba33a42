// Package router implements the intent-routing capability: it classifies a
// math problem into one solver route. It never solves, never explains, and
// fails closed to out_of_scope whenever classification is uncertain.
//
// Routing priority: a recognized topic hint from the caller is trusted
// deterministically without any model call; keyword heuristics cover the
// common phrasings; an LLM classification is the last resort.
package router

import (
	"context"
	"strings"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/mathtool"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// TopicRoutes maps caller-supplied topic hints to routes.
var TopicRoutes = map[string]schema.Route{
	"algebra":               schema.RouteAlgebraEquation,
	"probability":           schema.RouteProbabilityBasic,
	"calculus_limit":        schema.RouteCalculusLimit,
	"calculus_derivative":   schema.RouteCalculusDerivative,
	"calculus_optimization": schema.RouteCalculusOptimization,
	"linear_algebra":        schema.RouteLinearAlgebraBasic,
}

// routeTools grants the deterministic math tool to routes where its
// polynomial engine is actually applicable.
var routeTools = map[schema.Route][]string{
	schema.RouteAlgebraEquation:      {mathtool.Name},
	schema.RouteCalculusDerivative:   {mathtool.Name},
	schema.RouteCalculusOptimization: {mathtool.Name},
}

// Router is the routing capability backed by an LLM adapter for the
// fallback classification path.
type Router struct {
	adapter adapter.Adapter
	model   string
}

// New creates a routing capability. The adapter is only consulted when
// neither the topic hint nor the heuristics decide.
func New(a adapter.Adapter, model string) *Router {
	return &Router{adapter: a, model: model}
}

// Route classifies the problem. The returned decision is always non-nil and
// always valid; any failure in the fallback path is normalized to
// out_of_scope/unknown and the underlying error is returned for logging.
func (r *Router) Route(ctx context.Context, problem *schema.ProblemInput) (*schema.RouteDecision, error) {
	if topic := strings.ToLower(strings.TrimSpace(problem.Topic)); topic != "" {
		if route, ok := TopicRoutes[topic]; ok {
			return &schema.RouteDecision{
				Route:        route,
				Difficulty:   schema.DifficultyMedium,
				ToolsAllowed: toolsFor(route),
			}, nil
		}
	}

	if route, confident := heuristicRoute(problem.ProblemText); confident {
		return &schema.RouteDecision{
			Route:        route,
			Difficulty:   schema.DifficultyMedium,
			ToolsAllowed: toolsFor(route),
		}, nil
	}

	return r.classify(ctx, problem)
}

func toolsFor(route schema.Route) []string {
	return append([]string(nil), routeTools[route]...)
}

// ToolsFor returns a copy of the tool grants for a route.
func ToolsFor(route schema.Route) []string {
	return toolsFor(route)
}

// outOfScopeDecision is the fail-closed routing result.
func outOfScopeDecision() *schema.RouteDecision {
	return &schema.RouteDecision{
		Route:      schema.RouteOutOfScope,
		Difficulty: schema.DifficultyUnknown,
	}
}

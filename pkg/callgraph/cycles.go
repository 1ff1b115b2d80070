package callgraph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

var (
	// ErrRootNotInGraph is returned when the analysis root is not a node of the graph
	ErrRootNotInGraph = errors.New("root function not in call graph")

	// ErrUnreachableCycle is returned when the graph is still cyclic after every
	// cycle reachable from the root has been broken
	ErrUnreachableCycle = errors.New("call graph has a cycle not reachable from root")

	// ErrCycleBreakingDiverged is returned when cycle breaking needs more
	// removals than the graph has edges
	ErrCycleBreakingDiverged = errors.New("cycle breaking did not terminate")

	// ErrInvalidBackEdge is returned when a policy picks an edge outside the cycle
	ErrInvalidBackEdge = errors.New("back edge policy chose an edge outside the cycle")
)

// DefaultPolicyName names the policy used when none is configured
const DefaultPolicyName = "last-edge"

// BackEdgePolicy decides which edge of a detected cycle is removed.
type BackEdgePolicy interface {
	// ChooseBackEdge returns one edge of cycle. cycle is never empty and is
	// ordered as discovered, ending with the edge that closed the cycle.
	ChooseBackEdge(cycle []models.Edge) models.Edge
}

// LastEdgePolicy removes the edge that closed the cycle during traversal.
//
// This is a heuristic: the closing edge is whatever the depth-first search
// reaches last, which is not necessarily the recursive call a human would
// pick, nor the edge whose removal preserves the most depth.
type LastEdgePolicy struct{}

// ChooseBackEdge returns the final edge of cycle
func (LastEdgePolicy) ChooseBackEdge(cycle []models.Edge) models.Edge {
	return cycle[len(cycle)-1]
}

// PolicyByName resolves a configured policy name
func PolicyByName(name string) (BackEdgePolicy, error) {
	switch name {
	case "", DefaultPolicyName:
		return LastEdgePolicy{}, nil
	default:
		return nil, fmt.Errorf("unsupported cycle policy: %s. Supported policies: %s", name, DefaultPolicyName)
	}
}

// FindCycle searches depth-first from source, following successors in
// insertion order, and returns the first cycle it closes. The edges are in
// traversal order; the last one is the edge that reached a node still on
// the search path. Cycles not reachable from source are not reported.
func (g *Graph) FindCycle(source string) ([]models.Edge, bool) {
	if !g.HasNode(source) {
		return nil, false
	}

	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var active []string
	// trail[i] is the edge from active[i] to active[i+1]
	var trail []models.Edge
	var cycle []models.Edge

	var dfs func(node string) bool
	dfs = func(node string) bool {
		color[node] = gray
		active = append(active, node)
		for _, next := range g.succ[node] {
			switch color[next] {
			case white:
				trail = append(trail, models.Edge{Caller: node, Callee: next})
				if dfs(next) {
					return true
				}
				trail = trail[:len(trail)-1]
			case gray:
				start := len(active) - 1
				for active[start] != next {
					start--
				}
				cycle = make([]models.Edge, 0, len(trail)-start+1)
				cycle = append(cycle, trail[start:]...)
				cycle = append(cycle, models.Edge{Caller: node, Callee: next})
				return true
			}
		}
		color[node] = black
		active = active[:len(active)-1]
		return false
	}

	if dfs(source) {
		return cycle, true
	}
	return nil, false
}

// CycleBreaker turns a cyclic call graph into a DAG anchored at a root
type CycleBreaker struct {
	logger *slog.Logger
	policy BackEdgePolicy
}

// NewCycleBreaker creates a cycle breaker. A nil policy selects LastEdgePolicy.
func NewCycleBreaker(logger *slog.Logger, policy BackEdgePolicy) *CycleBreaker {
	if policy == nil {
		policy = LastEdgePolicy{}
	}
	return &CycleBreaker{
		logger: logger,
		policy: policy,
	}
}

// Break removes one edge per detected cycle reachable from root until none
// remains, mutating g in place. It returns the removed edges in removal
// order. An acyclic graph is returned unchanged with no removals.
func (b *CycleBreaker) Break(g *Graph, root string) ([]models.Edge, error) {
	if !g.HasNode(root) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotInGraph, root)
	}

	limit := g.EdgeCount()
	var removed []models.Edge

	for {
		cycle, found := g.FindCycle(root)
		if !found {
			break
		}
		if len(removed) >= limit {
			return removed, fmt.Errorf("%w: %d removals for %d edges", ErrCycleBreakingDiverged, len(removed), limit)
		}

		backEdge := b.policy.ChooseBackEdge(cycle)
		if !containsEdge(cycle, backEdge) || !g.RemoveEdge(backEdge.Caller, backEdge.Callee) {
			return removed, fmt.Errorf("%w: %s", ErrInvalidBackEdge, backEdge)
		}
		removed = append(removed, backEdge)
		b.logger.Debug("Removed back edge", "caller", backEdge.Caller, "callee", backEdge.Callee, "cycle_length", len(cycle))
	}

	b.logger.Debug("Cycle breaking finished", "root", root, "removed_edges", len(removed))

	if !g.IsAcyclic() {
		return removed, fmt.Errorf("%w: %s", ErrUnreachableCycle, root)
	}
	return removed, nil
}

func containsEdge(edges []models.Edge, e models.Edge) bool {
	for _, candidate := range edges {
		if candidate == e {
			return true
		}
	}
	return false
}

package callgraph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

// Graph is a directed call graph keyed by function name.
//
// Nodes and successor lists keep first-insertion order so that every
// traversal, and therefore every cycle-breaking decision, is deterministic
// for a given edge list. Duplicate edges collapse.
type Graph struct {
	nodes []string
	index map[string]int
	succ  map[string][]string
	pred  map[string][]string
	edges map[models.Edge]bool
}

// NewGraph allocates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
		edges: make(map[models.Edge]bool),
	}
}

// NewGraphFromEdges builds a graph from an edge list in order.
func NewGraphFromEdges(edges []models.Edge) *Graph {
	g := NewGraph()
	for _, e := range edges {
		g.AddEdge(e.Caller, e.Callee)
	}
	return g
}

func (g *Graph) addNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge records caller->callee and reports whether the edge was new.
func (g *Graph) AddEdge(caller, callee string) bool {
	g.addNode(caller)
	g.addNode(callee)
	e := models.Edge{Caller: caller, Callee: callee}
	if g.edges[e] {
		return false
	}
	g.edges[e] = true
	g.succ[caller] = append(g.succ[caller], callee)
	g.pred[callee] = append(g.pred[callee], caller)
	return true
}

// RemoveEdge deletes caller->callee. Nodes are never removed, so a function
// stays in the graph even when its last edge goes away.
func (g *Graph) RemoveEdge(caller, callee string) bool {
	e := models.Edge{Caller: caller, Callee: callee}
	if !g.edges[e] {
		return false
	}
	delete(g.edges, e)
	g.succ[caller] = without(g.succ[caller], callee)
	g.pred[callee] = without(g.pred[callee], caller)
	return true
}

func without(list []string, name string) []string {
	for i, n := range list {
		if n == name {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// HasNode reports whether name is a node of the graph
func (g *Graph) HasNode(name string) bool {
	_, ok := g.index[name]
	return ok
}

// HasEdge reports whether caller->callee is an edge of the graph
func (g *Graph) HasEdge(caller, callee string) bool {
	return g.edges[models.Edge{Caller: caller, Callee: callee}]
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Successors returns the callees of name in insertion order
func (g *Graph) Successors(name string) []string {
	return g.succ[name]
}

// Predecessors returns the callers of name in insertion order
func (g *Graph) Predecessors(name string) []string {
	return g.pred[name]
}

// Edges returns every edge grouped by caller, callers in node order
func (g *Graph) Edges() []models.Edge {
	out := make([]models.Edge, 0, len(g.edges))
	for _, caller := range g.nodes {
		for _, callee := range g.succ[caller] {
			out = append(out, models.Edge{Caller: caller, Callee: callee})
		}
	}
	return out
}

// NodeCount returns |V|
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns |E|
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Clone returns an independent copy with the same node and edge order
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, n := range g.nodes {
		c.addNode(n)
	}
	for _, e := range g.Edges() {
		c.AddEdge(e.Caller, e.Callee)
	}
	return c
}

// Reachable returns the nodes reachable from source (source included) in
// depth-first preorder. It returns nil when source is not in the graph.
func (g *Graph) Reachable(source string) []string {
	if !g.HasNode(source) {
		return nil
	}
	visited := map[string]bool{source: true}
	order := []string{source}
	var visit func(string)
	visit = func(n string) {
		for _, next := range g.succ[n] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			visit(next)
		}
	}
	visit(source)
	return order
}

// TopologicalOrder returns the nodes so that every caller precedes its
// callees. Ties are resolved by node insertion order. ok is false when the
// graph contains a cycle.
func (g *Graph) TopologicalOrder() (order []string, ok bool) {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(g.pred[n])
	}

	var queue []string
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order = make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, next := range g.succ[n] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return order, len(order) == len(g.nodes)
}

// IsAcyclic reports whether the whole graph is a DAG
func (g *Graph) IsAcyclic() bool {
	_, ok := g.TopologicalOrder()
	return ok
}

// WriteEdgeList writes the graph in the edge-list text format, one line per
// caller: "caller callee1 callee2 ...". Callers without callees are omitted.
func (g *Graph) WriteEdgeList(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, caller := range g.nodes {
		callees := g.succ[caller]
		if len(callees) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", caller, strings.Join(callees, " ")); err != nil {
			return fmt.Errorf("failed to write edge list: %w", err)
		}
	}
	return bw.Flush()
}

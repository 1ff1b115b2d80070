package models

import "strings"

// Edge represents a "caller may call callee" relationship between two functions
type Edge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// String renders the edge as "caller->callee"
func (e Edge) String() string {
	return e.Caller + "->" + e.Callee
}

// Path is an ordered call chain. Path[0] is the root and every consecutive
// pair is an edge of the graph the path was computed on.
type Path []string

// Depth returns the node count of the path
func (p Path) Depth() int {
	return len(p)
}

// Root returns the first function of the path, or "" for an empty path
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Edges returns the consecutive caller/callee pairs of the path
func (p Path) Edges() []Edge {
	if len(p) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		edges = append(edges, Edge{Caller: p[i-1], Callee: p[i]})
	}
	return edges
}

func (p Path) String() string {
	return strings.Join(p, "->")
}

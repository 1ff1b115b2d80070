package callgraph

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

func edges(pairs ...string) []models.Edge {
	out := make([]models.Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Edge{Caller: pairs[i], Callee: pairs[i+1]})
	}
	return out
}

func TestGraphAddEdge(t *testing.T) {
	g := NewGraph()

	if !g.AddEdge("A", "B") {
		t.Error("expected first A->B to be new")
	}
	if g.AddEdge("A", "B") {
		t.Error("expected duplicate A->B to collapse")
	}
	g.AddEdge("A", "C")
	g.AddEdge("C", "A")

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	if got := g.Nodes(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Nodes() = %v, want insertion order", got)
	}
	if got := g.Successors("A"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("Successors(A) = %v", got)
	}
	if got := g.Predecessors("A"); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("Predecessors(A) = %v", got)
	}
}

func TestGraphRemoveEdgeKeepsNodes(t *testing.T) {
	g := NewGraphFromEdges(edges("A", "B", "A", "C", "B", "C"))

	if !g.RemoveEdge("A", "B") {
		t.Fatal("expected A->B to be removed")
	}
	if g.RemoveEdge("A", "B") {
		t.Error("expected second removal to report false")
	}
	if g.HasEdge("A", "B") {
		t.Error("A->B still present")
	}
	if !g.HasNode("B") {
		t.Error("B should stay in the graph after losing its incoming edge")
	}
	if got := g.Successors("A"); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("Successors(A) = %v, want [C]", got)
	}
	if got := g.Predecessors("C"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Predecessors(C) = %v, want [A B]", got)
	}
}

func TestGraphRemoveEdgeDoesNotAliasClone(t *testing.T) {
	g := NewGraphFromEdges(edges("A", "B", "A", "C", "A", "D"))
	c := g.Clone()

	g.RemoveEdge("A", "B")
	g.AddEdge("A", "E")

	if got := c.Successors("A"); !reflect.DeepEqual(got, []string{"B", "C", "D"}) {
		t.Errorf("clone successors changed: %v", got)
	}
	if c.HasNode("E") {
		t.Error("clone should not see nodes added later")
	}
}

func TestGraphTopologicalOrder(t *testing.T) {
	tests := []struct {
		name   string
		edges  []models.Edge
		want   []string
		wantOK bool
	}{
		{
			name:   "diamond",
			edges:  edges("A", "B", "B", "C", "B", "D", "C", "D"),
			want:   []string{"A", "B", "C", "D"},
			wantOK: true,
		},
		{
			name:   "two sources keep insertion order",
			edges:  edges("X", "Z", "Y", "Z"),
			want:   []string{"X", "Y", "Z"},
			wantOK: true,
		},
		{
			name:   "cycle",
			edges:  edges("A", "B", "B", "A"),
			wantOK: false,
		},
		{
			name:   "self loop",
			edges:  edges("A", "A"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraphFromEdges(tt.edges)
			order, ok := g.TopologicalOrder()
			if ok != tt.wantOK {
				t.Fatalf("TopologicalOrder() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(order, tt.want) {
				t.Errorf("TopologicalOrder() = %v, want %v", order, tt.want)
			}
			if g.IsAcyclic() != tt.wantOK {
				t.Errorf("IsAcyclic() = %v, want %v", g.IsAcyclic(), tt.wantOK)
			}
		})
	}
}

func TestGraphReachable(t *testing.T) {
	g := NewGraphFromEdges(edges("A", "B", "B", "C", "D", "A", "C", "A"))

	if got := g.Reachable("A"); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Reachable(A) = %v", got)
	}
	if got := g.Reachable("missing"); got != nil {
		t.Errorf("Reachable(missing) = %v, want nil", got)
	}
}

func TestGraphWriteEdgeList(t *testing.T) {
	g := NewGraphFromEdges(edges("main", "parse", "main", "run", "run", "exec", "parse", "exec"))

	var buf bytes.Buffer
	if err := g.WriteEdgeList(&buf); err != nil {
		t.Fatalf("WriteEdgeList() error = %v", err)
	}

	want := "main parse run\nparse exec\nrun exec\n"
	if buf.String() != want {
		t.Errorf("WriteEdgeList() =\n%q\nwant\n%q", buf.String(), want)
	}
}

// Package pathanalyzer computes deep call chains on acyclic call graphs.
package pathanalyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/smith-xyz/golang-stackdepth/pkg/callgraph"
	"github.com/smith-xyz/golang-stackdepth/pkg/models"
	"github.com/smith-xyz/golang-stackdepth/pkg/utils"
)

var (
	// ErrNotAcyclic is returned when a longest path is requested on a cyclic graph
	ErrNotAcyclic = errors.New("call graph is not acyclic")

	// ErrPathNotRooted is returned when the longest path of the graph does not start at the root
	ErrPathNotRooted = errors.New("longest path does not start at root")

	// ErrTooManyPaths is returned when simple path enumeration exceeds its bound
	ErrTooManyPaths = errors.New("too many simple paths")
)

// DefaultTopK is the number of paths kept by TopLongestPaths when k < 1
const DefaultTopK = 20

// Analyzer handles longest path analysis
type Analyzer struct {
	logger          *slog.Logger
	config          *Config
	instrumentation *utils.Instrumentation
}

// Config holds configuration for path analysis
type Config struct {
	Verbose  bool
	MaxPaths int // Upper bound on simple paths enumerated by TopLongestPaths, 0 means unbounded
}

// NewAnalyzer creates a new path analyzer
func NewAnalyzer(logger *slog.Logger, config *Config) *Analyzer {
	if config == nil {
		config = &Config{}
	}
	return &Analyzer{
		logger:          logger,
		config:          config,
		instrumentation: utils.NewInstrumentation(logger, config.Verbose),
	}
}

// LongestPath returns the path with the most nodes in g and checks that it
// starts at root.
//
// Nodes are processed in topological order (ties by insertion order). Each
// node keeps the first predecessor, in insertion order, with the greatest
// distance, and the path ends at the first node in topological order with
// the greatest distance. The path is the global longest path of the graph,
// so a deeper chain that does not start at root is an error rather than
// being silently ignored.
func (a *Analyzer) LongestPath(g *callgraph.Graph, root string) (models.Path, error) {
	if !g.HasNode(root) {
		return nil, fmt.Errorf("%w: %s", callgraph.ErrRootNotInGraph, root)
	}

	order, ok := g.TopologicalOrder()
	if !ok {
		return nil, ErrNotAcyclic
	}

	dist := make(map[string]int, len(order))
	prev := make(map[string]string, len(order))
	for _, node := range order {
		best, from := 0, ""
		for _, p := range g.Predecessors(node) {
			if d := dist[p] + 1; d > best {
				best, from = d, p
			}
		}
		dist[node] = best
		if from != "" {
			prev[node] = from
		}
	}

	end := order[0]
	for _, node := range order {
		if dist[node] > dist[end] {
			end = node
		}
	}

	path := models.Path{end}
	for node := end; ; {
		p, ok := prev[node]
		if !ok {
			break
		}
		path = append(path, p)
		node = p
	}
	reverse(path)

	if path[0] != root {
		return nil, fmt.Errorf("%w: path starts at %s, root is %s", ErrPathNotRooted, path[0], root)
	}

	a.logger.Debug("Computed longest path", "root", root, "depth", len(path))
	return path, nil
}

// TopLongestPaths enumerates every simple path from root to each other node
// and returns the k longest, longest first. Paths of equal length keep
// enumeration order. The enumeration is exponential in the worst case; the
// configured MaxPaths bound stops it with ErrTooManyPaths.
func (a *Analyzer) TopLongestPaths(g *callgraph.Graph, root string, k int) ([]models.Path, error) {
	if !g.HasNode(root) {
		return nil, fmt.Errorf("%w: %s", callgraph.ErrRootNotInGraph, root)
	}
	if k < 1 {
		k = DefaultTopK
	}

	nodes := g.Nodes()
	progress := a.instrumentation.NewProgressTracker("top longest paths", len(nodes))
	defer progress.Complete()

	var all []models.Path
	for _, target := range nodes {
		progress.Update(1)
		if target == root {
			continue
		}
		paths, err := a.simplePaths(g, root, target, len(all))
		if err != nil {
			return nil, err
		}
		all = append(all, paths...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return len(all[i]) > len(all[j])
	})

	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// simplePaths returns all simple paths from source to target in depth-first order
func (a *Analyzer) simplePaths(g *callgraph.Graph, source, target string, found int) ([]models.Path, error) {
	var paths []models.Path
	onPath := map[string]bool{source: true}
	current := models.Path{source}

	var walk func(node string) error
	walk = func(node string) error {
		for _, next := range g.Successors(node) {
			if onPath[next] {
				continue
			}
			if next == target {
				if a.config.MaxPaths > 0 && found+len(paths) >= a.config.MaxPaths {
					return fmt.Errorf("%w: more than %d", ErrTooManyPaths, a.config.MaxPaths)
				}
				p := make(models.Path, len(current), len(current)+1)
				copy(p, current)
				paths = append(paths, append(p, next))
				continue
			}
			onPath[next] = true
			current = append(current, next)
			if err := walk(next); err != nil {
				return err
			}
			current = current[:len(current)-1]
			onPath[next] = false
		}
		return nil
	}

	if err := walk(source); err != nil {
		return nil, err
	}
	return paths, nil
}

func reverse(p models.Path) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

package callgraph

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/smith-xyz/golang-stackdepth/pkg/utils"
)

var (
	// ErrEntryNotFound is returned when no function matches the requested entry
	ErrEntryNotFound = errors.New("entry function not found")

	// ErrAmbiguousEntry is returned when several functions match the requested entry
	ErrAmbiguousEntry = errors.New("entry function is ambiguous")
)

// Generator builds edge lists for Go programs. It plays the part of the
// external call-graph dumping tool: the files it writes use the same
// "<entry>.txt" name and "caller callee..." line format.
type Generator struct {
	logger      *slog.Logger
	packagePath string
	vlog        *utils.VerboseLogger
	algorithm   string
	moduleOnly  bool
	modulePath  string
}

// NewGenerator creates a new call graph generator
func NewGenerator(logger *slog.Logger, packagePath string, verbose bool) *Generator {
	return &Generator{
		logger:      logger,
		packagePath: packagePath,
		vlog:        utils.NewVerboseLogger(verbose),
		algorithm:   "rta",
	}
}

// SetAlgorithm sets the call graph algorithm to use
func (g *Generator) SetAlgorithm(algorithm string) error {
	// If empty, default to RTA
	if algorithm == "" {
		algorithm = "rta"
	}

	validAlgorithms := map[string]bool{
		"rta":    true, // Rapid Type Analysis
		"cha":    true, // Class Hierarchy Analysis
		"static": true, // Static call graph
		"vta":    true, // Variable Type Analysis
	}

	if !validAlgorithms[algorithm] {
		return fmt.Errorf("unsupported call graph algorithm: %s. Supported algorithms: rta, cha, static, vta", algorithm)
	}

	g.algorithm = algorithm
	return nil
}

// GetAlgorithm returns the currently configured call graph algorithm
func (g *Generator) GetAlgorithm() string {
	return g.algorithm
}

// SetModuleOnly restricts dumped edges to functions of the module found
// in go.mod above dir
func (g *Generator) SetModuleOnly(moduleOnly bool, dir string) error {
	g.moduleOnly = moduleOnly
	if !moduleOnly {
		g.modulePath = ""
		return nil
	}
	modulePath, err := utils.FindModulePath(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve module for module-only dump: %w", err)
	}
	g.modulePath = modulePath
	g.logger.Debug("Module-only dump", "module", modulePath)
	return nil
}

// Load loads the packages and builds the SSA program
func (g *Generator) Load() (*ssa.Program, []*ssa.Package, error) {
	g.vlog.Logf("Loading packages from: %s\n", g.packagePath)

	cfg := &packages.Config{
		Mode: packages.LoadAllSyntax | packages.NeedDeps | packages.NeedImports,
		Fset: token.NewFileSet(),
	}

	pkgs, err := packages.Load(cfg, g.packagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, nil, fmt.Errorf("errors encountered during package loading")
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	g.vlog.Logf("Built SSA program with %d packages\n", len(ssaPkgs))
	return prog, ssaPkgs, nil
}

// FindEntry returns the function whose FunctionID, RootID or full SSA name is entry
func FindEntry(prog *ssa.Program, entry string) (*ssa.Function, error) {
	var matches []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn == nil {
			continue
		}
		if FunctionID(fn) == entry || RootID(fn) == entry || fn.String() == entry {
			matches = append(matches, fn)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, fn := range matches {
			names = append(names, fn.String())
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguousEntry, entry, strings.Join(names, ", "))
	}
}

// Generate builds the SSA call graph rooted at entry with the configured algorithm
func (g *Generator) Generate(entry string) (*callgraph.Graph, *ssa.Function, error) {
	prog, _, err := g.Load()
	if err != nil {
		return nil, nil, err
	}

	entryFn, err := FindEntry(prog, entry)
	if err != nil {
		return nil, nil, err
	}

	graph, err := g.generateCallGraphWithAlgorithm(prog, entryFn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate call graph with %s algorithm: %w", g.algorithm, err)
	}

	g.vlog.Logf("Generated call graph with %d nodes\n", len(graph.Nodes))
	return graph, entryFn, nil
}

// generateCallGraphWithAlgorithm generates a call graph using the specified algorithm
func (g *Generator) generateCallGraphWithAlgorithm(prog *ssa.Program, entry *ssa.Function) (*callgraph.Graph, error) {
	g.logger.Debug("Generating call graph", "algorithm", g.algorithm, "entry", entry.String())

	switch g.algorithm {
	case "rta":
		result := rta.Analyze([]*ssa.Function{entry}, true)
		if result == nil || result.CallGraph == nil {
			return nil, fmt.Errorf("RTA analysis returned nil")
		}
		return result.CallGraph, nil

	case "cha":
		graph := cha.CallGraph(prog)
		if graph == nil {
			return nil, fmt.Errorf("CHA analysis returned nil")
		}
		return graph, nil

	case "static":
		graph := static.CallGraph(prog)
		if graph == nil {
			return nil, fmt.Errorf("static analysis returned nil")
		}
		return graph, nil

	case "vta":
		result := vta.CallGraph(ssautil.AllFunctions(prog), cha.CallGraph(prog))
		if result == nil {
			return nil, fmt.Errorf("VTA analysis returned nil")
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", g.algorithm)
	}
}

// BuildEdgeGraph walks the SSA call graph from entry and converts every
// reached call into a named edge. Synthetic wrapper and bound-method nodes
// are contracted so that the caller links directly to what they forward to.
// The entry is named by RootID and every other function by its import path
// qualified name, so functions of same-named packages stay distinct.
func (g *Generator) BuildEdgeGraph(cg *callgraph.Graph, entry *ssa.Function) (*Graph, error) {
	start := cg.Nodes[entry]
	if start == nil {
		return nil, fmt.Errorf("%w in call graph: %s", ErrEntryNotFound, entry.String())
	}

	root := RootID(entry)
	name := func(fn *ssa.Function) string {
		if fn == entry {
			return root
		}
		return NodeID(fn)
	}

	out := NewGraph()
	out.addNode(root)

	visited := map[*callgraph.Node]bool{start: true}
	queue := []*callgraph.Node{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		caller := name(node.Func)

		for _, callee := range g.resolveCallees(node, map[*callgraph.Node]bool{}) {
			if !g.includeFunction(callee.Func) {
				continue
			}
			out.AddEdge(caller, name(callee.Func))
			if !visited[callee] {
				visited[callee] = true
				queue = append(queue, callee)
			}
		}
	}

	g.logger.Debug("Built edge graph", "entry", root, "nodes", out.NodeCount(), "edges", out.EdgeCount())
	return out, nil
}

// resolveCallees returns the callees of node in call-site order, looking
// through artificial synthetic functions
func (g *Generator) resolveCallees(node *callgraph.Node, seen map[*callgraph.Node]bool) []*callgraph.Node {
	var callees []*callgraph.Node
	for _, edge := range node.Out {
		callee := edge.Callee
		if callee == nil || callee.Func == nil || seen[callee] {
			continue
		}
		if isArtificialSynthetic(callee.Func) {
			seen[callee] = true
			callees = append(callees, g.resolveCallees(callee, seen)...)
			continue
		}
		callees = append(callees, callee)
	}
	return callees
}

func isArtificialSynthetic(fn *ssa.Function) bool {
	if fn.Synthetic == "" {
		return false
	}
	return strings.Contains(fn.Synthetic, "wrapper") ||
		strings.Contains(fn.Synthetic, "bound") ||
		(fn.Name() == "bounds" && strings.Contains(fn.Synthetic, "check"))
}

// includeFunction applies the module-only filter
func (g *Generator) includeFunction(fn *ssa.Function) bool {
	if !g.moduleOnly {
		return true
	}
	if fn.Pkg == nil || fn.Pkg.Pkg == nil {
		return false
	}
	return isTargetPackage(g.modulePath, fn.Pkg.Pkg.Path())
}

// isTargetPackage checks if packagePath is targetPkg or one of its subpackages
func isTargetPackage(targetPkg, packagePath string) bool {
	if targetPkg == packagePath {
		return true
	}

	if strings.HasPrefix(packagePath, targetPkg) {
		remainder := strings.TrimPrefix(packagePath, targetPkg)
		return remainder == "" || strings.HasPrefix(remainder, "/")
	}

	return false
}

// Dump generates the call graph for entry and writes <dir>/<entry>.txt.
// It returns the function name used for the file, which is the root to
// analyze.
func (g *Generator) Dump(entry, dir string) (root string, filename string, err error) {
	cg, entryFn, err := g.Generate(entry)
	if err != nil {
		return "", "", err
	}

	edges, err := g.BuildEdgeGraph(cg, entryFn)
	if err != nil {
		return "", "", err
	}

	root = RootID(entryFn)
	filename = filepath.Join(dir, root+".txt")
	file, err := utils.SafeCreateFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("failed to create edge list %s: %w", filename, err)
	}
	defer file.Close()

	if err := edges.WriteEdgeList(file); err != nil {
		return "", "", err
	}

	fmt.Fprintf(os.Stderr, "Edge list successfully written to: %s\n", filename)
	return root, filename, nil
}

// FunctionID names an SSA function as "<package name>.<relative name>",
// e.g. "main.main" or "store.(*Cache).Get". It is how entries are given on
// the command line; it is not unique across packages with the same name.
func FunctionID(fn *ssa.Function) string {
	if fn.Pkg != nil && fn.Pkg.Pkg != nil {
		return fmt.Sprintf("%s.%s", fn.Pkg.Pkg.Name(), fn.RelString(fn.Pkg.Pkg))
	}
	return fn.Name()
}

// RootID is the FunctionID of an entry made safe for use as a file name
// and as a single edge-list token: path separators become "_" and
// whitespace is removed.
func RootID(fn *ssa.Function) string {
	id := strings.ReplaceAll(FunctionID(fn), "/", "_")
	return strings.Join(strings.Fields(id), "")
}

// NodeID names a non-entry function by its import path qualified name,
// e.g. "example.com/app/store.(*Cache).Get", without whitespace so it stays
// a single edge-list token.
func NodeID(fn *ssa.Function) string {
	return strings.Join(strings.Fields(fn.String()), "")
}

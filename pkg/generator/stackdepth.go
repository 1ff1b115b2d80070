package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	pathanalyzer "github.com/smith-xyz/golang-stackdepth/pkg/analysis/path"
	"github.com/smith-xyz/golang-stackdepth/pkg/analysis/stack"
	"github.com/smith-xyz/golang-stackdepth/pkg/callgraph"
	"github.com/smith-xyz/golang-stackdepth/pkg/loader"
	"github.com/smith-xyz/golang-stackdepth/pkg/models"
	"github.com/smith-xyz/golang-stackdepth/pkg/output"
	"github.com/smith-xyz/golang-stackdepth/pkg/utils"
)

// Runner runs the max stack depth analysis for one or more roots
type Runner struct {
	logger          *slog.Logger
	config          models.AnalysisConfig
	store           output.ReportStore
	out             io.Writer
	reporter        *output.TextReporter
	edgeLoader      *loader.EdgeLoader
	sizeLoader      *loader.StackSizeLoader
	cycleBreaker    *callgraph.CycleBreaker
	pathAnalyzer    *pathanalyzer.Analyzer
	instrumentation *utils.Instrumentation
}

// NewRunner creates a runner writing text reports to out. store may be nil,
// in which case no JSON record is written.
func NewRunner(logger *slog.Logger, config models.AnalysisConfig, store output.ReportStore, out io.Writer) (*Runner, error) {
	policy, err := callgraph.PolicyByName(config.CyclePolicy)
	if err != nil {
		return nil, err
	}

	return &Runner{
		logger:       logger,
		config:       config,
		store:        store,
		out:          out,
		reporter:     output.NewTextReporter(config.Color),
		edgeLoader:   loader.NewEdgeLoader(logger, config.EdgeDir),
		sizeLoader:   loader.NewStackSizeLoader(logger, config.Strict),
		cycleBreaker: callgraph.NewCycleBreaker(logger, policy),
		pathAnalyzer: pathanalyzer.NewAnalyzer(logger, &pathanalyzer.Config{
			Verbose:  config.Verbose,
			MaxPaths: config.MaxPaths,
		}),
		instrumentation: utils.NewInstrumentation(logger, config.Verbose),
	}, nil
}

// Target is one root to analyze and the directory holding its edge list
type Target struct {
	Root    string
	EdgeDir string // empty means the configured edge directory
}

// ParseTarget turns a command line argument into a Target. An argument
// ending in ".txt" is a path to an edge list and its base name without the
// suffix is the root, resolved against the working directory when the
// path has no directory part; anything else is a function name.
func ParseTarget(arg string) Target {
	if !strings.HasSuffix(arg, loader.EdgeFileSuffix) {
		return Target{Root: arg}
	}
	dir, root := filepath.Split(strings.TrimSuffix(arg, loader.EdgeFileSuffix))
	return Target{Root: root, EdgeDir: filepath.Clean(dir)}
}

// FindMaxDepths loads the stack usage report once and analyzes every
// target in order. The first fatal error stops the run.
func (r *Runner) FindMaxDepths(ctx context.Context, targets []Target) ([]*models.AnalysisResult, error) {
	var sizes models.StackSizeMap
	err := r.instrumentation.TimedOperation("load stack sizes", func() error {
		var err error
		sizes, err = r.sizeLoader.LoadStackSizes(r.config.StackSizesFile)
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]*models.AnalysisResult, 0, len(targets))
	for _, target := range targets {
		result, err := r.FindMaxDepth(ctx, target, sizes)
		if err != nil {
			return results, fmt.Errorf("analysis of %s failed: %w", target.Root, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// FindMaxDepth computes the deepest call chain from the target root,
// reports its known stack usage and appends the record to the configured
// store
func (r *Runner) FindMaxDepth(ctx context.Context, target Target, sizes models.StackSizeMap) (*models.AnalysisResult, error) {
	root := target.Root
	phases := r.instrumentation.NewPhaseTracker("find max depth " + root)
	result := &models.AnalysisResult{}

	phases.StartPhase("load edges")
	edgeLoader := r.edgeLoader
	if target.EdgeDir != "" {
		edgeLoader = loader.NewEdgeLoader(r.logger, target.EdgeDir)
	}
	edges, err := edgeLoader.LoadEdges(root)
	if err != nil {
		return nil, err
	}
	graph := callgraph.NewGraphFromEdges(edges)
	result.NodeCount = graph.NodeCount()
	result.EdgeCount = graph.EdgeCount()

	phases.StartPhase("break cycles")
	removed, err := r.cycleBreaker.Break(graph, root)
	if err != nil {
		return nil, err
	}
	result.RemovedEdges = removed
	if r.config.Verbose && len(removed) > 0 {
		if err := r.reporter.RenderRemovedEdges(r.out, removed); err != nil {
			return nil, err
		}
	}

	phases.StartPhase("longest path")
	path, err := r.pathAnalyzer.LongestPath(graph, root)
	if err != nil {
		return nil, err
	}

	if r.config.TopPaths {
		phases.StartPhase("top paths")
		top, err := r.pathAnalyzer.TopLongestPaths(graph, root, r.config.TopK)
		if err != nil {
			return nil, err
		}
		result.TopPaths = top
	}

	phases.StartPhase("report")
	frames := stack.Frames(path, sizes)
	result.Record = stack.Summarize(path, sizes)
	r.logger.Debug("Frame size coverage", "root", root, "coverage", stack.Coverage(result.Record))
	if err := r.reporter.Render(r.out, result.Record, frames); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	if result.TopPaths != nil {
		if err := r.reporter.RenderTopPaths(r.out, result.TopPaths); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}

	if r.store != nil {
		if err := r.store.Append(ctx, result.Record); err != nil {
			if !errors.Is(err, output.ErrStoreNotFound) {
				return nil, fmt.Errorf("failed to store report: %w", err)
			}
			result.OutputSkip = err.Error()
			r.logger.Warn("No output JSON file found, record not written", "error", err)
		}
	}

	phases.Complete(result.Record.MaxDepth)
	return result, nil
}

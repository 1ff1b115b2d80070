package generator

import (
	"fmt"
	"log/slog"

	"github.com/smith-xyz/golang-stackdepth/pkg/callgraph"
	"github.com/smith-xyz/golang-stackdepth/pkg/config"
)

// DumpOptions configures edge list generation for a Go program
type DumpOptions struct {
	PackagePath string // Package pattern handed to go/packages, e.g. "./cmd/server"
	Entry       string // Entry function, e.g. "main.main" or "store.(*Cache).Get"
	Dir         string // Directory receiving <entry>.txt
	Verbose     bool
}

// DumpGoCallGraph writes the edge list of a Go program and returns the
// target to analyze it with
func DumpGoCallGraph(logger *slog.Logger, cfg config.DumpConfig, opts DumpOptions) (Target, error) {
	if opts.PackagePath == "" {
		opts.PackagePath = "."
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	gen := callgraph.NewGenerator(logger, opts.PackagePath, opts.Verbose)
	if err := gen.SetAlgorithm(cfg.Algorithm); err != nil {
		return Target{}, fmt.Errorf("failed to set call graph algorithm: %w", err)
	}
	if err := gen.SetModuleOnly(cfg.ModuleOnly, "."); err != nil {
		return Target{}, err
	}

	root, filename, err := gen.Dump(opts.Entry, opts.Dir)
	if err != nil {
		return Target{}, fmt.Errorf("failed to dump call graph of %s: %w", opts.Entry, err)
	}

	logger.Debug("Dumped edge list", "root", root, "file", filename)
	return Target{Root: root, EdgeDir: opts.Dir}, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/smith-xyz/golang-stackdepth/pkg/config"
	"github.com/smith-xyz/golang-stackdepth/pkg/generator"
	"github.com/smith-xyz/golang-stackdepth/pkg/loader"
	"github.com/smith-xyz/golang-stackdepth/pkg/output"
	"github.com/smith-xyz/golang-stackdepth/pkg/utils"
	"github.com/smith-xyz/golang-stackdepth/pkg/version"
)

func usage(msg string) {
	if len(msg) > 0 {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "usage: stackdepth [flags] <function|file.txt> [function|file.txt ...]\n")
	fmt.Fprintf(os.Stderr, "       stackdepth -dump [-package pattern] [flags] <entry function>\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("stackdepth: ")

	var (
		stackLen    = flag.String("stacklen", "", "Stack frame sizes report (default from config, ./stack_sizes.txt)")
		outFile     = flag.String("out", "", "Existing JSON report file or s3://bucket/key to append the result to")
		configFile  = flag.String("config", "", "Configuration file (default: embedded config or ./stackdepth.toml)")
		edgeDir     = flag.String("edge-dir", "", "Directory holding <function>.txt edge lists")
		strict      = flag.Bool("strict", false, "Fail on malformed stack frame size lines instead of dropping them")
		topK        = flag.Int("top", 0, "Also list the N longest simple paths from the root (exhaustive, opt-in)")
		topPaths    = flag.Bool("top-paths", false, "Also list the analysis.top_k longest simple paths from the root")
		verbose     = flag.Bool("v", false, "Verbose output")
		showVersion = flag.Bool("version", false, "Show version information and exit")
		dump        = flag.Bool("dump", false, "Write <entry>.txt from a Go program's call graph before analyzing it")
		packagePath = flag.String("package", ".", "Go package pattern to load with -dump")
		algorithm   = flag.String("algo", "", "Call graph algorithm for -dump (rta, cha, static, vta)")
		dumpOnly    = flag.Bool("dump-only", false, "With -dump, stop after writing the edge list")
		moduleOnly  = flag.Bool("module-only", false, "With -dump, keep only functions of the current module")
		entries     = flag.String("entries", "", "Comma-separated list of additional root functions")
	)
	flag.Usage = func() { usage("") }
	flag.Parse()

	if *showVersion {
		if *verbose {
			fmt.Println(version.GetFullVersionString())
		} else {
			fmt.Println(version.GetVersionWithCommit())
		}
		os.Exit(0)
	}

	var args []string
	for _, arg := range flag.Args() {
		args = append(args, utils.ParseCommaDelimited(arg)...)
	}
	args = append(args, utils.ParseCommaDelimited(*entries)...)
	if len(args) == 0 {
		usage("please supply a function name or an edge list file")
	}

	logger := utils.NewLogger(*verbose)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	env, err := config.ReadEnv(".env")
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if err := cfg.ApplyEnv(env); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	// Flags win over config and environment
	if *stackLen != "" {
		cfg.Input.StackSizesFile = *stackLen
	}
	if *edgeDir != "" {
		cfg.Input.EdgeDir = *edgeDir
	}
	if *outFile != "" {
		cfg.Output.Out = *outFile
	}
	if *strict {
		cfg.Input.Strict = true
	}
	if *topK > 0 {
		cfg.Analysis.TopPaths = true
		cfg.Analysis.TopK = *topK
	}
	if *topPaths {
		cfg.Analysis.TopPaths = true
	}
	if *algorithm != "" {
		cfg.Dump.Algorithm = *algorithm
	}
	if *moduleOnly {
		cfg.Dump.ModuleOnly = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var targets []generator.Target
	if *dump {
		dumpDir := cfg.Input.EdgeDir
		for _, entry := range args {
			target, err := generator.DumpGoCallGraph(logger, cfg.Dump, generator.DumpOptions{
				PackagePath: *packagePath,
				Entry:       entry,
				Dir:         dumpDir,
				Verbose:     *verbose,
			})
			if err != nil {
				log.Fatalf("Dump failed: %v", err)
			}
			targets = append(targets, target)
		}
		if *dumpOnly {
			return
		}
	} else {
		if !utils.DirectoryExists(cfg.Input.EdgeDir) {
			log.Fatalf("Edge list directory %s does not exist", cfg.Input.EdgeDir)
		}
		for _, arg := range args {
			targets = append(targets, generator.ParseTarget(arg))
		}
	}

	analysisConfig := cfg.AnalysisConfig(*verbose)
	analysisConfig.Color = analysisConfig.Color && output.IsTerminal(os.Stdout)

	var store output.ReportStore
	if analysisConfig.OutPath != "" {
		store, err = output.OpenReportStore(analysisConfig.OutPath, cfg.Output.Indent, output.S3Config{
			Endpoint:  cfg.Output.S3.Endpoint,
			Region:    cfg.Output.S3.Region,
			AccessKey: cfg.Output.S3.AccessKey,
			SecretKey: cfg.Output.S3.SecretKey,
			UseSSL:    cfg.Output.S3.UseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to open output %s: %v", analysisConfig.OutPath, err)
		}
	}

	runner, err := generator.NewRunner(logger, analysisConfig, store, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create analysis: %v", err)
	}

	if _, err := runner.FindMaxDepths(context.Background(), targets); err != nil {
		if errors.Is(err, loader.ErrMissingInput) {
			log.Fatalf("Missing input: %v", err)
		}
		log.Fatalf("Analysis failed: %v", err)
	}
}

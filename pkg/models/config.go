package models

// AnalysisConfig contains configuration options for a single max-depth analysis
type AnalysisConfig struct {
	// Input Configuration
	EdgeDir        string // Directory holding <root>.txt edge lists
	StackSizesFile string // Compiler stack usage report
	Strict         bool   // Fail on malformed stack usage lines instead of dropping them

	// Cycle Breaking Configuration
	CyclePolicy string // Name of the back edge policy (see callgraph.PolicyByName)

	// Path Analysis Configuration
	TopPaths bool // Enumerate the top-K longest simple paths as well
	TopK     int  // Number of paths kept by the top-K enumeration
	MaxPaths int  // Upper bound on enumerated simple paths

	// Output Configuration
	OutPath string // JSON report destination (file path or s3://bucket/key), optional
	Color   bool   // Use ANSI colors in the text report

	// General Configuration
	Verbose bool // Enable verbose logging
}

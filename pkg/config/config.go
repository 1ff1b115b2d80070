package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/smith-xyz/golang-stackdepth/pkg/callgraph"
	"github.com/smith-xyz/golang-stackdepth/pkg/models"
	"github.com/smith-xyz/golang-stackdepth/pkg/utils"
)

//go:embed default_config.toml
var embeddedConfigData []byte

// LocalConfigName is the file name searched for local overrides
const LocalConfigName = "stackdepth.toml"

// Environment variables that override configuration values
const (
	EnvStackSizes  = "STACKDEPTH_STACKLEN"
	EnvEdgeDir     = "STACKDEPTH_EDGE_DIR"
	EnvOut         = "STACKDEPTH_OUT"
	EnvStrict      = "STACKDEPTH_STRICT"
	EnvS3AccessKey = "STACKDEPTH_S3_ACCESS_KEY"
	EnvS3SecretKey = "STACKDEPTH_S3_SECRET_KEY"
)

// Config holds the application configuration.
type Config struct {
	Input    InputConfig    `toml:"input"`
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`
	Dump     DumpConfig     `toml:"dump"`
}

// InputConfig locates the edge lists and the stack usage report.
type InputConfig struct {
	StackSizesFile string `toml:"stack_sizes_file"`
	EdgeDir        string `toml:"edge_dir"`
	Strict         bool   `toml:"strict"`
}

// AnalysisConfig tunes cycle breaking and path enumeration.
type AnalysisConfig struct {
	CyclePolicy string `toml:"cycle_policy"`
	TopPaths    bool   `toml:"top_paths"`
	TopK        int    `toml:"top_k"`
	MaxPaths    int    `toml:"max_paths"`
}

// OutputConfig controls the text and JSON reports.
type OutputConfig struct {
	Out    string   `toml:"out"`
	Color  bool     `toml:"color"`
	Indent string   `toml:"indent"`
	S3     S3Config `toml:"s3"`
}

// S3Config holds the object store settings for s3:// report destinations.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// DumpConfig controls edge list generation for Go programs.
type DumpConfig struct {
	Algorithm  string `toml:"algorithm"`
	ModuleOnly bool   `toml:"module_only"`
}

// DefaultConfig returns the embedded configuration, replaced by a local
// stackdepth.toml when one is found.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}

	localConfigPaths := []string{
		LocalConfigName,
		"../" + LocalConfigName,
		"../../" + LocalConfigName,
	}

	for _, path := range localConfigPaths {
		if utils.FileExists(path) {
			localConfig, err := LoadFromFile(path)
			if err != nil {
				// Log warning but continue with embedded config
				fmt.Fprintf(os.Stderr, "Warning: failed to load local config %s: %v\n", path, err)
				break
			}
			// Local completely replaces embedded
			return localConfig, nil
		}
	}

	return &config, nil
}

// LoadFromFile loads configuration from a TOML file. Keys missing from the
// file keep their embedded defaults.
func LoadFromFile(filepath string) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filepath, err)
	}
	return &config, nil
}

// Load returns the configuration at path, or DefaultConfig when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	return LoadFromFile(path)
}

// ReadEnv collects STACKDEPTH_* variables from the process environment and
// from the given dotenv files. Process variables win over file entries.
// Missing dotenv files are ignored.
func ReadEnv(files ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, file := range files {
		if !utils.FileExists(file) {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range values {
			if strings.HasPrefix(k, "STACKDEPTH_") {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, "STACKDEPTH_") {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides configuration values from environment variables
func (c *Config) ApplyEnv(env map[string]string) error {
	if v := strings.TrimSpace(env[EnvStackSizes]); v != "" {
		c.Input.StackSizesFile = v
	}
	if v := strings.TrimSpace(env[EnvEdgeDir]); v != "" {
		c.Input.EdgeDir = v
	}
	if v := strings.TrimSpace(env[EnvOut]); v != "" {
		c.Output.Out = v
	}
	if v := strings.TrimSpace(env[EnvStrict]); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvStrict, v, err)
		}
		c.Input.Strict = strict
	}
	if v := strings.TrimSpace(env[EnvS3AccessKey]); v != "" {
		c.Output.S3.AccessKey = v
	}
	if v := strings.TrimSpace(env[EnvS3SecretKey]); v != "" {
		c.Output.S3.SecretKey = v
	}
	return nil
}

// Validate rejects values no analysis can run with
func (c *Config) Validate() error {
	if _, err := callgraph.PolicyByName(c.Analysis.CyclePolicy); err != nil {
		return err
	}
	if c.Analysis.TopK < 1 {
		return fmt.Errorf("analysis.top_k must be at least 1, got %d", c.Analysis.TopK)
	}
	if c.Analysis.MaxPaths < 1 {
		return fmt.Errorf("analysis.max_paths must be at least 1, got %d", c.Analysis.MaxPaths)
	}
	switch c.Dump.Algorithm {
	case "", "rta", "cha", "static", "vta":
	default:
		return fmt.Errorf("unsupported dump algorithm: %s", c.Dump.Algorithm)
	}
	return nil
}

// AnalysisConfig converts the file configuration into per-run settings
func (c *Config) AnalysisConfig(verbose bool) models.AnalysisConfig {
	return models.AnalysisConfig{
		EdgeDir:        c.Input.EdgeDir,
		StackSizesFile: c.Input.StackSizesFile,
		Strict:         c.Input.Strict,
		CyclePolicy:    c.Analysis.CyclePolicy,
		TopPaths:       c.Analysis.TopPaths,
		TopK:           c.Analysis.TopK,
		MaxPaths:       c.Analysis.MaxPaths,
		OutPath:        c.Output.Out,
		Color:          c.Output.Color,
		Verbose:        verbose,
	}
}

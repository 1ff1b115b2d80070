package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() error = %v", err)
	}

	if config.Input.StackSizesFile != "./stack_sizes.txt" {
		t.Errorf("stack_sizes_file = %q", config.Input.StackSizesFile)
	}
	if config.Input.EdgeDir != "." {
		t.Errorf("edge_dir = %q", config.Input.EdgeDir)
	}
	if config.Input.Strict {
		t.Error("strict should default to false")
	}
	if config.Analysis.CyclePolicy != "last-edge" {
		t.Errorf("cycle_policy = %q", config.Analysis.CyclePolicy)
	}
	if config.Analysis.TopK != 20 {
		t.Errorf("top_k = %d, want 20", config.Analysis.TopK)
	}
	if config.Dump.Algorithm != "rta" {
		t.Errorf("dump algorithm = %q", config.Dump.Algorithm)
	}
	if config.Output.S3.Region != "us-east-1" || !config.Output.S3.UseSSL {
		t.Errorf("unexpected s3 defaults: %+v", config.Output.S3)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackdepth.toml")
	content := `
[input]
stack_sizes_file = "/var/lib/stack/usage.txt"
strict = true

[analysis]
top_paths = true
top_k = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if config.Input.StackSizesFile != "/var/lib/stack/usage.txt" || !config.Input.Strict {
		t.Errorf("input section not applied: %+v", config.Input)
	}
	if config.Analysis.TopK != 5 {
		t.Errorf("top_k = %d, want 5", config.Analysis.TopK)
	}
	if !config.Analysis.TopPaths {
		t.Error("top_paths = true was not applied")
	}
	if ac := config.AnalysisConfig(false); !ac.TopPaths || ac.TopK != 5 {
		t.Errorf("AnalysisConfig() top paths = %v/%d, want true/5", ac.TopPaths, ac.TopK)
	}
	if config.Analysis.MaxPaths != 1000000 {
		t.Errorf("max_paths should keep its default, got %d", config.Analysis.MaxPaths)
	}
	if config.Input.EdgeDir != "." {
		t.Errorf("edge_dir should keep its default, got %q", config.Input.EdgeDir)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[input\nstrict = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected an error for invalid TOML")
	}
}

func TestReadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "STACKDEPTH_STACKLEN=/from/dotenv.txt\nSTACKDEPTH_EDGE_DIR=/edges\nUNRELATED=1\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvEdgeDir, "/from/process")

	env, err := ReadEnv(envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("ReadEnv() error = %v", err)
	}
	if env[EnvStackSizes] != "/from/dotenv.txt" {
		t.Errorf("%s = %q", EnvStackSizes, env[EnvStackSizes])
	}
	if env[EnvEdgeDir] != "/from/process" {
		t.Errorf("process environment should win, got %q", env[EnvEdgeDir])
	}
	if _, ok := env["UNRELATED"]; ok {
		t.Error("variables without the STACKDEPTH_ prefix should be ignored")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(*Config) bool
		wantErr bool
	}{
		{
			name:  "stack sizes file",
			env:   map[string]string{EnvStackSizes: "/tmp/sizes.txt"},
			check: func(c *Config) bool { return c.Input.StackSizesFile == "/tmp/sizes.txt" },
		},
		{
			name: "output and credentials",
			env:  map[string]string{EnvOut: "s3://r/k.json", EnvS3AccessKey: "ak", EnvS3SecretKey: "sk"},
			check: func(c *Config) bool {
				return c.Output.Out == "s3://r/k.json" && c.Output.S3.AccessKey == "ak" && c.Output.S3.SecretKey == "sk"
			},
		},
		{
			name:  "strict",
			env:   map[string]string{EnvStrict: "true"},
			check: func(c *Config) bool { return c.Input.Strict },
		},
		{
			name:  "blank values are ignored",
			env:   map[string]string{EnvEdgeDir: "  "},
			check: func(c *Config) bool { return c.Input.EdgeDir == "." },
		},
		{
			name:    "invalid strict value",
			env:     map[string]string{EnvStrict: "sometimes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadFromFile(writeEmptyConfig(t))
			if err != nil {
				t.Fatal(err)
			}
			err = config.ApplyEnv(tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(config) {
				t.Errorf("ApplyEnv() produced %+v", config)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown cycle policy", func(c *Config) { c.Analysis.CyclePolicy = "random" }},
		{"top_k below one", func(c *Config) { c.Analysis.TopK = 0 }},
		{"max_paths below one", func(c *Config) { c.Analysis.MaxPaths = 0 }},
		{"unknown algorithm", func(c *Config) { c.Dump.Algorithm = "pointer" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadFromFile(writeEmptyConfig(t))
			if err != nil {
				t.Fatal(err)
			}
			tt.modify(config)
			if err := config.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestAnalysisConfig(t *testing.T) {
	config, err := LoadFromFile(writeEmptyConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	config.Output.Out = "report.json"

	ac := config.AnalysisConfig(true)
	if !ac.Verbose || ac.OutPath != "report.json" || ac.TopPaths || ac.TopK != 20 || ac.EdgeDir != "." {
		t.Errorf("AnalysisConfig() = %+v", ac)
	}
}

// writeEmptyConfig returns a config file that keeps every embedded default
func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrimSpaceSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "mixed whitespace and content",
			input:    []string{"  vfs_read  ", "", "\tksys_read", "   "},
			expected: []string{"vfs_read", "ksys_read"},
		},
		{
			name:     "all empty",
			input:    []string{"", "  ", "\t"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimSpaceSlice(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, result)
			}
			for i := range tt.expected {
				if result[i] != tt.expected[i] {
					t.Errorf("At index %d: expected %q, got %q", i, tt.expected[i], result[i])
				}
			}
		})
	}
}

func TestParseCommaDelimited(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"main.main,main.init", []string{"main.main", "main.init"}},
		{" vfs_read , vfs_write ,", []string{"vfs_read", "vfs_write"}},
		{"", nil},
		{"single", []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseCommaDelimited(tt.input)
			if strings.Join(result, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("ParseCommaDelimited(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer

	verbose := &VerboseLogger{verbose: true, out: &buf}
	verbose.Logf("loading %s\n", "pkg")
	verbose.Log("done\n")
	if buf.String() != "loading pkg\ndone\n" {
		t.Errorf("verbose output = %q", buf.String())
	}

	buf.Reset()
	quiet := &VerboseLogger{verbose: false, out: &buf}
	quiet.Logf("loading %s\n", "pkg")
	quiet.Log("done\n")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
	if quiet.IsVerbose() || !NewVerboseLogger(true).IsVerbose() {
		t.Error("IsVerbose() does not reflect the constructor argument")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	newLoggerTo(&buf, false).Debug("hidden")
	newLoggerTo(&buf, false).Warn("shown", "root", "A")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug records should be dropped when not verbose")
	}
	if !strings.Contains(buf.String(), "root=A") {
		t.Errorf("expected structured attributes, got %q", buf.String())
	}

	buf.Reset()
	newLoggerTo(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug records should be kept when verbose")
	}
}

func TestFindModulePath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/kernel/tools\n\ngo 1.21\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "cmd", "stack")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	for _, dir := range []string{root, nested} {
		modulePath, err := FindModulePath(dir)
		if err != nil {
			t.Fatalf("FindModulePath(%s) error = %v", dir, err)
		}
		if modulePath != "example.com/kernel/tools" {
			t.Errorf("FindModulePath(%s) = %s", dir, modulePath)
		}
	}
}

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(file, []byte("A B\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) || FileExists(dir) || FileExists("") {
		t.Error("FileExists() gave a wrong answer")
	}
	if !DirectoryExists(dir) || DirectoryExists(file) || DirectoryExists("") {
		t.Error("DirectoryExists() gave a wrong answer")
	}
}

func TestSafeCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "main.main.txt")
	file, err := SafeCreateFile(path)
	if err != nil {
		t.Fatalf("SafeCreateFile() error = %v", err)
	}
	file.Close()
	if !FileExists(path) {
		t.Error("expected the file and its parent directory to be created")
	}

	rejected := []string{"/etc/stackdepth.txt", "../outside.txt", "/proc/self/stack"}
	for _, p := range rejected {
		if _, err := SafeCreateFile(p); err == nil {
			t.Errorf("SafeCreateFile(%s) should be rejected", p)
		}
	}
}

func TestPhaseTracker(t *testing.T) {
	inst := NewInstrumentation(newLoggerTo(io.Discard, true), true)
	pt := inst.NewPhaseTracker("analysis")

	pt.StartPhase("load")
	pt.StartPhase("solve")
	pt.Complete(3)

	for _, phase := range []string{"load", "solve"} {
		if _, ok := pt.duration(phase); !ok {
			t.Errorf("expected a duration for phase %s", phase)
		}
	}
	if _, ok := pt.duration("never"); ok {
		t.Error("unexpected duration for a phase that never ran")
	}
}

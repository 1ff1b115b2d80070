package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// FindModulePath returns the module path declared by the nearest go.mod at
// or above startDir
func FindModulePath(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", startDir, err)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if content, err := os.ReadFile(goModPath); err == nil {
			// Parse go.mod using Go's official parser
			modulePath := modfile.ModulePath(content)
			if modulePath == "" {
				return "", fmt.Errorf("no module directive in %s", goModPath)
			}
			return modulePath, nil
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no go.mod found at or above %s", startDir)
}

package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

var (
	// ErrMissingInput is returned when an edge list or stack usage report does not exist
	ErrMissingInput = errors.New("missing input")

	// ErrMalformedLine is returned by strict parsing for a line that does not
	// follow the stack usage format
	ErrMalformedLine = errors.New("malformed line")
)

// EdgeFileSuffix is appended to the root function name to find its edge list
const EdgeFileSuffix = ".txt"

// EdgeLoader loads caller/callee edge lists written by the call graph dumper
type EdgeLoader struct {
	logger *slog.Logger
	dir    string
}

// NewEdgeLoader creates an edge loader reading from dir ("" means the current directory)
func NewEdgeLoader(logger *slog.Logger, dir string) *EdgeLoader {
	if dir == "" {
		dir = "."
	}
	return &EdgeLoader{logger: logger, dir: dir}
}

// EdgeFileName returns the file name holding the edge list of root
func EdgeFileName(root string) string {
	return root + EdgeFileSuffix
}

// LoadEdges loads <dir>/<root>.txt
func (l *EdgeLoader) LoadEdges(root string) ([]models.Edge, error) {
	filename := filepath.Join(l.dir, EdgeFileName(root))
	l.logger.Debug("Loading edge list", "root", root, "file", filename)

	file, err := os.Open(filepath.Clean(filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: edge list %s: %w", ErrMissingInput, filename, err)
		}
		return nil, fmt.Errorf("failed to open edge list %s: %w", filename, err)
	}
	defer file.Close()

	edges, err := LoadEdgesFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read edge list %s: %w", filename, err)
	}

	l.logger.Debug("Loaded edge list", "root", root, "edges", len(edges))
	return edges, nil
}

// LoadEdgesFromReader parses "caller callee1 callee2 ..." lines. Tokens are
// whitespace separated; a line with a single token yields no edges.
func LoadEdgesFromReader(reader io.Reader) ([]models.Edge, error) {
	var edges []models.Edge

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i := 1; i < len(fields); i++ {
			edges = append(edges, models.Edge{Caller: fields[0], Callee: fields[i]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return edges, nil
}

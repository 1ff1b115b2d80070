package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

// StackSizeLoader parses compiler stack usage reports. Each useful line
// holds exactly one colon; the second whitespace token before the colon is
// the function name and the integer after it is the frame size, e.g.
//
//	0xffffffff81234567 __do_sys_foo [vmlinux]:	1024
//
// By default malformed lines are dropped without being reported, which can
// hide data loss; Strict turns them into errors.
type StackSizeLoader struct {
	logger *slog.Logger
	strict bool
}

// NewStackSizeLoader creates a new stack size loader
func NewStackSizeLoader(logger *slog.Logger, strict bool) *StackSizeLoader {
	return &StackSizeLoader{logger: logger, strict: strict}
}

// LoadStackSizes loads a stack usage report from a file
func (l *StackSizeLoader) LoadStackSizes(filePath string) (models.StackSizeMap, error) {
	l.logger.Debug("Loading stack sizes", "file", filePath)

	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: stack size report %s: %w", ErrMissingInput, filePath, err)
		}
		return nil, fmt.Errorf("failed to open stack size report %s: %w", filePath, err)
	}
	defer file.Close()

	sizes, err := l.LoadStackSizesFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack size report %s: %w", filePath, err)
	}
	return sizes, nil
}

// MaxStackSizeLineLength is the longest stack usage line that is parsed.
// Longer lines are malformed.
const MaxStackSizeLineLength = 64 * 1024

// LoadStackSizesFromReader parses a stack usage report. A repeated function
// name keeps the last size seen.
func (l *StackSizeLoader) LoadStackSizesFromReader(reader io.Reader) (models.StackSizeMap, error) {
	sizes := make(models.StackSizeMap)
	skipped := 0
	lineNumber := 0

	br := bufio.NewReaderSize(reader, MaxStackSizeLineLength)
	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lineNumber++

		var name string
		var size int64
		if tooLong {
			err = fmt.Errorf("%w: line longer than %d bytes", ErrMalformedLine, MaxStackSizeLineLength)
		} else {
			if strings.TrimSpace(line) == "" {
				continue
			}
			name, size, err = ParseStackSizeLine(line)
		}
		if err != nil {
			if l.strict {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			skipped++
			continue
		}
		sizes[name] = size
	}

	l.logger.Debug("Loaded stack sizes", "functions", len(sizes), "skipped_lines", skipped)
	return sizes, nil
}

// readLine returns the next line without its terminator. A line that does
// not fit the reader's buffer is consumed and reported as tooLong.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	chunk, isPrefix, err := br.ReadLine()
	if err != nil {
		return "", false, err
	}
	if !isPrefix {
		return string(chunk), false, nil
	}
	for isPrefix {
		_, isPrefix, err = br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false, err
		}
	}
	return "", true, nil
}

// ParseStackSizeLine extracts the function name and frame size from one
// report line. Tokenization is positional: punctuation around the name is kept.
func ParseStackSizeLine(line string) (string, int64, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("%w: want exactly one colon, got %d: %q", ErrMalformedLine, len(parts)-1, line)
	}

	fields := strings.Fields(parts[0])
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("%w: no function name before colon: %q", ErrMalformedLine, line)
	}

	size, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: frame size is not an integer: %q", ErrMalformedLine, line)
	}

	return fields[1], size, nil
}

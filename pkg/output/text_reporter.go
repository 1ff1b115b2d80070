package output

import (
	"fmt"
	"io"
	"os"

	"github.com/smith-xyz/golang-stackdepth/pkg/analysis/stack"
	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiBlue  = "\033[34m"
)

// TextReporter renders the human-readable stack depth report
type TextReporter struct {
	color bool
}

// NewTextReporter creates a reporter; color enables ANSI escapes
func NewTextReporter(color bool) *TextReporter {
	return &TextReporter{color: color}
}

// IsTerminal reports whether f is a character device
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (r *TextReporter) paint(code string, v interface{}) string {
	if !r.color {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%s%v%s", code, v, ansiReset)
}

// Render writes the report for one analyzed root
func (r *TextReporter) Render(w io.Writer, record models.StackReportRecord, frames []stack.Frame) error {
	ew := &errWriter{w: w}

	ew.printf("Function: %s\n", r.paint(ansiBlue, record.Root))
	ew.printf("Max stack functions depth: %s\n", r.paint(ansiRed, record.MaxDepth))
	ew.printf("Max stack functions path:\n")
	for _, frame := range frames {
		size := "?"
		if frame.Known {
			size = fmt.Sprint(frame.Size)
		}
		ew.printf("->%s(%s)", r.paint(ansiGreen, frame.Function), r.paint(ansiRed, size))
	}
	ew.printf("\n\n")
	ew.printf("Known max stack depth size: %s bytes (%d of %d)\n",
		r.paint(ansiRed, record.KnownFramesTotalSize), record.KnownFrameLensCount, record.MaxDepth)

	return ew.err
}

// RenderTopPaths writes the ranked paths of the top-K enumeration
func (r *TextReporter) RenderTopPaths(w io.Writer, paths []models.Path) error {
	ew := &errWriter{w: w}

	ew.printf("Top %d longest paths:\n", len(paths))
	for i, p := range paths {
		ew.printf("%d. (depth %s) %s\n", i+1, r.paint(ansiRed, p.Depth()), p.String())
	}

	return ew.err
}

// RenderRemovedEdges lists the back edges removed to make the graph acyclic
func (r *TextReporter) RenderRemovedEdges(w io.Writer, edges []models.Edge) error {
	ew := &errWriter{w: w}

	ew.printf("Removed %d back edge(s):\n", len(edges))
	for _, e := range edges {
		ew.printf("  %s\n", e.String())
	}

	return ew.err
}

// errWriter keeps the first write error so rendering code stays linear
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Package stack joins call paths with compiler-reported frame sizes.
package stack

import "github.com/smith-xyz/golang-stackdepth/pkg/models"

// Frame is one function of a path with its frame size, if known
type Frame struct {
	Function string
	Size     int64
	Known    bool
}

// Frames looks up the frame size of every function along path
func Frames(path models.Path, sizes models.StackSizeMap) []Frame {
	frames := make([]Frame, 0, len(path))
	for _, fn := range path {
		size, known := sizes.Lookup(fn)
		frames = append(frames, Frame{Function: fn, Size: size, Known: known})
	}
	return frames
}

// Summarize builds the report record for path. A function counts as known
// when the map has an entry for it, including a zero-byte frame; unknown
// frames add nothing to the total.
func Summarize(path models.Path, sizes models.StackSizeMap) models.StackReportRecord {
	record := models.StackReportRecord{
		Root:         path.Root(),
		MaxDepth:     path.Depth(),
		MaxDepthPath: path,
	}
	for _, frame := range Frames(path, sizes) {
		if !frame.Known {
			continue
		}
		record.KnownFramesTotalSize += frame.Size
		record.KnownFrameLensCount++
	}
	return record
}

// Coverage returns the fraction of path frames with a known size
func Coverage(record models.StackReportRecord) float64 {
	if record.MaxDepth == 0 {
		return 0
	}
	return float64(record.KnownFrameLensCount) / float64(record.MaxDepth)
}

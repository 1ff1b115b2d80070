package models

import (
	"encoding/json"
	"fmt"
)

// StackSizeMap maps a function name to its stack frame size in bytes
type StackSizeMap map[string]int64

// Lookup returns the frame size of fn and whether it is known
func (m StackSizeMap) Lookup(fn string) (int64, bool) {
	size, ok := m[fn]
	return size, ok
}

// StackReportRecord is the write-once result of analyzing one root
type StackReportRecord struct {
	Root                 string
	MaxDepth             int
	KnownFramesTotalSize int64
	KnownFrameLensCount  int
	MaxDepthPath         Path
}

// stackReportBody is the value stored under the root key of a serialized record
type stackReportBody struct {
	MaxDepth             int      `json:"max_depth"`
	KnownFramesTotalSize int64    `json:"known_frames_total_size"`
	KnownFrameLensCount  int      `json:"known_frame_lens_count"`
	MaxDepthPath         []string `json:"max_depth_path"`
}

// MarshalJSON encodes the record as a single-key object keyed by the root
func (r StackReportRecord) MarshalJSON() ([]byte, error) {
	path := []string(r.MaxDepthPath)
	if path == nil {
		path = []string{}
	}
	return json.Marshal(map[string]stackReportBody{
		r.Root: {
			MaxDepth:             r.MaxDepth,
			KnownFramesTotalSize: r.KnownFramesTotalSize,
			KnownFrameLensCount:  r.KnownFrameLensCount,
			MaxDepthPath:         path,
		},
	})
}

// UnmarshalJSON decodes a single-key object produced by MarshalJSON
func (r *StackReportRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]stackReportBody
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse stack report record: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("stack report record must have exactly one root key, got %d", len(raw))
	}
	for root, body := range raw {
		*r = StackReportRecord{
			Root:                 root,
			MaxDepth:             body.MaxDepth,
			KnownFramesTotalSize: body.KnownFramesTotalSize,
			KnownFrameLensCount:  body.KnownFrameLensCount,
			MaxDepthPath:         Path(body.MaxDepthPath),
		}
	}
	return nil
}

// AnalysisResult collects everything produced while analyzing one root
type AnalysisResult struct {
	Record       StackReportRecord `json:"record"`
	RemovedEdges []Edge            `json:"removed_edges"`            // Feedback arc set chosen by the cycle breaker
	TopPaths     []Path            `json:"top_paths,omitempty"`      // Only set when top-K enumeration is enabled
	NodeCount    int               `json:"node_count"`               // Nodes in the loaded call graph
	EdgeCount    int               `json:"edge_count"`               // Edges in the loaded call graph, before cycle breaking
	OutputSkip   string            `json:"output_skipped,omitempty"` // Why the JSON store was not written, if it was not
}

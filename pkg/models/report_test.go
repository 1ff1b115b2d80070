package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStackReportRecordJSON(t *testing.T) {
	record := StackReportRecord{
		Root:                 "A",
		MaxDepth:             4,
		KnownFramesTotalSize: 56,
		KnownFrameLensCount:  3,
		MaxDepthPath:         Path{"A", "B", "C", "D"},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"A":{"max_depth":4,"known_frames_total_size":56,"known_frame_lens_count":3,"max_depth_path":["A","B","C","D"]}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded StackReportRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, record) {
		t.Errorf("Unmarshal() = %+v, want %+v", decoded, record)
	}
}

func TestStackReportRecordRejectsMultipleRoots(t *testing.T) {
	var r StackReportRecord
	err := json.Unmarshal([]byte(`{"A":{"max_depth":1},"B":{"max_depth":1}}`), &r)
	if err == nil {
		t.Error("expected an error for a record with two root keys")
	}
}

func TestPath(t *testing.T) {
	p := Path{"main", "run", "exec"}
	if p.Depth() != 3 || p.Root() != "main" {
		t.Errorf("Depth() = %d, Root() = %s", p.Depth(), p.Root())
	}
	if p.String() != "main->run->exec" {
		t.Errorf("String() = %s", p.String())
	}
	wantEdges := []Edge{{Caller: "main", Callee: "run"}, {Caller: "run", Callee: "exec"}}
	if !reflect.DeepEqual(p.Edges(), wantEdges) {
		t.Errorf("Edges() = %v", p.Edges())
	}
	if (Path{}).Root() != "" || (Path{"x"}).Edges() != nil {
		t.Error("empty and single-node paths should have no root or edges")
	}
}

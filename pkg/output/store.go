package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

// ErrStoreNotFound is returned by Append when the destination does not
// already exist. Stores never create their backing file or object; callers
// treat this as "output skipped", not as a failed run.
var ErrStoreNotFound = errors.New("report store does not exist")

// ReportStore accumulates stack report records in append-only order
type ReportStore interface {
	Append(ctx context.Context, record models.StackReportRecord) error
}

// FileReportStore keeps records in a JSON array file. Each Append reads
// the whole array, appends in memory and rewrites the file.
type FileReportStore struct {
	path   string
	indent string
}

// NewFileReportStore creates a store backed by the JSON file at path
func NewFileReportStore(path, indent string) *FileReportStore {
	return &FileReportStore{path: path, indent: indent}
}

// Path returns the backing file
func (s *FileReportStore) Path() string {
	return s.path
}

// Append adds record to the array in the file, which must already exist
func (s *FileReportStore) Append(_ context.Context, record models.StackReportRecord) error {
	cleanPath := filepath.Clean(s.path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, s.path)
		}
		return fmt.Errorf("failed to stat report file %s: %w", s.path, err)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read report file %s: %w", s.path, err)
	}

	out, err := AppendRecord(data, record, s.indent)
	if err != nil {
		return fmt.Errorf("failed to update report file %s: %w", s.path, err)
	}
	if err := os.WriteFile(cleanPath, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", s.path, err)
	}
	return nil
}

// Records returns the records currently stored in the file
func (s *FileReportStore) Records() ([]models.StackReportRecord, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read report file %s: %w", s.path, err)
	}
	return DecodeRecords(data)
}

// MemoryReportStore keeps records in memory
type MemoryReportStore struct {
	mu      sync.Mutex
	records []models.StackReportRecord
}

// NewMemoryReportStore creates an empty in-memory store
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{}
}

// Append adds record to the store
func (s *MemoryReportStore) Append(_ context.Context, record models.StackReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of the stored records
func (s *MemoryReportStore) Records() []models.StackReportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.StackReportRecord, len(s.records))
	copy(out, s.records)
	return out
}

// DecodeRecords parses a JSON array of records; empty input is an empty array
func DecodeRecords(data []byte) ([]models.StackReportRecord, error) {
	elements, err := decodeElements(data)
	if err != nil {
		return nil, err
	}
	records := make([]models.StackReportRecord, 0, len(elements))
	for i, element := range elements {
		var record models.StackReportRecord
		if err := json.Unmarshal(element, &record); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// AppendRecord adds record to the JSON array in data. Existing elements are
// carried over as raw JSON, whatever their shape, so earlier records are
// never rewritten.
func AppendRecord(data []byte, record models.StackReportRecord, indent string) ([]byte, error) {
	elements, err := decodeElements(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse existing records: %w", err)
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stack report record: %w", err)
	}
	return encodeElements(append(elements, encoded), indent)
}

func decodeElements(data []byte) ([]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, err
	}
	if elements == nil {
		elements = []json.RawMessage{}
	}
	return elements, nil
}

func encodeElements(elements []json.RawMessage, indent string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	if err := encoder.Encode(elements); err != nil {
		return nil, fmt.Errorf("failed to encode stack report records: %w", err)
	}
	return buf.Bytes(), nil
}

// IsS3URL reports whether dest names an object store destination
func IsS3URL(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// OpenReportStore returns the store for dest: an S3ReportStore for
// s3://bucket/key, a FileReportStore otherwise
func OpenReportStore(dest, indent string, s3 S3Config) (ReportStore, error) {
	if IsS3URL(dest) {
		return NewS3ReportStore(s3, dest, indent)
	}
	return NewFileReportStore(dest, indent), nil
}

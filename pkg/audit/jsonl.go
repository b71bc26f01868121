package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	auditFileName  = "audit.jsonl"
	threatFileName = "threats.jsonl"
)

// JSONLSink appends records as JSON lines under a log directory: every
// record goes to audit.jsonl, high and critical records additionally to
// threats.jsonl.
type JSONLSink struct {
	mu      sync.Mutex
	audit   *os.File
	threats *os.File
}

func NewJSONLSink(dir string) (*JSONLSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("audit log directory must be set")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	audit, err := os.OpenFile(filepath.Join(dir, auditFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	threats, err := os.OpenFile(filepath.Join(dir, threatFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		_ = audit.Close()
		return nil, fmt.Errorf("failed to open threat trail: %w", err)
	}
	return &JSONLSink{audit: audit, threats: threats}, nil
}

func (s *JSONLSink) Append(r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.audit.Write(line); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	if r.IsThreat() {
		if _, err := s.threats.Write(line); err != nil {
			return fmt.Errorf("failed to append threat record: %w", err)
		}
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range []*os.File{s.audit, s.threats} {
		if f == nil {
			continue
		}
		if err := f.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.audit, s.threats = nil, nil
	return firstErr
}

// Package jsonbackend stores results as newline-delimited JSON, one record
// per line, appended in save order.
package jsonbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/FranksOps/seogen/internal/storage"
)

var _ storage.Backend = (*ndjsonSink)(nil)

type ndjsonSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// New opens (or creates) the NDJSON file at path for appending.
func New(path string) (storage.Backend, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ndjson sink: %w", err)
	}
	return &ndjsonSink{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Save appends result as a single line. Encoder.Encode terminates each
// value with a newline.
func (s *ndjsonSink) Save(ctx context.Context, result *storage.GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(result); err != nil {
		return fmt.Errorf("write ndjson sink %s: %w", s.path, err)
	}
	return nil
}

// Query decodes the whole file, keeps the records matching filter and
// pages them in file order.
func (s *ndjsonSink) Query(ctx context.Context, filter storage.Filter) ([]*storage.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A separate handle leaves the append offset of s.file untouched.
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open ndjson sink: %w", err)
	}
	defer f.Close()

	var matched []*storage.GenerationResult
	dec := json.NewDecoder(f)
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r storage.GenerationResult
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", line, err)
		}
		if filter.Match(&r) {
			matched = append(matched, &r)
		}
	}
	return filter.Page(matched), nil
}

func (s *ndjsonSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

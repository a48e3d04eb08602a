package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/seogen/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"run_id",
	"position",
	"keyword",
	"status",
	"stage",
	"error",
	"competitor_count",
	"attempts",
	"duration_ms",
	"created_at",
	"generated_text",
	"competitor_summary",
}

// New creates a new CSV-backed storage.Backend. Rows are appended to
// filePath; the header is written only when the file is empty.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv sink: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv sink: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

func (b *csvBackend) Save(ctx context.Context, result *storage.GenerationResult) error {
	record := []string{
		result.ID,
		result.RunID,
		strconv.Itoa(result.Position),
		result.Keyword,
		string(result.Status),
		string(result.Stage),
		result.Error,
		strconv.Itoa(result.CompetitorCount),
		strconv.Itoa(result.Attempts),
		strconv.FormatInt(result.Duration.Milliseconds(), 10),
		result.CreatedAt.Format(time.RFC3339Nano),
		result.GeneratedText,
		result.CompetitorSummary,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek csv sink: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.GenerationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek csv sink: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	_, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.GenerationResult{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var allFiltered []*storage.GenerationResult

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		position, _ := strconv.Atoi(record[2])
		competitors, _ := strconv.Atoi(record[7])
		attempts, _ := strconv.Atoi(record[8])
		durationMs, _ := strconv.ParseInt(record[9], 10, 64)
		createdAt, _ := time.Parse(time.RFC3339Nano, record[10])

		res := &storage.GenerationResult{
			ID:                record[0],
			RunID:             record[1],
			Position:          position,
			Keyword:           record[3],
			Status:            storage.Status(record[4]),
			Stage:             storage.Stage(record[5]),
			Error:             record[6],
			CompetitorCount:   competitors,
			Attempts:          attempts,
			Duration:          time.Duration(durationMs) * time.Millisecond,
			CreatedAt:         createdAt,
			GeneratedText:     record[11],
			CompetitorSummary: record[12],
		}

		if !filter.Match(res) {
			continue
		}
		allFiltered = append(allFiltered, res)
	}

	return filter.Page(allFiltered), nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

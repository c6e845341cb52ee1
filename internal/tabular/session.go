// Package tabular loads processed batches into a fixed-schema frame and
// writes them out as Parquet, one partition directory per batch.
package tabular

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/parquet-go/parquet-go"

	"cryptoetl/internal/cleaner"
	"cryptoetl/internal/jsonstore"
)

const (
	partName      = "part-00000.parquet"
	successMarker = "_SUCCESS"
)

var (
	// ErrSessionClosed is returned by every call made after Close.
	ErrSessionClosed = errors.New("tabular session closed")
	// ErrNoBatchID is returned by Save when no partition name is given.
	ErrNoBatchID = errors.New("batch id required to partition output")
	// ErrUnsupportedLayout is returned when a processed file is neither a
	// JSON array nor a single JSON object.
	ErrUnsupportedLayout = errors.New("processed file must hold a record or a list of records")
)

// Session is the handle every read and write goes through. Create one per
// process with NewSession and release it with Close.
type Session struct {
	app     string
	schema  *parquet.Schema
	columns []string
	logger  *slog.Logger
	closed  bool
}

// NewSession builds the Parquet schema for Row and returns an open session.
func NewSession(app string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	schema := parquet.SchemaOf(new(Row))

	cols := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		cols = append(cols, f.Name())
	}

	logger.Debug("tabular session opened", "app", app, "columns", len(cols))
	return &Session{app: app, schema: schema, columns: cols, logger: logger}
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	if !s.closed {
		s.closed = true
		s.logger.Debug("tabular session closed", "app", s.app)
	}
	return nil
}

// Schema returns the Parquet schema rows are written with.
func (s *Session) Schema() *parquet.Schema {
	return s.schema
}

func (s *Session) check() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Read loads the processed file behind cr and projects it onto the fixed
// schema. Missing or mistyped columns are null, unknown keys are dropped.
func (s *Session) Read(cr cleaner.CleanResult) (*Frame, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var doc any
	if err := jsonstore.Read(cr.FullPath, &doc); err != nil {
		return nil, fmt.Errorf("read processed batch %s: %w", cr.BatchID, err)
	}

	var records []any
	switch v := doc.(type) {
	case []any:
		records = v
	case map[string]any:
		records = []any{v}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLayout, cr.FullPath)
	}

	rows := make([]Row, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d of %s", ErrUnsupportedLayout, i, cr.FullPath)
		}
		var row Row
		if err := mapstructure.Decode(project(rec), &row); err != nil {
			return nil, fmt.Errorf("decode record %d of %s: %w", i, cr.FullPath, err)
		}
		rows = append(rows, row)
	}

	return s.newFrame(rows, cr.BatchID, cr.Source), nil
}

// Save writes frame as a single Parquet file under outputDir/batchID,
// replacing whatever the partition held before. It returns the partition
// directory.
func (s *Session) Save(frame *Frame, outputDir, batchID string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	if batchID == "" {
		return "", ErrNoBatchID
	}

	dir := filepath.Join(outputDir, batchID)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("%w: clear partition %s: %w", jsonstore.ErrIO, dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create partition %s: %w", jsonstore.ErrIO, dir, err)
	}

	path := filepath.Join(dir, partName)
	err := parquet.WriteFile(path, frame.Rows,
		parquet.KeyValueMetadata("batch_id", batchID),
		parquet.KeyValueMetadata("source", frame.Source),
		parquet.KeyValueMetadata("writer", s.app),
	)
	if err != nil {
		return "", fmt.Errorf("%w: write %s: %w", jsonstore.ErrIO, path, err)
	}
	if err := os.WriteFile(filepath.Join(dir, successMarker), nil, 0o644); err != nil {
		return "", fmt.Errorf("%w: write success marker: %w", jsonstore.ErrIO, err)
	}

	s.logger.Info("wrote parquet partition", "batch_id", batchID, "path", path, "rows", len(frame.Rows))
	return dir, nil
}

// ReadOutput reads every Parquet part in a partition directory.
func (s *Session) ReadOutput(dir string) (*Frame, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	parts, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parquet parts in %s", jsonstore.ErrNotFound, dir)
	}
	sort.Strings(parts)

	var rows []Row
	for _, part := range parts {
		partRows, err := parquet.ReadFile[Row](part)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", part, err)
		}
		rows = append(rows, partRows...)
	}

	return s.newFrame(rows, filepath.Base(dir), ""), nil
}

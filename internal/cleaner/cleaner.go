package cleaner

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"cryptoetl/internal/fetcher"
	"cryptoetl/internal/jsonstore"
	"cryptoetl/internal/market"
)

var (
	// ErrNotPersisted is returned by LoadRaw for a batch with no file on disk.
	ErrNotPersisted = errors.New("raw batch has not been persisted")
	// ErrNoFilename is returned by SaveData when the result carries no file name.
	ErrNoFilename = errors.New("clean result has no filename")
)

// CleanResult carries a batch through the cleaning steps. Like FetchResult it
// is never modified in place.
type CleanResult struct {
	Records       []market.Record
	Source        string
	BatchID       string
	LoadTimestamp string
	Filename      string
	FullPath      string
}

func (r CleanResult) withRecords(records []market.Record) CleanResult {
	r.Records = records
	return r
}

func (r CleanResult) withPath(fullPath string) CleanResult {
	r.FullPath = fullPath
	return r
}

// Cleaner turns raw batches into flat, schema-conformant processed batches.
type Cleaner struct {
	logger *slog.Logger
}

// New creates a Cleaner. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// LoadRaw reads the persisted raw batch behind fr.
func (c *Cleaner) LoadRaw(fr fetcher.FetchResult) (CleanResult, error) {
	if fr.FullPath == "" {
		return CleanResult{}, ErrNotPersisted
	}

	var records []market.Record
	if err := jsonstore.Read(fr.FullPath, &records); err != nil {
		return CleanResult{}, fmt.Errorf("load raw batch %s: %w", fr.BatchID, err)
	}

	c.logger.Debug("loaded raw batch", "path", fr.FullPath, "records", len(records))
	return CleanResult{
		Records:       records,
		Source:        fr.Source,
		BatchID:       fr.BatchID,
		LoadTimestamp: fr.LoadTimestamp,
		Filename:      fr.Filename,
		FullPath:      fr.FullPath,
	}, nil
}

// Normalize flattens every record: scalar fields are copied, roi becomes
// roi_times, roi_currency and roi_percentage, anything else is dropped.
func (c *Cleaner) Normalize(cr CleanResult) CleanResult {
	out := make([]market.Record, 0, len(cr.Records))
	for _, rec := range cr.Records {
		out = append(out, normalizeRecord(rec))
	}
	return cr.withRecords(out)
}

func normalizeRecord(rec market.Record) market.Record {
	flat := make(market.Record, len(rec)+2)
	for key, value := range rec {
		switch fieldActions[key] {
		case actionPassThrough:
			if isScalar(value) {
				flat[key] = value
			}
		case actionFlattenROI:
			flattenROI(flat, value)
		}
	}
	return flat
}

// flattenROI writes the three roi columns; a null or malformed roi yields nulls.
func flattenROI(dst market.Record, value any) {
	var roi map[string]any
	switch v := value.(type) {
	case map[string]any:
		roi = v
	case market.Record:
		roi = v
	}
	for _, col := range roiColumns {
		var v any
		if roi != nil {
			if sub, ok := roi[col.sub]; ok && isScalar(sub) {
				v = sub
			}
		}
		dst[col.column] = v
	}
}

// SaveData writes the normalized batch into processedDir under the same file
// name as its raw source. An existing processed file is never overwritten.
func (c *Cleaner) SaveData(cr CleanResult, processedDir string) (CleanResult, error) {
	if cr.Filename == "" {
		return CleanResult{}, ErrNoFilename
	}

	dest := filepath.Join(processedDir, cr.Filename)
	if err := jsonstore.WriteNew(dest, cr.Records); err != nil {
		return CleanResult{}, fmt.Errorf("save processed batch %s: %w", cr.BatchID, err)
	}

	c.logger.Info("saved processed batch", "batch_id", cr.BatchID, "path", dest)
	return cr.withPath(dest), nil
}

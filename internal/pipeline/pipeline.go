package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cryptoetl/internal/cleaner"
	"cryptoetl/internal/fetcher"
	"cryptoetl/internal/provision"
	"cryptoetl/internal/tabular"
)

// ErrProvisionFailed is returned when a working folder could not be created.
var ErrProvisionFailed = errors.New("directory provisioning failed")

// Provisioner ensures the working folders exist.
type Provisioner interface {
	Ensure() provision.Result
}

// Fetcher pulls one batch and writes it to the raw folder.
type Fetcher interface {
	Fetch(ctx context.Context) (fetcher.FetchResult, error)
	Persist(result fetcher.FetchResult, dir string) (fetcher.FetchResult, error)
}

// Cleaner normalizes a raw batch into the processed folder.
type Cleaner interface {
	LoadRaw(fr fetcher.FetchResult) (cleaner.CleanResult, error)
	Normalize(cr cleaner.CleanResult) cleaner.CleanResult
	SaveData(cr cleaner.CleanResult, processedDir string) (cleaner.CleanResult, error)
}

// Loader reads a processed batch and writes its columnar form.
type Loader interface {
	Read(cr cleaner.CleanResult) (*tabular.Frame, error)
	Save(frame *tabular.Frame, outputDir, batchID string) (string, error)
}

// Dirs are the stage folders the pipeline writes to.
type Dirs struct {
	Raw       string
	Processed string
	Output    string
}

// Report describes a completed run.
type Report struct {
	Provision  provision.Result
	Raw        fetcher.FetchResult
	Processed  cleaner.CleanResult
	OutputPath string
	Rows       int
}

// Pipeline runs the stages in order for a single batch.
type Pipeline struct {
	provisioner Provisioner
	fetcher     Fetcher
	cleaner     Cleaner
	loader      Loader
	dirs        Dirs
	logger      *slog.Logger
}

// New creates a Pipeline with the given stages
func New(p Provisioner, f Fetcher, c Cleaner, l Loader, dirs Dirs, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		provisioner: p,
		fetcher:     f,
		cleaner:     c,
		loader:      l,
		dirs:        dirs,
		logger:      logger,
	}
}

// Run executes provision, fetch, clean and transform in sequence.
// The first failing stage aborts the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report

	report.Provision = p.provisioner.Ensure()
	if !report.Provision.OK() {
		return report, fmt.Errorf("%w: %s: %s", ErrProvisionFailed, report.Provision.Folder, report.Provision.Error)
	}

	fetched, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch: %w", err)
	}
	raw, err := p.fetcher.Persist(fetched, p.dirs.Raw)
	if err != nil {
		return report, fmt.Errorf("persist raw: %w", err)
	}
	report.Raw = raw

	loaded, err := p.cleaner.LoadRaw(raw)
	if err != nil {
		return report, fmt.Errorf("load raw: %w", err)
	}
	processed, err := p.cleaner.SaveData(p.cleaner.Normalize(loaded), p.dirs.Processed)
	if err != nil {
		return report, fmt.Errorf("save processed: %w", err)
	}
	report.Processed = processed

	frame, err := p.loader.Read(processed)
	if err != nil {
		return report, fmt.Errorf("read processed: %w", err)
	}
	out, err := p.loader.Save(frame, p.dirs.Output, processed.BatchID)
	if err != nil {
		return report, fmt.Errorf("save output: %w", err)
	}
	report.OutputPath = out
	report.Rows = frame.Len()

	p.logger.Info("pipeline finished",
		"batch_id", processed.BatchID,
		"raw", raw.FullPath,
		"processed", processed.FullPath,
		"output", out,
		"rows", report.Rows)

	return report, nil
}

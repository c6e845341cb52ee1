package provision

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// Status is the outcome of a provisioning run.
type Status int

const (
	StatusSuccess Status = iota + 1
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event tags what the provisioner was doing.
type Event string

// EventDirectoryCreation is the only event the provisioner reports.
const EventDirectoryCreation Event = "directory_creation"

// Result reports whether every folder exists. Folder and Error are only set
// on failure.
type Result struct {
	Status Status
	Event  Event
	Folder string
	Error  string
}

// OK reports whether provisioning succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Provisioner ensures the pipeline's working folders exist.
type Provisioner struct {
	folders []string
	logger  *slog.Logger
}

// New creates a provisioner for the five pipeline folders.
func New(raw, processed, output, logs, tests string) *Provisioner {
	return &Provisioner{
		folders: []string{raw, processed, output, logs, tests},
		logger:  slog.Default(),
	}
}

// WithLogger returns a copy of the provisioner logging to logger.
func (p *Provisioner) WithLogger(logger *slog.Logger) *Provisioner {
	cp := *p
	cp.logger = logger
	return &cp
}

// Ensure creates every missing folder in order. It stops at the first folder
// that cannot be created and reports it; folders created before the failure
// are left in place.
func (p *Provisioner) Ensure() Result {
	for _, folder := range p.folders {
		if _, err := os.Stat(folder); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return p.failure(folder, err)
		}

		if err := os.MkdirAll(folder, 0o755); err != nil {
			return p.failure(folder, err)
		}
		p.logger.Debug("created folder", "folder", folder)
	}

	return Result{Status: StatusSuccess, Event: EventDirectoryCreation}
}

func (p *Provisioner) failure(folder string, err error) Result {
	p.logger.Error("folder not created", "folder", folder, "error", err)
	return Result{
		Status: StatusFailure,
		Event:  EventDirectoryCreation,
		Folder: folder,
		Error:  err.Error(),
	}
}

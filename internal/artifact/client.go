// Package artifact persists run summaries as named blobs and recovers prior
// ("base") summaries through a tiered fallback search over CI runs and
// artifact names. The store backends (CI platform REST, S3) implement the
// Client and RunLookup interfaces; this package owns only the policy.
package artifact

import (
	"context"
	"fmt"
)

// Info is one artifact entry in a run's artifact listing. Expired artifacts
// are listed by the platforms long after their payload is gone and must be
// skipped during retrieval.
type Info struct {
	ID      string
	Name    string
	Expired bool
}

// Run is one CI workflow run.
type Run struct {
	ID     int64
	Number int
}

// RunFilter narrows a run listing. Exactly one of Commit or Branch is set;
// Status is the platform's conclusion filter. Page and PageSize bound the
// scan so a lookup never walks the full run history.
type RunFilter struct {
	Commit   string
	Branch   string
	Status   string
	Page     int
	PageSize int
}

// Client is the blob surface of the CI platform or bucket.
type Client interface {
	// Put uploads payload under name for the current run and returns the
	// platform's artifact id.
	Put(ctx context.Context, name string, payload []byte) (string, error)
	// List returns the artifact entries of one run.
	List(ctx context.Context, runID int64) ([]Info, error)
	// Download returns the payload of one artifact.
	Download(ctx context.Context, id string) ([]byte, error)
}

// RunLookup lists CI runs matching a filter, most recent first.
type RunLookup interface {
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
}

// StorageOp names the failing storage operation in a StorageError.
type StorageOp string

const (
	OpUpload   StorageOp = "upload"
	OpDownload StorageOp = "download"
	OpScan     StorageOp = "scan"
)

// StorageError wraps a backend failure. It is always recovered locally:
// logged, never propagated past the store as a pipeline failure.
type StorageError struct {
	Op  StorageOp
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

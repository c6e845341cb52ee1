package fetcher

import "cryptoetl/internal/market"

// FetchResult is one validated batch of market records. Filename and
// FullPath stay empty until the batch is persisted; values are never changed
// in place, every step returns a new FetchResult.
type FetchResult struct {
	Records       []market.Record
	Source        string
	BatchID       string
	LoadTimestamp string
	Filename      string
	FullPath      string
}

// Persisted reports whether the batch has been written to disk.
func (r FetchResult) Persisted() bool {
	return r.Filename != "" || r.FullPath != ""
}

func (r FetchResult) withFile(filename, fullPath string) FetchResult {
	r.Filename = filename
	r.FullPath = fullPath
	return r
}

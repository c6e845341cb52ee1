package pipeline

import (
	"context"

	"cryptoetl/internal/fetcher"
	"cryptoetl/internal/provision"
)

// stubProvisioner returns a fixed provisioning result.
type stubProvisioner struct {
	result provision.Result
}

func (s *stubProvisioner) Ensure() provision.Result {
	return s.result
}

// stubFetcher is a pipeline fetcher whose behaviour is set per test.
type stubFetcher struct {
	FetchFunc   func(ctx context.Context) (fetcher.FetchResult, error)
	PersistFunc func(result fetcher.FetchResult, dir string) (fetcher.FetchResult, error)
}

func (s *stubFetcher) Fetch(ctx context.Context) (fetcher.FetchResult, error) {
	if s.FetchFunc != nil {
		return s.FetchFunc(ctx)
	}
	return fetcher.FetchResult{}, nil
}

func (s *stubFetcher) Persist(result fetcher.FetchResult, dir string) (fetcher.FetchResult, error) {
	if s.PersistFunc != nil {
		return s.PersistFunc(result, dir)
	}
	return result, nil
}

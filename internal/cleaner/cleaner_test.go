package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoetl/internal/fetcher"
	"cryptoetl/internal/jsonstore"
	"cryptoetl/internal/market"
	"cryptoetl/internal/testutil"
)

func persistedBatch(t *testing.T, records []market.Record) fetcher.FetchResult {
	t.Helper()
	dir := t.TempDir()
	name := "coingecko_crypto_market_20240601_120000_b1.json"
	path := filepath.Join(dir, name)
	require.NoError(t, jsonstore.WriteNew(path, records))
	return fetcher.FetchResult{
		Source:        market.Source,
		BatchID:       "b1",
		LoadTimestamp: "20240601_120000",
		Filename:      name,
		FullPath:      path,
	}
}

func TestLoadRaw(t *testing.T) {
	fr := persistedBatch(t, testutil.SampleBatch())

	cr, err := New(nil).LoadRaw(fr)
	require.NoError(t, err)

	assert.Len(t, cr.Records, 3)
	assert.Equal(t, fr.BatchID, cr.BatchID)
	assert.Equal(t, fr.LoadTimestamp, cr.LoadTimestamp)
	assert.Equal(t, fr.Filename, cr.Filename)
	assert.Equal(t, fr.FullPath, cr.FullPath)
	assert.Equal(t, market.Source, cr.Source)
}

func TestLoadRaw_Errors(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("[{"), 0o644))

	tests := []struct {
		name string
		fr   fetcher.FetchResult
		want error
	}{
		{"not persisted", fetcher.FetchResult{BatchID: "b"}, ErrNotPersisted},
		{"missing file", fetcher.FetchResult{FullPath: filepath.Join(t.TempDir(), "gone.json")}, jsonstore.ErrNotFound},
		{"corrupt file", fetcher.FetchResult{FullPath: corrupt}, jsonstore.ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).LoadRaw(tt.fr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalize_FlattensROI(t *testing.T) {
	in := CleanResult{BatchID: "b1", Records: testutil.SampleBatch()}

	out := New(nil).Normalize(in)
	require.Len(t, out.Records, 3)

	btc := out.Records[0]
	assert.NotContains(t, btc, "roi")
	for _, col := range []string{"roi_times", "roi_currency", "roi_percentage"} {
		v, ok := btc[col]
		assert.True(t, ok, "missing %s", col)
		assert.Nil(t, v, "%s should be null", col)
	}

	eth := out.Records[1]
	assert.NotContains(t, eth, "roi")
	assert.Equal(t, 72.5, eth["roi_times"])
	assert.Equal(t, "btc", eth["roi_currency"])
	assert.Equal(t, 7250.1, eth["roi_percentage"])

	// scalar fields copied unchanged
	assert.Equal(t, "ethereum", eth["id"])
	assert.Equal(t, 3500.0, eth["current_price"])
	assert.Contains(t, btc, "max_supply")
	assert.Nil(t, btc["max_supply"])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := CleanResult{Records: testutil.SampleBatch()}

	_ = New(nil).Normalize(in)

	assert.Contains(t, in.Records[1], "roi")
	assert.NotContains(t, in.Records[1], "roi_times")
}

func TestNormalize_DropsNonScalars(t *testing.T) {
	rec := testutil.MarketRecord("bitcoin", 1, testutil.ROI(1, "usd", 100))
	rec["sparkline_in_7d"] = map[string]any{"price": []any{1.0, 2.0}}
	rec["tags"] = []any{"layer-1"}
	rec["name"] = map[string]any{"en": "Bitcoin"}

	out := New(nil).Normalize(CleanResult{Records: []market.Record{rec}})

	flat := out.Records[0]
	assert.NotContains(t, flat, "sparkline_in_7d")
	assert.NotContains(t, flat, "tags")
	assert.NotContains(t, flat, "name")
	assert.Equal(t, "bitcoin", flat["id"])
}

func TestNormalize_MalformedROI(t *testing.T) {
	rec := testutil.MarketRecord("bitcoin", 1, nil)
	rec["roi"] = "n/a"

	flat := New(nil).Normalize(CleanResult{Records: []market.Record{rec}}).Records[0]

	assert.Nil(t, flat["roi_times"])
	assert.Nil(t, flat["roi_currency"])
	assert.Nil(t, flat["roi_percentage"])
}

func TestNormalize_Idempotent(t *testing.T) {
	c := New(nil)
	once := c.Normalize(CleanResult{Records: testutil.SampleBatch()})
	twice := c.Normalize(once)

	assert.Equal(t, once.Records, twice.Records)
}

func TestSaveData(t *testing.T) {
	fr := persistedBatch(t, testutil.SampleBatch())
	c := New(nil)
	cr, err := c.LoadRaw(fr)
	require.NoError(t, err)
	cr = c.Normalize(cr)

	processed := t.TempDir()
	saved, err := c.SaveData(cr, processed)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(processed, fr.Filename), saved.FullPath)
	assert.Equal(t, fr.FullPath, cr.FullPath, "input result mutated")

	var onDisk []market.Record
	require.NoError(t, jsonstore.Read(saved.FullPath, &onDisk))
	require.Len(t, onDisk, 3)
	assert.NotContains(t, onDisk[1], "roi")
	assert.Equal(t, "btc", onDisk[1]["roi_currency"])
}

func TestSaveData_RefusesOverwrite(t *testing.T) {
	processed := t.TempDir()
	name := "coingecko_crypto_market_x.json"
	existing := filepath.Join(processed, name)
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	cr := CleanResult{Filename: name, Records: testutil.SampleBatch()}
	_, err := New(nil).SaveData(cr, processed)

	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonstore.ErrOverwriteRefused))

	data, readErr := os.ReadFile(existing)
	require.NoError(t, readErr)
	assert.Equal(t, "keep me", string(data))
}

func TestSaveData_NoFilename(t *testing.T) {
	_, err := New(nil).SaveData(CleanResult{}, t.TempDir())
	assert.ErrorIs(t, err, ErrNoFilename)
}

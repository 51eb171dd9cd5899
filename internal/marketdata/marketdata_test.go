package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "riskledger/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-03,102,103,101,102.5,1200
2024-01-02,101,102,100,101.5,1100
2024-01-04,bad,104,102,103.5,1300
2024-01-05,104,105,103,104.5,
`)

	bars, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, bars, 3, "row with a bad numeric cell is dropped")

	// sorted ascending regardless of file order
	assert.Equal(t, "2024-01-02", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", bars[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", bars[2].Date.Format("2006-01-02"))

	assert.Equal(t, 101.5, bars[0].Close)
	assert.Equal(t, int64(1100), bars[0].Volume)
	assert.Equal(t, int64(0), bars[2].Volume, "missing volume defaults to 0")
}

func TestLoadCSVRejectsDuplicateDates(t *testing.T) {
	path := writeCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,101,102,100,101.5,1100
2024-01-02,102,103,101,102.5,1200
`)

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedData)
	assert.Contains(t, err.Error(), "duplicate date 2024-01-02")
}

func TestLoadCSVRejectsMissingColumns(t *testing.T) {
	path := writeCSV(t, `Date,Open,High,Low,Volume
2024-01-02,101,102,100,1100
`)

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedData)
	assert.Contains(t, err.Error(), "Close")
}

func TestLoadCSVEmptyFile(t *testing.T) {
	_, err := LoadCSV(writeCSV(t, ""))
	assert.ErrorIs(t, err, apperrors.ErrMalformedData)
}

func TestFilterRange(t *testing.T) {
	path := writeCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,101,102,100,101.5,1100
2024-01-03,102,103,101,102.5,1200
2024-01-04,103,104,102,103.5,1300
2024-01-05,104,105,103,104.5,1400
`)
	bars, err := LoadCSV(path)
	require.NoError(t, err)

	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	// bounds are inclusive
	got := FilterRange(bars, day("2024-01-03"), day("2024-01-04"))
	require.Len(t, got, 2)
	assert.Equal(t, 102.5, got[0].Close)
	assert.Equal(t, 103.5, got[1].Close)

	assert.Len(t, FilterRange(bars, time.Time{}, day("2024-01-03")), 2)
	assert.Len(t, FilterRange(bars, day("2024-01-04"), time.Time{}), 2)
	assert.Len(t, FilterRange(bars, time.Time{}, time.Time{}), 4)
	assert.Empty(t, FilterRange(bars, day("2024-02-01"), time.Time{}))
}

func TestStooqURL(t *testing.T) {
	c := NewStooqClient(0)
	assert.Equal(t, "https://stooq.com/q/d/l/?s=aapl.us&i=d", c.URL(" AAPL.US "))
}

func TestCachePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "aapl.us_stooq_d.csv"), CachePath("data", "AAPL.US"))
}

func TestDownloadCachesAndReuses(t *testing.T) {
	const payload = "Date,Open,High,Low,Close,Volume\n2024-01-02,101,102,100,101.5,1100\n"

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/q/d/l/", r.URL.Path)
		assert.Equal(t, "aapl.us", r.URL.Query().Get("s"))
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewStooqClient(5 * time.Second)
	c.baseURL = srv.URL
	cacheDir := t.TempDir()

	path, err := c.Download(context.Background(), "AAPL.US", cacheDir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	// second call hits the cache, not the server
	_, err = c.Download(context.Background(), "AAPL.US", cacheDir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// force refetches
	_, err = c.Download(context.Background(), "AAPL.US", cacheDir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewStooqClient(5 * time.Second)
	c.baseURL = srv.URL

	_, err := c.Download(context.Background(), "nope", t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

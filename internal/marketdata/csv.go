package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
)

const dateLayout = "2006-01-02"

// csvRow mirrors one line of a Stooq daily CSV. Numeric fields stay
// strings so a single bad cell drops only its row, not the whole file.
type csvRow struct {
	Date   string `csv:"Date"`
	Open   string `csv:"Open"`
	High   string `csv:"High"`
	Low    string `csv:"Low"`
	Close  string `csv:"Close"`
	Volume string `csv:"Volume"`
}

var requiredColumns = []string{"Date", "Open", "High", "Low", "Close"}

// LoadCSV parses a daily OHLCV CSV file into an ordered bar series.
// Rows with unparseable numerics are dropped, Volume defaults to 0, and
// the result is sorted ascending by date. Duplicate dates are rejected:
// downstream consumers treat the series as a strict time axis.
func LoadCSV(path string) ([]models.Bar, error) {
	if err := checkColumns(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, &apperrors.DataError{Path: path, Reason: err.Error()}
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		bar, ok := parseRow(row)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	for i := 1; i < len(bars); i++ {
		if bars[i].Date.Equal(bars[i-1].Date) {
			return nil, &apperrors.DataError{
				Path:   path,
				Reason: fmt.Sprintf("duplicate date %s", bars[i].Date.Format(dateLayout)),
			}
		}
	}
	return bars, nil
}

func parseRow(row *csvRow) (models.Bar, bool) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(row.Date))
	if err != nil {
		return models.Bar{}, false
	}

	open, err1 := strconv.ParseFloat(strings.TrimSpace(row.Open), 64)
	high, err2 := strconv.ParseFloat(strings.TrimSpace(row.High), 64)
	low, err3 := strconv.ParseFloat(strings.TrimSpace(row.Low), 64)
	closePx, err4 := strconv.ParseFloat(strings.TrimSpace(row.Close), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Bar{}, false
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(row.Volume), 10, 64)
	if err != nil {
		volume = 0
	}

	return models.Bar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: volume,
	}, true
}

// checkColumns validates the header before row decoding so a renamed or
// missing column fails loudly instead of silently dropping every row.
func checkColumns(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return &apperrors.DataError{Path: path, Reason: "missing or unreadable header"}
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.TrimSpace(col)] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &apperrors.DataError{
			Path:   path,
			Reason: fmt.Sprintf("missing columns %v, have %v", missing, header),
		}
	}
	return nil
}

// FilterRange returns the bars with start <= date <= end. A zero start or
// end leaves that side unbounded.
func FilterRange(bars []models.Bar, start, end time.Time) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		if !start.IsZero() && bar.Date.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Date.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out
}

package scanner

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prasann/table-talks/pkg/models"
)

// timeLayouts lists the datetime formats recognized during type
// inference, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// columnStats accumulates per-column evidence while rows are sampled.
type columnStats struct {
	nulls  int64
	values map[string]struct{}

	rows        int64
	allInt      bool
	allFloat    bool
	allBool     bool
	allDatetime bool
}

func newColumnStats() *columnStats {
	return &columnStats{
		values:      make(map[string]struct{}),
		allInt:      true,
		allFloat:    true,
		allBool:     true,
		allDatetime: true,
	}
}

func (c *columnStats) observe(raw string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		c.nulls++
		return
	}
	c.rows++
	c.values[v] = struct{}{}

	if c.allInt {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			c.allInt = false
		}
	}
	if c.allFloat {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			c.allFloat = false
		}
	}
	if c.allBool && !isBoolToken(v) {
		c.allBool = false
	}
	if c.allDatetime && !isDatetimeToken(v) {
		c.allDatetime = false
	}
}

// dataType normalizes the accumulated evidence into one of the five
// canonical type tags. Columns with no non-null values are unknown.
func (c *columnStats) dataType() string {
	if c.rows == 0 {
		return models.TypeUnknown
	}
	switch {
	case c.allBool:
		return models.TypeBoolean
	case c.allInt:
		return models.TypeInteger
	case c.allFloat:
		return models.TypeFloat
	case c.allDatetime:
		return models.TypeDatetime
	default:
		return models.TypeString
	}
}

func isBoolToken(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

func isDatetimeToken(v string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// extractCSV reads the header and up to sampleRows data rows to infer
// per-column types and statistics, then counts the remaining rows so
// total_rows reflects the whole file.
func (s *Scanner) extractCSV(path string) ([]models.ColumnRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	headers = dedupeHeaders(headers)

	stats := make([]*columnStats, len(headers))
	for i := range stats {
		stats[i] = newColumnStats()
	}

	var totalRows int64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", totalRows+2, err)
		}
		totalRows++
		if s.sampleRows > 0 && totalRows > int64(s.sampleRows) {
			continue // keep counting rows, stop sampling values
		}
		for i := range headers {
			if i < len(row) {
				stats[i].observe(row[i])
			} else {
				stats[i].observe("")
			}
		}
	}

	records := make([]models.ColumnRecord, len(headers))
	for i, name := range headers {
		records[i] = models.ColumnRecord{
			ColumnName:  name,
			DataType:    stats[i].dataType(),
			NullCount:   stats[i].nulls,
			UniqueCount: int64(len(stats[i].values)),
			TotalRows:   totalRows,
		}
	}
	return records, nil
}

package scanner

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/prasann/table-talks/pkg/models"
)

// extractParquet reads the file footer for the schema and total row
// count, then samples rows for null and unique statistics.
func (s *Scanner) extractParquet(path string) ([]models.ColumnRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet footer: %w", err)
	}

	fields := pf.Schema().Fields()
	headers := make([]string, len(fields))
	types := make([]string, len(fields))
	for i, field := range fields {
		headers[i] = field.Name()
		types[i] = parquetDataType(field)
	}
	headers = dedupeHeaders(headers)

	nulls := make([]int64, len(fields))
	uniques := make([]map[string]struct{}, len(fields))
	for i := range uniques {
		uniques[i] = make(map[string]struct{})
	}

	reader := parquet.NewGenericReader[map[string]any](pf)
	defer reader.Close()

	var sampled int64
	buf := make([]map[string]any, 64)
	for s.sampleRows <= 0 || sampled < int64(s.sampleRows) {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			sampled++
			for i, field := range fields {
				v, ok := row[field.Name()]
				if !ok || v == nil {
					nulls[i]++
					continue
				}
				uniques[i][fmt.Sprint(v)] = struct{}{}
			}
			if s.sampleRows > 0 && sampled >= int64(s.sampleRows) {
				break
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	records := make([]models.ColumnRecord, len(fields))
	for i := range fields {
		records[i] = models.ColumnRecord{
			ColumnName:  headers[i],
			DataType:    types[i],
			NullCount:   nulls[i],
			UniqueCount: int64(len(uniques[i])),
			TotalRows:   pf.NumRows(),
		}
	}
	return records, nil
}

// parquetDataType maps a parquet field to one of the canonical type
// tags, preferring the logical type over the physical kind.
func parquetDataType(field parquet.Field) string {
	t := field.Type()
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil:
			return models.TypeString
		case lt.Date != nil, lt.Timestamp != nil:
			return models.TypeDatetime
		case lt.Integer != nil:
			return models.TypeInteger
		case lt.Decimal != nil:
			return models.TypeFloat
		}
	}
	switch t.Kind() {
	case parquet.Boolean:
		return models.TypeBoolean
	case parquet.Int32, parquet.Int64:
		return models.TypeInteger
	case parquet.Float, parquet.Double:
		return models.TypeFloat
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return models.TypeString
	default:
		return models.TypeUnknown
	}
}

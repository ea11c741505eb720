package export

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/models"
)

type memRepo struct {
	schemas map[string][]models.ColumnRecord
}

func (r *memRepo) fileNames() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *memRepo) ListFiles(ctx context.Context) ([]*models.FileInfo, error) {
	var files []*models.FileInfo
	for _, name := range r.fileNames() {
		records := r.schemas[name]
		var rows int64
		if len(records) > 0 {
			rows = records[0].TotalRows
		}
		files = append(files, &models.FileInfo{
			FileName:    name,
			FilePath:    "/data/" + name,
			ColumnCount: len(records),
			TotalRows:   rows,
		})
	}
	return files, nil
}

func (r *memRepo) GetSchema(ctx context.Context, fileName string) ([]models.ColumnRecord, error) {
	records, ok := r.schemas[fileName]
	if !ok {
		return nil, &apperrors.UnknownFileError{Name: fileName, Known: r.fileNames()}
	}
	return records, nil
}

func (r *memRepo) Snapshot(ctx context.Context) ([]models.ColumnRecord, error) {
	var all []models.ColumnRecord
	for _, name := range r.fileNames() {
		all = append(all, r.schemas[name]...)
	}
	return all, nil
}

func (r *memRepo) ReplaceSchema(ctx context.Context, info *models.FileInfo, records []models.ColumnRecord) error {
	r.schemas[info.FileName] = records
	return nil
}

func (r *memRepo) DeleteFile(ctx context.Context, fileName string) error {
	delete(r.schemas, fileName)
	return nil
}

func seedRepo() *memRepo {
	return &memRepo{schemas: map[string][]models.ColumnRecord{
		"customers.csv": {
			{FileName: "customers.csv", ColumnName: "customer_id", DataType: models.TypeInteger, NullCount: 0, UniqueCount: 100, TotalRows: 100},
			{FileName: "customers.csv", ColumnName: "email", DataType: models.TypeString, NullCount: 5, UniqueCount: 95, TotalRows: 100},
		},
		"orders.csv": {
			{FileName: "orders.csv", ColumnName: "order_id", DataType: models.TypeInteger, NullCount: 0, UniqueCount: 500, TotalRows: 500},
		},
	}}
}

func TestBuildReport(t *testing.T) {
	e := New(seedRepo(), zap.NewNop())

	report, err := e.BuildReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.FileCount)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "customers.csv", report.Files[0].FileName)
	require.Len(t, report.Files[0].Columns, 2)
	assert.Equal(t, "customer_id", report.Files[0].Columns[0].Name)
	assert.Equal(t, int64(5), report.Files[0].Columns[1].NullCount)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestWriteJSONRoundTrips(t *testing.T) {
	e := New(seedRepo(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, e.Write(context.Background(), &buf, FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.FileCount)
	assert.Equal(t, "orders.csv", decoded.Files[1].FileName)
}

func TestWriteYAML(t *testing.T) {
	e := New(seedRepo(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, e.Write(context.Background(), &buf, FormatYAML))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.FileCount)
	assert.Equal(t, "customer_id", decoded.Files[0].Columns[0].Name)
}

func TestWriteMarkdown(t *testing.T) {
	e := New(seedRepo(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, e.Write(context.Background(), &buf, FormatMarkdown))

	out := buf.String()
	assert.Contains(t, out, "# Schema Report")
	assert.Contains(t, out, "## customers.csv")
	assert.Contains(t, out, "| customer_id | integer | 0 | 100 |")
}

func TestExportFileInfersFormat(t *testing.T) {
	e := New(seedRepo(), zap.NewNop())

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, e.ExportFile(context.Background(), path))
	assert.Equal(t, FormatYAML, FormatForPath(path))
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"json":     FormatJSON,
		"YAML":     FormatYAML,
		"yml":      FormatYAML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

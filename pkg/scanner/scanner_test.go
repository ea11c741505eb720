package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/models"
)

// memRepo is an in-memory MetadataRepository capturing what the scanner
// stores.
type memRepo struct {
	files   map[string]*models.FileInfo
	schemas map[string][]models.ColumnRecord
}

func newMemRepo() *memRepo {
	return &memRepo{
		files:   make(map[string]*models.FileInfo),
		schemas: make(map[string][]models.ColumnRecord),
	}
}

func (m *memRepo) ListFiles(ctx context.Context) ([]*models.FileInfo, error) {
	var out []*models.FileInfo
	for _, f := range m.files {
		out = append(out, f)
	}
	return out, nil
}

func (m *memRepo) GetSchema(ctx context.Context, fileName string) ([]models.ColumnRecord, error) {
	records, ok := m.schemas[fileName]
	if !ok {
		return nil, &apperrors.UnknownFileError{Name: fileName}
	}
	return records, nil
}

func (m *memRepo) Snapshot(ctx context.Context) ([]models.ColumnRecord, error) {
	var out []models.ColumnRecord
	for _, records := range m.schemas {
		out = append(out, records...)
	}
	return out, nil
}

func (m *memRepo) ReplaceSchema(ctx context.Context, info *models.FileInfo, records []models.ColumnRecord) error {
	m.files[info.FileName] = info
	m.schemas[info.FileName] = records
	return nil
}

func (m *memRepo) DeleteFile(ctx context.Context, fileName string) error {
	delete(m.files, fileName)
	delete(m.schemas, fileName)
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func schemaByName(records []models.ColumnRecord) map[string]models.ColumnRecord {
	out := make(map[string]models.ColumnRecord, len(records))
	for _, r := range records {
		out[r.ColumnName] = r
	}
	return out
}

func TestScanFileCSVTypeInference(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	path := writeFile(t, t.TempDir(), "orders.csv",
		"order_id,amount,status,is_paid,created_at,notes\n"+
			"1,9.99,shipped,true,2024-01-15,\n"+
			"2,12.50,pending,false,2024-01-16,\n"+
			"3,9.99,shipped,true,2024-01-17,\n")

	cols, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 6, cols)

	records, err := repo.GetSchema(context.Background(), "orders.csv")
	require.NoError(t, err)
	byName := schemaByName(records)

	assert.Equal(t, models.TypeInteger, byName["order_id"].DataType)
	assert.Equal(t, models.TypeFloat, byName["amount"].DataType)
	assert.Equal(t, models.TypeString, byName["status"].DataType)
	assert.Equal(t, models.TypeBoolean, byName["is_paid"].DataType)
	assert.Equal(t, models.TypeDatetime, byName["created_at"].DataType)
	assert.Equal(t, models.TypeUnknown, byName["notes"].DataType)

	assert.Equal(t, int64(3), byName["order_id"].TotalRows)
	assert.Equal(t, int64(3), byName["notes"].NullCount)
	assert.Equal(t, int64(2), byName["amount"].UniqueCount)
	assert.Equal(t, int64(0), byName["status"].NullCount)
}

func TestScanFileCSVNullAndRaggedRows(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	path := writeFile(t, t.TempDir(), "people.csv",
		"id,email\n"+
			"1,a@example.com\n"+
			"2\n"+
			"3,\n")

	_, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)

	records, err := repo.GetSchema(context.Background(), "people.csv")
	require.NoError(t, err)
	byName := schemaByName(records)

	assert.Equal(t, int64(2), byName["email"].NullCount)
	assert.Equal(t, int64(1), byName["email"].UniqueCount)
}

func TestScanFileDeduplicatesHeaders(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	path := writeFile(t, t.TempDir(), "dupes.csv",
		"name,name,\n"+
			"a,b,c\n")

	cols, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, cols)

	records, err := repo.GetSchema(context.Background(), "dupes.csv")
	require.NoError(t, err)
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.ColumnName
	}
	assert.ElementsMatch(t, []string{"name", "name_1", "column_2"}, names)
}

func TestScanFileSampleRowsStillCountsTotal(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 2, zap.NewNop())

	path := writeFile(t, t.TempDir(), "big.csv",
		"v\n1\n2\n3\n4\n5\n")

	_, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)

	records, err := repo.GetSchema(context.Background(), "big.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(5), records[0].TotalRows)
	// only the sampled rows contribute to unique counts
	assert.Equal(t, int64(2), records[0].UniqueCount)
}

func TestScanFileRejectsOversized(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 1, 1000, zap.NewNop())

	dir := t.TempDir()
	big := make([]byte, 2*1024*1024)
	copy(big, []byte("a,b\n1,2\n"))
	path := filepath.Join(dir, "huge.csv")
	require.NoError(t, os.WriteFile(path, big, 0o644))

	_, err := s.ScanFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFileTooLarge))
}

func TestScanFileUnsupportedFormat(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	path := writeFile(t, t.TempDir(), "notes.txt", "hello")
	_, err := s.ScanFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFileFormat))
}

func TestScanDirectorySkipsBadFilesAndContinues(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	dir := t.TempDir()
	writeFile(t, dir, "good.csv", "id\n1\n2\n")
	writeFile(t, dir, "empty.csv", "")
	writeFile(t, dir, "readme.txt", "ignored")

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "more.csv", "x,y\n1,2\n")

	result, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesScanned)
	assert.Equal(t, 3, result.ColumnsFound)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Path, "empty.csv")
}

func TestScanDirectoryMissing(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, 100, 1000, zap.NewNop())

	_, err := s.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/database"
	"github.com/prasann/table-talks/pkg/models"
)

func newTestRepo(t *testing.T) MetadataRepository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "meta.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMetadataRepository(db, zap.NewNop())
}

func storeFile(t *testing.T, repo MetadataRepository, file string, cols ...models.ColumnRecord) {
	t.Helper()
	info := &models.FileInfo{FileName: file, FilePath: "/data/" + file, FileSizeMB: 0.1}
	for i := range cols {
		cols[i].FileName = file
	}
	require.NoError(t, repo.ReplaceSchema(context.Background(), info, cols))
}

func TestListFilesEmptyStore(t *testing.T) {
	repo := newTestRepo(t)

	files, err := repo.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReplaceAndGetSchema(t *testing.T) {
	repo := newTestRepo(t)
	storeFile(t, repo, "customers.csv",
		models.ColumnRecord{ColumnName: "customer_id", DataType: models.TypeInteger, UniqueCount: 100, TotalRows: 100},
		models.ColumnRecord{ColumnName: "email", DataType: models.TypeString, NullCount: 3, UniqueCount: 97, TotalRows: 100},
	)

	records, err := repo.GetSchema(context.Background(), "customers.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Ordered by column name.
	assert.Equal(t, "customer_id", records[0].ColumnName)
	assert.Equal(t, "email", records[1].ColumnName)
	assert.Equal(t, int64(3), records[1].NullCount)
}

func TestGetSchemaUnknownFile(t *testing.T) {
	repo := newTestRepo(t)
	storeFile(t, repo, "orders.csv",
		models.ColumnRecord{ColumnName: "order_id", DataType: models.TypeInteger})

	_, err := repo.GetSchema(context.Background(), "nope.csv")
	require.Error(t, err)

	var unknown *apperrors.UnknownFileError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope.csv", unknown.Name)
	assert.Contains(t, unknown.Known, "orders.csv")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReplaceSchemaIsWholesale(t *testing.T) {
	repo := newTestRepo(t)
	storeFile(t, repo, "orders.csv",
		models.ColumnRecord{ColumnName: "order_id", DataType: models.TypeInteger},
		models.ColumnRecord{ColumnName: "legacy_flag", DataType: models.TypeBoolean},
	)

	// Rescan drops legacy_flag.
	storeFile(t, repo, "orders.csv",
		models.ColumnRecord{ColumnName: "order_id", DataType: models.TypeInteger},
		models.ColumnRecord{ColumnName: "total", DataType: models.TypeFloat},
	)

	records, err := repo.GetSchema(context.Background(), "orders.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "order_id", records[0].ColumnName)
	assert.Equal(t, "total", records[1].ColumnName)
}

func TestSnapshotOrdering(t *testing.T) {
	repo := newTestRepo(t)
	storeFile(t, repo, "b.csv", models.ColumnRecord{ColumnName: "z", DataType: models.TypeString})
	storeFile(t, repo, "a.csv",
		models.ColumnRecord{ColumnName: "y", DataType: models.TypeString},
		models.ColumnRecord{ColumnName: "x", DataType: models.TypeString},
	)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 3)
	assert.Equal(t, "a.csv", snap[0].FileName)
	assert.Equal(t, "x", snap[0].ColumnName)
	assert.Equal(t, "y", snap[1].ColumnName)
	assert.Equal(t, "b.csv", snap[2].FileName)
}

func TestDeleteFile(t *testing.T) {
	repo := newTestRepo(t)
	storeFile(t, repo, "reviews.csv", models.ColumnRecord{ColumnName: "rating", DataType: models.TypeInteger})

	require.NoError(t, repo.DeleteFile(context.Background(), "reviews.csv"))

	err := repo.DeleteFile(context.Background(), "reviews.csv")
	var unknown *apperrors.UnknownFileError
	require.True(t, errors.As(err, &unknown))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")

	db, err := database.Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an already-migrated store applies nothing.
	db2, err := database.Open(path, zap.NewNop())
	require.NoError(t, err)
	defer db2.Close()

	var count int
	require.NoError(t, db2.QueryRow(`SELECT COUNT(*) FROM schema_info`).Scan(&count))
	assert.Equal(t, 0, count)
}

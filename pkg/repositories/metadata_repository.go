// Package repositories provides data access for the schema metadata store.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/models"
)

// MetadataRepository provides access to column-level schema metadata.
// Readers get a consistent view per call; the only writer is the
// scanner, which replaces all rows of one file atomically.
type MetadataRepository interface {
	// ListFiles returns one FileInfo per scanned file, ordered by file
	// name. An empty store yields an empty slice, not an error.
	ListFiles(ctx context.Context) ([]*models.FileInfo, error)

	// GetSchema returns the column records for one file ordered by
	// column name. An unknown file name yields an UnknownFileError; a
	// known file with zero columns yields an empty slice.
	GetSchema(ctx context.Context, fileName string) ([]models.ColumnRecord, error)

	// Snapshot returns every column record in the store, ordered by
	// file name then column name. Analyzers operate on this so a
	// concurrent rescan cannot produce a half-updated view mid-analysis.
	Snapshot(ctx context.Context) ([]models.ColumnRecord, error)

	// ReplaceSchema atomically replaces all records for one file
	// (delete then insert in one transaction).
	ReplaceSchema(ctx context.Context, info *models.FileInfo, records []models.ColumnRecord) error

	// DeleteFile removes all records for one file. Deleting an unknown
	// file yields an UnknownFileError.
	DeleteFile(ctx context.Context, fileName string) error
}

type sqliteMetadataRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMetadataRepository creates a SQLite-backed metadata repository.
func NewMetadataRepository(db *sql.DB, logger *zap.Logger) MetadataRepository {
	return &sqliteMetadataRepository{
		db:     db,
		logger: logger.Named("metadata-repo"),
	}
}

func (r *sqliteMetadataRepository) ListFiles(ctx context.Context) ([]*models.FileInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT file_name,
		       MIN(file_path),
		       COUNT(*),
		       MAX(total_rows),
		       MAX(file_size_mb),
		       MAX(last_scanned)
		FROM schema_info
		GROUP BY file_name
		ORDER BY file_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*models.FileInfo
	for rows.Next() {
		var f models.FileInfo
		var scanned string
		if err := rows.Scan(&f.FileName, &f.FilePath, &f.ColumnCount, &f.TotalRows, &f.FileSizeMB, &scanned); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		f.LastScanned = parseTimestamp(scanned)
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file rows: %w", err)
	}
	return files, nil
}

func (r *sqliteMetadataRepository) GetSchema(ctx context.Context, fileName string) ([]models.ColumnRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT file_name, column_name, data_type, null_count, unique_count, total_rows
		FROM schema_info
		WHERE file_name = ?
		ORDER BY column_name`, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema for %s: %w", fileName, err)
	}
	defer rows.Close()

	records, err := scanColumnRecords(rows)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		// Distinguish "never scanned" from "scanned but empty".
		known, err := r.fileNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range known {
			if name == fileName {
				return []models.ColumnRecord{}, nil
			}
		}
		return nil, &apperrors.UnknownFileError{Name: fileName, Known: known}
	}
	return records, nil
}

func (r *sqliteMetadataRepository) Snapshot(ctx context.Context) ([]models.ColumnRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT file_name, column_name, data_type, null_count, unique_count, total_rows
		FROM schema_info
		ORDER BY file_name, column_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot metadata: %w", err)
	}
	defer rows.Close()
	return scanColumnRecords(rows)
}

func (r *sqliteMetadataRepository) ReplaceSchema(ctx context.Context, info *models.FileInfo, records []models.ColumnRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_info WHERE file_name = ?`, info.FileName); err != nil {
		return fmt.Errorf("failed to clear previous records for %s: %w", info.FileName, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schema_info
		(file_name, file_path, column_name, data_type, null_count, unique_count, total_rows, file_size_mb, last_scanned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	scanned := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			info.FileName, info.FilePath, rec.ColumnName, rec.DataType,
			rec.NullCount, rec.UniqueCount, rec.TotalRows, info.FileSizeMB, scanned,
		); err != nil {
			return fmt.Errorf("failed to insert record for %s.%s: %w", info.FileName, rec.ColumnName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema replace: %w", err)
	}

	r.logger.Info("Stored schema",
		zap.String("file", info.FileName),
		zap.Int("columns", len(records)))
	return nil
}

func (r *sqliteMetadataRepository) DeleteFile(ctx context.Context, fileName string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schema_info WHERE file_name = ?`, fileName)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted rows: %w", err)
	}
	if affected == 0 {
		known, kerr := r.fileNames(ctx)
		if kerr != nil {
			return kerr
		}
		return &apperrors.UnknownFileError{Name: fileName, Known: known}
	}
	return nil
}

func (r *sqliteMetadataRepository) fileNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT file_name FROM schema_info ORDER BY file_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list file names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan file name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanColumnRecords(rows *sql.Rows) ([]models.ColumnRecord, error) {
	var records []models.ColumnRecord
	for rows.Next() {
		var rec models.ColumnRecord
		if err := rows.Scan(&rec.FileName, &rec.ColumnName, &rec.DataType, &rec.NullCount, &rec.UniqueCount, &rec.TotalRows); err != nil {
			return nil, fmt.Errorf("failed to scan column record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate column records: %w", err)
	}
	return records, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

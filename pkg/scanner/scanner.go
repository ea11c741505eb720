// Package scanner extracts column-level schema metadata from local
// CSV and Parquet files and stores it in the metadata repository.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
)

// Scanner walks directories, extracts per-column schema metadata and
// replaces the stored records for each scanned file.
type Scanner struct {
	repo          repositories.MetadataRepository
	maxFileSizeMB int
	sampleRows    int
	logger        *zap.Logger
}

// Result summarizes one scan run.
type Result struct {
	FilesScanned int
	ColumnsFound int
	Skipped      []SkippedFile
}

// SkippedFile records a file the scanner could not process and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// New creates a Scanner. sampleRows bounds how many rows are read for
// null/unique statistics; zero means read everything.
func New(repo repositories.MetadataRepository, maxFileSizeMB, sampleRows int, logger *zap.Logger) *Scanner {
	return &Scanner{
		repo:          repo,
		maxFileSizeMB: maxFileSizeMB,
		sampleRows:    sampleRows,
		logger:        logger.Named("scanner"),
	}
}

// ScanDirectory extracts schemas from every supported file under dir
// (recursively). Unreadable or oversized files are skipped with a
// warning, not fatal; the scan continues.
func (s *Scanner) ScanDirectory(ctx context.Context, dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	result := &Result{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedFormat(path) {
			return nil
		}
		cols, err := s.ScanFile(ctx, path)
		if err != nil {
			s.logger.Warn("Skipping file",
				zap.String("path", path),
				zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			return nil
		}
		result.FilesScanned++
		result.ColumnsFound += cols
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	s.logger.Info("Scan complete",
		zap.String("dir", dir),
		zap.Int("files", result.FilesScanned),
		zap.Int("columns", result.ColumnsFound),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// ScanFile extracts the schema of a single file and replaces its stored
// records. Returns the number of columns found.
func (s *Scanner) ScanFile(ctx context.Context, path string) (int, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("file not found: %w", err)
	}

	sizeMB := float64(stat.Size()) / (1024 * 1024)
	if s.maxFileSizeMB > 0 && sizeMB > float64(s.maxFileSizeMB) {
		return 0, fmt.Errorf("%w: %.1fMB > %dMB", apperrors.ErrFileTooLarge, sizeMB, s.maxFileSizeMB)
	}

	var records []models.ColumnRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = s.extractCSV(path)
	case ".parquet":
		records, err = s.extractParquet(path)
	default:
		return 0, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFileFormat, filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}

	fileName := filepath.Base(path)
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	for i := range records {
		records[i].FileName = fileName
	}

	var totalRows int64
	if len(records) > 0 {
		totalRows = records[0].TotalRows
	}
	info := &models.FileInfo{
		FileName:    fileName,
		FilePath:    absPath,
		ColumnCount: len(records),
		TotalRows:   totalRows,
		FileSizeMB:  roundMB(sizeMB),
	}

	if err := s.repo.ReplaceSchema(ctx, info, records); err != nil {
		return 0, fmt.Errorf("failed to store schema for %s: %w", fileName, err)
	}

	s.logger.Debug("Extracted schema",
		zap.String("file", fileName),
		zap.Int("columns", len(records)))
	return len(records), nil
}

func supportedFormat(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".parquet":
		return true
	}
	return false
}

func roundMB(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// dedupeHeaders makes duplicate header names unique by appending a
// numeric suffix, mirroring how dataframe libraries disambiguate.
func dedupeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		if h == "" {
			h = fmt.Sprintf("column_%d", i)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

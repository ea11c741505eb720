// Package analysis implements the schema search and cross-file
// relationship algorithms: common columns, similar schemas, type
// mismatches and naming consistency checks. All output is
// deterministically ordered so repeated runs over the same records
// produce identical results.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
)

// ColumnSearcher finds columns whose name contains a term.
type ColumnSearcher struct {
	repo   repositories.MetadataRepository
	logger *zap.Logger
}

// NewColumnSearcher creates a ColumnSearcher.
func NewColumnSearcher(repo repositories.MetadataRepository, logger *zap.Logger) *ColumnSearcher {
	return &ColumnSearcher{repo: repo, logger: logger.Named("search")}
}

// Search returns all columns whose name contains term, case-insensitive.
// Zero matches is a valid empty result, not an error.
func (s *ColumnSearcher) Search(ctx context.Context, term string) ([]models.ColumnRecord, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	needle := strings.ToLower(term)
	var matches []models.ColumnRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ColumnName), needle) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

// FileSearcher finds files whose name contains a term.
type FileSearcher struct {
	repo   repositories.MetadataRepository
	logger *zap.Logger
}

// NewFileSearcher creates a FileSearcher.
func NewFileSearcher(repo repositories.MetadataRepository, logger *zap.Logger) *FileSearcher {
	return &FileSearcher{repo: repo, logger: logger.Named("search")}
}

// Search returns all known files whose name contains term,
// case-insensitive, in listing order.
func (s *FileSearcher) Search(ctx context.Context, term string) ([]*models.FileInfo, error) {
	files, err := s.repo.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	needle := strings.ToLower(term)
	var matches []*models.FileInfo
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.FileName), needle) {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

// TypeSearcher finds columns whose declared type contains a term.
type TypeSearcher struct {
	repo   repositories.MetadataRepository
	logger *zap.Logger
}

// NewTypeSearcher creates a TypeSearcher.
func NewTypeSearcher(repo repositories.MetadataRepository, logger *zap.Logger) *TypeSearcher {
	return &TypeSearcher{repo: repo, logger: logger.Named("search")}
}

// Search returns all columns whose data type contains term,
// case-insensitive ("int" matches "integer").
func (s *TypeSearcher) Search(ctx context.Context, term string) ([]models.ColumnRecord, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	needle := strings.ToLower(term)
	var matches []models.ColumnRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DataType), needle) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

package analysis

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
)

// TypeCount is one entry of a data-type distribution.
type TypeCount struct {
	DataType string `json:"data_type"`
	Count    int    `json:"count"`
}

// OverallStats aggregates across every scanned file.
type OverallStats struct {
	FileCount   int         `json:"file_count"`
	ColumnCount int         `json:"column_count"`
	TotalRows   int64       `json:"total_rows"`
	TypeCounts  []TypeCount `json:"type_counts"`
}

// FileStats aggregates one file's schema.
type FileStats struct {
	FileName    string      `json:"file_name"`
	ColumnCount int         `json:"column_count"`
	TotalRows   int64       `json:"total_rows"`
	TypeCounts  []TypeCount `json:"type_counts"`
}

// ColumnStats collects every occurrence of one column name.
type ColumnStats struct {
	ColumnName    string                `json:"column_name"`
	Occurrences   []models.ColumnRecord `json:"occurrences"`
	DistinctTypes []string              `json:"distinct_types"`
}

// StatisticsAnalyzer computes aggregate counts at overall, file or
// column scope.
type StatisticsAnalyzer struct {
	repo   repositories.MetadataRepository
	logger *zap.Logger
}

// NewStatisticsAnalyzer creates a StatisticsAnalyzer.
func NewStatisticsAnalyzer(repo repositories.MetadataRepository, logger *zap.Logger) *StatisticsAnalyzer {
	return &StatisticsAnalyzer{repo: repo, logger: logger.Named("analysis")}
}

// Overall aggregates the whole store.
func (s *StatisticsAnalyzer) Overall(ctx context.Context) (*OverallStats, error) {
	files, err := s.repo.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	stats := &OverallStats{
		FileCount:   len(files),
		ColumnCount: len(records),
	}
	for _, f := range files {
		stats.TotalRows += f.TotalRows
	}
	stats.TypeCounts = countTypes(records)
	return stats, nil
}

// ForFile aggregates one file's schema; unknown files surface as
// UnknownFileError from the repository.
func (s *StatisticsAnalyzer) ForFile(ctx context.Context, fileName string) (*FileStats, error) {
	records, err := s.repo.GetSchema(ctx, fileName)
	if err != nil {
		return nil, err
	}

	stats := &FileStats{
		FileName:    fileName,
		ColumnCount: len(records),
		TypeCounts:  countTypes(records),
	}
	if len(records) > 0 {
		stats.TotalRows = records[0].TotalRows
	}
	return stats, nil
}

// ForColumn collects every occurrence of a column name across files.
// No occurrences is an empty result, not an error.
func (s *StatisticsAnalyzer) ForColumn(ctx context.Context, columnName string) (*ColumnStats, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	stats := &ColumnStats{ColumnName: columnName}
	types := make(map[string]struct{})
	for _, r := range records {
		if r.ColumnName != columnName {
			continue
		}
		stats.Occurrences = append(stats.Occurrences, r)
		types[r.DataType] = struct{}{}
	}
	stats.DistinctTypes = sortedKeys(types)
	return stats, nil
}

func countTypes(records []models.ColumnRecord) []TypeCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.DataType]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{DataType: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DataType < out[j].DataType
	})
	return out
}

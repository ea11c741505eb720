// Package export renders the metadata store as a schema report in
// JSON, YAML or Markdown.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/prasann/table-talks/pkg/repositories"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected json, yaml or markdown)", s)
}

// FormatForPath infers the format from a file extension, defaulting to
// JSON when the extension is unrecognized.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// Report is the exported view of the metadata store.
type Report struct {
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	FileCount   int          `json:"file_count" yaml:"file_count"`
	Files       []FileReport `json:"files" yaml:"files"`
}

type FileReport struct {
	FileName    string         `json:"file_name" yaml:"file_name"`
	FilePath    string         `json:"file_path" yaml:"file_path"`
	TotalRows   int64          `json:"total_rows" yaml:"total_rows"`
	ColumnCount int            `json:"column_count" yaml:"column_count"`
	FileSizeMB  float64        `json:"file_size_mb" yaml:"file_size_mb"`
	Columns     []ColumnReport `json:"columns" yaml:"columns"`
}

type ColumnReport struct {
	Name        string `json:"name" yaml:"name"`
	DataType    string `json:"data_type" yaml:"data_type"`
	NullCount   int64  `json:"null_count" yaml:"null_count"`
	UniqueCount int64  `json:"unique_count" yaml:"unique_count"`
}

// Exporter builds and writes schema reports.
type Exporter struct {
	repo   repositories.MetadataRepository
	logger *zap.Logger
}

func New(repo repositories.MetadataRepository, logger *zap.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		logger: logger.Named("export"),
	}
}

// BuildReport assembles the report from the store. Files and columns
// come back in repository order (sorted by name).
func (e *Exporter) BuildReport(ctx context.Context) (*Report, error) {
	files, err := e.repo.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		FileCount:   len(files),
		Files:       make([]FileReport, 0, len(files)),
	}

	for _, f := range files {
		records, err := e.repo.GetSchema(ctx, f.FileName)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", f.FileName, err)
		}

		fr := FileReport{
			FileName:    f.FileName,
			FilePath:    f.FilePath,
			TotalRows:   f.TotalRows,
			ColumnCount: f.ColumnCount,
			FileSizeMB:  f.FileSizeMB,
			Columns:     make([]ColumnReport, 0, len(records)),
		}
		for _, r := range records {
			fr.Columns = append(fr.Columns, ColumnReport{
				Name:        r.ColumnName,
				DataType:    r.DataType,
				NullCount:   r.NullCount,
				UniqueCount: r.UniqueCount,
			})
		}
		report.Files = append(report.Files, fr)
	}
	return report, nil
}

// Write renders the report to w in the requested format.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format) error {
	report, err := e.BuildReport(ctx)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	case FormatMarkdown:
		_, err := io.WriteString(w, renderMarkdown(report))
		return err
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ExportFile writes the report to path, inferring the format from the
// file extension.
func (e *Exporter) ExportFile(ctx context.Context, path string) error {
	format := FormatForPath(path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := e.Write(ctx, f, format); err != nil {
		return err
	}
	e.logger.Info("Exported schema report",
		zap.String("path", path),
		zap.String("format", string(format)))
	return nil
}

func renderMarkdown(report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Schema Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Files scanned: %d\n", report.FileCount)

	for _, f := range report.Files {
		fmt.Fprintf(&b, "\n## %s\n\n", f.FileName)
		fmt.Fprintf(&b, "Rows: %d | Columns: %d\n\n", f.TotalRows, f.ColumnCount)
		b.WriteString("| Column | Type | Nulls | Unique |\n")
		b.WriteString("|--------|------|-------|--------|\n")
		for _, c := range f.Columns {
			fmt.Fprintf(&b, "| %s | %s | %d | %d |\n", c.Name, c.DataType, c.NullCount, c.UniqueCount)
		}
	}
	return b.String()
}

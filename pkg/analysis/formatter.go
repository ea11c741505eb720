package analysis

import (
	"fmt"
	"strings"

	"github.com/prasann/table-talks/pkg/models"
)

// TextFormatter renders analysis results as human-readable text for
// the chat loop and the LLM. Pure presentation, no business logic.
type TextFormatter struct{}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// FormatColumnMatches renders column search results.
func (f *TextFormatter) FormatColumnMatches(term string, matches []models.ColumnRecord) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No columns found containing: %s", term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d column(s) containing '%s':\n\n", len(matches), term)
	for _, m := range matches {
		fmt.Fprintf(&b, "[FILE] %s\n", m.FileName)
		fmt.Fprintf(&b, "  └─ %s (%s)\n", m.ColumnName, m.DataType)
		fmt.Fprintf(&b, "     Nulls: %d, Unique: %d\n\n", m.NullCount, m.UniqueCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTypeMatches renders data-type search results.
func (f *TextFormatter) FormatTypeMatches(term string, matches []models.ColumnRecord) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No columns found with type: %s", term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d column(s) with type '%s':\n\n", len(matches), term)
	for _, m := range matches {
		fmt.Fprintf(&b, "[FILE] %s\n", m.FileName)
		fmt.Fprintf(&b, "  └─ %s (%s)\n\n", m.ColumnName, m.DataType)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFileMatches renders file search results.
func (f *TextFormatter) FormatFileMatches(term string, matches []*models.FileInfo) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No files found containing: %s", term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s) containing '%s':\n\n", len(matches), term)
	for _, m := range matches {
		fmt.Fprintf(&b, "[FILE] %s\n", m.FileName)
		fmt.Fprintf(&b, "  Rows: %d, Columns: %d\n\n", m.TotalRows, m.ColumnCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSemanticMatches renders embedding-based search results.
func (f *TextFormatter) FormatSemanticMatches(term string, matches []models.SemanticMatch) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No semantically similar columns found for: %s", term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d semantically similar column(s) for '%s':\n\n", len(matches), term)
	for _, m := range matches {
		fmt.Fprintf(&b, "[FILE] %s\n", m.FileName)
		fmt.Fprintf(&b, "  └─ %s (similarity %.2f)\n\n", m.ColumnName, m.Similarity)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFileList renders the file inventory.
func (f *TextFormatter) FormatFileList(files []*models.FileInfo) string {
	if len(files) == 0 {
		return "No files have been scanned yet. Use the scan command to add some."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s):\n\n", len(files))
	for _, info := range files {
		fmt.Fprintf(&b, "[FILE] %s\n", info.FileName)
		fmt.Fprintf(&b, "  Size: %.2f MB, Rows: %d, Columns: %d\n\n",
			info.FileSizeMB, info.TotalRows, info.ColumnCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSchema renders one file's full schema.
func (f *TextFormatter) FormatSchema(fileName string, records []models.ColumnRecord, detailed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema for %s:\n\n", fileName)
	fmt.Fprintf(&b, "Columns (%d):\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "  • %s (%s)\n", r.ColumnName, r.DataType)
		if detailed {
			fmt.Fprintf(&b, "    Nulls: %d, Unique: %d\n", r.NullCount, r.UniqueCount)
		}
	}
	if len(records) > 0 {
		fmt.Fprintf(&b, "\nTotal rows: %d", records[0].TotalRows)
	}
	return b.String()
}

// FormatSchemaSummaries renders one summary line per file.
func (f *TextFormatter) FormatSchemaSummaries(files []*models.FileInfo) string {
	if len(files) == 0 {
		return "No schema information found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schema information for %d file(s):\n\n", len(files))
	for _, info := range files {
		fmt.Fprintf(&b, "[FILE] %s\n", info.FileName)
		fmt.Fprintf(&b, "  Columns: %d, Rows: %d\n\n", info.ColumnCount, info.TotalRows)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCommonColumns renders common-column analysis output.
func (f *TextFormatter) FormatCommonColumns(results []models.CommonColumn) string {
	if len(results) == 0 {
		return "No common columns found."
	}

	var b strings.Builder
	b.WriteString("Common Columns Results:\n\n")
	for _, item := range results {
		fmt.Fprintf(&b, "[COL] %s\n", item.ColumnName)
		fmt.Fprintf(&b, "  Found in %d files: %s\n", item.FileCount, truncateList(item.Files, 3))
		if len(item.DataTypes) > 1 {
			fmt.Fprintf(&b, "  [!] Multiple data types: %s\n", strings.Join(item.DataTypes, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSimilarSchemas renders similar-schema analysis output.
func (f *TextFormatter) FormatSimilarSchemas(results []models.SimilarSchemaPair) string {
	if len(results) == 0 {
		return "No similar schemas found."
	}

	var b strings.Builder
	b.WriteString("Similar Schemas Results:\n\n")
	for _, item := range results {
		fmt.Fprintf(&b, "[LINK] %s <-> %s\n", item.FileA, item.FileB)
		fmt.Fprintf(&b, "  Similarity score: %.2f\n", item.Similarity)
		fmt.Fprintf(&b, "  Common columns (%d): %s\n", len(item.CommonColumns), truncateList(item.CommonColumns, 5))
		fmt.Fprintf(&b, "  Files have %d and %d columns total\n\n", item.TotalA, item.TotalB)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTypeMismatches renders type-mismatch analysis output.
func (f *TextFormatter) FormatTypeMismatches(results []models.TypeMismatch) string {
	if len(results) == 0 {
		return "No type mismatches found. Column types are consistent across files."
	}

	var b strings.Builder
	b.WriteString("Data Type Mismatch Results:\n\n")
	for _, item := range results {
		fmt.Fprintf(&b, "[!] %s\n", item.ColumnName)
		for _, occ := range item.Occurrences {
			fmt.Fprintf(&b, "    • %s: %s\n", occ.FileName, occ.DataType)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNamingIssues renders naming-consistency output.
func (f *TextFormatter) FormatNamingIssues(results []models.NamingIssue) string {
	if len(results) == 0 {
		return "No naming inconsistencies found."
	}

	var b strings.Builder
	b.WriteString("Naming Consistency Results:\n\n")
	for _, issue := range results {
		var cols []string
		for _, ref := range issue.Columns {
			cols = append(cols, fmt.Sprintf("%s (%s)", ref.ColumnName, ref.FileName))
		}
		fmt.Fprintf(&b, "[!] %s\n", issue.Reason)
		fmt.Fprintf(&b, "  Columns: %s\n", strings.Join(cols, ", "))
		if issue.Suggestion != "" {
			fmt.Fprintf(&b, "  Suggestion: use %q\n", issue.Suggestion)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSchemaDifference renders a pairwise comparison.
func (f *TextFormatter) FormatSchemaDifference(diff *models.SchemaDifference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparing %s <-> %s:\n\n", diff.FileA, diff.FileB)

	fmt.Fprintf(&b, "Common columns (%d): %s\n", len(diff.CommonColumns), joinOrNone(diff.CommonColumns))
	fmt.Fprintf(&b, "Only in %s (%d): %s\n", diff.FileA, len(diff.UniqueToA), joinOrNone(columnNames(diff.UniqueToA)))
	fmt.Fprintf(&b, "Only in %s (%d): %s\n", diff.FileB, len(diff.UniqueToB), joinOrNone(columnNames(diff.UniqueToB)))

	if len(diff.TypeMismatches) > 0 {
		b.WriteString("\nType mismatches:\n")
		for _, tm := range diff.TypeMismatches {
			var occ []string
			for _, o := range tm.Occurrences {
				occ = append(occ, fmt.Sprintf("%s: %s", o.FileName, o.DataType))
			}
			fmt.Fprintf(&b, "  [!] %s (%s)\n", tm.ColumnName, strings.Join(occ, ", "))
		}
	}

	if len(diff.SemanticEquivalents) > 0 {
		b.WriteString("\nLikely equivalent columns (semantic match):\n")
		for _, eq := range diff.SemanticEquivalents {
			fmt.Fprintf(&b, "  • %s ≈ %s (similarity %.2f)\n",
				eq.ColumnA.ColumnName, eq.ColumnB.ColumnName, eq.Similarity)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSchemaDifferences renders all pairwise comparisons.
func (f *TextFormatter) FormatSchemaDifferences(diffs []models.SchemaDifference) string {
	if len(diffs) == 0 {
		return "No file pairs to compare. Scan at least two files first."
	}

	parts := make([]string, len(diffs))
	for i := range diffs {
		parts[i] = f.FormatSchemaDifference(&diffs[i])
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FormatConceptGroups renders semantic concept clusters.
func (f *TextFormatter) FormatConceptGroups(groups []models.ConceptGroup) string {
	if len(groups) == 0 {
		return "No semantic concept groups found."
	}

	var b strings.Builder
	b.WriteString("Semantic Concept Groups:\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "[GROUP] %s (%d columns)\n", g.Concept, len(g.Members))
		for _, m := range g.Members {
			fmt.Fprintf(&b, "  • %s in %s (similarity %.2f)\n", m.ColumnName, m.FileName, m.Similarity)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatConceptTypeIssues renders concept-consistency output.
func (f *TextFormatter) FormatConceptTypeIssues(issues []models.ConceptTypeIssue) string {
	if len(issues) == 0 {
		return "No concept consistency issues found."
	}

	var b strings.Builder
	b.WriteString("Concept Consistency Results:\n\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "[!] concept %q uses %d types: %s\n",
			issue.Concept, len(issue.Types), strings.Join(issue.Types, ", "))
		for _, occ := range issue.Occurrences {
			fmt.Fprintf(&b, "    • %s: %s\n", occ.FileName, occ.DataType)
		}
		fmt.Fprintf(&b, "  Suggestion: standardize on %q\n\n", issue.SuggestedType)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOverallStats renders store-wide statistics.
func (f *TextFormatter) FormatOverallStats(stats *OverallStats) string {
	var b strings.Builder
	b.WriteString("Metadata store statistics:\n\n")
	fmt.Fprintf(&b, "  Files: %d\n", stats.FileCount)
	fmt.Fprintf(&b, "  Columns: %d\n", stats.ColumnCount)
	fmt.Fprintf(&b, "  Total rows: %d\n", stats.TotalRows)
	if len(stats.TypeCounts) > 0 {
		b.WriteString("  Data types:\n")
		for _, tc := range stats.TypeCounts {
			fmt.Fprintf(&b, "    • %s: %d\n", tc.DataType, tc.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFileStats renders one file's statistics.
func (f *TextFormatter) FormatFileStats(stats *FileStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statistics for %s:\n\n", stats.FileName)
	fmt.Fprintf(&b, "  Columns: %d\n", stats.ColumnCount)
	fmt.Fprintf(&b, "  Total rows: %d\n", stats.TotalRows)
	if len(stats.TypeCounts) > 0 {
		b.WriteString("  Data types:\n")
		for _, tc := range stats.TypeCounts {
			fmt.Fprintf(&b, "    • %s: %d\n", tc.DataType, tc.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatColumnStats renders statistics for one column name.
func (f *TextFormatter) FormatColumnStats(stats *ColumnStats) string {
	if len(stats.Occurrences) == 0 {
		return fmt.Sprintf("No column named %q found in any scanned file.", stats.ColumnName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Statistics for column %q (%d file(s)):\n\n", stats.ColumnName, len(stats.Occurrences))
	for _, r := range stats.Occurrences {
		fmt.Fprintf(&b, "[FILE] %s\n", r.FileName)
		fmt.Fprintf(&b, "  Type: %s, Nulls: %d, Unique: %d, Rows: %d\n\n",
			r.DataType, r.NullCount, r.UniqueCount, r.TotalRows)
	}
	if len(stats.DistinctTypes) > 1 {
		fmt.Fprintf(&b, "[!] Multiple data types: %s\n", strings.Join(stats.DistinctTypes, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateList(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + "..."
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

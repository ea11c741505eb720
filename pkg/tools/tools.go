package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/analysis"
	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/config"
	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
	"github.com/prasann/table-talks/pkg/semantic"
)

// analysis_type values accepted by find_relationships.
const (
	AnalysisCommonColumns     = "common_columns"
	AnalysisSimilarSchemas    = "similar_schemas"
	AnalysisSemanticGroups    = "semantic_groups"
	AnalysisSchemaDifferences = "schema_differences"
	AnalysisConceptEvolution  = "concept_evolution"
)

// check_type values accepted by detect_inconsistencies.
const (
	CheckDataTypes             = "data_types"
	CheckNamingPatterns        = "naming_patterns"
	CheckSemanticNaming        = "semantic_naming"
	CheckConceptConsistency    = "concept_consistency"
	CheckAbbreviationDetection = "abbreviation_detection"
)

// search_type values accepted by search_metadata.
const (
	SearchColumn = "column"
	SearchFile   = "file"
	SearchType   = "type"
)

const semanticUnavailableNotice = "Note: semantic search is not available (no embedding backend configured); showing exact-match results instead."

// Dependencies holds everything the tool set operates over.
type Dependencies struct {
	Repo          repositories.MetadataRepository
	Columns       *analysis.ColumnSearcher
	Files         *analysis.FileSearcher
	Types         *analysis.TypeSearcher
	Relationships *analysis.RelationshipAnalyzer
	Consistency   *analysis.ConsistencyChecker
	Statistics    *analysis.StatisticsAnalyzer
	Semantic      *semantic.Searcher
	Formatter     *analysis.TextFormatter
	Analysis      config.AnalysisConfig
	Logger        *zap.Logger
}

// NewRegistry builds the registry with all eight operations in their
// fixed manifest order.
func NewRegistry(deps *Dependencies) (*Registry, error) {
	r := newRegistry(deps.Logger)
	for _, t := range []*Tool{
		getFilesTool(deps),
		getSchemasTool(deps),
		searchMetadataTool(deps),
		getStatisticsTool(deps),
		findRelationshipsTool(deps),
		detectInconsistenciesTool(deps),
		compareItemsTool(deps),
		runAnalysisTool(deps),
	} {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ============================================================================
// Tool: get_files
// ============================================================================

func getFilesTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "get_files",
		Description: "List all scanned files with their size, row and column counts. Optionally filter by a file name pattern.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"pattern": {
					Type:        "string",
					Description: "Optional substring to filter file names by",
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			files, err := deps.Repo.ListFiles(ctx)
			if err != nil {
				return "", err
			}
			if pattern := stringArg(args, "pattern"); pattern != "" {
				files = filterFiles(files, pattern)
				if len(files) == 0 {
					return fmt.Sprintf("No files match pattern: %s", pattern), nil
				}
			}
			return deps.Formatter.FormatFileList(files), nil
		},
	}
}

// ============================================================================
// Tool: get_schemas
// ============================================================================

func getSchemasTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "get_schemas",
		Description: "Show the column schema of one file, or a summary of all files. Pass a file name (or pattern) to narrow down.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"file_pattern": {
					Type:        "string",
					Description: "File name or substring pattern; omit for a summary of every file",
				},
				"detailed": {
					Type:        "boolean",
					Description: "Include per-column null and unique counts",
					Default:     true,
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			pattern := stringArg(args, "file_pattern")
			detailed := boolArg(args, "detailed")

			files, err := deps.Repo.ListFiles(ctx)
			if err != nil {
				return "", err
			}

			if pattern == "" {
				return deps.Formatter.FormatSchemaSummaries(files), nil
			}

			matched := filterFiles(files, pattern)
			if len(matched) == 0 {
				if looksLikeFileName(pattern) {
					return "", &apperrors.UnknownFileError{Name: pattern, Known: fileNames(files)}
				}
				return fmt.Sprintf("No files match pattern: %s", pattern), nil
			}

			var parts []string
			for _, f := range matched {
				records, err := deps.Repo.GetSchema(ctx, f.FileName)
				if err != nil {
					return "", err
				}
				parts = append(parts, deps.Formatter.FormatSchema(f.FileName, records, detailed))
			}
			return strings.Join(parts, "\n\n"), nil
		},
	}
}

// ============================================================================
// Tool: search_metadata
// ============================================================================

func searchMetadataTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "search_metadata",
		Description: "Search the scanned metadata for columns, files or data types matching a term. Set semantic=true to match by meaning rather than substring.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"term": {
					Type:        "string",
					Description: "The search term",
				},
				"search_type": {
					Type:        "string",
					Description: "What to search",
					Enum:        []string{SearchColumn, SearchFile, SearchType},
					Default:     SearchColumn,
				},
				"semantic": {
					Type:        "boolean",
					Description: "Use embedding similarity instead of substring matching (column search only)",
					Default:     false,
				},
			},
			Required: []string{"term"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			term := stringArg(args, "term")
			searchType := stringArg(args, "search_type")
			useSemantic := boolArg(args, "semantic")

			switch searchType {
			case SearchColumn:
				if useSemantic {
					return semanticColumnSearch(ctx, deps, term)
				}
				matches, err := deps.Columns.Search(ctx, term)
				if err != nil {
					return "", err
				}
				if len(matches) == 0 && deps.Semantic.Available() {
					semMatches, err := semanticMatches(ctx, deps, term)
					if err != nil {
						return "", err
					}
					if len(semMatches) > 0 {
						return "No exact matches found. Here are semantic matches:\n\n" +
							deps.Formatter.FormatSemanticMatches(term, semMatches), nil
					}
				}
				return deps.Formatter.FormatColumnMatches(term, matches), nil
			case SearchFile:
				matches, err := deps.Files.Search(ctx, term)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatFileMatches(term, matches), nil
			case SearchType:
				matches, err := deps.Types.Search(ctx, term)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatTypeMatches(term, matches), nil
			}
			return "", &apperrors.InvalidParameterError{
				Tool:      "search_metadata",
				Parameter: "search_type",
				Reason:    fmt.Sprintf("must be one of: %s", joinComma([]string{SearchColumn, SearchFile, SearchType})),
			}
		},
	}
}

func semanticColumnSearch(ctx context.Context, deps *Dependencies, term string) (string, error) {
	if !deps.Semantic.Available() {
		matches, err := deps.Columns.Search(ctx, term)
		if err != nil {
			return "", err
		}
		return semanticUnavailableNotice + "\n\n" + deps.Formatter.FormatColumnMatches(term, matches), nil
	}

	matches, err := semanticMatches(ctx, deps, term)
	if err != nil {
		return "", err
	}
	return deps.Formatter.FormatSemanticMatches(term, matches), nil
}

func semanticMatches(ctx context.Context, deps *Dependencies, term string) ([]models.SemanticMatch, error) {
	records, err := deps.Repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]models.ColumnRef, len(records))
	for i, r := range records {
		refs[i] = models.ColumnRef{FileName: r.FileName, ColumnName: r.ColumnName}
	}
	return deps.Semantic.FindSimilarColumns(ctx, term, refs, deps.Analysis.SemanticSearchThreshold)
}

// ============================================================================
// Tool: get_statistics
// ============================================================================

func getStatisticsTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "get_statistics",
		Description: "Aggregate statistics at overall, file or column scope: row totals, column counts and data type distribution.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"scope": {
					Type:        "string",
					Description: "Aggregation level",
					Enum:        []string{"overall", "file", "column"},
					Default:     "overall",
				},
				"target": {
					Type:        "string",
					Description: "File name (scope=file) or column name (scope=column)",
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			scope := stringArg(args, "scope")
			target := stringArg(args, "target")

			switch scope {
			case "overall":
				stats, err := deps.Statistics.Overall(ctx)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatOverallStats(stats), nil
			case "file":
				if target == "" {
					return "", &apperrors.MissingParameterError{Tool: "get_statistics", Parameter: "target"}
				}
				stats, err := deps.Statistics.ForFile(ctx, target)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatFileStats(stats), nil
			case "column":
				if target == "" {
					return "", &apperrors.MissingParameterError{Tool: "get_statistics", Parameter: "target"}
				}
				stats, err := deps.Statistics.ForColumn(ctx, target)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatColumnStats(stats), nil
			}
			return "", &apperrors.InvalidParameterError{
				Tool:      "get_statistics",
				Parameter: "scope",
				Reason:    "must be one of: overall, file, column",
			}
		},
	}
}

// ============================================================================
// Tool: find_relationships
// ============================================================================

func findRelationshipsTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "find_relationships",
		Description: "Cross-file relationship analysis: shared columns, similar schemas, pairwise differences and semantic concept groups.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"analysis_type": {
					Type:        "string",
					Description: "Which relationship analysis to run",
					Enum: []string{
						AnalysisCommonColumns,
						AnalysisSimilarSchemas,
						AnalysisSemanticGroups,
						AnalysisSchemaDifferences,
						AnalysisConceptEvolution,
					},
				},
				"threshold": {
					Type:        "number",
					Description: "Analysis-specific threshold: minimum file count for common_columns, minimum similarity score otherwise",
				},
				"semantic": {
					Type:        "boolean",
					Description: "Widen matching with embedding similarity where supported",
					Default:     false,
				},
			},
			Required: []string{"analysis_type"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			analysisType := stringArg(args, "analysis_type")
			useSemantic := boolArg(args, "semantic")

			switch analysisType {
			case AnalysisCommonColumns:
				threshold := deps.Analysis.CommonColumnThreshold
				if hasArg(args, "threshold") {
					threshold = int(floatArg(args, "threshold"))
				}
				results, err := deps.Relationships.CommonColumns(ctx, threshold)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatCommonColumns(results), nil

			case AnalysisSimilarSchemas:
				threshold := deps.Analysis.SchemaSimilarityThreshold
				if hasArg(args, "threshold") {
					threshold = floatArg(args, "threshold")
				}
				notice := ""
				if useSemantic && !deps.Semantic.Available() {
					notice = semanticUnavailableNotice + "\n\n"
					useSemantic = false
				}
				pairs, err := deps.Relationships.SimilarSchemas(ctx, threshold, useSemantic, deps.Analysis.SemanticGroupThreshold)
				if err != nil {
					return "", err
				}
				return notice + deps.Formatter.FormatSimilarSchemas(pairs), nil

			case AnalysisSchemaDifferences:
				notice := ""
				if useSemantic && !deps.Semantic.Available() {
					notice = semanticUnavailableNotice + "\n\n"
					useSemantic = false
				}
				diffs, err := deps.Relationships.SchemaDifferences(ctx, useSemantic, deps.Analysis.SemanticGroupThreshold)
				if err != nil {
					return "", err
				}
				return notice + deps.Formatter.FormatSchemaDifferences(diffs), nil

			case AnalysisSemanticGroups, AnalysisConceptEvolution:
				if !deps.Semantic.Available() {
					return "Semantic analysis is not available: no embedding backend is configured. Try common_columns or similar_schemas instead.", nil
				}
				threshold := deps.Analysis.SemanticGroupThreshold
				if hasArg(args, "threshold") {
					threshold = floatArg(args, "threshold")
				}
				var groups []models.ConceptGroup
				var err error
				if analysisType == AnalysisSemanticGroups {
					groups, err = deps.Relationships.SemanticGroups(ctx, threshold)
				} else {
					groups, err = deps.Relationships.ConceptEvolution(ctx, threshold)
				}
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatConceptGroups(groups), nil
			}
			return "", &apperrors.InvalidParameterError{
				Tool:      "find_relationships",
				Parameter: "analysis_type",
				Reason:    "unknown analysis type",
			}
		},
	}
}

// ============================================================================
// Tool: detect_inconsistencies
// ============================================================================

func detectInconsistenciesTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "detect_inconsistencies",
		Description: "Schema quality checks: type mismatches across files, naming style fragmentation, abbreviation drift and concept/type consistency.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"check_type": {
					Type:        "string",
					Description: "Which consistency check to run",
					Enum: []string{
						CheckDataTypes,
						CheckNamingPatterns,
						CheckSemanticNaming,
						CheckConceptConsistency,
						CheckAbbreviationDetection,
					},
				},
			},
			Required: []string{"check_type"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			switch stringArg(args, "check_type") {
			case CheckDataTypes:
				mismatches, err := deps.Consistency.TypeMismatches(ctx)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatTypeMismatches(mismatches), nil

			case CheckNamingPatterns:
				issues, err := deps.Consistency.NamingPatterns(ctx)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatNamingIssues(issues), nil

			case CheckSemanticNaming:
				if !deps.Consistency.SemanticAvailable() {
					issues, err := deps.Consistency.NamingPatterns(ctx)
					if err != nil {
						return "", err
					}
					return semanticUnavailableNotice + "\n\n" + deps.Formatter.FormatNamingIssues(issues), nil
				}
				issues, err := deps.Consistency.SemanticNaming(ctx, deps.Analysis.SemanticNamingThreshold)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatNamingIssues(issues), nil

			case CheckConceptConsistency:
				issues, err := deps.Consistency.ConceptConsistency(ctx)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatConceptTypeIssues(issues), nil

			case CheckAbbreviationDetection:
				issues, err := deps.Consistency.AbbreviationDetection(ctx, deps.Analysis.SemanticNamingThreshold)
				if err != nil {
					return "", err
				}
				return deps.Formatter.FormatNamingIssues(issues), nil
			}
			return "", &apperrors.InvalidParameterError{
				Tool:      "detect_inconsistencies",
				Parameter: "check_type",
				Reason:    "unknown check type",
			}
		},
	}
}

// ============================================================================
// Tool: compare_items
// ============================================================================

func compareItemsTool(deps *Dependencies) *Tool {
	return &Tool{
		Name:        "compare_items",
		Description: "Compare the schemas of exactly two files: shared columns, columns unique to each side and type mismatches.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"item_a": {
					Type:        "string",
					Description: "First file name",
				},
				"item_b": {
					Type:        "string",
					Description: "Second file name",
				},
				"comparison_type": {
					Type:        "string",
					Description: "What to compare",
					Enum:        []string{"schemas"},
					Default:     "schemas",
				},
				"semantic": {
					Type:        "boolean",
					Description: "Also match differently named columns by embedding similarity",
					Default:     false,
				},
			},
			Required: []string{"item_a", "item_b"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			useSemantic := boolArg(args, "semantic")
			notice := ""
			if useSemantic && !deps.Semantic.Available() {
				notice = semanticUnavailableNotice + "\n\n"
				useSemantic = false
			}
			diff, err := deps.Relationships.Compare(ctx,
				stringArg(args, "item_a"), stringArg(args, "item_b"),
				useSemantic, deps.Analysis.SemanticGroupThreshold)
			if err != nil {
				return "", err
			}
			return notice + deps.Formatter.FormatSchemaDifference(diff), nil
		},
	}
}

// ============================================================================
// Tool: run_analysis
// ============================================================================

// analysisKeywords maps free-text cues onto concrete analyses. Checked
// in order; first hit wins. This is a safety net for vague requests,
// not natural-language understanding.
var analysisKeywords = []struct {
	keywords []string
	tool     string
	args     map[string]any
}{
	{[]string{"common", "shared", "overlap"}, "find_relationships", map[string]any{"analysis_type": AnalysisCommonColumns}},
	{[]string{"similar", "alike", "resemble"}, "find_relationships", map[string]any{"analysis_type": AnalysisSimilarSchemas}},
	{[]string{"differ", "difference", "compare"}, "find_relationships", map[string]any{"analysis_type": AnalysisSchemaDifferences}},
	{[]string{"mismatch", "type"}, "detect_inconsistencies", map[string]any{"check_type": CheckDataTypes}},
	{[]string{"naming", "name style", "inconsistent"}, "detect_inconsistencies", map[string]any{"check_type": CheckNamingPatterns}},
	{[]string{"abbreviat"}, "detect_inconsistencies", map[string]any{"check_type": CheckAbbreviationDetection}},
	{[]string{"concept", "semantic", "group"}, "find_relationships", map[string]any{"analysis_type": AnalysisSemanticGroups}},
}

func runAnalysisTool(deps *Dependencies) *Tool {
	var registry *Registry

	t := &Tool{
		Name:        "run_analysis",
		Description: "Best-effort escape hatch: map a free-text analysis request onto one of the concrete analyses by keyword. Prefer the specific tools when you know what you want.",
		Schema: ParameterSchema{
			Properties: map[string]Property{
				"description": {
					Type:        "string",
					Description: "Free-text description of the analysis to run",
				},
			},
			Required: []string{"description"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			description := strings.ToLower(stringArg(args, "description"))
			for _, entry := range analysisKeywords {
				for _, kw := range entry.keywords {
					if strings.Contains(description, kw) {
						return registry.Execute(ctx, entry.tool, cloneArgs(entry.args))
					}
				}
			}
			return availableAnalysesText(), nil
		},
	}

	// bind lazily so the tool can dispatch through its own registry
	t.bind = func(r *Registry) { registry = r }
	return t
}

func availableAnalysesText() string {
	return strings.Join([]string{
		"Could not map that description onto a known analysis.",
		"",
		"Available analyses (use find_relationships or detect_inconsistencies directly):",
		"  • common_columns — columns shared across files",
		"  • similar_schemas — files with overlapping schemas",
		"  • schema_differences — pairwise schema comparison",
		"  • semantic_groups / concept_evolution — embedding-based concept clusters",
		"  • data_types — same column, different types",
		"  • naming_patterns / semantic_naming / abbreviation_detection — naming drift",
		"  • concept_consistency — concepts with inconsistent types",
	}, "\n")
}

// helpers

func filterFiles(files []*models.FileInfo, pattern string) []*models.FileInfo {
	needle := strings.ToLower(pattern)
	var matched []*models.FileInfo
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.FileName), needle) {
			matched = append(matched, f)
		}
	}
	return matched
}

func fileNames(files []*models.FileInfo) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.FileName
	}
	sort.Strings(names)
	return names
}

func looksLikeFileName(pattern string) bool {
	return strings.HasSuffix(strings.ToLower(pattern), ".csv") ||
		strings.HasSuffix(strings.ToLower(pattern), ".parquet")
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

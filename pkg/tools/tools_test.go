package tools

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/analysis"
	"github.com/prasann/table-talks/pkg/apperrors"
	"github.com/prasann/table-talks/pkg/config"
	"github.com/prasann/table-talks/pkg/llm"
	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/semantic"
)

// fixtureRepo is an in-memory MetadataRepository seeded with a small,
// deterministic store.
type fixtureRepo struct {
	schemas map[string][]models.ColumnRecord
}

func (r *fixtureRepo) fileNames() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *fixtureRepo) ListFiles(ctx context.Context) ([]*models.FileInfo, error) {
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

func (r *fixtureRepo) GetSchema(ctx context.Context, fileName string) ([]models.ColumnRecord, error) {
	records, ok := r.schemas[fileName]
	if !ok {
		return nil, &apperrors.UnknownFileError{Name: fileName, Known: r.fileNames()}
	}
	out := append([]models.ColumnRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool { return out[i].ColumnName < out[j].ColumnName })
	return out, nil
}

func (r *fixtureRepo) Snapshot(ctx context.Context) ([]models.ColumnRecord, error) {
	var all []models.ColumnRecord
	for _, name := range r.fileNames() {
		records, _ := r.GetSchema(ctx, name)
		all = append(all, records...)
	}
	return all, nil
}

func (r *fixtureRepo) ReplaceSchema(ctx context.Context, info *models.FileInfo, records []models.ColumnRecord) error {
	r.schemas[info.FileName] = records
	return nil
}

func (r *fixtureRepo) DeleteFile(ctx context.Context, fileName string) error {
	if _, ok := r.schemas[fileName]; !ok {
		return &apperrors.UnknownFileError{Name: fileName, Known: r.fileNames()}
	}
	delete(r.schemas, fileName)
	return nil
}

func seedRepo() *fixtureRepo {
	col := func(file, name, dataType string, rows int64) models.ColumnRecord {
		return models.ColumnRecord{FileName: file, ColumnName: name, DataType: dataType, TotalRows: rows}
	}
	return &fixtureRepo{schemas: map[string][]models.ColumnRecord{
		"customers.csv": {
			col("customers.csv", "customer_id", models.TypeInteger, 100),
			col("customers.csv", "email", models.TypeString, 100),
			col("customers.csv", "name", models.TypeString, 100),
		},
		"orders.csv": {
			col("orders.csv", "order_id", models.TypeInteger, 500),
			col("orders.csv", "customer_id", models.TypeInteger, 500),
			col("orders.csv", "amount", models.TypeFloat, 500),
		},
		"legacy.csv": {
			col("legacy.csv", "customer_id", models.TypeString, 40),
			col("legacy.csv", "notes", models.TypeString, 40),
		},
	}}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		CommonColumnThreshold:     2,
		SchemaSimilarityThreshold: 0.4,
		SemanticSearchThreshold:   0.6,
		SemanticGroupThreshold:    0.7,
		SemanticNamingThreshold:   0.8,
	}
}

// newTestRegistry wires the full tool set over the fixture store with
// no embedding backend.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return newTestRegistryWithBackend(t, nil)
}

func newTestRegistryWithBackend(t *testing.T, backend llm.EmbeddingClient) *Registry {
	t.Helper()
	repo := seedRepo()
	logger := zap.NewNop()
	sem := semantic.NewSearcher(backend, logger)
	deps := &Dependencies{
		Repo:          repo,
		Columns:       analysis.NewColumnSearcher(repo, logger),
		Files:         analysis.NewFileSearcher(repo, logger),
		Types:         analysis.NewTypeSearcher(repo, logger),
		Relationships: analysis.NewRelationshipAnalyzer(repo, sem, logger),
		Consistency:   analysis.NewConsistencyChecker(repo, semantic.NewConsistencyChecker(sem), logger),
		Statistics:    analysis.NewStatisticsAnalyzer(repo, logger),
		Semantic:      sem,
		Formatter:     analysis.NewTextFormatter(),
		Analysis:      testAnalysisConfig(),
		Logger:        logger,
	}
	r, err := NewRegistry(deps)
	require.NoError(t, err)
	return r
}

func TestRegistryManifestOrderAndShape(t *testing.T) {
	r := newTestRegistry(t)

	want := []string{
		"get_files", "get_schemas", "search_metadata", "get_statistics",
		"find_relationships", "detect_inconsistencies", "compare_items", "run_analysis",
	}
	assert.Equal(t, want, r.Names())

	manifest := r.Describe()
	require.Len(t, manifest, len(want))
	for i, tool := range manifest {
		assert.Equal(t, openai.ToolTypeFunction, tool.Type)
		require.NotNil(t, tool.Function)
		assert.Equal(t, want[i], tool.Function.Name)
		assert.NotEmpty(t, tool.Function.Description)

		def, ok := tool.Function.Parameters.(*jsonschema.Definition)
		require.True(t, ok, "parameters must be a jsonschema definition")
		assert.Equal(t, jsonschema.Object, def.Type)
		require.NotNil(t, def.Required, "required array must be present even when empty")
		for _, req := range def.Required {
			_, found := def.Properties[req]
			assert.True(t, found, "required parameter %q of %s must be declared", req, tool.Function.Name)
		}
	}
}

func TestUnknownToolLandsAsTypedError(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Execute(context.Background(), "made_up_tool", map[string]any{})
	var unknownErr *apperrors.UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "made_up_tool", unknownErr.Name)
	assert.Len(t, unknownErr.Available, 8)
	assert.Contains(t, unknownErr.Available, "find_relationships")
	assert.True(t, sort.StringsAreSorted(unknownErr.Available))
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	r := newRegistry(zap.NewNop())
	tool := &Tool{Name: "echo", Run: func(ctx context.Context, args map[string]any) (string, error) { return "ok", nil }}
	require.NoError(t, r.Register(tool))

	err := r.Register(&Tool{Name: "echo"})
	var dupErr *apperrors.DuplicateToolError
	require.ErrorAs(t, err, &dupErr)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestExecuteJSONRejectsMalformedArguments(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.ExecuteJSON(context.Background(), "get_files", `{"pattern":`)
	var invalidErr *apperrors.InvalidParameterError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "arguments", invalidErr.Parameter)
}

func TestArgumentValidation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	t.Run("missing required parameter", func(t *testing.T) {
		_, err := r.Execute(ctx, "search_metadata", map[string]any{})
		var missingErr *apperrors.MissingParameterError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "term", missingErr.Parameter)
	})

	t.Run("unknown argument key", func(t *testing.T) {
		_, err := r.Execute(ctx, "get_files", map[string]any{"patern": "orders"})
		var invalidErr *apperrors.InvalidParameterError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, "patern", invalidErr.Parameter)
	})

	t.Run("enum violation", func(t *testing.T) {
		_, err := r.Execute(ctx, "search_metadata", map[string]any{
			"term":        "customer",
			"search_type": "table",
		})
		var invalidErr *apperrors.InvalidParameterError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, "search_type", invalidErr.Parameter)
	})

	t.Run("defaults applied", func(t *testing.T) {
		result, err := r.Execute(ctx, "search_metadata", map[string]any{"term": "customer_id"})
		require.NoError(t, err)
		assert.Contains(t, result, "customers.csv")
		assert.Contains(t, result, "orders.csv")
	})
}

func TestGetFiles(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "get_files", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result, "customers.csv")
	assert.Contains(t, result, "legacy.csv")
	assert.Contains(t, result, "orders.csv")

	result, err = r.Execute(ctx, "get_files", map[string]any{"pattern": "orders"})
	require.NoError(t, err)
	assert.Contains(t, result, "orders.csv")
	assert.NotContains(t, result, "customers.csv")

	result, err = r.Execute(ctx, "get_files", map[string]any{"pattern": "zzz"})
	require.NoError(t, err)
	assert.Equal(t, "No files match pattern: zzz", result)
}

func TestGetSchemas(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "get_schemas", map[string]any{"file_pattern": "customers.csv"})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.Contains(t, result, "email")
	assert.NotContains(t, result, "order_id")

	// unknown file hits the run boundary: readable string, nil error
	result, err = r.Execute(ctx, "get_schemas", map[string]any{"file_pattern": "missing.csv"})
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing get_schemas")
	assert.Contains(t, result, "missing.csv")

	result, err = r.Execute(ctx, "get_schemas", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result, "customers.csv")
	assert.Contains(t, result, "orders.csv")
}

func TestSearchMetadataTypes(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "search_metadata", map[string]any{
		"term": "float", "search_type": "type",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "amount")
	assert.NotContains(t, result, "email")

	result, err = r.Execute(ctx, "search_metadata", map[string]any{
		"term": "legacy", "search_type": "file",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "legacy.csv")
}

// personEmbed maps person-concept words onto one axis, warehouse words
// onto a second and everything else onto a third, so "client reference"
// lands next to customer_id while "warehouse zone" matches nothing.
func personEmbed(input string) []float32 {
	v := make([]float32, 3)
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "customer") || strings.Contains(lower, "client"):
		v[0] = 1
	case strings.Contains(lower, "warehouse"):
		v[1] = 1
	default:
		v[2] = 1
	}
	return v
}

func personBackend() *llm.MockEmbeddingClient {
	return &llm.MockEmbeddingClient{
		CreateEmbeddingFunc: func(ctx context.Context, input string) ([]float32, error) {
			return personEmbed(input), nil
		},
		CreateEmbeddingsFunc: func(ctx context.Context, inputs []string) ([][]float32, error) {
			out := make([][]float32, len(inputs))
			for i, in := range inputs {
				out[i] = personEmbed(in)
			}
			return out, nil
		},
	}
}

func TestSearchMetadataFallsBackToSemanticOnNoExactMatch(t *testing.T) {
	r := newTestRegistryWithBackend(t, personBackend())

	result, err := r.Execute(context.Background(), "search_metadata", map[string]any{
		"term": "client reference",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "No exact matches found. Here are semantic matches:")
	assert.Contains(t, result, "customer_id")
	assert.NotContains(t, result, "No columns found containing")
}

func TestSearchMetadataExactMatchesNotReplacedBySemantic(t *testing.T) {
	r := newTestRegistryWithBackend(t, personBackend())

	result, err := r.Execute(context.Background(), "search_metadata", map[string]any{
		"term": "customer",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.NotContains(t, result, "No exact matches found")
}

func TestSearchMetadataNoFallbackWhenSemanticFindsNothing(t *testing.T) {
	r := newTestRegistryWithBackend(t, personBackend())

	result, err := r.Execute(context.Background(), "search_metadata", map[string]any{
		"term": "warehouse zone",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "No columns found containing: warehouse zone")
	assert.NotContains(t, result, "semantic matches")
}

func TestSearchMetadataSemanticDegradesWithoutBackend(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Execute(context.Background(), "search_metadata", map[string]any{
		"term": "customer", "semantic": true,
	})
	require.NoError(t, err)
	assert.Contains(t, result, "semantic search is not available")
	assert.Contains(t, result, "customer_id")
}

func TestGetStatistics(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "get_statistics", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result, "3") // three files

	result, err = r.Execute(ctx, "get_statistics", map[string]any{
		"scope": "file", "target": "orders.csv",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "orders.csv")

	// scope=file without a target is caught inside the tool
	result, err = r.Execute(ctx, "get_statistics", map[string]any{"scope": "file"})
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing get_statistics")
	assert.Contains(t, result, "target")
}

func TestFindRelationshipsCommonColumns(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Execute(context.Background(), "find_relationships", map[string]any{
		"analysis_type": "common_columns",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.NotContains(t, result, "notes")
}

func TestFindRelationshipsSemanticWithoutBackend(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Execute(context.Background(), "find_relationships", map[string]any{
		"analysis_type": "semantic_groups",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "not available")
}

func TestDetectInconsistenciesDataTypes(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Execute(context.Background(), "detect_inconsistencies", map[string]any{
		"check_type": "data_types",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.Contains(t, result, models.TypeInteger)
	assert.Contains(t, result, models.TypeString)
}

func TestCompareItems(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "compare_items", map[string]any{
		"item_a": "customers.csv", "item_b": "orders.csv",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.Contains(t, result, "email")
	assert.Contains(t, result, "order_id")

	result, err = r.Execute(ctx, "compare_items", map[string]any{
		"item_a": "customers.csv", "item_b": "nope.csv",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing compare_items")
	assert.Contains(t, result, "nope.csv")
}

func TestRunAnalysisKeywordDispatch(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, err := r.Execute(ctx, "run_analysis", map[string]any{
		"description": "which columns are common across my files",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")

	result, err = r.Execute(ctx, "run_analysis", map[string]any{
		"description": "are there type mismatches anywhere",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "customer_id")
	assert.Contains(t, result, models.TypeString)

	result, err = r.Execute(ctx, "run_analysis", map[string]any{
		"description": "make me a sandwich",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Could not map")
	assert.Contains(t, result, "common_columns")
}

func TestRegistryRecoversFromPanic(t *testing.T) {
	r := newRegistry(zap.NewNop())
	require.NoError(t, r.Register(&Tool{
		Name: "boom",
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			panic("exploded")
		},
	}))

	result, err := r.Execute(context.Background(), "boom", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing boom")
	assert.Contains(t, result, "exploded")
}

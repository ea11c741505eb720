package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/llm"
	"github.com/prasann/table-talks/pkg/models"
)

// fakeVector maps text onto fixed concept axes so similarities are
// fully deterministic: same-axis texts score 1.0, texts sharing one of
// two axes score ~0.707, disjoint texts score 0.
func fakeVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, 6)
	if strings.Contains(lower, "id") || strings.Contains(lower, "key") {
		v[0] = 1
	}
	if containsAny(lower, "date", "time", "created", "updated") {
		v[1] = 1
	}
	if containsAny(lower, "customer", "user", "client", "person", "account") {
		v[2] = 1
	}
	if containsAny(lower, "price", "amount", "cost", "money", "payment") {
		v[3] = 1
	}
	if containsAny(lower, "name", "title", "label", "text") {
		v[4] = 1
	}
	for _, x := range v {
		if x != 0 {
			return v
		}
	}
	v[5] = 1
	return v
}

func fakeBackend() *llm.MockEmbeddingClient {
	return &llm.MockEmbeddingClient{
		CreateEmbeddingFunc: func(ctx context.Context, input string) ([]float32, error) {
			return fakeVector(input), nil
		},
		CreateEmbeddingsFunc: func(ctx context.Context, inputs []string) ([][]float32, error) {
			out := make([][]float32, len(inputs))
			for i, in := range inputs {
				out[i] = fakeVector(in)
			}
			return out, nil
		},
	}
}

func TestSearcherUnavailableWithoutBackend(t *testing.T) {
	s := NewSearcher(nil, zap.NewNop())
	assert.False(t, s.Available())

	matches, err := s.FindSimilarColumns(context.Background(), "id",
		[]models.ColumnRef{{FileName: "a.csv", ColumnName: "order_id"}}, 0.6)
	require.NoError(t, err)
	assert.Nil(t, matches)

	groups, err := s.ConceptGroups(context.Background(),
		[]models.ColumnRef{{FileName: "a.csv", ColumnName: "order_id"}}, 0.7)
	require.NoError(t, err)
	assert.Nil(t, groups)
}

func TestFindSimilarColumnsRanksAndFilters(t *testing.T) {
	s := NewSearcher(fakeBackend(), zap.NewNop())
	columns := []models.ColumnRef{
		{FileName: "orders.csv", ColumnName: "user_id"},    // id + person axes
		{FileName: "orders.csv", ColumnName: "invoice_id"}, // id axis only
		{FileName: "orders.csv", ColumnName: "created_at"}, // time axis
	}

	matches, err := s.FindSimilarColumns(context.Background(), "id", columns, 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "invoice_id", matches[0].ColumnName)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Equal(t, "user_id", matches[1].ColumnName)
	assert.InDelta(t, 0.7071, matches[1].Similarity, 1e-3)

	// tighter threshold drops the mixed-axis column
	matches, err = s.FindSimilarColumns(context.Background(), "id", columns, 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "invoice_id", matches[0].ColumnName)
}

func TestFindSimilarColumnsCachesColumnEmbeddings(t *testing.T) {
	backend := fakeBackend()
	s := NewSearcher(backend, zap.NewNop())
	columns := []models.ColumnRef{
		{FileName: "orders.csv", ColumnName: "user_id"},
		{FileName: "orders.csv", ColumnName: "created_at"},
	}

	_, err := s.FindSimilarColumns(context.Background(), "id", columns, 0.6)
	require.NoError(t, err)
	_, err = s.FindSimilarColumns(context.Background(), "timestamp", columns, 0.6)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.CreateEmbeddingsCalls, "column embeddings should be cached")
	assert.Equal(t, 2, backend.CreateEmbeddingCalls, "each query is embedded fresh")
}

func TestFindEquivalentsPairsBestMatchesSkippingExactNames(t *testing.T) {
	s := NewSearcher(fakeBackend(), zap.NewNop())

	pairs, err := s.FindEquivalents(context.Background(),
		"orders.csv", []string{"order_id", "customer_id", "amount"},
		"users.csv", []string{"order_id", "client_id", "email"},
		0.8)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, models.ColumnRef{FileName: "orders.csv", ColumnName: "customer_id"}, pairs[0].ColumnA)
	assert.Equal(t, models.ColumnRef{FileName: "users.csv", ColumnName: "client_id"}, pairs[0].ColumnB)
	assert.InDelta(t, 1.0, pairs[0].Similarity, 1e-9)
}

func TestConceptGroupsFollowFixedOrder(t *testing.T) {
	s := NewSearcher(fakeBackend(), zap.NewNop())
	columns := []models.ColumnRef{
		{FileName: "orders.csv", ColumnName: "user_id"},
		{FileName: "orders.csv", ColumnName: "created_at"},
	}

	groups, err := s.ConceptGroups(context.Background(), columns, 0.7)
	require.NoError(t, err)

	var names []string
	for _, g := range groups {
		names = append(names, g.Concept)
	}
	assert.Equal(t, []string{"identifiers", "timestamps", "users"}, names)

	// timestamps group holds only created_at at full similarity
	require.Len(t, groups[1].Members, 1)
	assert.Equal(t, "created_at", groups[1].Members[0].ColumnName)
	assert.InDelta(t, 1.0, groups[1].Members[0].Similarity, 1e-9)
}

func TestInferConcept(t *testing.T) {
	assert.Equal(t, "identifier", InferConcept("customer_id"))
	assert.Equal(t, "timestamp", InferConcept("created_at"))
	assert.Equal(t, "name", InferConcept("product_title"))
	assert.Equal(t, "user", InferConcept("client_ref"))
	assert.Equal(t, "financial", InferConcept("unit_price"))
	assert.Equal(t, "other", InferConcept("notes"))
}

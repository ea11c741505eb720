// Package semantic provides embedding-based column matching. All
// functionality degrades gracefully: a Searcher built without a backend
// reports unavailable and every operation returns empty results.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/llm"
	"github.com/prasann/table-talks/pkg/models"
)

// Searcher matches column names by embedding similarity. The backend is
// injected; nil means semantic search is unavailable.
type Searcher struct {
	backend llm.EmbeddingClient
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string][]float32 // keyed by column name
}

// NewSearcher creates a Searcher. Pass a nil backend to disable
// semantic matching entirely.
func NewSearcher(backend llm.EmbeddingClient, logger *zap.Logger) *Searcher {
	return &Searcher{
		backend: backend,
		logger:  logger.Named("semantic"),
		cache:   make(map[string][]float32),
	}
}

// Available reports whether an embedding backend is configured.
func (s *Searcher) Available() bool {
	return s != nil && s.backend != nil
}

// FindSimilarColumns ranks columns by embedding similarity to the
// search term. Results at or above threshold come back sorted by
// similarity descending, ties broken by column then file name. Returns
// nil when the backend is unavailable.
func (s *Searcher) FindSimilarColumns(
	ctx context.Context,
	searchTerm string,
	columns []models.ColumnRef,
	threshold float64,
) ([]models.SemanticMatch, error) {
	if !s.Available() || len(columns) == 0 {
		return nil, nil
	}

	queryVec, err := s.backend.CreateEmbedding(ctx, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search term: %w", err)
	}

	vectors, err := s.embedColumns(ctx, columns)
	if err != nil {
		return nil, err
	}

	var matches []models.SemanticMatch
	for i, col := range columns {
		sim := cosineSimilarity(queryVec, vectors[i])
		if sim >= threshold {
			matches = append(matches, models.SemanticMatch{
				ColumnName: col.ColumnName,
				FileName:   col.FileName,
				Similarity: sim,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].ColumnName != matches[j].ColumnName {
			return matches[i].ColumnName < matches[j].ColumnName
		}
		return matches[i].FileName < matches[j].FileName
	})
	return matches, nil
}

// FindEquivalents pairs differently named columns of two files by best
// embedding match. Each column of fileA contributes at most one pair;
// identical names are skipped since exact overlap is handled elsewhere.
func (s *Searcher) FindEquivalents(
	ctx context.Context,
	fileA string, colsA []string,
	fileB string, colsB []string,
	threshold float64,
) ([]models.SemanticEquivalence, error) {
	if !s.Available() || len(colsA) == 0 || len(colsB) == 0 {
		return nil, nil
	}

	refsB := make([]models.ColumnRef, len(colsB))
	for i, c := range colsB {
		refsB[i] = models.ColumnRef{FileName: fileB, ColumnName: c}
	}

	var pairs []models.SemanticEquivalence
	for _, colA := range colsA {
		matches, err := s.FindSimilarColumns(ctx, colA, refsB, threshold)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.ColumnName == colA {
				continue
			}
			pairs = append(pairs, models.SemanticEquivalence{
				ColumnA:    models.ColumnRef{FileName: fileA, ColumnName: colA},
				ColumnB:    models.ColumnRef{FileName: fileB, ColumnName: m.ColumnName},
				Similarity: m.Similarity,
			})
			break
		}
	}
	return pairs, nil
}

// embedColumns returns one vector per column, batching everything not
// already cached into a single backend call.
func (s *Searcher) embedColumns(ctx context.Context, columns []models.ColumnRef) ([][]float32, error) {
	s.mu.Lock()
	var missing []string
	seen := make(map[string]struct{})
	for _, col := range columns {
		if _, ok := s.cache[col.ColumnName]; ok {
			continue
		}
		if _, ok := seen[col.ColumnName]; ok {
			continue
		}
		seen[col.ColumnName] = struct{}{}
		missing = append(missing, col.ColumnName)
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		inputs := make([]string, len(missing))
		for i, name := range missing {
			inputs[i] = enhanceColumnName(name)
		}
		vectors, err := s.backend.CreateEmbeddings(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to embed columns: %w", err)
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("backend returned %d embeddings for %d inputs", len(vectors), len(missing))
		}
		s.mu.Lock()
		for i, name := range missing {
			s.cache[name] = vectors[i]
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]float32, len(columns))
	for i, col := range columns {
		out[i] = s.cache[col.ColumnName]
	}
	return out, nil
}

// enhanceColumnName expands a technical column name into a richer
// phrase so short names embed closer to the concepts they stand for.
func enhanceColumnName(name string) string {
	enhanced := strings.ReplaceAll(name, "_", " ")
	lower := strings.ToLower(enhanced)

	if strings.Contains(lower, "id") {
		enhanced += " identifier primary key"
	}
	if containsAny(lower, "date", "time", "created", "updated") {
		enhanced += " timestamp datetime"
	}
	if containsAny(lower, "name", "title") {
		enhanced += " text label"
	}
	if containsAny(lower, "customer", "user", "client") {
		enhanced += " person account profile"
	}
	return enhanced
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// cosineSimilarity assumes non-zero vectors; zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

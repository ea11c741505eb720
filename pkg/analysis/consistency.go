package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
	"github.com/prasann/table-talks/pkg/semantic"
)

// ConsistencyChecker detects schema quality issues: type mismatches,
// naming-style fragmentation and abbreviation drift. String-heuristic
// checks always work; semantic checks need the embedding backend.
type ConsistencyChecker struct {
	repo     repositories.MetadataRepository
	semantic *semantic.ConsistencyChecker
	logger   *zap.Logger
}

// NewConsistencyChecker creates a ConsistencyChecker.
func NewConsistencyChecker(repo repositories.MetadataRepository, sem *semantic.ConsistencyChecker, logger *zap.Logger) *ConsistencyChecker {
	return &ConsistencyChecker{
		repo:     repo,
		semantic: sem,
		logger:   logger.Named("analysis"),
	}
}

// TypeMismatches reports every column name declared with two or more
// distinct data types anywhere in the store. Sorted by occurrence count
// descending, then column name ascending.
func (c *ConsistencyChecker) TypeMismatches(ctx context.Context) ([]models.TypeMismatch, error) {
	records, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	occurrences := make(map[string][]models.TypeOccurrence)
	distinctTypes := make(map[string]map[string]struct{})
	for _, r := range records {
		occurrences[r.ColumnName] = append(occurrences[r.ColumnName], models.TypeOccurrence{
			FileName: r.FileName,
			DataType: r.DataType,
		})
		if distinctTypes[r.ColumnName] == nil {
			distinctTypes[r.ColumnName] = make(map[string]struct{})
		}
		distinctTypes[r.ColumnName][r.DataType] = struct{}{}
	}

	var mismatches []models.TypeMismatch
	for name, occ := range occurrences {
		if len(distinctTypes[name]) < 2 {
			continue
		}
		sort.Slice(occ, func(i, j int) bool {
			return occ[i].FileName < occ[j].FileName
		})
		mismatches = append(mismatches, models.TypeMismatch{
			ColumnName:  name,
			Occurrences: occ,
		})
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if len(mismatches[i].Occurrences) != len(mismatches[j].Occurrences) {
			return len(mismatches[i].Occurrences) > len(mismatches[j].Occurrences)
		}
		return mismatches[i].ColumnName < mismatches[j].ColumnName
	})
	return mismatches, nil
}

// NamingPatterns flags pairs of distinct column names that appear to
// spell the same concept differently, using string heuristics only:
// case-style variation, singular/plural drift, token abbreviation and
// near-duplicate spellings.
func (c *ConsistencyChecker) NamingPatterns(ctx context.Context) ([]models.NamingIssue, error) {
	names, filesByName, err := c.distinctColumns(ctx)
	if err != nil {
		return nil, err
	}

	var issues []models.NamingIssue
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			reason, suggestion := compareNames(names[i], names[j])
			if reason == "" {
				continue
			}
			issues = append(issues, models.NamingIssue{
				Columns:    append(refsFor(names[i], filesByName), refsFor(names[j], filesByName)...),
				Reason:     reason,
				Suggestion: suggestion,
			})
		}
	}
	return issues, nil
}

// AbbreviationDetection reports pairs where one name abbreviates the
// other token-by-token (cust_id vs customer_id). When the embedding
// backend is available, candidate pairs additionally require high
// semantic similarity to cut false positives.
func (c *ConsistencyChecker) AbbreviationDetection(ctx context.Context, semanticThreshold float64) ([]models.NamingIssue, error) {
	names, filesByName, err := c.distinctColumns(ctx)
	if err != nil {
		return nil, err
	}

	var issues []models.NamingIssue
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			short, long, ok := abbreviationPair(names[i], names[j])
			if !ok {
				continue
			}
			if c.semantic.Available() {
				confirmed, err := c.confirmSemantic(ctx, short, long, filesByName, semanticThreshold)
				if err != nil {
					return nil, err
				}
				if !confirmed {
					continue
				}
			}
			issues = append(issues, models.NamingIssue{
				Columns:    append(refsFor(short, filesByName), refsFor(long, filesByName)...),
				Reason:     fmt.Sprintf("%q abbreviates %q", short, long),
				Suggestion: long,
			})
		}
	}
	return issues, nil
}

// SemanticNaming delegates to the embedding-based naming check.
// Returns nil when the backend is unavailable.
func (c *ConsistencyChecker) SemanticNaming(ctx context.Context, threshold float64) ([]models.NamingIssue, error) {
	refs, err := c.allRefs(ctx)
	if err != nil {
		return nil, err
	}
	return c.semantic.FindNamingInconsistencies(ctx, refs, threshold)
}

// ConceptConsistency reports concepts whose columns disagree on data
// type. Works without the embedding backend.
func (c *ConsistencyChecker) ConceptConsistency(ctx context.Context) ([]models.ConceptTypeIssue, error) {
	records, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	return c.semantic.CheckConceptConsistency(records), nil
}

// SemanticAvailable reports whether embedding-based checks can run.
func (c *ConsistencyChecker) SemanticAvailable() bool {
	return c.semantic.Available()
}

func (c *ConsistencyChecker) confirmSemantic(ctx context.Context, short, long string, filesByName map[string][]string, threshold float64) (bool, error) {
	refs := refsFor(long, filesByName)
	matches, err := c.semantic.Searcher().FindSimilarColumns(ctx, short, refs, threshold)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (c *ConsistencyChecker) distinctColumns(ctx context.Context) ([]string, map[string][]string, error) {
	records, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	filesByName := make(map[string][]string)
	for _, r := range records {
		filesByName[r.ColumnName] = append(filesByName[r.ColumnName], r.FileName)
	}
	names := make([]string, 0, len(filesByName))
	for name := range filesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, filesByName, nil
}

func (c *ConsistencyChecker) allRefs(ctx context.Context) ([]models.ColumnRef, error) {
	records, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	refs := make([]models.ColumnRef, len(records))
	for i, r := range records {
		refs[i] = models.ColumnRef{FileName: r.FileName, ColumnName: r.ColumnName}
	}
	return refs, nil
}

func refsFor(name string, filesByName map[string][]string) []models.ColumnRef {
	files := append([]string(nil), filesByName[name]...)
	sort.Strings(files)
	refs := make([]models.ColumnRef, len(files))
	for i, f := range files {
		refs[i] = models.ColumnRef{FileName: f, ColumnName: name}
	}
	return refs
}

// compareNames judges whether two distinct column names look like
// variants of one concept. Returns ("", "") when they do not.
func compareNames(a, b string) (reason, suggestion string) {
	normA, normB := normalizeName(a), normalizeName(b)

	switch {
	case normA == normB:
		return "case style variation", preferSnakeCase(a, b)
	case inflection.Singular(normA) == inflection.Singular(normB):
		return "singular/plural variation", preferSingular(a, b)
	}

	if short, long, ok := abbreviationPair(a, b); ok {
		return fmt.Sprintf("%q abbreviates %q", short, long), long
	}

	// near-duplicate spellings: short names need to be almost identical
	if dist := levenshtein.ComputeDistance(normA, normB); dist > 0 && dist <= maxEditDistance(normA, normB) {
		if a < b {
			return "near-duplicate spelling", a
		}
		return "near-duplicate spelling", b
	}
	return "", ""
}

func maxEditDistance(a, b string) int {
	shortest := len(a)
	if len(b) < shortest {
		shortest = len(b)
	}
	if shortest >= 8 {
		return 2
	}
	if shortest >= 5 {
		return 1
	}
	return 0
}

// abbreviationPair reports whether one name abbreviates the other
// token-wise: same token count, each shorter token a strict prefix of
// its counterpart (cust_id / customer_id).
func abbreviationPair(a, b string) (short, long string, ok bool) {
	tokensA, tokensB := splitTokens(a), splitTokens(b)
	if len(tokensA) != len(tokensB) || len(tokensA) == 0 {
		return "", "", false
	}

	aShorter := false
	abbreviated := false
	for i := range tokensA {
		ta, tb := tokensA[i], tokensB[i]
		if ta == tb {
			continue
		}
		switch {
		case strings.HasPrefix(tb, ta) && len(ta) >= 2:
			if abbreviated && !aShorter {
				return "", "", false
			}
			aShorter, abbreviated = true, true
		case strings.HasPrefix(ta, tb) && len(tb) >= 2:
			if abbreviated && aShorter {
				return "", "", false
			}
			abbreviated = true
		default:
			return "", "", false
		}
	}
	if !abbreviated {
		return "", "", false
	}
	if aShorter {
		return a, b, true
	}
	return b, a, true
}

// splitTokens breaks a column name on underscores and camelCase
// boundaries, lowercasing every token.
func splitTokens(name string) []string {
	var tokens []string
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		start := 0
		runes := []rune(part)
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
				tokens = append(tokens, strings.ToLower(string(runes[start:i])))
				start = i
			}
		}
		tokens = append(tokens, strings.ToLower(string(runes[start:])))
	}
	return tokens
}

func normalizeName(name string) string {
	return strings.Join(splitTokens(name), "")
}

func preferSnakeCase(a, b string) string {
	if strings.Contains(a, "_") && !strings.Contains(b, "_") {
		return a
	}
	if strings.Contains(b, "_") && !strings.Contains(a, "_") {
		return b
	}
	if a < b {
		return a
	}
	return b
}

func preferSingular(a, b string) string {
	if inflection.Singular(normalizeName(a)) == normalizeName(a) {
		return a
	}
	return b
}

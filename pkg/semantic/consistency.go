package semantic

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/prasann/table-talks/pkg/models"
)

// ConsistencyChecker detects columns that carry the same concept under
// inconsistent names or data types.
type ConsistencyChecker struct {
	searcher *Searcher
}

// NewConsistencyChecker wraps a Searcher. The naming check needs the
// searcher's backend; the concept-type check is purely lexical.
func NewConsistencyChecker(searcher *Searcher) *ConsistencyChecker {
	return &ConsistencyChecker{searcher: searcher}
}

// Available reports whether embedding-based checks can run.
func (c *ConsistencyChecker) Available() bool {
	return c.searcher.Available()
}

// Searcher exposes the underlying searcher for callers that combine
// lexical candidates with semantic confirmation.
func (c *ConsistencyChecker) Searcher() *Searcher {
	return c.searcher
}

// FindNamingInconsistencies groups columns that embed as near-duplicates
// but are spelled differently. Groups are greedy: each column joins at
// most one group, seeded in input order.
func (c *ConsistencyChecker) FindNamingInconsistencies(
	ctx context.Context,
	columns []models.ColumnRef,
	threshold float64,
) ([]models.NamingIssue, error) {
	if !c.Available() {
		return nil, nil
	}

	var issues []models.NamingIssue
	processed := make(map[models.ColumnRef]struct{})

	for i, seed := range columns {
		if _, done := processed[seed]; done {
			continue
		}
		rest := columns[i+1:]
		matches, err := c.searcher.FindSimilarColumns(ctx, seed.ColumnName, rest, threshold)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}

		group := []models.ColumnRef{seed}
		for _, m := range matches {
			ref := models.ColumnRef{FileName: m.FileName, ColumnName: m.ColumnName}
			group = append(group, ref)
			processed[ref] = struct{}{}
		}
		processed[seed] = struct{}{}

		if reason := namingInconsistencyReason(group); reason != "" {
			issues = append(issues, models.NamingIssue{
				Columns:    group,
				Reason:     reason,
				Suggestion: suggestConsistentName(group),
			})
		}
	}
	return issues, nil
}

// namingInconsistencyReason returns an explanation if the group mixes
// naming styles or spellings, or "" if the names are consistent.
func namingInconsistencyReason(group []models.ColumnRef) string {
	if len(group) < 2 {
		return ""
	}

	styles := make(map[string]struct{})
	names := make(map[string]struct{})
	for _, ref := range group {
		names[ref.ColumnName] = struct{}{}
		if strings.Contains(ref.ColumnName, "_") {
			styles["snake_case"] = struct{}{}
		} else if hasUpper(ref.ColumnName) {
			styles["camelCase"] = struct{}{}
		} else {
			styles["lowercase"] = struct{}{}
		}
	}

	if len(styles) > 1 {
		var list []string
		for s := range styles {
			list = append(list, s)
		}
		sort.Strings(list)
		return "mixed naming styles: " + strings.Join(list, ", ")
	}
	if len(names) == len(group) {
		return "different names for the same concept"
	}
	return ""
}

// suggestConsistentName picks a canonical name for a group of
// equivalent columns: well-known identifier spellings first, otherwise
// the shortest name (ties broken alphabetically).
func suggestConsistentName(group []models.ColumnRef) string {
	allIDs := true
	for _, ref := range group {
		if !strings.Contains(strings.ToLower(ref.ColumnName), "id") {
			allIDs = false
			break
		}
	}
	if allIDs {
		for _, prefix := range []string{"customer", "user", "order"} {
			for _, ref := range group {
				if strings.Contains(strings.ToLower(ref.ColumnName), prefix) {
					return prefix + "_id"
				}
			}
		}
	}

	best := group[0].ColumnName
	for _, ref := range group[1:] {
		n := ref.ColumnName
		if len(n) < len(best) || (len(n) == len(best) && n < best) {
			best = n
		}
	}
	return best
}

// CheckConceptConsistency reports concepts whose member columns declare
// more than one data type across the store. Lexical only, so it works
// without an embedding backend.
func (c *ConsistencyChecker) CheckConceptConsistency(records []models.ColumnRecord) []models.ConceptTypeIssue {
	byConcept := make(map[string][]models.ColumnRecord)
	for _, r := range records {
		concept := InferConcept(r.ColumnName)
		byConcept[concept] = append(byConcept[concept], r)
	}

	concepts := make([]string, 0, len(byConcept))
	for concept := range byConcept {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	var issues []models.ConceptTypeIssue
	for _, concept := range concepts {
		members := byConcept[concept]
		if len(members) < 2 {
			continue
		}

		typeCounts := make(map[string]int)
		occurrences := make([]models.TypeOccurrence, 0, len(members))
		for _, r := range members {
			typeCounts[r.DataType]++
			occurrences = append(occurrences, models.TypeOccurrence{
				FileName: r.FileName,
				DataType: r.DataType,
			})
		}
		if len(typeCounts) < 2 {
			continue
		}

		types := make([]string, 0, len(typeCounts))
		for t := range typeCounts {
			types = append(types, t)
		}
		sort.Strings(types)

		issues = append(issues, models.ConceptTypeIssue{
			Concept:       concept,
			Types:         types,
			Occurrences:   occurrences,
			SuggestedType: mostCommonType(typeCounts),
		})
	}
	return issues
}

// mostCommonType returns the most frequent type, ties broken
// alphabetically for deterministic output.
func mostCommonType(counts map[string]int) string {
	var best string
	bestCount := -1
	for t, n := range counts {
		if n > bestCount || (n == bestCount && t < best) {
			best = t
			bestCount = n
		}
	}
	return best
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

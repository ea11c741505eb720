package semantic

import (
	"context"
	"sort"
	"strings"

	"github.com/prasann/table-talks/pkg/models"
)

// conceptTerms maps each known concept to the probe phrases used to
// recruit columns into its group. Order is fixed so group output is
// deterministic.
var conceptTerms = []struct {
	name  string
	terms []string
}{
	{"identifiers", []string{"id", "identifier", "primary key", "unique key"}},
	{"timestamps", []string{"date", "time", "timestamp", "created", "updated"}},
	{"names", []string{"name", "title", "label", "text"}},
	{"users", []string{"customer", "user", "client", "person", "account"}},
	{"financial", []string{"price", "amount", "cost", "money", "payment"}},
	{"quantities", []string{"quantity", "count", "number", "amount"}},
	{"status", []string{"status", "active", "enabled", "state"}},
	{"ratings", []string{"rating", "score", "review", "feedback"}},
}

// ConceptGroups clusters columns under the fixed concept vocabulary.
// Each column may appear in several groups; within a group duplicates
// keep their best similarity. Empty groups are omitted.
func (s *Searcher) ConceptGroups(
	ctx context.Context,
	columns []models.ColumnRef,
	threshold float64,
) ([]models.ConceptGroup, error) {
	if !s.Available() || len(columns) == 0 {
		return nil, nil
	}

	var groups []models.ConceptGroup
	for _, concept := range conceptTerms {
		best := make(map[models.ColumnRef]float64)
		for _, term := range concept.terms {
			matches, err := s.FindSimilarColumns(ctx, term, columns, threshold)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				ref := models.ColumnRef{FileName: m.FileName, ColumnName: m.ColumnName}
				if m.Similarity > best[ref] {
					best[ref] = m.Similarity
				}
			}
		}
		if len(best) == 0 {
			continue
		}

		members := make([]models.SemanticMatch, 0, len(best))
		for ref, sim := range best {
			members = append(members, models.SemanticMatch{
				ColumnName: ref.ColumnName,
				FileName:   ref.FileName,
				Similarity: sim,
			})
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].Similarity != members[j].Similarity {
				return members[i].Similarity > members[j].Similarity
			}
			if members[i].ColumnName != members[j].ColumnName {
				return members[i].ColumnName < members[j].ColumnName
			}
			return members[i].FileName < members[j].FileName
		})
		groups = append(groups, models.ConceptGroup{
			Concept: concept.name,
			Members: members,
		})
	}
	return groups, nil
}

// InferConcept classifies a column name into a concept by keyword.
// Purely lexical, usable without an embedding backend.
func InferConcept(columnName string) string {
	lower := strings.ToLower(columnName)
	switch {
	case strings.Contains(lower, "id"):
		return "identifier"
	case containsAny(lower, "date", "time", "created", "updated"):
		return "timestamp"
	case containsAny(lower, "name", "title"):
		return "name"
	case containsAny(lower, "customer", "user", "client"):
		return "user"
	case containsAny(lower, "price", "amount", "cost"):
		return "financial"
	case containsAny(lower, "quantity", "count"):
		return "quantity"
	default:
		return "other"
	}
}

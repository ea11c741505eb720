package analysis

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/models"
	"github.com/prasann/table-talks/pkg/repositories"
	"github.com/prasann/table-talks/pkg/semantic"
)

// RelationshipAnalyzer computes cross-file schema relationships. The
// semantic searcher is optional; when unavailable every method falls
// back to exact name matching.
type RelationshipAnalyzer struct {
	repo     repositories.MetadataRepository
	searcher *semantic.Searcher
	logger   *zap.Logger
}

// NewRelationshipAnalyzer creates a RelationshipAnalyzer.
func NewRelationshipAnalyzer(repo repositories.MetadataRepository, searcher *semantic.Searcher, logger *zap.Logger) *RelationshipAnalyzer {
	return &RelationshipAnalyzer{
		repo:     repo,
		searcher: searcher,
		logger:   logger.Named("analysis"),
	}
}

// CommonColumns reports column names appearing in at least threshold
// distinct files. Matching is case-sensitive and exact. Output is
// sorted by file count descending, then column name ascending.
func (a *RelationshipAnalyzer) CommonColumns(ctx context.Context, threshold int) ([]models.CommonColumn, error) {
	if threshold < 2 {
		threshold = 2
	}
	records, err := a.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	type group struct {
		files map[string]struct{}
		types map[string]struct{}
	}
	groups := make(map[string]*group)
	for _, r := range records {
		g, ok := groups[r.ColumnName]
		if !ok {
			g = &group{files: make(map[string]struct{}), types: make(map[string]struct{})}
			groups[r.ColumnName] = g
		}
		g.files[r.FileName] = struct{}{}
		g.types[r.DataType] = struct{}{}
	}

	var results []models.CommonColumn
	for name, g := range groups {
		if len(g.files) < threshold {
			continue
		}
		results = append(results, models.CommonColumn{
			ColumnName: name,
			FileCount:  len(g.files),
			Files:      sortedKeys(g.files),
			DataTypes:  sortedKeys(g.types),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FileCount != results[j].FileCount {
			return results[i].FileCount > results[j].FileCount
		}
		return results[i].ColumnName < results[j].ColumnName
	})
	return results, nil
}

// SimilarSchemas scores every unordered file pair by the Jaccard index
// of their column-name sets and reports pairs at or above threshold,
// sorted by score descending. With semantic mode on, columns unique to
// each side that embed as equivalents widen the overlap before scoring.
func (a *RelationshipAnalyzer) SimilarSchemas(ctx context.Context, threshold float64, useSemantic bool, semanticThreshold float64) ([]models.SimilarSchemaPair, error) {
	columnSets, fileNames, err := a.columnSets(ctx)
	if err != nil {
		return nil, err
	}

	var pairs []models.SimilarSchemaPair
	for i := 0; i < len(fileNames); i++ {
		for j := i + 1; j < len(fileNames); j++ {
			fileA, fileB := fileNames[i], fileNames[j]
			setA, setB := columnSets[fileA], columnSets[fileB]

			common := intersect(setA, setB)
			union := len(setA) + len(setB) - len(common)
			if union == 0 {
				continue
			}
			overlap := len(common)

			if useSemantic && a.searcher.Available() {
				equivalents, err := a.searcher.FindEquivalents(ctx,
					fileA, subtract(setA, common),
					fileB, subtract(setB, common),
					semanticThreshold)
				if err != nil {
					return nil, err
				}
				// each equivalent pair merges two union members into one
				overlap += len(equivalents)
				union -= len(equivalents)
			}

			score := float64(overlap) / float64(union)
			if score >= threshold {
				pairs = append(pairs, models.SimilarSchemaPair{
					FileA:         fileA,
					FileB:         fileB,
					Similarity:    score,
					CommonColumns: common,
					TotalA:        len(setA),
					TotalB:        len(setB),
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].FileA != pairs[j].FileA {
			return pairs[i].FileA < pairs[j].FileA
		}
		return pairs[i].FileB < pairs[j].FileB
	})
	return pairs, nil
}

// Compare produces the pairwise difference of two named files. Unknown
// file names surface as UnknownFileError from the repository.
func (a *RelationshipAnalyzer) Compare(ctx context.Context, fileA, fileB string, useSemantic bool, semanticThreshold float64) (*models.SchemaDifference, error) {
	schemaA, err := a.repo.GetSchema(ctx, fileA)
	if err != nil {
		return nil, err
	}
	schemaB, err := a.repo.GetSchema(ctx, fileB)
	if err != nil {
		return nil, err
	}

	byNameA := recordsByName(schemaA)
	byNameB := recordsByName(schemaB)

	diff := &models.SchemaDifference{FileA: fileA, FileB: fileB}
	for _, r := range schemaA {
		if _, ok := byNameB[r.ColumnName]; !ok {
			diff.UniqueToA = append(diff.UniqueToA, r)
		}
	}
	for _, r := range schemaB {
		other, ok := byNameA[r.ColumnName]
		if !ok {
			diff.UniqueToB = append(diff.UniqueToB, r)
			continue
		}
		diff.CommonColumns = append(diff.CommonColumns, r.ColumnName)
		if other.DataType != r.DataType {
			diff.TypeMismatches = append(diff.TypeMismatches, models.TypeMismatch{
				ColumnName: r.ColumnName,
				Occurrences: []models.TypeOccurrence{
					{FileName: fileA, DataType: other.DataType},
					{FileName: fileB, DataType: r.DataType},
				},
			})
		}
	}
	sort.Strings(diff.CommonColumns)
	sort.Slice(diff.TypeMismatches, func(i, j int) bool {
		return diff.TypeMismatches[i].ColumnName < diff.TypeMismatches[j].ColumnName
	})

	if useSemantic && a.searcher.Available() {
		equivalents, err := a.searcher.FindEquivalents(ctx,
			fileA, columnNames(diff.UniqueToA),
			fileB, columnNames(diff.UniqueToB),
			semanticThreshold)
		if err != nil {
			return nil, err
		}
		if len(equivalents) > 0 {
			// reporting reclassification only: matched columns move
			// from the unique lists to the equivalents list
			diff.SemanticEquivalents = equivalents
			matchedA := make(map[string]struct{})
			matchedB := make(map[string]struct{})
			for _, eq := range equivalents {
				matchedA[eq.ColumnA.ColumnName] = struct{}{}
				matchedB[eq.ColumnB.ColumnName] = struct{}{}
			}
			diff.UniqueToA = dropNamed(diff.UniqueToA, matchedA)
			diff.UniqueToB = dropNamed(diff.UniqueToB, matchedB)
		}
	}
	return diff, nil
}

// SchemaDifferences compares every unordered file pair.
func (a *RelationshipAnalyzer) SchemaDifferences(ctx context.Context, useSemantic bool, semanticThreshold float64) ([]models.SchemaDifference, error) {
	files, err := a.repo.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.FileName
	}
	sort.Strings(names)

	var diffs []models.SchemaDifference
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			diff, err := a.Compare(ctx, names[i], names[j], useSemantic, semanticThreshold)
			if err != nil {
				return nil, err
			}
			diffs = append(diffs, *diff)
		}
	}
	return diffs, nil
}

// SemanticGroups clusters all known columns under the fixed concept
// vocabulary. Returns nil when the embedding backend is unavailable.
func (a *RelationshipAnalyzer) SemanticGroups(ctx context.Context, threshold float64) ([]models.ConceptGroup, error) {
	if !a.searcher.Available() {
		return nil, nil
	}
	refs, err := a.columnRefs(ctx)
	if err != nil {
		return nil, err
	}
	return a.searcher.ConceptGroups(ctx, refs, threshold)
}

// ConceptEvolution reports how each semantic concept is spelled across
// files, ordered by file name, so renames between datasets stand out.
func (a *RelationshipAnalyzer) ConceptEvolution(ctx context.Context, threshold float64) ([]models.ConceptGroup, error) {
	groups, err := a.SemanticGroups(ctx, threshold)
	if err != nil || groups == nil {
		return nil, err
	}
	for gi := range groups {
		members := groups[gi].Members
		sort.Slice(members, func(i, j int) bool {
			if members[i].FileName != members[j].FileName {
				return members[i].FileName < members[j].FileName
			}
			return members[i].ColumnName < members[j].ColumnName
		})
	}
	return groups, nil
}

// SemanticAvailable reports whether the embedding backend is wired.
func (a *RelationshipAnalyzer) SemanticAvailable() bool {
	return a.searcher.Available()
}

func (a *RelationshipAnalyzer) columnSets(ctx context.Context) (map[string]map[string]struct{}, []string, error) {
	records, err := a.repo.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	sets := make(map[string]map[string]struct{})
	for _, r := range records {
		set, ok := sets[r.FileName]
		if !ok {
			set = make(map[string]struct{})
			sets[r.FileName] = set
		}
		set[r.ColumnName] = struct{}{}
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return sets, names, nil
}

func (a *RelationshipAnalyzer) columnRefs(ctx context.Context) ([]models.ColumnRef, error) {
	records, err := a.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	refs := make([]models.ColumnRef, len(records))
	for i, r := range records {
		refs[i] = models.ColumnRef{FileName: r.FileName, ColumnName: r.ColumnName}
	}
	return refs, nil
}

func recordsByName(records []models.ColumnRecord) map[string]models.ColumnRecord {
	out := make(map[string]models.ColumnRecord, len(records))
	for _, r := range records {
		out[r.ColumnName] = r
	}
	return out
}

func columnNames(records []models.ColumnRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ColumnName
	}
	return out
}

func dropNamed(records []models.ColumnRecord, names map[string]struct{}) []models.ColumnRecord {
	var kept []models.ColumnRecord
	for _, r := range records {
		if _, ok := names[r.ColumnName]; !ok {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func subtract(set map[string]struct{}, common []string) []string {
	drop := make(map[string]struct{}, len(common))
	for _, c := range common {
		drop[c] = struct{}{}
	}
	var out []string
	for k := range set {
		if _, ok := drop[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

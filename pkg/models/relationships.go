package models

// TypeOccurrence records the declared type of a column in one file.
type TypeOccurrence struct {
	FileName string `json:"file_name"`
	DataType string `json:"data_type"`
}

// CommonColumn reports a column name that appears in at least the
// requested number of distinct files.
type CommonColumn struct {
	ColumnName string   `json:"column_name"`
	FileCount  int      `json:"file_count"`
	Files      []string `json:"files"`
	DataTypes  []string `json:"data_types"`
}

// SimilarSchemaPair reports two files whose column-name sets overlap
// with the given similarity score (Jaccard index, optionally widened by
// semantic equivalence).
type SimilarSchemaPair struct {
	FileA         string   `json:"file_a"`
	FileB         string   `json:"file_b"`
	Similarity    float64  `json:"similarity"`
	CommonColumns []string `json:"common_columns"`
	TotalA        int      `json:"total_a"`
	TotalB        int      `json:"total_b"`
}

// TypeMismatch reports a column name declared with two or more distinct
// data types across files. Occurrences always contain at least two
// distinct DataType values.
type TypeMismatch struct {
	ColumnName  string           `json:"column_name"`
	Occurrences []TypeOccurrence `json:"occurrences"`
}

// ColumnRef identifies a column within a file.
type ColumnRef struct {
	FileName   string `json:"file_name"`
	ColumnName string `json:"column_name"`
}

// SemanticEquivalence reports two differently named columns judged to
// carry the same concept by embedding similarity.
type SemanticEquivalence struct {
	ColumnA    ColumnRef `json:"column_a"`
	ColumnB    ColumnRef `json:"column_b"`
	Similarity float64   `json:"similarity"`
}

// SchemaDifference is the pairwise comparison of two files' schemas.
// Columns matched as semantic equivalents are reported separately and
// removed from the unique lists; that is a reporting reclassification,
// the underlying records are untouched.
type SchemaDifference struct {
	FileA               string                `json:"file_a"`
	FileB               string                `json:"file_b"`
	UniqueToA           []ColumnRecord        `json:"unique_to_a"`
	UniqueToB           []ColumnRecord        `json:"unique_to_b"`
	CommonColumns       []string              `json:"common_columns"`
	TypeMismatches      []TypeMismatch        `json:"type_mismatches"`
	SemanticEquivalents []SemanticEquivalence `json:"semantic_equivalents,omitempty"`
}

// SemanticMatch is one candidate ranked by embedding similarity.
type SemanticMatch struct {
	ColumnName string  `json:"column_name"`
	FileName   string  `json:"file_name"`
	Similarity float64 `json:"similarity"`
}

// NamingIssue reports a group of columns that appear to name the same
// concept inconsistently (case style, abbreviation, plural form).
type NamingIssue struct {
	Columns    []ColumnRef `json:"columns"`
	Reason     string      `json:"reason"`
	Suggestion string      `json:"suggestion"`
}

// ConceptGroup is a named semantic cluster of columns.
type ConceptGroup struct {
	Concept string          `json:"concept"`
	Members []SemanticMatch `json:"members"`
}

// ConceptTypeIssue reports a semantic concept whose member columns use
// inconsistent data types across files.
type ConceptTypeIssue struct {
	Concept       string           `json:"concept"`
	Types         []string         `json:"types"`
	Occurrences   []TypeOccurrence `json:"occurrences"`
	SuggestedType string           `json:"suggested_type"`
}

// Package models defines the data structures shared across tabletalk.
package models

import "time"

// ColumnRecord is one row of column-level metadata for a single file.
// Records are produced in bulk by the scanner each time a file is scanned
// and replaced wholesale on rescan; analysis code never mutates them.
type ColumnRecord struct {
	FileName    string `json:"file_name"`
	ColumnName  string `json:"column_name"`
	DataType    string `json:"data_type"`
	NullCount   int64  `json:"null_count"`
	UniqueCount int64  `json:"unique_count"`
	TotalRows   int64  `json:"total_rows"`
}

// FileInfo summarizes one scanned file as stored in the metadata store.
type FileInfo struct {
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	ColumnCount int       `json:"column_count"`
	TotalRows   int64     `json:"total_rows"`
	FileSizeMB  float64   `json:"file_size_mb"`
	LastScanned time.Time `json:"last_scanned"`
}

// Normalized data type tags produced by the scanner. data_type is a
// label, not a type lattice; these constants cover what CSV/Parquet
// introspection can distinguish.
const (
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeString   = "string"
	TypeBoolean  = "boolean"
	TypeDatetime = "datetime"
	TypeUnknown  = "unknown"
)

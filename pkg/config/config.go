package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for tabletalk.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. When no
// config.yaml exists the defaults plus environment are used.
type Config struct {
	// DatabasePath is where the SQLite metadata store lives.
	DatabasePath string `yaml:"database_path" env:"TABLETALK_DB_PATH" env-default:"./database/metadata.db"`

	// LogLevel controls zap verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"TABLETALK_LOG_LEVEL" env-default:"info"`

	Version string `yaml:"-"` // Set at load time, not from config

	// LLM is the chat model endpoint (any OpenAI-compatible daemon).
	LLM LLMConfig `yaml:"llm"`

	// Embedding is the optional embedding endpoint used for semantic
	// search. Leave the model empty to disable semantic features.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Scanner controls CSV/Parquet schema extraction.
	Scanner ScannerConfig `yaml:"scanner"`

	// Analysis holds the tunable similarity thresholds. These are
	// configuration constants, not contracts; every tool call may
	// override them.
	Analysis AnalysisConfig `yaml:"analysis"`
}

// LLMConfig holds the chat completion endpoint settings.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"TABLETALK_LLM_ENDPOINT" env-default:"http://localhost:11434/v1"`
	Model       string  `yaml:"model" env:"TABLETALK_LLM_MODEL" env-default:"qwen2.5:7b"`
	APIKey      string  `yaml:"-" env:"TABLETALK_LLM_API_KEY"` // Secret - not in YAML, optional for local daemons
	Temperature float64 `yaml:"temperature" env:"TABLETALK_LLM_TEMPERATURE" env-default:"0.1"`
	// MaxToolRounds bounds how many tool-call rounds a single user
	// query may trigger before the agent gives up.
	MaxToolRounds int `yaml:"max_tool_rounds" env:"TABLETALK_LLM_MAX_TOOL_ROUNDS" env-default:"5"`
}

// EmbeddingConfig holds the embedding endpoint settings. Endpoint
// defaults to the LLM endpoint when empty.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint" env:"TABLETALK_EMBEDDING_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"TABLETALK_EMBEDDING_MODEL" env-default:"nomic-embed-text"`
	Enabled  bool   `yaml:"enabled" env:"TABLETALK_EMBEDDING_ENABLED" env-default:"true"`
}

// ScannerConfig holds file scanning limits.
type ScannerConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb" env:"TABLETALK_SCANNER_MAX_FILE_SIZE_MB" env-default:"100"`
	SampleRows    int `yaml:"sample_rows" env:"TABLETALK_SCANNER_SAMPLE_ROWS" env-default:"1000"`
}

// AnalysisConfig holds default thresholds for the analyzers.
type AnalysisConfig struct {
	// CommonColumnThreshold is the minimum number of distinct files a
	// column must appear in to be reported as common.
	CommonColumnThreshold int `yaml:"common_column_threshold" env:"TABLETALK_COMMON_COLUMN_THRESHOLD" env-default:"2"`
	// SchemaSimilarityThreshold is the minimum Jaccard score for a
	// similar-schema pair.
	SchemaSimilarityThreshold float64 `yaml:"schema_similarity_threshold" env:"TABLETALK_SCHEMA_SIMILARITY_THRESHOLD" env-default:"0.4"`
	// SemanticSearchThreshold is the minimum cosine similarity for a
	// semantic search match.
	SemanticSearchThreshold float64 `yaml:"semantic_search_threshold" env:"TABLETALK_SEMANTIC_SEARCH_THRESHOLD" env-default:"0.6"`
	// SemanticGroupThreshold is the minimum similarity for concept
	// grouping.
	SemanticGroupThreshold float64 `yaml:"semantic_group_threshold" env:"TABLETALK_SEMANTIC_GROUP_THRESHOLD" env-default:"0.7"`
	// SemanticNamingThreshold is the minimum similarity for flagging
	// near-duplicate naming.
	SemanticNamingThreshold float64 `yaml:"semantic_naming_threshold" env:"TABLETALK_SEMANTIC_NAMING_THRESHOLD" env-default:"0.8"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error; defaults and
// environment variables apply. The version parameter is injected at
// build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom is Load with an explicit config file path, for tests and the
// --config flag.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The embedding endpoint rides on the LLM daemon unless pointed
	// elsewhere.
	if cfg.Embedding.Endpoint == "" {
		cfg.Embedding.Endpoint = cfg.LLM.Endpoint
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Analysis.CommonColumnThreshold < 2 {
		return fmt.Errorf("analysis.common_column_threshold must be at least 2, got %d", c.Analysis.CommonColumnThreshold)
	}
	for name, v := range map[string]float64{
		"schema_similarity_threshold": c.Analysis.SchemaSimilarityThreshold,
		"semantic_search_threshold":   c.Analysis.SemanticSearchThreshold,
		"semantic_group_threshold":    c.Analysis.SemanticGroupThreshold,
		"semantic_naming_threshold":   c.Analysis.SemanticNamingThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("analysis.%s must be in [0,1], got %v", name, v)
		}
	}
	if c.Scanner.MaxFileSizeMB <= 0 {
		return fmt.Errorf("scanner.max_file_size_mb must be positive, got %d", c.Scanner.MaxFileSizeMB)
	}
	return nil
}

// EnsureDatabaseDir creates the parent directory of the database path.
func (c *Config) EnsureDatabaseDir() error {
	return os.MkdirAll(filepath.Dir(c.DatabasePath), 0o755)
}

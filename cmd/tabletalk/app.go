package main

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/agent"
	"github.com/prasann/table-talks/pkg/analysis"
	"github.com/prasann/table-talks/pkg/config"
	"github.com/prasann/table-talks/pkg/database"
	"github.com/prasann/table-talks/pkg/export"
	"github.com/prasann/table-talks/pkg/llm"
	"github.com/prasann/table-talks/pkg/logging"
	"github.com/prasann/table-talks/pkg/repositories"
	"github.com/prasann/table-talks/pkg/scanner"
	"github.com/prasann/table-talks/pkg/semantic"
	"github.com/prasann/table-talks/pkg/tools"
)

// app holds the wired application graph shared by the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sql.DB
	repo     repositories.MetadataRepository
	scanner  *scanner.Scanner
	exporter *export.Exporter
	registry *tools.Registry
	agent    *agent.Agent
	semantic *semantic.Searcher
}

// newApp wires configuration, storage and analyzers. withLLM controls
// whether the chat and embedding clients are created; scan and export
// work offline.
func newApp(withLLM bool) (*app, error) {
	cfg, err := config.LoadFrom(configPath, Version)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	// Open migrates the store to the latest schema itself.
	db, err := database.Open(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	repo := repositories.NewMetadataRepository(db, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		repo:     repo,
		scanner:  scanner.New(repo, cfg.Scanner.MaxFileSizeMB, cfg.Scanner.SampleRows, logger),
		exporter: export.New(repo, logger),
	}

	var embedding llm.EmbeddingClient
	if withLLM {
		chatClient, err := llm.NewClient(&llm.Config{
			Endpoint:    cfg.LLM.Endpoint,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("chat client: %w", err)
		}

		if cfg.Embedding.Enabled && cfg.Embedding.Model != "" {
			embeddingClient, err := llm.NewClient(&llm.Config{
				Endpoint:       cfg.Embedding.Endpoint,
				Model:          cfg.LLM.Model,
				EmbeddingModel: cfg.Embedding.Model,
				APIKey:         cfg.LLM.APIKey,
			}, logger)
			if err != nil {
				logger.Warn("Embedding client unavailable, semantic features disabled", zap.Error(err))
			} else {
				embedding = embeddingClient
			}
		}

		a.semantic = semantic.NewSearcher(embedding, logger)

		registry, err := tools.NewRegistry(&tools.Dependencies{
			Repo:          repo,
			Columns:       analysis.NewColumnSearcher(repo, logger),
			Files:         analysis.NewFileSearcher(repo, logger),
			Types:         analysis.NewTypeSearcher(repo, logger),
			Relationships: analysis.NewRelationshipAnalyzer(repo, a.semantic, logger),
			Consistency:   analysis.NewConsistencyChecker(repo, semantic.NewConsistencyChecker(a.semantic), logger),
			Statistics:    analysis.NewStatisticsAnalyzer(repo, logger),
			Semantic:      a.semantic,
			Formatter:     analysis.NewTextFormatter(),
			Analysis:      cfg.Analysis,
			Logger:        logger,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		a.registry = registry
		a.agent = agent.New(chatClient, registry, repo, cfg.LLM.MaxToolRounds, logger)
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

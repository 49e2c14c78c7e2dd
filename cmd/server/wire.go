package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/assistant"
	"github.com/p-n-ai/pai-quiz/internal/httpapi"
	"github.com/p-n-ai/pai-quiz/internal/kvstore"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quizdata"
)

// backend is the opened progress store with its health check and event sink.
type backend struct {
	Store  kvstore.Store
	Health httpapi.HealthChecker
	Events progress.EventLogger
	close  func()
}

// Close releases the backend's connections.
func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	ns := cfg.Store.Namespace

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store := kvstore.NewMemoryStore()
		return &backend{
			Store:  store,
			Health: store,
			Events: progress.NopEventLogger{},
			close:  func() { store.Close() },
		}, nil

	case config.BackendSQLite:
		store, err := kvstore.NewSQLiteStore(cfg.SQLite.Path, ns)
		if err != nil {
			return nil, err
		}
		return &backend{
			Store:  store,
			Health: store,
			Events: progress.NopEventLogger{},
			close:  func() { store.Close() },
		}, nil

	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache.URL, ns)
		if err != nil {
			return nil, err
		}
		return &backend{
			Store:  c,
			Health: c,
			Events: progress.NopEventLogger{},
			close:  func() { c.Close() },
		}, nil

	case config.BackendPostgres:
		db, err := database.New(ctx, database.Options{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		store, err := kvstore.NewPostgresStore(db.Pool, ns)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			Store:  store,
			Health: db,
			Events: progress.NewPostgresEventLogger(db.Pool, ns),
			close:  db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newSource(cfg config.SourceConfig) quizdata.Source {
	if cfg.URL != "" {
		return quizdata.NewHTTPSource(cfg.URL)
	}
	return quizdata.NewDirSource(cfg.Dir)
}

// newAssistant returns nil when no AI provider is configured.
func newAssistant(cfg *config.Config) (*assistant.Engine, error) {
	if !cfg.HasAIProvider() {
		return nil, nil
	}

	router := ai.NewRouter()
	g := cfg.AI.Google
	router.Register("google", ai.NewGoogleProvider(g.APIKey, ai.WithGoogleModels(g.Model, g.EmbedModel)))

	var retriever *assistant.Retriever
	if cfg.AI.EmbeddingsFile != "" {
		r, err := assistant.LoadRetriever(cfg.AI.EmbeddingsFile)
		if err != nil {
			return nil, err
		}
		retriever = r
		slog.Info("study material indexed", "chunks", r.Len())
	}

	return assistant.NewEngine(assistant.EngineConfig{
		Model:     router,
		Retriever: retriever,
	}), nil
}

package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/clientscout/internal/leads"
	"github.com/sells-group/clientscout/internal/store"
	anthropicpkg "github.com/sells-group/clientscout/pkg/anthropic"
	"github.com/sells-group/clientscout/pkg/gemini"
)

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openSession opens a fresh backend conversation primed with the lead
// extraction contract. The returned closer releases the underlying client.
func openSession(ctx context.Context) (leads.Session, func() error, error) {
	switch cfg.Backend {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithMaxOutputTokens(cfg.Gemini.MaxOutputTokens),
			gemini.WithRateLimit(cfg.Gemini.RequestsPerMinute),
		)
		if err != nil {
			return nil, nil, err
		}
		sess, err := client.OpenSession(ctx, leads.SystemInstruction)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return sess, client.Close, nil

	case "anthropic":
		api, err := anthropicpkg.NewClient(cfg.Anthropic.Key)
		if err != nil {
			return nil, nil, err
		}
		sc := anthropicpkg.NewSessionClient(api, anthropicpkg.SessionConfig{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			System:    leads.SystemInstruction,
		})
		sess, err := sc.OpenSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		return sess, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want gemini or anthropic)", cfg.Backend)
	}
}

// Package main implements the hindsight operator CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/hindsight/internal/ai"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/internal/store"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/spf13/cobra"
)

var version = "dev"

// newProvider builds the generation backend from AI_* environment variables.
var newProvider = func() (models.AIProvider, error) {
	cfg, err := config.LoadAI()
	if err != nil {
		return nil, fmt.Errorf("load AI config: %w", err)
	}
	return ai.NewProvider(*cfg)
}

// adminStore is the slice of the database the CLI writes to.
type adminStore interface {
	SaveCorpus(ctx context.Context, doc *models.Corpus) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

var openStore = func(ctx context.Context, databaseURL, migrationsDir string) (adminStore, func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("database URL is required (--database-url or DATABASE_URL)")
	}
	pool, err := store.Connect(ctx, config.DatabaseConfig{
		URL:             databaseURL,
		MaxOpenConns:    2,
		MaxIdleConns:    0,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := store.RunMigrations(databaseURL, migrationsDir); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hindsight",
		Short: "Operator CLI for the Hindsight regret analysis engine",
		Long: `hindsight runs regret analyses and maintains the pattern corpus from the command line.

It talks to the configured AI backend directly (AI_PROVIDER and friends) and,
for import and key management, to Postgres via DATABASE_URL.`,
		Version:       version,
		SilenceUsage:  true,
	}

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newKeysCmd())
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

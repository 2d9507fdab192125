package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/internal/extraction"
	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	var corpusPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print statistics for a pattern corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			patterns := corpus.NewStore(corpus.NewFileSource(corpusPath))
			snap, err := patterns.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("load corpus: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), snap.Summary())
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "data/regret_patterns.json", "pattern corpus JSON file")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var (
		storiesPath string
		outPath     string
		limit       int
		concurrency int
		rate        int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract regret patterns from raw stories into a corpus file",
		Long: `Extract sends each raw story to the AI backend, keeps the patterns that parse,
and writes them as a new corpus document.

Examples:
  # Extract the first 50 stories
  hindsight extract --stories data/raw_regret_stories.json --out data/regret_patterns.json

  # Extract 200 stories, four at a time
  hindsight extract --limit 200 --concurrency 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, err := newProvider()
			if err != nil {
				return err
			}

			ex := extraction.NewExtractor(provider,
				extraction.WithConcurrency(concurrency),
				extraction.WithRate(rate),
			)
			patterns := corpus.NewStore(corpus.NewFileSource(outPath))
			report, err := extraction.NewService(ex, patterns, storiesPath).Run(cmd.Context(), limit)
			if err != nil {
				return err
			}

			slog.Info("corpus written", "path", outPath, "patterns", report.Patterns, "dropped", report.Dropped)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&storiesPath, "stories", "data/raw_regret_stories.json", "raw stories JSON file")
	cmd.Flags().StringVar(&outPath, "out", "data/regret_patterns.json", "corpus file to write")
	cmd.Flags().IntVar(&limit, "limit", extraction.DefaultLimit, "stories to process")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "concurrent AI calls")
	cmd.Flags().IntVar(&rate, "rate", 10, "AI calls per second (0 for unlimited)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var corpusPath, databaseURL, migrationsDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a corpus file into Postgres",
		Long: `Import replaces the corpus stored in Postgres with the contents of a corpus file.
Servers started with CORPUS_SOURCE=postgres pick it up on their next reload.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := corpus.NewFileSource(corpusPath).LoadCorpus(cmd.Context())
			if err != nil {
				return err
			}

			db, closeDB, err := openStore(cmd.Context(), databaseURL, migrationsDir)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := db.SaveCorpus(cmd.Context(), doc); err != nil {
				return fmt.Errorf("save corpus: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d patterns\n", len(doc.Patterns))
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "data/regret_patterns.json", "pattern corpus JSON file")
	addDatabaseFlags(cmd, &databaseURL, &migrationsDir)
	return cmd
}

func addDatabaseFlags(cmd *cobra.Command, databaseURL, migrationsDir *string) {
	cmd.Flags().StringVar(databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	cmd.Flags().StringVar(migrationsDir, "migrations", "migrations", "migrations directory")
}

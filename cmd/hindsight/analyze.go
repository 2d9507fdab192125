package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kiranshivaraju/hindsight/internal/ai"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var corpusPath, queryPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a decision against the regret corpus",
		Long: `Analyze reads a decision query as JSON and prints the analysis result.

Examples:
  # Analyze a query file
  hindsight analyze --corpus data/regret_patterns.json --query decision.json

  # Read the query from stdin
  cat decision.json | hindsight analyze --query -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := readQuery(cmd.InOrStdin(), queryPath)
			if err != nil {
				return err
			}

			provider, err := newProvider()
			if err != nil {
				return err
			}

			patterns := corpus.NewStore(corpus.NewFileSource(corpusPath))
			if _, err := patterns.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("load corpus: %w", err)
			}

			res, err := ai.NewAnalysisService(provider, patterns).Analyze(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "data/regret_patterns.json", "pattern corpus JSON file")
	cmd.Flags().StringVar(&queryPath, "query", "-", "query JSON file, or - for stdin")
	return cmd
}

func readQuery(stdin io.Reader, path string) (models.UserQuery, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.UserQuery{}, fmt.Errorf("read query: %w", err)
	}

	var req models.AnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.UserQuery{}, fmt.Errorf("decode query: %w", err)
	}
	return req.Validate()
}

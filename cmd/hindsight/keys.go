package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/apikey"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newKeysCreateCmd())
	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var name, scopes, databaseURL, migrationsDir string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		Long: `Create generates a new API key, stores its hash, and prints the raw key.
The raw key cannot be recovered later.

Examples:
  # Bootstrap an admin key
  hindsight keys create --name ops --scopes read,admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			parsed := apikey.ParseScopes(scopes)
			if len(parsed) == 0 {
				parsed = []string{"read"}
			}

			db, closeDB, err := openStore(cmd.Context(), databaseURL, migrationsDir)
			if err != nil {
				return err
			}
			defer closeDB()

			generated, err := apikey.Generate()
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			key := &models.APIKey{
				ID:        uuid.New(),
				Name:      name,
				KeyHash:   generated.Hash,
				KeyPrefix: generated.Prefix,
				Scopes:    parsed,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := db.CreateAPIKey(cmd.Context(), key); err != nil {
				return fmt.Errorf("create api key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:     %s\n", key.ID)
			fmt.Fprintf(out, "scopes: %s\n", strings.Join(key.Scopes, ","))
			fmt.Fprintf(out, "key:    %s\n", generated.Raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "key name")
	cmd.Flags().StringVar(&scopes, "scopes", "read", "comma-separated scopes")
	addDatabaseFlags(cmd, &databaseURL, &migrationsDir)
	return cmd
}

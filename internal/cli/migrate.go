package cli

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/config"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/sqlite"
	"github.com/spf13/cobra"
)

var migratePath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQLite schema",
	Long: `Create the SQLite tables and indexes if they do not exist.

Examples:
  minishop migrate
  minishop migrate --db data/minishop.db`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migratePath, "db", "", "database file (defaults to storage.sqlite_path)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := migratePath
	if path == "" {
		path = cfg.Storage.SQLitePath
	}
	if path == "" {
		path = config.DefaultConfig().Storage.SQLitePath
	}

	s, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer s.Close()

	if err := s.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s\n", path)
	return nil
}

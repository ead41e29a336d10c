package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
	"github.com/d9i2r2t1/hh-parser/pkg/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStatus(cmd.Context())
	},
}

func printStatus(ctx context.Context) error {
	paths, err := resolveConfigPaths()
	if err != nil {
		return err
	}

	for _, path := range paths {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := printDatabaseStatus(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func printDatabaseStatus(ctx context.Context, cfg *config.Config) error {
	storage, err := store.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer storage.Close()

	size, err := storage.DatabaseSize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: database %q, size %s\n", cfg.FileName, cfg.Postgres.Name, size)

	tables, err := storage.TableNames(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		count, err := storage.CountTableRows(ctx, table)
		if err != nil {
			return err
		}
		fmt.Printf("  %-20s %d rows\n", table, count)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/spf13/cobra"
)

var importDriver string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Copy entries from another catalog into the configured one",
	Long: `Reads every entry of <source> and inserts or replaces it, by ID, in the
configured catalog. Use it to move a JSON catalog into SQLite or back.

Examples:
  gamecrawl import games.json --catalog games.db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDriver, "from-driver", "", "driver of the source catalog (default guessed from extension)")
}

type entryPutter interface {
	Put(ctx context.Context, entries ...catalog.Entry) error
}

func runImport(cmd *cobra.Command, args []string) error {
	src, err := OpenStoreFunc(importDriver, args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to open source catalog %s: %w", args[0], err)
	}
	defer closeStore(src)

	dst, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(dst)

	putter, ok := dst.(entryPutter)
	if !ok {
		return fmt.Errorf("catalog %T does not support inserts", dst)
	}

	entries, err := src.GetAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read source catalog: %w", err)
	}
	if err := putter.Put(cmd.Context(), entries...); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries.\n", len(entries))
	return nil
}

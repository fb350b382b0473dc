package cmd

import (
	"fmt"
	"strings"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/spf13/cobra"
)

var cooldownsField string

// cooldownsCmd groups cooldown maintenance
var cooldownsCmd = &cobra.Command{
	Use:   "cooldowns",
	Short: "Manage lookup cooldowns",
}

var cooldownsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Make entries on cooldown eligible for lookup again",
	Long: `Resets the retry state of --field on every catalog entry, so failed
lookups are attempted again on the next run.

Examples:
  gamecrawl cooldowns clear --field score
  gamecrawl cooldowns clear --field all`,
	Args: cobra.NoArgs,
	RunE: runCooldownsClear,
}

func init() {
	RootCmd.AddCommand(cooldownsCmd)
	cooldownsCmd.AddCommand(cooldownsClearCmd)

	cooldownsClearCmd.Flags().StringVarP(&cooldownsField, "field", "f", "all", "Field to clear (score, duration, all)")
}

func runCooldownsClear(cmd *cobra.Command, args []string) error {
	var fields []catalog.Field
	if !strings.EqualFold(strings.TrimSpace(cooldownsField), "all") {
		field, err := parseFieldFlag(cooldownsField)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	n, err := catalog.ClearCooldowns(cmd.Context(), store, fields...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cooldowns on %d entries.\n", n)
	return nil
}

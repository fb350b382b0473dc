package cmd

import (
	"fmt"
	"io"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/spf13/cobra"
)

var (
	resolveField  string
	resolveDryRun bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <id> [id...]",
	Short: "Look up one or more catalog entries",
	Long: `Looks up the given catalog entries on the site for --field and stores the result.
Entries on cooldown are reported and left untouched.

Examples:
  gamecrawl resolve 42 --field score
  gamecrawl resolve 42 43 --field duration --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	RootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveField, "field", "f", string(catalog.FieldScore), "Field to fill (score, duration)")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Look up without writing to the catalog")
}

func runResolve(cmd *cobra.Command, args []string) error {
	field, err := parseFieldFlag(resolveField)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	resolver, err := newResolver(field, store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed error
	for _, id := range args {
		res, err := resolver.ResolveID(cmd.Context(), id, resolveDryRun)
		if err != nil && res.Err == nil {
			return err
		}
		printResult(out, field, res, resolveDryRun)
		if err != nil && failed == nil {
			failed = err
		}
	}
	return failed
}

func printResult(out io.Writer, field catalog.Field, res lookup.Result, dryRun bool) {
	name := res.Name
	if name == "" {
		name = res.EntryID
	}
	switch {
	case res.Skipped:
		fmt.Fprintf(out, "%s: skipped, on cooldown\n", name)
	case res.Found():
		suffix := ""
		if dryRun {
			suffix = " [dry run]"
		}
		fmt.Fprintf(out, "%s: %s %g (matched %q via %q, %.0f%% similar, rule %s)%s\n",
			name, field, res.Outcome.Value, res.Candidate, res.Query, res.Similarity, res.Outcome.Rule, suffix)
	case res.Err != nil:
		fmt.Fprintf(out, "%s: failed: %v\n", name, res.Err)
	default:
		fmt.Fprintf(out, "%s: not found (%s), attempt %d\n", name, res.Outcome.Reason, res.Retry.Attempts)
	}
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	batchField  string
	batchLimit  int
	batchDryRun bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every catalog entry missing a field",
	Long: `Looks up, one at a time, every catalog entry that has no value for --field.
Entries on cooldown are skipped and do not count toward --limit.

Examples:
  gamecrawl batch --field score
  gamecrawl batch --field duration --limit 20 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	RootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchField, "field", "f", string(catalog.FieldScore), "Field to fill (score, duration)")
	batchCmd.Flags().IntVarP(&batchLimit, "limit", "n", 0, "Maximum entries to look up (0 = no limit)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Look up without writing to the catalog")
}

func runBatch(cmd *cobra.Command, args []string) error {
	field, err := parseFieldFlag(batchField)
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

	report, runErr := resolver.Run(cmd.Context(), batchLimit, batchDryRun)
	if report.RunID == "" {
		return runErr
	}
	renderReport(cmd.OutOrStdout(), report)
	return runErr
}

var titleCaser = cases.Title(language.Und)

func renderReport(out io.Writer, report lookup.BatchReport) {
	if len(report.Results) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"ID", "Entry", "Status", "Value", "Candidate", "Similarity", "Attempts"})
		for _, res := range report.Results {
			value := ""
			if res.Found() {
				value = fmt.Sprintf("%g", res.Outcome.Value)
			}
			similarity := ""
			if res.Candidate != "" {
				similarity = fmt.Sprintf("%.0f%%", res.Similarity)
			}
			tw.AppendRow(table.Row{
				res.EntryID,
				res.Name,
				titleCaser.String(strings.ReplaceAll(resultStatus(res), "_", " ")),
				value,
				res.Candidate,
				similarity,
				res.Retry.Attempts,
			})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 4, Align: text.AlignRight},
			{Number: 6, Align: text.AlignRight},
			{Number: 7, Align: text.AlignRight},
		})
		tw.Render()
	}

	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "Run %s%s: %d processed, %d updated, %d failed, %d skipped\n",
		report.RunID, mode, report.Processed, report.Updated, report.Failed, report.Skipped)
}

func resultStatus(res lookup.Result) string {
	if res.Err != nil {
		return "error"
	}
	return res.Outcome.Status.String()
}

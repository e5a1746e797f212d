package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"healthinsights/adapters/excel"
	"healthinsights/app"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/analysis"
	"healthinsights/internal/config"
	loader "healthinsights/internal/dataset"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the flags shared by every subcommand
type options struct {
	file        string
	gender      string
	condition   string
	hospital    string
	dateLayouts []string
	jsonOutput  bool
	logLevel    string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{file: config.DefaultDataFile, logLevel: "WARN"}
	if cfg, err := config.Load(); err == nil {
		opts.file = cfg.Data.File
		opts.dateLayouts = cfg.Data.DateLayouts
	}

	rootCmd := &cobra.Command{
		Use:           "healthinsights",
		Short:         "Query a healthcare encounter CSV from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", opts.file, "CSV or XLSX file to load (env DATA_FILE)")
	flags.StringVar(&opts.gender, "gender", "", `Gender filter ("All" or empty for none)`)
	flags.StringVar(&opts.condition, "condition", "", `Medical condition filter ("All" or empty for none)`)
	flags.StringVar(&opts.hospital, "hospital", "", "Hospital filter")
	flags.StringSliceVar(&opts.dateLayouts, "date-layout", opts.dateLayouts, "Extra Go date layouts to try, e.g. 02.01.2006 (env DATE_LAYOUTS)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of text")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "ERROR, WARN, INFO, DEBUG or TRACE")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newGroupsCmd(opts),
		newMeanCmd(opts),
		newCorrelateCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

// load reads the file and applies the filter flags
func (o *options) load(ctx context.Context) (*dataset.Dataset, *dataset.LoadReport, error) {
	logger := internal.NewLoggerFromString(o.logLevel)
	source := loader.NewFileSource(loader.DefaultSourceConfig(o.file, o.dateLayouts...), logger)
	ds, report, err := source.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ds.Filter(o.criteria()), report, nil
}

func (o *options) criteria() dataset.Criteria {
	return dataset.Criteria{Gender: o.gender, Condition: o.condition, Hospital: o.hospital}.Normalize()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print record count, mean length of stay and mean billing amount",
		Long: `Print the sidebar summary for the filtered records, followed by the load
report: how many cells were empty or unparseable and how many stays are negative.

Example: healthinsights summary --file healthcare_dataset.csv --gender Female`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, report, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			summary := analysis.Summarize(ds)
			out := cmd.OutOrStdout()

			if opts.jsonOutput {
				return printJSON(out, map[string]interface{}{"summary": summary, "report": report})
			}
			for _, row := range app.SummaryRows(summary) {
				fmt.Fprintf(out, "%-32s %s\n", row[0]+":", row[1])
			}
			fmt.Fprintf(out, "\nLoaded %d rows from %s in %s\n", report.Rows, report.Source, report.Duration)
			printCounts(out, "Empty cells", report.MissingCells)
			printCounts(out, "Unparseable cells", report.CoercedCells)
			fmt.Fprintf(out, "Stays that could not be computed: %d\n", report.MissingLengthOfStay)
			fmt.Fprintf(out, "Negative stays: %d\n", report.NegativeLengthOfStay)
			return nil
		},
	}
}

func printCounts(w io.Writer, label string, counts map[dataset.Column]int) {
	var parts []string
	for _, col := range dataset.RequiredColumns {
		if n := counts[col]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", col, n))
		}
	}
	if len(parts) == 0 {
		parts = []string{"none"}
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(parts, ", "))
}

func newGroupsCmd(opts *options) *cobra.Command {
	var by, across string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Count records per combination of two columns",
		Long: `Count records for every combination of two categorical columns. Combinations
with no records are shown as zero in text output and omitted from JSON.

Example: healthinsights groups --by "Medical Condition" --across Gender`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if opts.jsonOutput {
				counts, err := analysis.GroupCount(ds, dataset.Column(by), dataset.Column(across))
				if err != nil {
					return err
				}
				rows := make([]map[string]interface{}, 0, len(counts))
				for pair, n := range counts {
					rows = append(rows, map[string]interface{}{by: pair.A, across: pair.B, "count": n})
				}
				sort.Slice(rows, func(i, j int) bool {
					return fmt.Sprint(rows[i][by], rows[i][across]) < fmt.Sprint(rows[j][by], rows[j][across])
				})
				return printJSON(out, rows)
			}

			ct, err := analysis.CrossTabulate(ds, dataset.Column(by), dataset.Column(across))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-24s", by)
			for _, col := range ct.Columns {
				fmt.Fprintf(out, " %10s", col)
			}
			fmt.Fprintln(out)
			for i, row := range ct.Rows {
				fmt.Fprintf(out, "%-24s", row)
				for j := range ct.Columns {
					fmt.Fprintf(out, " %10d", ct.Counts[i][j])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(dataset.ColCondition), "Row column")
	cmd.Flags().StringVar(&across, "across", string(dataset.ColGender), "Column column")
	return cmd
}

func newMeanCmd(opts *options) *cobra.Command {
	var by, value string

	cmd := &cobra.Command{
		Use:   "mean",
		Short: "Average a numeric column within each group",
		Long: `Average a numeric column within each value of a grouping column. Groups
whose values are all missing print as n/a.

Example: healthinsights mean --by Hospital --value "Billing Amount"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			means, err := analysis.MeansByGroup(ds, dataset.Column(by), dataset.Column(value))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, means)
			}
			for _, m := range means {
				fmt.Fprintf(out, "%-40s %12s  (n=%d)\n", m.Group, m.Mean.Format(2), m.N)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(dataset.ColHospital), "Grouping column")
	cmd.Flags().StringVar(&value, "value", string(dataset.ColBilling), "Numeric column to average")
	return cmd
}

func newCorrelateCmd(opts *options) *cobra.Command {
	var columns []string

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Print the Pearson correlation matrix of numeric columns",
		Long: `Print the Pearson correlation matrix using pairwise-complete observations.
Pairs with fewer than two observations or no variance print as n/a.

Example: healthinsights correlate --columns Age,"Billing Amount","Length of Stay"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			cols := make([]dataset.Column, len(columns))
			for i, c := range columns {
				cols[i] = dataset.Column(strings.TrimSpace(c))
			}
			m, err := analysis.Correlate(ds, cols)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, m)
			}

			fmt.Fprintf(out, "%-16s", "")
			for _, c := range m.Columns {
				fmt.Fprintf(out, " %16s", c)
			}
			fmt.Fprintln(out)
			for i, c := range m.Columns {
				fmt.Fprintf(out, "%-16s", c)
				for j := range m.Columns {
					fmt.Fprintf(out, " %16s", m.Values[i][j].Format(3))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	defaults := make([]string, len(app.CorrelationColumns))
	for i, c := range app.CorrelationColumns {
		defaults[i] = string(c)
	}
	cmd.Flags().StringSliceVar(&columns, "columns", defaults, "Numeric columns to correlate")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records to an xlsx workbook",
		Long: `Write the filtered records, with the derived Length of Stay, and a summary
sheet to an xlsx workbook.

Example: healthinsights export --condition Diabetes --out diabetes.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := app.ExportView(excel.NewWorkbookExporter(), ds, dataset.Criteria{}, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", ds.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "encounters.xlsx", "Output workbook path")
	return cmd
}

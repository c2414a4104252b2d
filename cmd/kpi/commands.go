package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const loadTimeout = 60 * time.Second

var defaultDashboard = config.DashboardConfig{DefaultPeriod: 28, Periods: []int{7, 28, 90, 365}}

// datasetFlags are shared by every subcommand.
type datasetFlags struct {
	csvFile  string
	encoding string
	cacheDir string
	logLevel string
}

func (f *datasetFlags) load(cmd *cobra.Command) (*services.Analytics, error) {
	logger := observability.NewLogger(config.LoggerConfig{Level: f.logLevel, Format: "text"}, cmd.ErrOrStderr())

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()

	analytics := services.NewAnalytics(defaultDashboard, logger)
	err := analytics.LoadFromCSV(ctx, config.DatabaseConfig{
		CSVFile:  f.csvFile,
		Encoding: f.encoding,
		CacheDir: f.cacheDir,
	})
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

func newRootCmd() *cobra.Command {
	flags := &datasetFlags{}
	cmd := &cobra.Command{
		Use:           "kpi",
		Short:         "Compare Superstore KPIs between consecutive periods",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&flags.csvFile, "csv", "", "Path to the orders CSV export")
	cmd.PersistentFlags().StringVar(&flags.encoding, "encoding", "latin1", "CSV text encoding (utf8 or latin1)")
	cmd.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", "", "Directory for the parsed dataset cache")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")
	_ = cmd.MarkPersistentFlagRequired("csv")

	cmd.AddCommand(newCompareCmd(flags), newRangeCmd(flags))
	return cmd
}

type compareCmd struct {
	flags   *datasetFlags
	endDate string
	period  int
	asJSON  bool
}

func newCompareCmd(flags *datasetFlags) *cobra.Command {
	cc := &compareCmd{flags: flags}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the trailing period ending at --end with the period before it",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.endDate, "end", "", "Last day of the current period (YYYY-MM-DD), defaults to the latest order date")
	cmd.Flags().IntVar(&cc.period, "period", defaultDashboard.DefaultPeriod, "Period length in days")
	cmd.Flags().BoolVar(&cc.asJSON, "json", false, "Print the comparison as JSON")

	return cmd
}

func (cc *compareCmd) run(cmd *cobra.Command, args []string) error {
	analytics, err := cc.flags.load(cmd)
	if err != nil {
		return err
	}

	q, err := analytics.ParseQuery(cc.endDate, strconv.Itoa(cc.period))
	if err != nil {
		return err
	}

	result, err := analytics.Compare(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("compare periods: %w", err)
	}

	if cc.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeComparison(cmd.OutOrStdout(), result)
}

func windowLabel(w models.DateWindow) string {
	return w.Start.Format("2006-01-02") + " .. " + w.LastDay().Format("2006-01-02")
}

func writeComparison(out io.Writer, res models.ComparisonResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "METRIC\tCURRENT\tPREVIOUS\tCHANGE\t\n")
	fmt.Fprintf(tw, "window\t%s\t%s\t\t\n", windowLabel(res.Current.Window), windowLabel(res.Previous.Window))
	fmt.Fprintf(tw, "orders\t%d\t%d\t%+.2f%%\t\n", res.Current.OrderCount, res.Previous.OrderCount, res.Deltas.OrderCount)
	fmt.Fprintf(tw, "customers\t%d\t%d\t\t\n", res.Current.CustomerCount, res.Previous.CustomerCount)
	fmt.Fprintf(tw, "sales\t%.2f\t%.2f\t%+.2f%%\t\n", res.Current.TotalSales, res.Previous.TotalSales, res.Deltas.TotalSales)
	fmt.Fprintf(tw, "profit\t%.2f\t%.2f\t%+.2f%%\t\n", res.Current.TotalProfit, res.Previous.TotalProfit, res.Deltas.TotalProfit)
	fmt.Fprintf(tw, "profit ratio\t%.2f%%\t%.2f%%\t%+.2f%%\t\n", res.Current.ProfitRatio, res.Previous.ProfitRatio, res.Deltas.ProfitRatio)

	return tw.Flush()
}

func newRangeCmd(flags *datasetFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "range",
		Short: "Print the order date range of the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			analytics, err := flags.load(cmd)
			if err != nil {
				return err
			}
			r := analytics.DateRange()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s to %s (%d records)\n", r.MinDate, r.MaxDate, r.Records)
			return err
		},
	}
}

package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/config"
	"github.com/sells-group/esg-engine/internal/dashboard"
	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/source"
)

var (
	sourceKind     string
	sourceFile     string
	filtersPath    string
	dimensionFlags []string
	outputFormat   string
	outputPath     string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Compute the dashboard view model",
	Long:  "Loads firms and assessments, resolves one record per firm and year, and prints population metrics, status distribution, dimension buckets and the year trend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		filters, err := loadFilters(filtersPath)
		if err != nil {
			return err
		}
		dims, err := parseDimensions(dimensionFlags)
		if err != nil {
			return err
		}

		vm, err := computeViewModel(cmd.Context(), cfg, filters, dims)
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeFn() //nolint:errcheck

		return renderDashboard(w, vm, outputFormat)
	},
}

func renderDashboard(w io.Writer, vm *dashboard.ViewModel, format string) error {
	switch format {
	case "json":
		return writeJSON(w, vm)
	case "csv":
		return writeBucketsCSV(w, vm)
	default:
		formatDashboard(w, vm)
		return nil
	}
}

// computeViewModel loads the dataset from the selected source and runs the
// engine over it.
func computeViewModel(ctx context.Context, c *config.Config, filters dashboard.Filters, dims []dashboard.Dimension) (*dashboard.ViewModel, error) {
	ds, err := loadDataset(ctx, c, filters)
	if err != nil {
		return nil, err
	}
	x := esg.NewExtractor(c.Scoring)
	return dashboard.ComputeDashboardViewModel(ds.Firms, ds.Assessments, filters, x, dims...), nil
}

// loadDataset reads from --source. The filter year range is pushed down to
// the source; resolution is per year, so this matches filtering afterwards.
func loadDataset(ctx context.Context, c *config.Config, filters dashboard.Filters) (*source.Dataset, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	src, closeSrc, err := openSource(ctx, c, sourceKind, sourceFile)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	yearFrom, yearTo := filters.YearFrom, filters.YearTo
	if yearFrom == 0 {
		yearFrom = c.Fetch.YearFrom
	}
	if yearTo == 0 {
		yearTo = c.Fetch.YearTo
	}

	ds, err := source.Load(ctx, src, source.LoadOptions{
		YearFrom:    yearFrom,
		YearTo:      yearTo,
		Concurrency: c.Fetch.MaxConcurrentFirms,
	})
	if err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}
	zap.L().Info("dataset loaded",
		zap.String("source", src.Name()),
		zap.Int("firms", len(ds.Firms)),
		zap.Int("assessments", ds.AssessmentCount()),
	)
	return ds, nil
}

func loadFilters(path string) (dashboard.Filters, error) {
	if path == "" {
		return dashboard.Filters{}, nil
	}
	return dashboard.LoadFilters(path)
}

func parseDimensions(names []string) ([]dashboard.Dimension, error) {
	dims := make([]dashboard.Dimension, 0, len(names))
	for _, n := range names {
		d, err := dashboard.ParseDimension(n)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sourceKind, "source", "store", "data source: store, api or file")
	cmd.Flags().StringVar(&sourceFile, "file", "", "snapshot JSON for --source file")
	cmd.Flags().StringVar(&filtersPath, "filters", "", "YAML filter preset")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat, "format", "table", "output format: table, csv or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write output to a file instead of stdout")
}

func init() {
	addSourceFlags(dashboardCmd)
	dashboardCmd.Flags().StringSliceVar(&dimensionFlags, "dimension", nil, "dimensions to aggregate (default: all)")
	addOutputFlags(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}

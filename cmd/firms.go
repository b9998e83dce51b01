package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/esg-engine/internal/dashboard"
)

var firmID string

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "Show per-firm ESG metrics",
	Long:  "Lists per-firm metrics across resolved years, or the year-by-year detail of one firm with --firm.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}
		filters, err := loadFilters(filtersPath)
		if err != nil {
			return err
		}

		vm, err := computeViewModel(cmd.Context(), cfg, filters, []dashboard.Dimension{dashboard.DimensionNone})
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeFn() //nolint:errcheck

		if firmID != "" {
			detail, ok := vm.FirmDetail(firmID)
			if !ok {
				return eris.Errorf("firm %q not found", firmID)
			}
			if outputFormat == "json" {
				return writeJSON(w, detail)
			}
			formatFirmDetail(w, detail)
			return nil
		}

		switch outputFormat {
		case "json":
			return writeJSON(w, vm.Firms)
		case "csv":
			return writeFirmsCSV(w, vm.Firms)
		default:
			formatFirms(w, vm.Firms)
			return nil
		}
	},
}

func formatFirms(out io.Writer, firms []dashboard.FirmMetrics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFIRM\tSECTOR\tYEARS\tLATEST\tOVERALL\tENV\tSOC\tGOV\tTIER")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----\t------\t-------\t---\t---\t---\t----")
	for _, f := range firms {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FirmID, truncate(f.FirmName, 40), truncate(f.Sector, 30), f.TotalAssessments,
			fmtInt(f.LatestYear), fmtInt(f.OverallScore),
			fmtInt(f.EnvScore), fmtInt(f.SocialScore), fmtInt(f.GovScore), f.Tier)
	}
	_ = w.Flush()
}

func formatFirmDetail(out io.Writer, d dashboard.FirmDetail) {
	_, _ = fmt.Fprintf(out, "%s (%s)\n", d.FirmName, d.FirmID)
	_, _ = fmt.Fprintf(out, "Overall %s  Tier %s  Years %d  Raw assessments %d\n\n",
		fmtInt(d.OverallScore), d.Tier, d.TotalAssessments, d.RawAssessments)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEAR\tASSESSMENT\tOVERALL\tTIER\tRESOLUTION\tCANDIDATES")
	_, _ = fmt.Fprintln(w, "----\t----------\t-------\t----\t----------\t----------")
	for _, y := range d.Years {
		res := string(y.Resolution)
		if y.Ambiguous {
			res += " (ambiguous)"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			y.Year, y.AssessmentID, fmtInt(y.OverallScore), y.Tier, res, y.Candidates)
	}
	_ = w.Flush()
}

func writeFirmsCSV(out io.Writer, firms []dashboard.FirmMetrics) error {
	w := csv.NewWriter(out)
	_ = w.Write([]string{"firm_id", "firm", "sector", "industry", "location", "years", "raw_assessments", "latest_year", "overall", "environment", "social", "governance", "tier"})
	for _, f := range firms {
		_ = w.Write([]string{
			f.FirmID, f.FirmName, f.Sector, f.Industry, f.Location,
			strconv.Itoa(f.TotalAssessments), strconv.Itoa(f.RawAssessments),
			csvInt(f.LatestYear), csvInt(f.OverallScore),
			csvInt(f.EnvScore), csvInt(f.SocialScore), csvInt(f.GovScore),
			string(f.Tier),
		})
	}
	w.Flush()
	return eris.Wrap(w.Error(), "write csv")
}

func csvInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func init() {
	addSourceFlags(firmsCmd)
	addOutputFlags(firmsCmd)
	firmsCmd.Flags().StringVar(&firmID, "firm", "", "show the year-by-year detail of one firm")
	rootCmd.AddCommand(firmsCmd)
}

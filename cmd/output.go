package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/dashboard"
	"github.com/sells-group/esg-engine/internal/esg"
)

// openOutput returns stdout for an empty path, else a created file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}

func checkFormat(format string) error {
	switch format {
	case "table", "csv", "json":
		return nil
	}
	return eris.Errorf("unknown format %q (want table, csv or json)", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode json")
	}
	return nil
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// formatDashboard renders the summary, status distribution, dimension
// buckets and year trend as aligned tables.
func formatDashboard(out io.Writer, vm *dashboard.ViewModel) {
	p := vm.Population
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POPULATION")
	_, _ = fmt.Fprintf(w, "Firms\t%d\n", p.TotalFirms)
	_, _ = fmt.Fprintf(w, "Firms with assessments\t%d\n", p.FirmsWithAssessments)
	_, _ = fmt.Fprintf(w, "Assessments\t%d\n", p.TotalAssessments)
	_, _ = fmt.Fprintf(w, "Average ESG score\t%.2f\n", p.AverageESGScore)
	_, _ = fmt.Fprintf(w, "Environment\t%.2f\n", p.EnvironmentAverage)
	_, _ = fmt.Fprintf(w, "Social\t%.2f\n", p.SocialAverage)
	_, _ = fmt.Fprintf(w, "Governance\t%.2f\n", p.GovernanceAverage)
	_, _ = fmt.Fprintf(w, "Latest year\t%s\n", fmtInt(p.LatestYear))
	if p.AmbiguousYears > 0 {
		_, _ = fmt.Fprintf(w, "Ambiguous years\t%d\n", p.AmbiguousYears)
	}
	_ = w.Flush()

	formatStatus(out, vm.StatusDistribution)
	for _, d := range vm.Dimensions {
		formatBuckets(out, d, vm.Buckets[d])
	}
	formatTrend(out, vm.YearTrend)
}

func formatStatus(out io.Writer, sd dashboard.StatusDistribution) {
	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIER\tFIRMS")
	_, _ = fmt.Fprintln(w, "----\t-----")
	for _, tc := range sd.Tiers {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", tc.Tier, tc.Firms)
	}
	_, _ = fmt.Fprintf(w, "%s\t%d\n", esg.TierNA, sd.NotAssessed)
	_ = w.Flush()
}

func formatBuckets(out io.Writer, dim dashboard.Dimension, buckets []dashboard.BucketView) {
	_, _ = fmt.Fprintf(out, "\nBY %s\n", dim)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tAVG\tFIRMS\tASSESSMENTS\tMIN\tMAX\tMEDIAN\tTIER")
	_, _ = fmt.Fprintln(w, "---\t---\t-----\t-----------\t---\t---\t------\t----")
	for _, b := range buckets {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%s\t%s\t%s\t%s\n",
			truncate(b.Key, 40), b.AverageScore, b.FirmCount, b.AssessmentCount,
			fmtFloat(b.Min), fmtFloat(b.Max), fmtFloat(b.Median), b.Tier)
	}
	_ = w.Flush()
}

func formatTrend(out io.Writer, points []dashboard.YearPoint) {
	if len(points) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEAR\tAVG\tASSESSMENTS\tFIRMS")
	_, _ = fmt.Fprintln(w, "----\t---\t-----------\t-----")
	for _, p := range points {
		_, _ = fmt.Fprintf(w, "%d\t%.2f\t%d\t%d\n", p.Year, p.AverageScore, p.Assessments, p.Firms)
	}
	_ = w.Flush()
}

// writeBucketsCSV writes one row per dimension bucket.
func writeBucketsCSV(out io.Writer, vm *dashboard.ViewModel) error {
	w := csv.NewWriter(out)
	_ = w.Write([]string{"dimension", "key", "average_score", "firm_count", "assessment_count", "min", "max", "median", "tier"})
	for _, d := range vm.Dimensions {
		for _, b := range vm.Buckets[d] {
			_ = w.Write([]string{
				string(d), b.Key,
				strconv.FormatFloat(b.AverageScore, 'f', 2, 64),
				strconv.Itoa(b.FirmCount), strconv.Itoa(b.AssessmentCount),
				csvFloat(b.Min), csvFloat(b.Max), csvFloat(b.Median),
				string(b.Tier),
			})
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "write csv")
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/esg-engine/internal/source"
)

var (
	syncYearFrom int
	syncYearTo   int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy firms and assessments from the backend API into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("year-from") {
			cfg.Fetch.YearFrom = syncYearFrom
		}
		if cmd.Flags().Changed("year-to") {
			cfg.Fetch.YearTo = syncYearTo
		}
		if err := cfg.Validate("api", "store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		_, err = source.Sync(ctx, &source.APISource{Client: initAPI(cfg)}, st, source.LoadOptions{
			YearFrom:    cfg.Fetch.YearFrom,
			YearTo:      cfg.Fetch.YearTo,
			Concurrency: cfg.Fetch.MaxConcurrentFirms,
		})
		if err != nil {
			return eris.Wrap(err, "sync")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncYearFrom, "year-from", 0, "first reporting year to sync (default from config)")
	syncCmd.Flags().IntVar(&syncYearTo, "year-to", 0, "last reporting year to sync (default from config)")
	rootCmd.AddCommand(syncCmd)
}

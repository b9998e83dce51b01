package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/importer"
)

var (
	importRosterPath   string
	importSnapshotPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a firm roster and assessment snapshot into the store",
	Long:  "Reads firms from an xlsx or csv roster and raw assessments from a JSON snapshot, then writes both to the configured store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importRosterPath == "" && importSnapshotPath == "" {
			return eris.New("at least one of --roster or --assessments is required")
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		imp, err := importer.New(st).Run(ctx, importer.Input{
			RosterPath:   importRosterPath,
			SnapshotPath: importSnapshotPath,
		})
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("import_id", imp.ID),
			zap.Int("firms", imp.Firms),
			zap.Int("assessments", imp.Assessments),
			zap.Int("rejected", imp.Rejected),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importRosterPath, "roster", "", "firm roster (.xlsx or .csv)")
	importCmd.Flags().StringVar(&importSnapshotPath, "assessments", "", "assessment snapshot (.json)")
	rootCmd.AddCommand(importCmd)
}

package importer

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/store"
)

// Input names the files of one import. Either may be empty, not both.
type Input struct {
	RosterPath   string
	SnapshotPath string
}

// Importer writes rosters and snapshots to a store.
type Importer struct {
	store store.Store
}

// New creates an Importer.
func New(st store.Store) *Importer {
	return &Importer{store: st}
}

// Run imports the input. Roster firms take precedence over snapshot firms
// with the same id. Assessments of firms that appear in neither source are
// rejected rather than stored as orphans.
func (im *Importer) Run(ctx context.Context, in Input) (*store.Import, error) {
	if in.RosterPath == "" && in.SnapshotPath == "" {
		return nil, eris.New("importer: nothing to import")
	}
	log := zap.L().With(zap.String("roster", in.RosterPath), zap.String("snapshot", in.SnapshotPath))

	var (
		firms    []model.Firm
		rejected []store.ImportError
		byFirm   map[string][]model.RawAssessment
	)
	if in.RosterPath != "" {
		roster, err := ReadRoster(in.RosterPath)
		if err != nil {
			return nil, err
		}
		firms = roster.Firms
		rejected = append(rejected, roster.Rejected...)
	}
	if in.SnapshotPath != "" {
		snap, err := LoadSnapshot(in.SnapshotPath)
		if err != nil {
			return nil, err
		}
		firms = mergeFirms(firms, snap.Firms)
		byFirm = snap.Assessments
	}

	known := make(map[string]bool, len(firms))
	for _, f := range firms {
		known[f.ID] = true
	}

	if _, err := im.store.UpsertFirms(ctx, firms); err != nil {
		return nil, eris.Wrap(err, "importer: save firms")
	}

	var saved int
	for _, firmID := range slices.Sorted(maps.Keys(byFirm)) {
		list := byFirm[firmID]
		if !known[firmID] {
			rejected = append(rejected, store.ImportError{FirmID: firmID, Reason: "assessments for unknown firm"})
			log.Warn("importer: skipping assessments for unknown firm",
				zap.String("firm_id", firmID), zap.Int("assessments", len(list)))
			continue
		}
		n, err := im.store.SaveAssessments(ctx, firmID, list)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: save assessments for %s", firmID)
		}
		saved += n
	}

	imp, err := im.store.CreateImport(ctx, store.Import{
		Source:      sourceLabel(in),
		Firms:       len(firms),
		Assessments: saved,
		Rejected:    len(rejected),
	})
	if err != nil {
		return nil, eris.Wrap(err, "importer: record import")
	}
	if err := im.store.RecordImportErrors(ctx, imp.ID, rejected); err != nil {
		return nil, eris.Wrap(err, "importer: record rejected rows")
	}

	log.Info("importer: import complete",
		zap.String("import_id", imp.ID),
		zap.Int("firms", imp.Firms),
		zap.Int("assessments", imp.Assessments),
		zap.Int("rejected", imp.Rejected),
	)
	return imp, nil
}

// mergeFirms appends snapshot firms whose ids the roster does not carry.
func mergeFirms(roster, snapshot []model.Firm) []model.Firm {
	seen := make(map[string]bool, len(roster))
	for _, f := range roster {
		seen[f.ID] = true
	}
	out := slices.Clone(roster)
	for _, f := range snapshot {
		if f.ID == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}

func sourceLabel(in Input) string {
	switch {
	case in.RosterPath != "" && in.SnapshotPath != "":
		return filepath.Base(in.RosterPath) + "+" + filepath.Base(in.SnapshotPath)
	case in.RosterPath != "":
		return filepath.Base(in.RosterPath)
	default:
		return filepath.Base(in.SnapshotPath)
	}
}

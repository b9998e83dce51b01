package source

import (
	"context"
	"maps"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/store"
)

// Sync copies firms and assessments from src into st and records the batch
// as an import. When a year range is set, stored assessments outside it are
// kept and only in-range years are replaced. Firms whose fetch failed are
// left untouched and reported as rejected.
func Sync(ctx context.Context, src Source, st store.Store, opts LoadOptions) (*store.Import, error) {
	opts.ContinueOnError = true
	ds, err := Load(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	if _, err := st.UpsertFirms(ctx, ds.Firms); err != nil {
		return nil, eris.Wrap(err, "source: sync firms")
	}

	failed := make(map[string]bool, len(ds.Failed))
	var rejected []store.ImportError
	for _, id := range ds.Failed {
		failed[id] = true
		rejected = append(rejected, store.ImportError{FirmID: id, Reason: "fetch assessments failed"})
	}

	ranged := opts.YearFrom > 0 || opts.YearTo > 0
	var saved int
	for _, f := range ds.Firms {
		if failed[f.ID] {
			continue
		}
		list := ds.Assessments[f.ID]
		if ranged {
			kept, err := outOfRange(ctx, st, f.ID, opts.YearFrom, opts.YearTo)
			if err != nil {
				return nil, err
			}
			list = append(kept, list...)
		}
		n, err := st.SaveAssessments(ctx, f.ID, list)
		if err != nil {
			return nil, eris.Wrapf(err, "source: sync assessments for %s", f.ID)
		}
		saved += n
	}

	known := make(map[string]bool, len(ds.Firms))
	for _, f := range ds.Firms {
		known[f.ID] = true
	}
	for _, id := range slices.Sorted(maps.Keys(ds.Assessments)) {
		if !known[id] {
			rejected = append(rejected, store.ImportError{FirmID: id, Reason: "assessments for unknown firm"})
		}
	}

	imp, err := st.CreateImport(ctx, store.Import{
		Source:      "sync:" + src.Name(),
		Firms:       len(ds.Firms),
		Assessments: saved,
		Rejected:    len(rejected),
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: record sync")
	}
	if err := st.RecordImportErrors(ctx, imp.ID, rejected); err != nil {
		return nil, eris.Wrap(err, "source: record sync failures")
	}

	zap.L().Info("source: sync complete",
		zap.String("import_id", imp.ID),
		zap.String("source", src.Name()),
		zap.Int("firms", imp.Firms),
		zap.Int("assessments", imp.Assessments),
		zap.Int("rejected", imp.Rejected),
	)
	return imp, nil
}

// outOfRange returns the stored assessments of a firm that a ranged sync
// must preserve. Records without a usable year are preserved too.
func outOfRange(ctx context.Context, st store.Store, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error) {
	byFirm, err := st.ListAssessments(ctx, store.AssessmentFilter{FirmID: firmID})
	if err != nil {
		return nil, eris.Wrapf(err, "source: read stored assessments for %s", firmID)
	}
	var kept []model.RawAssessment
	for _, a := range byFirm[firmID] {
		y, ok := a.ReportingYear()
		if ok && (yearFrom <= 0 || y >= yearFrom) && (yearTo <= 0 || y <= yearTo) {
			continue
		}
		kept = append(kept, a)
	}
	return kept, nil
}

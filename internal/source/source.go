// Package source loads firms and raw assessments from the store, the
// backend API or a snapshot file.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/importer"
	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/store"
	"github.com/sells-group/esg-engine/pkg/esgapi"
)

// Source reads firms and the raw assessments of one firm.
type Source interface {
	Name() string
	ListFirms(ctx context.Context) ([]model.Firm, error)
	ListAssessments(ctx context.Context, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error)
}

// BulkSource can return every firm's assessments in one call. Load prefers
// it over per-firm fan-out.
type BulkSource interface {
	Source
	AllAssessments(ctx context.Context, yearFrom, yearTo int) (map[string][]model.RawAssessment, error)
}

// StoreSource reads from a store.Store.
type StoreSource struct {
	Store store.Store
}

// Name implements Source.
func (s *StoreSource) Name() string { return "store" }

// ListFirms implements Source.
func (s *StoreSource) ListFirms(ctx context.Context) ([]model.Firm, error) {
	return s.Store.ListFirms(ctx)
}

// ListAssessments implements Source.
func (s *StoreSource) ListAssessments(ctx context.Context, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error) {
	byFirm, err := s.Store.ListAssessments(ctx, store.AssessmentFilter{FirmID: firmID, YearFrom: yearFrom, YearTo: yearTo})
	if err != nil {
		return nil, err
	}
	return byFirm[firmID], nil
}

// AllAssessments implements BulkSource.
func (s *StoreSource) AllAssessments(ctx context.Context, yearFrom, yearTo int) (map[string][]model.RawAssessment, error) {
	return s.Store.ListAssessments(ctx, store.AssessmentFilter{YearFrom: yearFrom, YearTo: yearTo})
}

// APISource reads from the backend REST API.
type APISource struct {
	Client esgapi.Client
}

// Name implements Source.
func (s *APISource) Name() string { return "api" }

// ListFirms implements Source.
func (s *APISource) ListFirms(ctx context.Context) ([]model.Firm, error) {
	return s.Client.ListFirms(ctx)
}

// ListAssessments implements Source.
func (s *APISource) ListAssessments(ctx context.Context, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error) {
	return s.Client.ListAssessments(ctx, firmID, yearFrom, yearTo)
}

// FileSource serves a snapshot held in memory.
type FileSource struct {
	Path     string
	Snapshot *importer.Snapshot
}

// OpenFile loads the snapshot at path.
func OpenFile(path string) (*FileSource, error) {
	snap, err := importer.LoadSnapshot(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open file")
	}
	return &FileSource{Path: path, Snapshot: snap}, nil
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// ListFirms implements Source.
func (s *FileSource) ListFirms(_ context.Context) ([]model.Firm, error) {
	return s.Snapshot.Firms, nil
}

// ListAssessments implements Source.
func (s *FileSource) ListAssessments(_ context.Context, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error) {
	return filterYears(s.Snapshot.Assessments[firmID], yearFrom, yearTo), nil
}

// AllAssessments implements BulkSource.
func (s *FileSource) AllAssessments(_ context.Context, yearFrom, yearTo int) (map[string][]model.RawAssessment, error) {
	out := make(map[string][]model.RawAssessment, len(s.Snapshot.Assessments))
	for id, list := range s.Snapshot.Assessments {
		if kept := filterYears(list, yearFrom, yearTo); len(kept) > 0 {
			out[id] = kept
		}
	}
	return out, nil
}

// filterYears keeps the records whose reporting year is inside the range.
// Records without a usable year are dropped once any bound is set.
func filterYears(list []model.RawAssessment, yearFrom, yearTo int) []model.RawAssessment {
	if yearFrom <= 0 && yearTo <= 0 {
		return list
	}
	out := make([]model.RawAssessment, 0, len(list))
	for i := range list {
		y, ok := list[i].ReportingYear()
		if !ok || (yearFrom > 0 && y < yearFrom) || (yearTo > 0 && y > yearTo) {
			continue
		}
		out = append(out, list[i])
	}
	return out
}

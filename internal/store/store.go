// Package store persists firms, raw assessments and import batches.
package store

import (
	"context"
	"time"

	"github.com/sells-group/esg-engine/internal/model"
)

// AssessmentFilter narrows ListAssessments. Zero values are open. Year
// bounds apply to the parsed reporting year; records without one are
// excluded whenever a bound is set.
type AssessmentFilter struct {
	FirmID   string `json:"firm_id,omitempty"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
}

// Import records one import or sync batch.
type Import struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Firms       int       `json:"firms"`
	Assessments int       `json:"assessments"`
	Rejected    int       `json:"rejected"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImportError is one input row an import skipped.
type ImportError struct {
	Row    int    `json:"row"`
	FirmID string `json:"firm_id,omitempty"`
	Reason string `json:"reason"`
}

// Store defines the persistence interface for firms and assessments.
type Store interface {
	// Firms
	UpsertFirms(ctx context.Context, firms []model.Firm) (int, error)
	ListFirms(ctx context.Context) ([]model.Firm, error)
	GetFirm(ctx context.Context, id string) (*model.Firm, error)

	// Assessments. SaveAssessments replaces every stored assessment of the
	// firm and keeps the given order, which year resolution relies on.
	SaveAssessments(ctx context.Context, firmID string, assessments []model.RawAssessment) (int, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) (map[string][]model.RawAssessment, error)

	// Imports
	CreateImport(ctx context.Context, imp Import) (*Import, error)
	RecordImportErrors(ctx context.Context, importID string, errs []ImportError) error
	ListImports(ctx context.Context, limit int) ([]Import, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// assessmentRow is the column form of one assessment.
type assessmentRow struct {
	id      string
	firmID  string
	seq     int
	year    *int
	payload []byte
}

// firmRow holds the indexed columns stored alongside the firm payload.
type firmRow struct {
	id       string
	name     string
	sector   string
	industry string
	size     string
	location string
	payload  []byte
}

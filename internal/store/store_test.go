package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-engine/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ptrBool(v bool) *bool { return &v }

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("UpsertAndListFirms", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n, err := s.UpsertFirms(ctx, []model.Firm{
			{ID: "f2", Name: "Zenith", Sector: "Energy"},
			{ID: "f1", Name: "Acme", Sector: "Tech", Address: &model.Address{Location: "Lagos"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		firms, err := s.ListFirms(ctx)
		require.NoError(t, err)
		require.Len(t, firms, 2)
		assert.Equal(t, "Acme", firms[0].Name)
		require.NotNil(t, firms[0].Address)
		assert.Equal(t, "Lagos", firms[0].Location())

		_, err = s.UpsertFirms(ctx, []model.Firm{{ID: "f1", Name: "Acme Ltd", Sector: "Tech"}})
		require.NoError(t, err)
		got, err := s.GetFirm(ctx, "f1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Acme Ltd", got.Name)

		firms, err = s.ListFirms(ctx)
		require.NoError(t, err)
		assert.Len(t, firms, 2)
	})

	t.Run("GetFirmMissing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetFirm(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("UpsertFirmWithoutID", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpsertFirms(context.Background(), []model.Firm{{Name: "No ID"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "firm without id")
	})

	t.Run("SaveAssessmentsKeepsOrderAndPayload", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := []model.RawAssessment{
			{ID: "b", Year: model.NewYear(2024), Score: model.ScoreFromMap(map[string]any{"total_score": 150})},
			{ID: "a", Year: model.NewYear(2024), IsSelected: ptrBool(true), SubmittedAt: "2024-02-01T00:00:00Z"},
			{Year: model.YearString("FY23")},
		}
		n, err := s.SaveAssessments(ctx, "f1", in)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		got, err := s.ListAssessments(ctx, AssessmentFilter{})
		require.NoError(t, err)
		require.Len(t, got["f1"], 3)
		assert.Equal(t, "b", got["f1"][0].ID)
		assert.Equal(t, "a", got["f1"][1].ID)
		assert.NotEmpty(t, got["f1"][2].ID)
		assert.Equal(t, "f1", got["f1"][0].FirmID)
		assert.True(t, got["f1"][1].Selected())
		assert.Equal(t, "FY23", got["f1"][2].Year.String())
		v, ok := got["f1"][0].Score.Number("total_score")
		require.True(t, ok)
		assert.Equal(t, 150.0, v)
	})

	t.Run("SaveAssessmentsReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.SaveAssessments(ctx, "f1", []model.RawAssessment{{ID: "old", Year: model.NewYear(2022)}})
		require.NoError(t, err)
		_, err = s.SaveAssessments(ctx, "f2", []model.RawAssessment{{ID: "other", Year: model.NewYear(2022)}})
		require.NoError(t, err)
		_, err = s.SaveAssessments(ctx, "f1", []model.RawAssessment{{ID: "new", Year: model.NewYear(2023)}})
		require.NoError(t, err)

		got, err := s.ListAssessments(ctx, AssessmentFilter{FirmID: "f1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Len(t, got["f1"], 1)
		assert.Equal(t, "new", got["f1"][0].ID)
	})

	t.Run("ListAssessmentsYearRange", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.SaveAssessments(ctx, "f1", []model.RawAssessment{
			{ID: "y21", Year: model.NewYear(2021)},
			{ID: "y22", AssessmentYear: model.YearString("2022")},
			{ID: "y24", Year: model.NewYear(2024)},
			{ID: "none"},
		})
		require.NoError(t, err)

		got, err := s.ListAssessments(ctx, AssessmentFilter{YearFrom: 2022, YearTo: 2023})
		require.NoError(t, err)
		require.Len(t, got["f1"], 1)
		assert.Equal(t, "y22", got["f1"][0].ID)

		got, err = s.ListAssessments(ctx, AssessmentFilter{YearFrom: 2022})
		require.NoError(t, err)
		assert.Len(t, got["f1"], 2)
	})

	t.Run("Imports", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		imp, err := s.CreateImport(ctx, Import{Source: "roster.xlsx", Firms: 3, Assessments: 7, Rejected: 1})
		require.NoError(t, err)
		assert.NotEmpty(t, imp.ID)
		assert.False(t, imp.CreatedAt.IsZero())

		require.NoError(t, s.RecordImportErrors(ctx, imp.ID, []ImportError{{Row: 4, Reason: "missing firm id"}}))
		require.NoError(t, s.RecordImportErrors(ctx, imp.ID, nil))

		list, err := s.ListImports(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "roster.xlsx", list[0].Source)
		assert.Equal(t, 7, list[0].Assessments)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

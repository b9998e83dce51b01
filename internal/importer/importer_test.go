package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "esg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"First":  {{"a", "b"}},
		"Second": {{"x", "y"}, {"1", "2"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Second", SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, rows)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestParseRoster(t *testing.T) {
	rows := [][]string{
		{"Firm ID", "Firm", "Sector", "Industry", "Business-Size", "Location", "City", "Notes"},
		{"f1", "Acme", "Tech", "Software: SaaS", "Small", "Lagos", "", "ignored"},
		{"", "No Id", "Tech"},
		{"f2", "Beta", "Energy", "Oil", "Large", "", "Abuja"},
		{"", "", ""},
		{"f1", "Acme Again"},
		{"f3"},
	}

	r, err := ParseRoster(rows)
	require.NoError(t, err)
	require.Len(t, r.Firms, 3)

	assert.Equal(t, "Acme", r.Firms[0].Name)
	assert.Equal(t, "Software", r.Firms[0].IndustryCategory())
	assert.Equal(t, "Small", r.Firms[0].BusinessSize)
	assert.Equal(t, "Lagos", r.Firms[0].Location())
	assert.Nil(t, r.Firms[0].Address)

	require.NotNil(t, r.Firms[1].Address)
	assert.Equal(t, "Abuja", r.Firms[1].Address.City)
	assert.Equal(t, "f3", r.Firms[2].ID)

	require.Len(t, r.Rejected, 2)
	assert.Equal(t, store.ImportError{Row: 3, Reason: "missing firm id"}, r.Rejected[0])
	assert.Equal(t, 6, r.Rejected[1].Row)
	assert.Equal(t, "f1", r.Rejected[1].FirmID)
	assert.Contains(t, r.Rejected[1].Reason, "first on row 2")
}

func TestParseRoster_Errors(t *testing.T) {
	_, err := ParseRoster(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roster is empty")

	_, err = ParseRoster([][]string{{"Name", "Sector"}, {"Acme", "Tech"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id column")
}

func TestReadRoster(t *testing.T) {
	xlsxPath := createTestXLSX(t, map[string][][]string{
		"Firms": {{"id", "name", "sector"}, {"f1", "Acme", "Tech"}},
	})
	r, err := ReadRoster(xlsxPath)
	require.NoError(t, err)
	require.Len(t, r.Firms, 1)
	assert.Equal(t, "Acme", r.Firms[0].Name)

	csvPath := writeFile(t, "roster.csv", "\ufeffid,firm,sector\nf1, Acme ,Tech\nf2,Beta\n")
	r, err = ReadRoster(csvPath)
	require.NoError(t, err)
	require.Len(t, r.Firms, 2)
	assert.Equal(t, "Acme", r.Firms[0].Name)
	assert.Equal(t, "", r.Firms[1].Sector)

	_, err = ReadRoster(writeFile(t, "roster.txt", "id\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported roster format")
}

func TestReadSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		firms   int
		byFirm  map[string]int
		wantErr string
	}{
		{
			name:   "keyed by firm",
			doc:    `{"firms":[{"id":"f1"}],"assessments":{"f1":[{"id":"a","year":2023},{"id":"b","year":"2024"}]}}`,
			firms:  1,
			byFirm: map[string]int{"f1": 2},
		},
		{
			name:   "flat list",
			doc:    `{"assessments":[{"id":"a","firm_id":"f1"},{"id":"b","firm_id":"f2"},{"id":"c","firm_id":"f1"}]}`,
			byFirm: map[string]int{"f1": 2, "f2": 1},
		},
		{
			name:   "no assessments",
			doc:    `{"firms":[{"id":"f1"},{"id":"f2"}]}`,
			firms:  2,
			byFirm: map[string]int{},
		},
		{
			name:    "scalar assessments",
			doc:     `{"assessments": 3}`,
			wantErr: "must be an object or an array",
		},
		{
			name:    "broken json",
			doc:     `{"firms": [`,
			wantErr: "decode snapshot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := ReadSnapshot(strings.NewReader(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snap.Firms, tt.firms)
			assert.Len(t, snap.Assessments, len(tt.byFirm))
			for id, n := range tt.byFirm {
				assert.Len(t, snap.Assessments[id], n, id)
			}
		})
	}
}

func TestReadSnapshot_KeyedFillsFirmID(t *testing.T) {
	snap, err := ReadSnapshot(strings.NewReader(`{"assessments":{"f9":[{"id":"a"},{"id":"b"}]}}`))
	require.NoError(t, err)
	require.Len(t, snap.Assessments["f9"], 2)
	assert.Equal(t, "f9", snap.Assessments["f9"][0].FirmID)
	assert.Equal(t, "b", snap.Assessments["f9"][1].ID)
}

func TestImporter_Run(t *testing.T) {
	st := newTestStore(t)
	roster := createTestXLSX(t, map[string][][]string{
		"Firms": {
			{"id", "firm", "sector"},
			{"f1", "Acme", "Tech"},
			{"", "Nameless"},
		},
	})
	snapshot := writeFile(t, "snapshot.json", `{
		"firms": [{"id": "f1", "firm": "Ignored"}, {"id": "f2", "firm": "Beta"}],
		"assessments": {
			"f1": [{"id": "a1", "year": 2023, "score": {"total_score": 150}}],
			"f2": [{"id": "b1", "year": 2024}, {"id": "b2", "year": 2024, "is_selected": true}],
			"ghost": [{"id": "g1", "year": 2024}]
		}
	}`)

	imp, err := New(st).Run(context.Background(), Input{RosterPath: roster, SnapshotPath: snapshot})
	require.NoError(t, err)
	assert.Equal(t, 2, imp.Firms)
	assert.Equal(t, 3, imp.Assessments)
	assert.Equal(t, 2, imp.Rejected)
	assert.Equal(t, "roster.xlsx+snapshot.json", imp.Source)

	ctx := context.Background()
	firms, err := st.ListFirms(ctx)
	require.NoError(t, err)
	require.Len(t, firms, 2)
	assert.Equal(t, "Acme", firms[0].Name)
	assert.Equal(t, "Beta", firms[1].Name)

	byFirm, err := st.ListAssessments(ctx, store.AssessmentFilter{})
	require.NoError(t, err)
	assert.Len(t, byFirm["f2"], 2)
	assert.Equal(t, "b1", byFirm["f2"][0].ID)
	assert.Empty(t, byFirm["ghost"])

	imports, err := st.ListImports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
}

func TestImporter_RunNothing(t *testing.T) {
	_, err := New(newTestStore(t)).Run(context.Background(), Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to import")
}

func TestMergeFirms(t *testing.T) {
	roster := []model.Firm{{ID: "a", Name: "Roster A"}}
	snap := []model.Firm{{ID: "a", Name: "Snap A"}, {ID: "b"}, {ID: ""}, {ID: "b", Name: "dup"}}
	got := mergeFirms(roster, snap)
	require.Len(t, got, 2)
	assert.Equal(t, "Roster A", got[0].Name)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "", got[1].Name)
}

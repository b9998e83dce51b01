package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-engine/internal/dashboard"
	"github.com/sells-group/esg-engine/internal/esg"
)

func testViewModel() *dashboard.ViewModel {
	ds := testDataset()
	return dashboard.ComputeDashboardViewModel(ds.Firms, ds.Assessments, dashboard.Filters{}, nil,
		dashboard.DimensionSector, dashboard.DimensionStatus)
}

func TestFormatDashboard(t *testing.T) {
	var buf bytes.Buffer
	formatDashboard(&buf, testViewModel())
	out := buf.String()

	assert.Contains(t, out, "POPULATION")
	assert.Contains(t, out, "Average ESG score")
	assert.Contains(t, out, "40.00")
	assert.Contains(t, out, "Latest year")
	assert.Contains(t, out, "2024")
	assert.Contains(t, out, "BY sector")
	assert.Contains(t, out, "BY status")
	assert.Contains(t, out, "INTERMEDIATE")
	assert.Contains(t, out, "YEAR")
	assert.NotContains(t, out, "Ambiguous years")
}

func TestFormatDashboard_Empty(t *testing.T) {
	vm := dashboard.ComputeDashboardViewModel(nil, nil, dashboard.Filters{}, nil)
	var buf bytes.Buffer
	formatDashboard(&buf, vm)
	out := buf.String()
	assert.Contains(t, out, "0.00")
	assert.Contains(t, out, "KEY")
	assert.NotContains(t, out, "YEAR")
}

func TestWriteBucketsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBucketsCSV(&buf, testViewModel()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "dimension", rows[0][0])
	assert.Equal(t, []string{"sector", "Tech", "60.00", "1", "1", "60.00", "60.00", "60.00", string(esg.TierIntermediate)}, rows[1])
}

func TestRenderDashboard_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderDashboard(&buf, testViewModel(), "json"))
	assert.Contains(t, buf.String(), `"averageESGScore": 40`)
	assert.Contains(t, buf.String(), `"statusDistribution"`)
}

func TestFormatFirms(t *testing.T) {
	vm := testViewModel()
	var buf bytes.Buffer
	formatFirms(&buf, vm.Firms)
	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Gamma")
	assert.Contains(t, out, "TIER")

	buf.Reset()
	require.NoError(t, writeFirmsCSV(&buf, vm.Firms))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestFormatFirmDetail(t *testing.T) {
	detail, ok := testViewModel().FirmDetail("a")
	require.True(t, ok)

	var buf bytes.Buffer
	formatFirmDetail(&buf, detail)
	out := buf.String()
	assert.Contains(t, out, "Alpha (a)")
	assert.Contains(t, out, "2023")
	assert.Contains(t, out, "a-2023")
}

func TestOpenOutput(t *testing.T) {
	w, closeFn, err := openOutput("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	require.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "out.txt")
	w, closeFn, err = openOutput(path)
	require.NoError(t, err)
	_, _ = w.Write([]byte("hello"))
	require.NoError(t, closeFn())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, _, err = openOutput(filepath.Join(t.TempDir(), "missing", "out.txt"))
	assert.Error(t, err)
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"table", "csv", "json"} {
		assert.NoError(t, checkFormat(f))
	}
	assert.Error(t, checkFormat("xml"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	assert.Len(t, got, 10)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFmtHelpers(t *testing.T) {
	v := 12.345
	n := 7
	assert.Equal(t, "12.35", fmtFloat(&v))
	assert.Equal(t, "-", fmtFloat(nil))
	assert.Equal(t, "7", fmtInt(&n))
	assert.Equal(t, "-", fmtInt(nil))
	assert.Equal(t, "", csvFloat(nil))
	assert.Equal(t, "", csvInt(nil))
}

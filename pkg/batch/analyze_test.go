package batch

import(
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/emath"
	"github.com/abworrall/skycolor/pkg/frameio"
)

// roofClosed has dark corners and a bright center block
func roofClosed(w, h int) emath.Plane {
	p := emath.NewUniformPlane(w, h, 0.01)
	for y := h/3; y < 2*h/3; y++ {
		for x := w/3; x < 2*w/3; x++ {
			p.Set(x, y, 0.3)
		}
	}
	return p
}

// writeCapture writes lum_<id>.tif and raw_<id>.tif into dir
func writeCapture(t *testing.T, dir, id string, lum emath.Plane) Pair {
	t.Helper()
	p := Pair{ID: id, LumPath: filepath.Join(dir, LumPrefix+id+".tif"), ColorPath: filepath.Join(dir, ColorPrefix+id+".tif")}
	require.NoError(t, frameio.WriteTIFF16([]emath.Plane{lum}, p.LumPath))
	require.NoError(t, frameio.WriteTIFF16([]emath.Plane{lum, lum, lum}, p.ColorPath))
	return p
}

func TestAnalyzeModes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeCapture(t, dir, "20240101_000000", roofClosed(200, 200))
	writeCapture(t, dir, "20240101_120000", emath.NewUniformPlane(200, 200, 0.5))
	writeCapture(t, dir, "20240101_180000", emath.NewUniformPlane(60, 60, 0.5))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lum_notes.txt"), nil, 0644))

	files, err := LumFiles(dir, 0)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "20240101_180000", IDFromPath(files[0]))

	th := colorize.DefaultThresholds()
	rows, err := AnalyzeModes(context.Background(), files, th, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, ModeError, rows[0].Mode(), "too small for corner ROIs")
	assert.ErrorIs(t, rows[0].Err, colorize.ErrImageTooSmall)
	assert.Equal(t, string(colorize.DayRoofOpen), rows[1].Mode())
	assert.Equal(t, string(colorize.NightRoofClosed), rows[2].Mode())
	assert.InDelta(t, 0.01, rows[2].CornerBias, 1.0/65535)

	var buf bytes.Buffer
	require.NoError(t, WriteAnalysisCSV(&buf, rows, th))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, analysisColumns, recs[0])
	for _, rec := range recs[1:] {
		assert.Len(t, rec, len(analysisColumns))
	}
	assert.Equal(t, ModeError, recs[1][1])
	assert.Equal(t, "0.550000", recs[3][len(analysisColumns)-5])

	sums := SummarizeModes(rows, th)
	require.Len(t, sums, 3)
	assert.Equal(t, "DAY_ROOF_OPEN", sums[0].Mode)
	assert.Equal(t, ModeError, sums[1].Mode)
	assert.Equal(t, "NIGHT_ROOF_CLOSED", sums[2].Mode)
	assert.Equal(t, 1, sums[2].Count)
	assert.Contains(t, sums[1].String(), "n=1")

	assert.NotPanics(t, func() { RatioHistogram(rows) })

	plotFile := filepath.Join(t.TempDir(), "modes.png")
	require.NoError(t, PlotModes(rows, th, plotFile))
	_, err = os.Stat(plotFile)
	assert.NoError(t, err)
}

func TestPlotModes_NoFrames(t *testing.T) {
	t.Parallel()
	err := PlotModes([]AnalysisRow{{Err: assert.AnError}}, colorize.DefaultThresholds(), filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestBoundaryFlags(t *testing.T) {
	t.Parallel()
	th := colorize.DefaultThresholds()

	tests := []struct {
		name  string
		stats colorize.ModeStats
		want  []string
	}{
		{"far from everything", colorize.ModeStats{P50: 0.5, P99: 0.9, CornerToCenterRatio: 1.0, CenterMinusCorner: 0.2}, []string{}},
		{"near day p50", colorize.ModeStats{P50: 0.11, P99: 0.9, CornerToCenterRatio: 1.0, CenterMinusCorner: 0.2}, []string{"near_day_night_boundary"}},
		{"near ratio and delta", colorize.ModeStats{P50: 0.5, P99: 0.9, CornerToCenterRatio: 0.52, CenterMinusCorner: 0.021}, []string{"near_ratio_boundary", "near_delta_boundary"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BoundaryFlags(tt.stats, th))
		})
	}
}

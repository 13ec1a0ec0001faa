package batch

import(
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/skypies/util/histogram"
	"golang.org/x/sync/errgroup"

	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/frameio"
)

// ModeError is the mode column of a row whose file could not be analyzed.
const ModeError = "ERROR"

// An AnalysisRow is the classifier's view of one luminance file.
type AnalysisRow struct {
	Key         string
	File        string
	Info        colorize.ModeInfo
	CornerBias  float64
	CornerSigma float64
	Err         error
}

func (r AnalysisRow)Mode() string {
	if r.Err != nil {
		return ModeError
	}
	return string(r.Info.Mode)
}

// AnalyzeFile normalizes one luminance file, estimates the corner
// background and classifies it.
func AnalyzeFile(file string, th colorize.Thresholds) AnalysisRow {
	row := AnalysisRow{Key: IDFromPath(file), File: file}

	l, err := frameio.Load(file)
	if err != nil {
		row.Err = err
		return row
	}
	lum, _, err := l.Raw.NormalizeMono()
	if err != nil {
		row.Err = fmt.Errorf("'%s': %w", file, err)
		return row
	}
	cs, err := colorize.EstimateBiasSigma(lum, th.CornerROI, th.CornerMargin)
	if err != nil {
		row.Err = fmt.Errorf("'%s': %w", file, err)
		return row
	}
	row.CornerBias, row.CornerSigma = cs.Bias, cs.Sigma
	row.Info = colorize.ClassifyMode(lum, th)
	return row
}

// AnalyzeModes classifies every file, in parallel. Rows come back in
// the order of `files`.
func AnalyzeModes(ctx context.Context, files []string, th colorize.Thresholds, workers int) ([]AnalysisRow, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	rows := make([]AnalysisRow, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = AnalyzeFile(f, th)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// LumFiles lists the luminance files (lum_*) in a directory, newest first.
func LumFiles(dir string, limit int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, LumPrefix+"*"))
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, m := range matches {
		if frameio.IsSupported(m) {
			files = append(files, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

var analysisColumns = []string{
	"key", "mode", "is_day", "is_closed", "very_dark_frame",
	"p1", "p10", "p50", "p90", "p99", "dynamic_range",
	"corner_med", "corner_p90", "corner_bias", "corner_sigma",
	"center_med", "center_p90", "corner_center_ratio", "center_minus_corner",
	"reason", "error", "file",
	"thresh_day_p50", "thresh_day_p99", "thresh_closed_ratio", "thresh_closed_delta",
	"thresh_corner_roi", "thresh_corner_margin", "thresh_center_frac",
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// WriteAnalysisCSV writes one row per file, with the thresholds used
// repeated on every row so a CSV stands on its own.
func WriteAnalysisCSV(out io.Writer, rows []AnalysisRow, th colorize.Thresholds) error {
	w := csv.NewWriter(out)
	if err := w.Write(analysisColumns); err != nil {
		return err
	}

	thresh := []string{ff(th.DayP50), ff(th.DayP99), ff(th.ClosedRatio), ff(th.ClosedDelta),
		strconv.Itoa(th.CornerROI), strconv.Itoa(th.CornerMargin), ff(th.CenterFrac)}

	for _, r := range rows {
		var rec []string
		if r.Err != nil {
			rec = []string{r.Key, ModeError, "", "", ""}
			for i := 0; i < 14; i++ {
				rec = append(rec, "")
			}
			rec = append(rec, "", r.Err.Error(), r.File)
		} else {
			s := r.Info.Stats
			rec = []string{
				r.Key, r.Mode(),
				strconv.FormatBool(s.IsDay), strconv.FormatBool(s.IsClosed), strconv.FormatBool(s.VeryDarkFrame),
				ff(s.P1), ff(s.P10), ff(s.P50), ff(s.P90), ff(s.P99), ff(s.DynamicRange),
				ff(s.CornerMed), ff(s.CornerP90), ff(r.CornerBias), ff(r.CornerSigma),
				ff(s.CenterMed), ff(s.CenterP90), ff(s.CornerToCenterRatio), ff(s.CenterMinusCorner),
				r.Info.Reason, "", r.File,
			}
		}
		if err := w.Write(append(rec, thresh...)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// BoundaryFlags names the thresholds a frame sits close to; these are
// the frames worth eyeballing when tuning.
func BoundaryFlags(s colorize.ModeStats, th colorize.Thresholds) []string {
	flags := []string{}
	if math.Abs(s.P50-th.DayP50) <= 0.02 || math.Abs(s.P99-th.DayP99) <= 0.05 {
		flags = append(flags, "near_day_night_boundary")
	}
	if math.Abs(s.CornerToCenterRatio-th.ClosedRatio) <= 0.05 {
		flags = append(flags, "near_ratio_boundary")
	}
	if math.Abs(s.CenterMinusCorner-th.ClosedDelta) <= 0.005 {
		flags = append(flags, "near_delta_boundary")
	}
	return flags
}

// RatioHistogram buckets the corner/center ratio of every classified
// frame, in hundredths (clamped to [0,150)), so the spread either side
// of closed_ratio can be eyeballed.
func RatioHistogram(rows []AnalysisRow) histogram.Histogram {
	h := histogram.Histogram{NumBuckets: 50, ValMin: 0, ValMax: 150}
	for _, r := range rows {
		if r.Err != nil {
			continue
		}
		v := int(math.Round(r.Info.Stats.CornerToCenterRatio * 100))
		if v < 0   { v = 0 }
		if v > 149 { v = 149 }
		h.Add(histogram.ScalarVal(v))
	}
	return h
}

// A Range is the min/max/mean of one statistic over a set of frames.
type Range struct {
	Min, Max, Mean float64
	n              int
}

func (r *Range)add(v float64) {
	if r.n == 0 || v < r.Min { r.Min = v }
	if r.n == 0 || v > r.Max { r.Max = v }
	r.Mean = (r.Mean*float64(r.n) + v) / float64(r.n+1)
	r.n++
}

type ModeSummary struct {
	Mode                      string
	Count                     int
	Ratio, Delta, P50, P99    Range
	NearBoundary              map[string]int
}

// SummarizeModes groups the rows by mode, sorted by mode name. Error
// rows are counted under ModeError, with no ranges.
func SummarizeModes(rows []AnalysisRow, th colorize.Thresholds) []ModeSummary {
	byMode := map[string]*ModeSummary{}
	for _, r := range rows {
		m := r.Mode()
		ms, exists := byMode[m]
		if !exists {
			ms = &ModeSummary{Mode: m, NearBoundary: map[string]int{}}
			byMode[m] = ms
		}
		ms.Count++
		if r.Err != nil {
			continue
		}
		s := r.Info.Stats
		ms.Ratio.add(s.CornerToCenterRatio)
		ms.Delta.add(s.CenterMinusCorner)
		ms.P50.add(s.P50)
		ms.P99.add(s.P99)
		for _, f := range BoundaryFlags(s, th) {
			ms.NearBoundary[f]++
		}
	}

	ret := []ModeSummary{}
	for _, ms := range byMode {
		ret = append(ret, *ms)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Mode < ret[j].Mode })
	return ret
}

func (ms ModeSummary)String() string {
	if ms.Mode == ModeError {
		return fmt.Sprintf("%-26s n=%d", ms.Mode, ms.Count)
	}
	return fmt.Sprintf("%-26s n=%-4d ratio[%.3f..%.3f avg %.3f] delta[%.4f..%.4f avg %.4f] p50[%.3f..%.3f] p99[%.3f..%.3f] near=%v",
		ms.Mode, ms.Count,
		ms.Ratio.Min, ms.Ratio.Max, ms.Ratio.Mean,
		ms.Delta.Min, ms.Delta.Max, ms.Delta.Mean,
		ms.P50.Min, ms.P50.Max, ms.P99.Min, ms.P99.Max,
		ms.NearBoundary)
}

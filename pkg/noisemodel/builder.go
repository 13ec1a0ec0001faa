// Package noisemodel builds a static background model from a stack of
// frames: the per-pixel low percentile across frames, which rejects
// moving bright content (clouds, planes, satellites) and keeps the fixed
// pattern. The Processor can subtract it before corner statistics.
package noisemodel

import(
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/skycolor/pkg/emath"
	"github.com/abworrall/skycolor/pkg/frameio"
)

// MinFrames is the fewest frames that give a usable percentile.
const MinFrames = 5

type Options struct {
	Percentile   float64 // per-pixel percentile across frames, [0,100]
	Tile         int     // tile edge, in pixels
	MedianPasses int     // 3x3 median passes over the model; sigma gets at most one
	ComputeSigma bool
	Workers      int     // 0 means runtime.NumCPU()
}

func DefaultOptions() Options {
	return Options{Percentile: 10, Tile: 512, MedianPasses: 1, ComputeSigma: true}
}

// A Loader returns the normalized channels of a frame, and a layout
// name ("mono" or "rgb").
type Loader func(filename string) ([]emath.Plane, string, error)

// LoadFrame is the Loader for the formats frameio can decode.
func LoadFrame(filename string) ([]emath.Plane, string, error) {
	l, err := frameio.Load(filename)
	if err != nil {
		return nil, "", err
	}
	if len(l.Shape) == 2 {
		p, _, err := l.Raw.NormalizeMono()
		if err != nil {
			return nil, "", fmt.Errorf("'%s': %w", filename, err)
		}
		return []emath.Plane{p}, "mono", nil
	}
	rgb, _, err := l.Raw.NormalizeColor()
	if err != nil {
		return nil, "", fmt.Errorf("'%s': %w", filename, err)
	}
	ch := rgb.Channels()
	return ch[:], "rgb", nil
}

type ChannelStats struct {
	C    int     `json:"c"`
	Min  float64 `json:"min"`
	P1   float64 `json:"p1"`
	P50  float64 `json:"p50"`
	P99  float64 `json:"p99"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func channelStats(c int, p emath.Plane) ChannelStats {
	pct := p.Percentiles(1, 50, 99)
	lo, hi := p.MinMax()
	mean, std := emath.MeanStd(p.Values())
	return ChannelStats{C: c, Min: lo, P1: pct[0], P50: pct[1], P99: pct[2], Max: hi, Mean: mean, Std: std}
}

type Stats struct {
	NFiles       int            `json:"n_files"`
	Percentile   float64        `json:"percentile"`
	Tile         int            `json:"tile"`
	Layout       string         `json:"layout"`
	ShapeCHW     []int          `json:"shape_chw"`
	MedianPasses int            `json:"median_passes"`
	ComputeSigma bool           `json:"compute_sigma"`
	ModelStats   []ChannelStats `json:"model_stats_per_channel"`
	SigmaStats   []ChannelStats `json:"sigma_stats_per_channel,omitempty"`
}

type Model struct {
	Model []emath.Plane // one plane per channel, normalized units
	Sigma []emath.Plane // nil unless Options.ComputeSigma
	Stats Stats
}

// Tiles splits a w x h frame into tiles of at most `tile` pixels a side.
func Tiles(w, h, tile int) []image.Rectangle {
	ret := []image.Rectangle{}
	for y0 := 0; y0 < h; y0 += tile {
		for x0 := 0; x0 < w; x0 += tile {
			ret = append(ret, image.Rect(x0, y0, x0+tile, y0+tile).Intersect(image.Rect(0, 0, w, h)))
		}
	}
	return ret
}

// Build computes the model tile by tile. Only the first frame is read up
// front, for its shape; each tile then re-reads the frames and keeps just
// its own rectangle from each, so what stays resident is tile x frames
// (one decoded frame per worker is in flight at a time). Tiles are
// independent and run in parallel. progress, if not nil, is called after
// each tile (never concurrently).
func Build(ctx context.Context, files []string, load Loader, opts Options, progress func(done, total int)) (*Model, error) {
	if len(files) < MinFrames {
		return nil, fmt.Errorf("need at least %d frames for a percentile model, have %d", MinFrames, len(files))
	}
	if opts.Tile < 1 {
		return nil, fmt.Errorf("tile size %d must be >= 1", opts.Tile)
	}
	if opts.Percentile < 0 || opts.Percentile > 100 {
		return nil, fmt.Errorf("percentile %g outside [0,100]", opts.Percentile)
	}

	first, layout, err := load(files[0])
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("'%s': no channels", files[0])
	}
	sh := frameShape{files[0], len(first), first[0].Dx(), first[0].Dy()}

	m := &Model{Model: make([]emath.Plane, sh.nC)}
	if opts.ComputeSigma {
		m.Sigma = make([]emath.Plane, sh.nC)
	}
	for c := 0; c < sh.nC; c++ {
		m.Model[c] = emath.NewPlane(sh.w, sh.h)
		if opts.ComputeSigma {
			m.Sigma[c] = emath.NewPlane(sh.w, sh.h)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	tiles := Tiles(sh.w, sh.h, opts.Tile)
	total, done := len(tiles), 0
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range tiles {
		r := r
		g.Go(func() error {
			stacks, err := loadTile(ctx, files, load, sh, r)
			if err != nil {
				return err
			}
			for c := range stacks {
				buildTile(stacks[c], len(files), c, r, opts, m)
			}
			if progress != nil {
				mu.Lock()
				done++
				progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.MedianPasses > 0 {
		for c := range m.Model {
			for i := 0; i < opts.MedianPasses; i++ {
				m.Model[c] = m.Model[c].Median3x3()
			}
			if opts.ComputeSigma {
				m.Sigma[c] = m.Sigma[c].Median3x3()
			}
		}
	}

	m.Stats = Stats{
		NFiles:       len(files),
		Percentile:   opts.Percentile,
		Tile:         opts.Tile,
		Layout:       layout,
		ShapeCHW:     []int{sh.nC, sh.h, sh.w},
		MedianPasses: opts.MedianPasses,
		ComputeSigma: opts.ComputeSigma,
	}
	for c := range m.Model {
		m.Stats.ModelStats = append(m.Stats.ModelStats, channelStats(c, m.Model[c]))
		if opts.ComputeSigma {
			m.Stats.SigmaStats = append(m.Stats.SigmaStats, channelStats(c, m.Sigma[c]))
		}
	}
	return m, nil
}

// frameShape is what every frame must match: the first file's channel
// count and size.
type frameShape struct {
	file     string
	nC, w, h int
}

// loadTile reads rectangle r out of every frame. stacks[c] holds the
// tile of channel c for frame 0, then frame 1, and so on; the rest of
// each decoded frame is dropped before the next one is read.
func loadTile(ctx context.Context, files []string, load Loader, sh frameShape, r image.Rectangle) ([][]float64, error) {
	np := r.Dx() * r.Dy()
	stacks := make([][]float64, sh.nC)
	for c := range stacks {
		stacks[c] = make([]float64, len(files)*np)
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chans, _, err := load(f)
		if err != nil {
			return nil, err
		}
		if len(chans) != sh.nC || chans[0].Dx() != sh.w || chans[0].Dy() != sh.h {
			dx, dy := 0, 0
			if len(chans) > 0 {
				dx, dy = chans[0].Dx(), chans[0].Dy()
			}
			return nil, fmt.Errorf("'%s': %d x %dx%d, want %d x %dx%d (same as '%s')",
				f, len(chans), dx, dy, sh.nC, sh.w, sh.h, sh.file)
		}
		for c := range chans {
			copy(stacks[c][i*np:(i+1)*np], chans[c].Region(r))
		}
	}
	return stacks, nil
}

// buildTile fills one tile of one channel from its stack (nFrames tiles,
// back to back). Tiles never overlap, so workers can write into the
// shared planes without locking.
func buildTile(stack []float64, nFrames, c int, r image.Rectangle, opts Options, m *Model) {
	np := r.Dx() * r.Dy()
	px := make([]float64, nFrames)
	k := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			for i := 0; i < nFrames; i++ {
				px[i] = stack[i*np + k]
			}
			k++
			model := emath.Percentile(px, opts.Percentile)
			m.Model[c].Set(x, y, model)

			if opts.ComputeSigma {
				sumSq := 0.0
				mean := 0.0
				for _, v := range px {
					mean += v - model
				}
				mean /= float64(len(px))
				for _, v := range px {
					d := v - model - mean
					sumSq += d * d
				}
				m.Sigma[c].Set(x, y, math.Sqrt(sumSq/float64(len(px))))
			}
		}
	}
}

// Save writes <name>_model.tif, <name>_sigma.tif (if computed) and
// <name>_stats.json into dir, and returns the paths written.
func (m *Model)Save(dir, name string) ([]string, error) {
	base := filepath.Join(dir, name)
	written := []string{}

	modelFile := base + "_model.tif"
	if err := frameio.WriteTIFF16(m.Model, modelFile); err != nil {
		return written, err
	}
	written = append(written, modelFile)

	if m.Sigma != nil {
		sigmaFile := base + "_sigma.tif"
		if err := frameio.WriteTIFF16(m.Sigma, sigmaFile); err != nil {
			return written, err
		}
		written = append(written, sigmaFile)
	}

	statsFile := base + "_stats.json"
	if err := frameio.WriteJSON(m.Stats, statsFile); err != nil {
		return written, err
	}
	return append(written, statsFile), nil
}

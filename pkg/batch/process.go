package batch

import(
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/frameio"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

// A FrameJob turns one pair into <outdir>/<id>.png plus the audit record
// <outdir>/<id>.json (and <id>.hdr, if the config asks for it).
type FrameJob struct {
	Processor *colorize.Processor
	OutDir    string
}

func (j FrameJob)OutputPaths(id string) (png, audit, hdr string) {
	base := filepath.Join(j.OutDir, id)
	return base + ".png", base + ".json", base + ".hdr"
}

// ProcessPair matches ProcessFunc, so a FrameJob can drive a Runner.
func (j FrameJob)ProcessPair(ctx context.Context, pair Pair) (ItemStatus, error) {
	st := ItemStatus{Pair: pair}

	in, err := frameio.LoadPair(pair.LumPath, pair.ColorPath)
	if err != nil {
		return st, err
	}
	res, err := j.Processor.Process(ctx, in)
	if err != nil {
		return st, err
	}
	st.Mode = res.Audit.ModeInfo.Mode
	st.Reason = res.Audit.ModeInfo.Reason

	if err := os.MkdirAll(j.OutDir, 0755); err != nil {
		return st, fmt.Errorf("mkdir '%s': %w", j.OutDir, err)
	}

	pngFile, auditFile, hdrFile := j.OutputPaths(pair.ID)
	if err := frameio.WriteImage8(res.Output, pngFile); err != nil {
		return st, err
	}
	res.Audit.Output = colorize.AuditOutput{Path: pngFile, Width: res.Output.Dx(), Height: res.Output.Dy()}

	if j.Processor.Config.WriteHDR {
		if err := frameio.WriteToHDR(res.Output, hdrFile); err != nil {
			return st, err
		}
		res.Audit.Output.HDRPath = hdrFile
	}

	if err := frameio.WriteJSON(res.Audit, auditFile); err != nil {
		return st, err
	}
	st.OutputPath = pngFile

	if j.Processor.Config.Verbosity > 0 {
		logFrame(pair.ID, res.Audit)
	}
	return st, nil
}

func logFrame(id string, a *colorize.Audit) {
	monitoring.Logf("%s: mode=%s (%s)", id, a.ModeInfo.Mode, a.ModeInfo.Reason)
	bp, wp := 0.0, 0.0
	if a.Stretch != nil {
		bp, wp = a.Stretch.BlackPoint, a.Stretch.WhitePoint
	}
	monitoring.Logf("%s: bias=%.5f sigma=%.5f bp=%.5f wp=%.5f hot_pixels=%d",
		id, a.BiasSubtract.Bias, a.BiasSubtract.SigmaMAD, bp, wp, hotPixels(a))
	if q := a.QualityMetrics; q != nil {
		monitoring.Logf("%s: quality p50=%.3f p99=%.3f near_white=%.4f sat=%.4f chroma=%.4f detail=%.4f",
			id, q.LumaP50, q.LumaP99, q.NearWhiteFrac, q.SaturationFrac, q.MeanAbsChroma, q.DetailProxy)
	}
}

func hotPixels(a *colorize.Audit) int {
	if a.HotPixelDab == nil {
		return 0
	}
	return a.HotPixelDab.HotPixels
}

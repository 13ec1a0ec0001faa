package colorize

import(
	"image"
	"math"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

// QualityMetrics describe the final image. They are for comparing
// recipes across a batch, and feed nothing back into the run.
type QualityMetrics struct {
	LumaMean      float64 `json:"luma_mean"`
	LumaP1        float64 `json:"luma_p1"`
	LumaP50       float64 `json:"luma_p50"`
	LumaP99       float64 `json:"luma_p99"`
	NearBlackFrac float64 `json:"near_black_frac"`
	NearWhiteFrac float64 `json:"near_white_frac"`
	SaturationFrac float64 `json:"saturation_frac"`
	MeanAbsChroma float64 `json:"mean_abs_chroma"`
	MeanHclChroma float64 `json:"mean_hcl_chroma"`
	DetailProxy   float64 `json:"detail_proxy"`
	CornerStddev  float64 `json:"corner_stddev"`
	CornerMean    float64 `json:"corner_mean"`
}

// fallback patch for frames too small for the corner ROIs
const metricsFallbackPatch = 50

func ComputeQualityMetrics(out ecolor.RGBPlane, roi, margin int) QualityMetrics {
	out = out.Clip01()
	y := out.Luminance()
	yv := y.Values()

	qm := QualityMetrics{LumaMean: y.Mean()}
	pcts := y.Percentiles(1, 50, 99)
	qm.LumaP1, qm.LumaP50, qm.LumaP99 = pcts[0], pcts[1], pcts[2]

	qm.NearBlackFrac = emath.FractionWhere(yv, func(v float64) bool { return v < 0.01 })
	qm.NearWhiteFrac = emath.FractionWhere(yv, func(v float64) bool { return v > 0.99 })
	qm.SaturationFrac = qm.NearBlackFrac + qm.NearWhiteFrac

	qm.MeanAbsChroma = out.MeanAbsChroma()
	qm.MeanHclChroma = out.MeanHclChroma()
	qm.DetailProxy = detailProxy(y)

	corners, _, err := CornerSamples(y, roi, margin)
	if err != nil {
		corners = y.Region(image.Rect(0, 0, metricsFallbackPatch, metricsFallbackPatch))
	}
	qm.CornerMean, qm.CornerStddev = emath.MeanStd(corners)

	return qm
}

// detailProxy is the mean absolute finite difference, averaged over the
// vertical and horizontal directions.
func detailProxy(y emath.Plane) float64 {
	w, h := y.Dx(), y.Dy()
	dySum, dxSum := 0.0, 0.0
	for yy := 0; yy < h; yy++ {
		for x := 0; x < w; x++ {
			if yy+1 < h { dySum += math.Abs(y.Get(x, yy+1) - y.Get(x, yy)) }
			if x+1 < w  { dxSum += math.Abs(y.Get(x+1, yy) - y.Get(x, yy)) }
		}
	}

	meanDy, meanDx := 0.0, 0.0
	if h > 1 { meanDy = dySum / float64((h-1)*w) }
	if w > 1 { meanDx = dxSum / float64(h*(w-1)) }
	return (meanDy + meanDx) / 2.0
}

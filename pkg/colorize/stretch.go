package colorize

import(
	"math"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

const(
	stretchEps     = 1e-8
	degenerateSpan = 1e-3 // wp is nudged to bp + this on flat frames
)

type StretchParams struct {
	BlackPct float64
	WhitePct float64
	Asinh    float64
	Gamma    float64
}

func (rp RecipeParams)StretchParams() StretchParams {
	return StretchParams{BlackPct: rp.BlackPct, WhitePct: rp.WhitePct, Asinh: rp.Asinh, Gamma: rp.Gamma}
}

type StretchDebug struct {
	BlackPct      float64  `json:"black_pct"`
	WhitePct      float64  `json:"white_pct"`
	BlackPoint    float64  `json:"black_point"`
	WhitePoint    float64  `json:"white_point"`
	AsinhStrength float64  `json:"asinh_strength"`
	Gamma         float64  `json:"gamma"`
	OverrideBP    *float64 `json:"override_bp"`
	Degenerate    bool     `json:"degenerate_range"`
}

// A StretchResult carries the black and white points, which are reused
// verbatim on the color track.
type StretchResult struct {
	BlackPoint float64
	WhitePoint float64
	Plane      emath.Plane
	Debug      StretchDebug
}

// StretchPoints resolves bp and wp for a plane. An override replaces the
// percentile black point outright. A flat frame (wp <= bp) gets
// wp = bp + 1e-3 rather than an error.
func StretchPoints(p emath.Plane, sp StretchParams, overrideBP *float64) (float64, float64, bool) {
	pcts := p.Percentiles(sp.BlackPct, sp.WhitePct)
	bp, wp := pcts[0], pcts[1]
	if overrideBP != nil {
		bp = *overrideBP
	}
	if wp <= bp+stretchEps {
		return bp, bp + degenerateSpan, true
	}
	return bp, wp, false
}

// StretchValue maps one sample: linear normalize between bp and wp, then
// asinh compression of strength s, then 1/gamma.
func StretchValue(v, bp, wp, s, gamma float64) float64 {
	x := emath.Clip01((v - bp) / (wp - bp + stretchEps))
	if s > 0 {
		x = math.Asinh(s*x) / math.Asinh(s)
	}
	if gamma != 1.0 && gamma > 0 {
		x = math.Pow(x, 1.0/gamma)
	}
	return emath.Clip01(x)
}

func stretchPlane(p emath.Plane, bp, wp, s, gamma float64) emath.Plane {
	return p.Map(func(v float64) float64 { return StretchValue(v, bp, wp, s, gamma) })
}

// StretchMono stretches a (bias-corrected) luminance plane.
func StretchMono(p emath.Plane, sp StretchParams, overrideBP *float64) StretchResult {
	bp, wp, degenerate := StretchPoints(p, sp, overrideBP)
	return StretchResult{
		BlackPoint: bp,
		WhitePoint: wp,
		Plane:      stretchPlane(p, bp, wp, sp.Asinh, sp.Gamma),
		Debug: StretchDebug{
			BlackPct:      sp.BlackPct,
			WhitePct:      sp.WhitePct,
			BlackPoint:    bp,
			WhitePoint:    wp,
			AsinhStrength: sp.Asinh,
			Gamma:         sp.Gamma,
			OverrideBP:    overrideBP,
			Degenerate:    degenerate,
		},
	}
}

// StretchRGB applies the luminance-derived mapping to each channel
// independently, keeping color and structure co-registered.
func StretchRGB(rgb ecolor.RGBPlane, bp, wp float64, sp StretchParams) ecolor.RGBPlane {
	return rgb.MapChannels(func(p emath.Plane) emath.Plane {
		return stretchPlane(p, bp, wp, sp.Asinh, sp.Gamma)
	})
}

package colorize

import(
	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

type HotPixelDebug struct {
	Sigma     float64 `json:"sigma"`
	K         float64 `json:"k"`
	Threshold float64 `json:"threshold"`
	MaxLuma   float64 `json:"max_luma"`
	HotPixels int     `json:"hot_pixels"`
	HotFrac   float64 `json:"hot_frac"`
}

// HotPixelDab replaces dark-region outliers with their 3x3 median: a
// pixel below maxLuma that sits more than k*sigma above its neighbourhood
// median. Brighter pixels are never touched.
func HotPixelDab(lum emath.Plane, sigma, k, maxLuma float64) (emath.Plane, HotPixelDebug) {
	med := lum.Median3x3()
	thr := k * sigma
	out := lum.Copy()

	ov, lv, mv := out.Values(), lum.Values(), med.Values()
	n := 0
	for i := range lv {
		if lv[i] < maxLuma && lv[i]-mv[i] > thr {
			ov[i] = mv[i]
			n++
		}
	}

	dbg := HotPixelDebug{Sigma: sigma, K: k, Threshold: thr, MaxLuma: maxLuma, HotPixels: n}
	if len(lv) > 0 {
		dbg.HotFrac = float64(n) / float64(len(lv))
	}
	return out, dbg
}

type ShadowDenoiseDebug struct {
	Applied bool    `json:"applied"`
	Amount  float64 `json:"amount"`
	Start   float64 `json:"shadow_start"`
	End     float64 `json:"shadow_end"`
}

// ShadowDenoise blends the stretched luminance toward its 3x3 median,
// weighted by w = clip((end-y)/(end-start))^2. Nothing changes above
// `end`; below `start` the blend is at full `amount`.
func ShadowDenoise(y emath.Plane, amount, start, end float64) emath.Plane {
	y = y.Clip01()
	med := y.Median3x3()

	denom := end - start
	if denom < 1e-6 { denom = 1e-6 }
	a := emath.Clip01(amount)

	out := y.NewFromThis()
	ov, yv, mv := out.Values(), y.Values(), med.Values()
	for i := range yv {
		w := emath.Clip01((end - yv[i]) / denom)
		w *= w
		ov[i] = emath.Clip01((1-a*w)*yv[i] + a*w*mv[i])
	}
	return out
}

type ChromaBlurDebug struct {
	Applied bool `json:"applied"`
	Radius  int  `json:"radius"`
}

// BlurChromaOnly box-blurs each chroma channel (channel - luminance) and
// recombines, which removes color speckle but leaves luminance detail
// alone.
func BlurChromaOnly(rgb ecolor.RGBPlane, radius int) ecolor.RGBPlane {
	rgb = rgb.Clip01()
	if radius <= 0 {
		return rgb
	}
	y, c := rgb.Chroma()
	c = c.MapChannels(func(p emath.Plane) emath.Plane { return p.BoxBlur(radius) })
	return ecolor.Recombine(y, c, 1.0)
}

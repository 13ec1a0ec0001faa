package colorize

import(
	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

type BlueSuppressDebug struct {
	Applied  bool    `json:"applied"`
	Strength float64 `json:"strength"`
	Floor    float64 `json:"floor"`
	Affected int     `json:"affected_pixels"`
}

// BlueSuppress scales down the blue chroma component by (1 - strength),
// but only where it exceeds `floor`. Neutral and warm pixels are left
// alone.
func BlueSuppress(rgb ecolor.RGBPlane, strength, floor float64) (ecolor.RGBPlane, int) {
	rgb = rgb.Clip01()
	y, c := rgb.Chroma()

	scale := 1.0 - emath.Clip01(strength)
	bv := c.B.Values()
	n := 0
	for i, v := range bv {
		if v > floor {
			bv[i] = v * scale
			n++
		}
	}
	return ecolor.Recombine(y, c, 1.0), n
}

type ColorDebug struct {
	ColorStrength  float64 `json:"color_strength"`
	ChromaClip     float64 `json:"chroma_clip"`
	BlueSuppress   float64 `json:"blue_suppress"`
	BlueFloor      float64 `json:"blue_floor"`
	Desaturate     float64 `json:"desaturate"`
	MeanAbsChroma  float64 `json:"mean_abs_chroma_after"`
}

// InjectChroma is the LRGB composite: the stretched luminance carries
// structure, the stretched RGB only contributes its chroma, clipped to
// +-chromaClip (when chromaClip > 0) and scaled by colorStrength.
func InjectChroma(lum emath.Plane, rgb ecolor.RGBPlane, colorStrength, chromaClip float64) ecolor.RGBPlane {
	lum = lum.Clip01()
	_, c := rgb.Clip01().Chroma()

	if chromaClip > 0 {
		c = c.MapChannels(func(p emath.Plane) emath.Plane {
			return p.Map(func(v float64) float64 { return emath.Clamp(v, -chromaClip, chromaClip) })
		})
	}
	return ecolor.Recombine(lum, c, colorStrength)
}

// Desaturate blends every pixel toward its own luminance by `amount`.
func Desaturate(rgb ecolor.RGBPlane, amount float64) ecolor.RGBPlane {
	rgb = rgb.Clip01()
	y := rgb.Luminance()
	a := emath.Clip01(amount)

	return rgb.MapChannels(func(p emath.Plane) emath.Plane {
		out := p.NewFromThis()
		ov, pv, yv := out.Values(), p.Values(), y.Values()
		for i := range ov {
			ov[i] = emath.Clip01((1-a)*pv[i] + a*yv[i])
		}
		return out
	})
}

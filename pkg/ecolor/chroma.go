package ecolor

import(
	"github.com/abworrall/skycolor/pkg/emath"
)

// Chroma is a pixel's channels minus its luminance; it carries hue and
// saturation independent of brightness. Returns the luminance too, since
// callers always need it to recombine.
func (rp RGBPlane)Chroma() (emath.Plane, RGBPlane) {
	y := rp.Luminance()
	sub := func(p emath.Plane) emath.Plane {
		out := p.NewFromThis()
		pv, yv, ov := p.Values(), y.Values(), out.Values()
		for i := range ov {
			ov[i] = pv[i] - yv[i]
		}
		return out
	}
	return y, rp.MapChannels(sub)
}

// Recombine adds a chroma plane back onto a luminance plane, scaled by
// `strength`, and clips the result to [0,1].
func Recombine(y emath.Plane, chroma RGBPlane, strength float64) RGBPlane {
	add := func(c emath.Plane) emath.Plane {
		out := c.NewFromThis()
		cv, yv, ov := c.Values(), y.Values(), out.Values()
		for i := range ov {
			ov[i] = emath.Clip01(yv[i] + strength*cv[i])
		}
		return out
	}
	return chroma.MapChannels(add)
}

// MeanAbsChroma averages |channel - luminance| over every pixel and channel.
func (rp RGBPlane)MeanAbsChroma() float64 {
	_, c := rp.Chroma()
	sum, n := 0.0, 0
	for _, p := range c.Channels() {
		for _, v := range p.Values() {
			if v < 0 { v = -v }
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

package ecolor

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/skycolor/pkg/emath"
)

// Rec.709 luminance weights
const(
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// An RGBPlane is three co-registered planes, one per channel. It
// implements image.Image and hdr.Image, so it can be handed straight to
// the Radiance encoder.
type RGBPlane struct {
	R, G, B emath.Plane
}

func NewRGBPlane(w, h int) RGBPlane {
	return RGBPlane{R: emath.NewPlane(w, h), G: emath.NewPlane(w, h), B: emath.NewPlane(w, h)}
}

// NewGrayRGBPlane puts the same plane into all three channels (copied).
func NewGrayRGBPlane(p emath.Plane) RGBPlane {
	return RGBPlane{R: p.Copy(), G: p.Copy(), B: p.Copy()}
}

func (rp RGBPlane)Dx() int { return rp.R.Dx() }
func (rp RGBPlane)Dy() int { return rp.R.Dy() }

// Channels lets callers loop over R, G, B in order.
func (rp RGBPlane)Channels() [3]emath.Plane { return [3]emath.Plane{rp.R, rp.G, rp.B} }

func FromChannels(ch [3]emath.Plane) RGBPlane { return RGBPlane{R: ch[0], G: ch[1], B: ch[2]} }

// Implement image.Image
func (rp RGBPlane)ColorModel() color.Model    { return hdrcolor.RGBModel }
func (rp RGBPlane)Bounds() image.Rectangle    { return rp.R.Bounds() }
func (rp RGBPlane)At(x, y int) color.Color    { return rp.HDRAt(x, y) }

// Implement hdr.Image
func (rp RGBPlane)HDRAt(x, y int) hdrcolor.Color { return rp.RGBAt(x, y) }
func (rp RGBPlane)Size() int                     { return rp.R.Size() }

func (rp RGBPlane)RGBAt(x, y int) hdrcolor.RGB {
	return hdrcolor.RGB{R: rp.R.Get(x, y), G: rp.G.Get(x, y), B: rp.B.Get(x, y)}
}

func (rp RGBPlane)SetRGB(x, y int, c hdrcolor.RGB) {
	rp.R.Set(x, y, c.R)
	rp.G.Set(x, y, c.G)
	rp.B.Set(x, y, c.B)
}

func (rp RGBPlane)String() string {
	return fmt.Sprintf("RGBPlane{R:%s G:%s B:%s}", rp.R.Stats(), rp.G.Stats(), rp.B.Stats())
}

func (rp RGBPlane)Copy() RGBPlane {
	return RGBPlane{R: rp.R.Copy(), G: rp.G.Copy(), B: rp.B.Copy()}
}

// MapChannels applies `f` to each channel plane, returning a new RGBPlane.
func (rp RGBPlane)MapChannels(f func(emath.Plane) emath.Plane) RGBPlane {
	return RGBPlane{R: f(rp.R), G: f(rp.G), B: f(rp.B)}
}

func (rp RGBPlane)Clip01() RGBPlane {
	return rp.MapChannels(func(p emath.Plane) emath.Plane { return p.Clip01() })
}

// Luminance is the Rec.709 weighted sum of the channels.
func (rp RGBPlane)Luminance() emath.Plane {
	y := rp.R.NewFromThis()
	r, g, b, yv := rp.R.Values(), rp.G.Values(), rp.B.Values(), y.Values()
	for i := range yv {
		yv[i] = LumaR*r[i] + LumaG*g[i] + LumaB*b[i]
	}
	return y
}

// SubClip01 subtracts a per-channel offset and clips to [0,1].
func (rp RGBPlane)SubClip01(v emath.Vec3) RGBPlane {
	ch := rp.Channels()
	out := [3]emath.Plane{}
	for c := 0; c < 3; c++ {
		off := v[c]
		out[c] = ch[c].Map(func(f float64) float64 { return emath.Clip01(f - off) })
	}
	return FromChannels(out)
}

// SubPlanesClip01 subtracts another RGBPlane channel by channel.
func (rp RGBPlane)SubPlanesClip01(rp2 RGBPlane) RGBPlane {
	return RGBPlane{R: rp.R.SubClip01(rp2.R), G: rp.G.SubClip01(rp2.G), B: rp.B.SubClip01(rp2.B)}
}

// ToNRGBA quantizes to 8 bits per channel: round(clip(x,0,1) * 255).
func (rp RGBPlane)ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(rp.Bounds())
	for y := 0; y < rp.Dy(); y++ {
		for x := 0; x < rp.Dx(); x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: Quantize8(rp.R.Get(x, y)),
				G: Quantize8(rp.G.Get(x, y)),
				B: Quantize8(rp.B.Get(x, y)),
				A: 0xFF,
			})
		}
	}
	return img
}

func Quantize8(v float64) uint8 {
	return uint8(math.Round(emath.Clip01(v) * 255.0))
}

// MeanHclChroma treats the planes as display-encoded sRGB and averages
// the CIE-HCL chroma of every pixel.
func (rp RGBPlane)MeanHclChroma() float64 {
	r, g, b := rp.R.Values(), rp.G.Values(), rp.B.Values()
	if len(r) == 0 {
		return 0
	}
	sum := 0.0
	for i := range r {
		c := colorful.Color{R: emath.Clip01(r[i]), G: emath.Clip01(g[i]), B: emath.Clip01(b[i])}
		_, chroma, _ := c.Hcl()
		sum += chroma
	}
	return sum / float64(len(r))
}

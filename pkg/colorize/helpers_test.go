package colorize

import(
	"image"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

// Synthetic scenes shared by the tests in this package.

func rawMono(p emath.Plane) RawPlane[float32] {
	rp := RawPlane[float32]{Shape: []int{p.Dy(), p.Dx()}, Data: make([]float32, p.Size())}
	for i, v := range p.Values() {
		rp.Data[i] = float32(v)
	}
	return rp
}

// rawColor lays the planes out channel-first, (3,H,W)
func rawColor(rgb ecolor.RGBPlane) RawPlane[float32] {
	n := rgb.Size()
	rp := RawPlane[float32]{Shape: []int{3, rgb.Dy(), rgb.Dx()}, Data: make([]float32, 3*n)}
	for c, p := range rgb.Channels() {
		for i, v := range p.Values() {
			rp.Data[c*n + i] = float32(v)
		}
	}
	return rp
}

func frameOf(lum emath.Plane, rgb ecolor.RGBPlane) FrameInput {
	return FrameInput{LumPath: "lum_test.tif", ColorPath: "raw_test.tif", Lum: rawMono(lum), Color: rawColor(rgb)}
}

// darkRoomScene has a dark background, with a bright square block in the
// middle; this is the roof-closed look (bright dome, dark corners).
func darkRoomScene(w, h int, bg, block float64, blockFrac float64) emath.Plane {
	p := emath.NewUniformPlane(w, h, bg)
	bw, bh := int(float64(w)*blockFrac), int(float64(h)*blockFrac)
	r := image.Rect((w-bw)/2, (h-bh)/2, (w+bw)/2, (h+bh)/2)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.Set(x, y, block)
		}
	}
	return p
}

// rampScene is a left-to-right ramp from lo to hi
func rampScene(w, h int, lo, hi float64) emath.Plane {
	p := emath.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set(x, y, lo + (hi-lo)*float64(x)/float64(w-1))
		}
	}
	return p
}

// castOf returns a color plane with the given per-channel gains
func castOf(p emath.Plane, r, g, b float64) ecolor.RGBPlane {
	scale := func(k float64) emath.Plane {
		return p.Map(func(v float64) float64 { return emath.Clip01(v * k) })
	}
	return ecolor.RGBPlane{R: scale(r), G: scale(g), B: scale(b)}
}

func inUnitRange(p emath.Plane) bool {
	for _, v := range p.Values() {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}

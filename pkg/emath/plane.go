package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// A Plane is a grid of float64 samples, stored row-major. Planes are
// passed by value; operations that transform a plane return a new one,
// and leave the receiver alone.
type Plane struct {
	stride int
	values []float64
}

func NewPlane(w, h int) Plane {
	return Plane{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewPlaneFromValues wraps `vals` (row-major, len w*h) without copying.
func NewPlaneFromValues(w, h int, vals []float64) (Plane, error) {
	if w <= 0 || h <= 0 || len(vals) != w*h {
		return Plane{}, fmt.Errorf("plane %dx%d: have %d values, want %d", w, h, len(vals), w*h)
	}
	return Plane{stride: w, values: vals}, nil
}

// NewUniformPlane is handy for tests and for flat model planes
func NewUniformPlane(w, h int, v float64) Plane {
	p := NewPlane(w, h)
	for i := range p.values {
		p.values[i] = v
	}
	return p
}

func (p Plane)NewFromThis() Plane         { return NewPlane(p.Dx(), p.Dy()) }
func (p Plane)Set(x, y int, v float64)    { p.values[p.stride*y + x] = v }
func (p Plane)Get(x, y int) float64       { return p.values[p.stride*y + x] }
func (p Plane)Dx() int                    { return p.stride }
func (p Plane)Size() int                  { return len(p.values) }
func (p Plane)Bounds() image.Rectangle    { return image.Rect(0, 0, p.Dx(), p.Dy()) }
func (p Plane)Values() []float64          { return p.values }

func (p Plane)Dy() int {
	if p.stride == 0 {
		return 0
	}
	return len(p.values) / p.stride
}

func (p Plane)SameSize(p2 Plane) bool {
	return p.Dx() == p2.Dx() && p.Dy() == p2.Dy()
}

func (p Plane)Copy() Plane {
	p2 := Plane{stride: p.stride, values: make([]float64, len(p.values))}
	copy(p2.values, p.values)
	return p2
}

// Map returns a new plane with `f` applied to every sample.
func (p Plane)Map(f func(float64) float64) Plane {
	p2 := p.NewFromThis()
	for i, v := range p.values {
		p2.values[i] = f(v)
	}
	return p2
}

func (p Plane)Clip01() Plane { return p.Map(Clip01) }

// Sub returns p - p2 (same size assumed), clipped to [0,1].
func (p Plane)SubClip01(p2 Plane) Plane {
	out := p.NewFromThis()
	for i := range p.values {
		out.values[i] = Clip01(p.values[i] - p2.values[i])
	}
	return out
}

// Region returns a copy of the samples inside `r`, row by row. `r` is
// intersected with the plane bounds first.
func (p Plane)Region(r image.Rectangle) []float64 {
	r = r.Intersect(p.Bounds())
	vals := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		vals = append(vals, p.values[p.stride*y + r.Min.X : p.stride*y + r.Max.X]...)
	}
	return vals
}

// SubPlane copies out the region `r` as a new plane.
func (p Plane)SubPlane(r image.Rectangle) Plane {
	r = r.Intersect(p.Bounds())
	return Plane{stride: r.Dx(), values: p.Region(r)}
}

// Paste writes `src` into p with its top-left corner at `at`.
func (p Plane)Paste(src Plane, at image.Point) {
	for y := 0; y < src.Dy(); y++ {
		copy(p.values[p.stride*(y+at.Y) + at.X:], src.values[src.stride*y : src.stride*(y+1)])
	}
}

func (p Plane)MinMax() (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range p.values {
		if v > max { max = v }
		if v < min { min = v }
	}
	return min, max
}

func (p Plane)Stats() string {
	min, max := p.MinMax()
	return fmt.Sprintf("plane[%dx%d, vals{%f,%f}]", p.Dx(), p.Dy(), min, max)
}

// ToImg saves a simple grayscale, based on the range of values in the plane, and gamma scaling the
// gray to look normal for human vision
func (p Plane)ToImg(title, filename string) error {
	min, max := p.MinMax()
	span := max - min
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA64(p.Bounds())
	for y := 0; y < p.Dy(); y++ {
		for x := 0; x < p.Dx(); x++ {
			gray := GammaExpand_F64((p.Get(x, y) - min) / span)
			g16 := uint16(Clip01(gray) * 65535.0)
			img.Set(x, y, color.RGBA64{g16, g16, g16, 0xFFFF})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0.2, 0.2)
	dc.DrawString(title, 10, 20)
	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("plane dump '%s': %w", filename, err)
	}
	return nil
}

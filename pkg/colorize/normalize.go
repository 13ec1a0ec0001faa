package colorize

import(
	"errors"
	"fmt"
	"math"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

var(
	ErrUnsupportedShape = errors.New("unsupported plane shape")
	ErrShapeMismatch    = errors.New("luminance and color planes differ in size")
)

// Sample is the set of raw sample types a decoder may hand us.
type Sample interface {
	uint8 | uint16 | uint32 | int8 | int16 | int32 | float32 | float64
}

// A RawPlane is a decoded plane, as the reader produced it. Shape is
// (H,W) for mono, and (3,H,W) or (H,W,3) for color.
type RawPlane[T Sample] struct {
	Shape []int
	Data  []T
}

// A RawSource is anything that can normalize itself into [0,1] planes.
// RawPlane[T] is the only implementation; the interface lets a frame carry
// planes of different sample types.
type RawSource interface {
	NormalizeMono() (emath.Plane, NormalizeInfo, error)
	NormalizeColor() (ecolor.RGBPlane, NormalizeInfo, error)
}

type NormalizeInfo struct {
	DType        string  `json:"dtype"`
	Shape        []int   `json:"shape"`
	RawMin       float64 `json:"raw_min"`
	RawMax       float64 `json:"raw_max"`
	Denom        float64 `json:"denom,omitempty"`
	P999         float64 `json:"p999,omitempty"`
	ScaledByP999 bool    `json:"scaled_by_p999"`
}

// intMax returns the largest value of T, and false if T is a float type.
func intMax[T Sample]() (float64, bool) {
	var zero T
	switch any(zero).(type) {
	case uint8:  return math.MaxUint8, true
	case uint16: return math.MaxUint16, true
	case uint32: return math.MaxUint32, true
	case int8:   return math.MaxInt8, true
	case int16:  return math.MaxInt16, true
	case int32:  return math.MaxInt32, true
	}
	return 0, false
}

// normalizeValues maps samples into [0,1]. Integers are divided by the
// maximum of their type; floats are left alone unless their 99.9th
// percentile exceeds 1.5, in which case they are divided by it.
func normalizeValues[T Sample](data []T, shape []int) ([]float64, NormalizeInfo) {
	var zero T
	info := NormalizeInfo{DType: fmt.Sprintf("%T", zero), Shape: shape}

	vals := make([]float64, len(data))
	info.RawMin, info.RawMax = math.Inf(1), math.Inf(-1)
	for i, v := range data {
		f := float64(v)
		vals[i] = f
		if f < info.RawMin { info.RawMin = f }
		if f > info.RawMax { info.RawMax = f }
	}
	if len(vals) == 0 {
		info.RawMin, info.RawMax = 0, 0
	}

	denom := 1.0
	if max, isInt := intMax[T](); isInt {
		denom = max
		info.Denom = denom
	} else {
		info.P999 = emath.Percentile(vals, 99.9)
		if info.P999 > 1.5 {
			denom = info.P999 + 1e-8
			info.ScaledByP999 = true
		}
	}

	for i := range vals {
		vals[i] = emath.Clip01(vals[i] / denom)
	}
	return vals, info
}

func (rp RawPlane[T])NormalizeMono() (emath.Plane, NormalizeInfo, error) {
	if len(rp.Shape) != 2 {
		return emath.Plane{}, NormalizeInfo{}, fmt.Errorf("%w: mono plane shape %v, want (H,W)", ErrUnsupportedShape, rp.Shape)
	}
	h, w := rp.Shape[0], rp.Shape[1]
	if len(rp.Data) != h*w {
		return emath.Plane{}, NormalizeInfo{}, fmt.Errorf("%w: mono plane shape %v holds %d samples", ErrUnsupportedShape, rp.Shape, len(rp.Data))
	}

	vals, info := normalizeValues(rp.Data, rp.Shape)
	p, err := emath.NewPlaneFromValues(w, h, vals)
	return p, info, err
}

// NormalizeColor accepts channel-first (3,H,W) or channel-last (H,W,3).
// When both leading and trailing dimensions are 3, channel-first wins.
func (rp RawPlane[T])NormalizeColor() (ecolor.RGBPlane, NormalizeInfo, error) {
	if len(rp.Shape) != 3 || (rp.Shape[0] != 3 && rp.Shape[2] != 3) {
		return ecolor.RGBPlane{}, NormalizeInfo{}, fmt.Errorf("%w: color plane shape %v, want (3,H,W) or (H,W,3)", ErrUnsupportedShape, rp.Shape)
	}
	if len(rp.Data) != rp.Shape[0]*rp.Shape[1]*rp.Shape[2] {
		return ecolor.RGBPlane{}, NormalizeInfo{}, fmt.Errorf("%w: color plane shape %v holds %d samples", ErrUnsupportedShape, rp.Shape, len(rp.Data))
	}

	vals, info := normalizeValues(rp.Data, rp.Shape)

	chw := rp.Shape[0] == 3
	h, w := rp.Shape[1], rp.Shape[2]
	if !chw {
		h, w = rp.Shape[0], rp.Shape[1]
	}

	out := ecolor.NewRGBPlane(w, h)
	ch := out.Channels()
	for c := 0; c < 3; c++ {
		cv := ch[c].Values()
		if chw {
			copy(cv, vals[c*h*w : (c+1)*h*w])
			continue
		}
		for i := range cv {
			cv[i] = vals[3*i + c]
		}
	}
	return out, info, nil
}

package emath

import(
	"fmt"

	"golang.org/x/image/math/f64"
)

// Vec3 holds one value per color channel (R, G, B). Used for
// per-channel biases, means and gains.
type Vec3 f64.Vec3

func (v Vec3)String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", v[0], v[1], v[2])
}

func (v Vec3)Mean() float64 { return (v[0] + v[1] + v[2]) / 3.0 }

func (v *Vec3)FloorAt(min float64) {
	if v[0] < min { v[0] = min }
	if v[1] < min { v[1] = min }
	if v[2] < min { v[2] = min }
}

func (v *Vec3)CeilingAt(max float64) {
	if v[0] > max { v[0] = max }
	if v[1] > max { v[1] = max }
	if v[2] > max { v[2] = max }
}

// Slice is for JSON output, which wants a list
func (v Vec3)Slice() []float64 { return []float64{v[0], v[1], v[2]} }

package emath

import(
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflectIndex(t *testing.T) {
	t.Parallel()
	tests := []struct{ i, n, want int }{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-1, 1, 0},
		{3, 1, 0},
		{-1, 2, 1},
		{2, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReflectIndex(tt.i, tt.n), "ReflectIndex(%d, %d)", tt.i, tt.n)
	}
}

func TestMedian3x3_RemovesSpike(t *testing.T) {
	t.Parallel()
	p := NewUniformPlane(7, 7, 0.1)
	p.Set(3, 3, 0.9)

	m := p.Median3x3()
	assert.InDelta(t, 0.1, m.Get(3, 3), 1e-12)
	assert.Equal(t, 0.9, p.Get(3, 3), "input plane must not be modified")
}

func TestMedian3x3_KeepsEdges(t *testing.T) {
	t.Parallel()
	// left half dark, right half bright: a median filter keeps the step
	p := NewPlane(8, 8)
	for y := 0; y < 8; y++ {
		for x := 4; x < 8; x++ {
			p.Set(x, y, 1.0)
		}
	}
	m := p.Median3x3()
	for y := 0; y < 8; y++ {
		assert.Equal(t, 0.0, m.Get(3, y))
		assert.Equal(t, 1.0, m.Get(4, y))
	}
}

func TestBoxBlur_Constant(t *testing.T) {
	t.Parallel()
	p := NewUniformPlane(9, 6, 0.37)
	for _, r := range []int{1, 2, 4, 12} {
		b := p.BoxBlur(r)
		for _, v := range b.Values() {
			assert.InDelta(t, 0.37, v, 1e-12, "radius %d", r)
		}
	}
}

func TestBoxBlur_ZeroRadiusIsCopy(t *testing.T) {
	t.Parallel()
	p := NewPlane(4, 4)
	p.Set(1, 2, 0.5)
	b := p.BoxBlur(0)
	assert.Equal(t, p.Values(), b.Values())

	b.Set(1, 2, 0.0)
	assert.Equal(t, 0.5, p.Get(1, 2))
}

func TestBoxBlur_MatchesDirectSum(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(1))
	w, h, r := 11, 7, 2
	p := NewPlane(w, h)
	for i := range p.Values() {
		p.Values()[i] = rnd.Float64()
	}

	b := p.BoxBlur(r)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					sum += p.Get(ReflectIndex(x+dx, w), ReflectIndex(y+dy, h))
				}
			}
			assert.InDelta(t, sum/float64((2*r+1)*(2*r+1)), b.Get(x, y), 1e-12)
		}
	}
}

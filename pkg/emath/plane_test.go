package emath

import(
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaneFromValues(t *testing.T) {
	t.Parallel()
	_, err := NewPlaneFromValues(3, 2, make([]float64, 5))
	assert.Error(t, err)

	p, err := NewPlaneFromValues(3, 2, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Dx())
	assert.Equal(t, 2, p.Dy())
	assert.Equal(t, 5.0, p.Get(2, 1))
}

func TestRegionAndPaste(t *testing.T) {
	t.Parallel()
	p := NewPlane(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			p.Set(x, y, float64(10*y + x))
		}
	}

	assert.Equal(t, []float64{11, 12, 21, 22}, p.Region(image.Rect(1, 1, 3, 3)))
	// clipped to bounds
	assert.Len(t, p.Region(image.Rect(3, 3, 10, 10)), 4)

	sub := p.SubPlane(image.Rect(1, 1, 3, 3))
	q := NewPlane(5, 5)
	q.Paste(sub, image.Pt(2, 3))
	assert.Equal(t, 11.0, q.Get(2, 3))
	assert.Equal(t, 22.0, q.Get(3, 4))
	assert.Equal(t, 0.0, q.Get(1, 3))
}

func TestSubClip01(t *testing.T) {
	t.Parallel()
	a := NewUniformPlane(2, 2, 0.3)
	b := NewUniformPlane(2, 2, 0.5)
	for _, v := range a.SubClip01(b).Values() {
		assert.Equal(t, 0.0, v)
	}
	for _, v := range b.SubClip01(a).Values() {
		assert.InDelta(t, 0.2, v, 1e-12)
	}
}

func TestToImg(t *testing.T) {
	t.Parallel()
	p := NewPlane(64, 32)
	for x := 0; x < 64; x++ {
		p.Set(x, 10, float64(x)/63)
	}
	filename := filepath.Join(t.TempDir(), "plane.png")
	assert.NoError(t, p.ToImg("ramp", filename))
	assert.FileExists(t, filename)
}

package colorize

import(
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

func TestComputeQualityMetrics_Flat(t *testing.T) {
	t.Parallel()
	qm := ComputeQualityMetrics(ecolor.NewGrayRGBPlane(emath.NewUniformPlane(150, 150, 0.4)), 50, 5)

	assert.InDelta(t, 0.4, qm.LumaMean, 1e-12)
	assert.InDelta(t, 0.4, qm.LumaP50, 1e-12)
	assert.Equal(t, 0.0, qm.NearBlackFrac)
	assert.Equal(t, 0.0, qm.NearWhiteFrac)
	assert.InDelta(t, 0.0, qm.MeanAbsChroma, 1e-12)
	assert.InDelta(t, 0.0, qm.DetailProxy, 1e-12)
	assert.InDelta(t, 0.4, qm.CornerMean, 1e-12)
	assert.InDelta(t, 0.0, qm.CornerStddev, 1e-12)
}

func TestComputeQualityMetrics_Saturation(t *testing.T) {
	t.Parallel()
	y := emath.NewPlane(10, 10)
	for x := 0; x < 10; x++ {
		for yy := 0; yy < 3; yy++ {
			y.Set(x, yy, 1.0)
		}
	}
	// rows 0-2 white, 3-9 black
	qm := ComputeQualityMetrics(ecolor.NewGrayRGBPlane(y), 50, 5)
	assert.InDelta(t, 0.7, qm.NearBlackFrac, 1e-12)
	assert.InDelta(t, 0.3, qm.NearWhiteFrac, 1e-12)
	assert.InDelta(t, 1.0, qm.SaturationFrac, 1e-12)

	// one step of 1.0 across 10 columns, over 9x10 vertical differences
	assert.InDelta(t, (10.0/90.0)/2, qm.DetailProxy, 1e-12)

	// too small for the corner ROIs: the top-left patch stands in
	assert.InDelta(t, 0.3, qm.CornerMean, 1e-12)
}

func TestComputeQualityMetrics_Color(t *testing.T) {
	t.Parallel()
	qm := ComputeQualityMetrics(uniformRGB(150, 150, 0.8, 0.3, 0.2), 50, 5)
	assert.Greater(t, qm.MeanAbsChroma, 0.05)
	assert.Greater(t, qm.MeanHclChroma, 0.05)
}

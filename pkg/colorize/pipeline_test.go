package colorize

import(
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(NewConfig())
	require.NoError(t, err)
	return p
}

func grayOf(p emath.Plane) ecolor.RGBPlane { return castOf(p, 1, 1, 1) }

func TestProcess_VeryDarkFrame(t *testing.T) {
	t.Parallel()
	lum := emath.NewUniformPlane(300, 300, 0.02)
	res, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.NoError(t, err)

	a := res.Audit
	assert.Equal(t, NightRoofClosedVeryDark, a.ModeInfo.Mode)
	assert.Equal(t, NightRoofClosed, a.ModeInfo.BaseMode)
	assert.Equal(t, 1.5, a.Recipe.Effective.CornerSigmaBP)
	assert.Equal(t, 6, a.Recipe.Effective.ChromaBlur)

	require.NotNil(t, a.BPGuardrails)
	assert.True(t, a.BPGuardrails.P10Skipped)
	require.NotNil(t, a.Stretch)
	assert.True(t, a.Stretch.Degenerate)

	assert.Equal(t, 300, res.Output.Dx())
	assert.Equal(t, 300, res.Output.Dy())
	for _, ch := range res.Output.Channels() {
		assert.True(t, inUnitRange(ch))
	}
}

func TestProcess_NightRoofClosed(t *testing.T) {
	t.Parallel()
	lum := darkRoomScene(300, 300, 0.01, 0.3, 0.4)
	res, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.NoError(t, err)

	a := res.Audit
	assert.Equal(t, NightRoofClosed, a.ModeInfo.Mode)
	assert.False(t, a.Recipe.Effective.MidtoneWB)
	assert.Equal(t, 1.0, a.Recipe.Effective.CornerSigmaBP)
	assert.False(t, a.MidtoneWB.Applied)
	assert.Equal(t, "disabled by recipe", a.MidtoneWB.Reason)
	assert.NotNil(t, a.HotPixelDab)
	assert.True(t, a.ShadowDenoise.Applied)
	assert.True(t, a.ChromaBlur.Applied)

	require.NotNil(t, a.QualityMetrics)
	for _, ch := range res.Output.Channels() {
		assert.True(t, inUnitRange(ch))
	}

	// every stage got timed
	for _, name := range newTestProcessor(t).StageNames() {
		assert.Contains(t, a.TimingsMs, name)
	}
}

func TestProcess_NightRoofClosedLargeFrame(t *testing.T) {
	t.Parallel()
	lum := darkRoomScene(500, 500, 0.01, 0.3, 0.3)
	res, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.NoError(t, err)

	s := res.Audit.ModeInfo.Stats
	assert.Equal(t, NightRoofClosed, res.Audit.ModeInfo.Mode)
	assert.InDelta(t, 0.01, s.P50, 1e-6)
	assert.InDelta(t, 0.01/0.3, s.CornerToCenterRatio, 1e-3)
	assert.InDelta(t, 0.29, s.CenterMinusCorner, 1e-3)
	assert.False(t, s.VeryDarkFrame)
	assert.Equal(t, 500, res.Output.Dx())
}

func TestProcess_DayRoofOpenWhiteBalance(t *testing.T) {
	t.Parallel()
	lum := rampScene(200, 200, 0.2, 0.8)
	res, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, castOf(lum, 1.1, 1.0, 0.8)))
	require.NoError(t, err)

	a := res.Audit
	assert.Equal(t, DayRoofOpen, a.ModeInfo.Mode)

	eff := a.Recipe.Effective
	assert.True(t, eff.MidtoneWB)
	assert.Zero(t, eff.CornerSigmaBP)
	assert.False(t, eff.HPDab)
	assert.Zero(t, eff.ChromaBlur)
	assert.Nil(t, a.HotPixelDab)
	assert.False(t, a.BPGuardrails.Applied)

	wb := a.MidtoneWB
	require.True(t, wb.Applied, wb.Reason)
	assert.GreaterOrEqual(t, wb.NMidtone, 100)
	require.Len(t, wb.EffectiveGains, 3)
	assert.Less(t, wb.EffectiveGains[0], wb.EffectiveGains[2], "red cast is pulled down relative to blue")

	for _, ch := range res.Output.Channels() {
		assert.True(t, inUnitRange(ch))
	}
}

func TestProcess_UniformBrightFrame(t *testing.T) {
	t.Parallel()
	lum := emath.NewUniformPlane(300, 300, 0.4)
	res, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.NoError(t, err)

	a := res.Audit
	assert.Equal(t, DayRoofOpen, a.ModeInfo.Mode)
	assert.InDelta(t, 1.0, a.ModeInfo.Stats.CornerToCenterRatio, 1e-6)
	assert.True(t, a.Recipe.Effective.MidtoneWB)

	// bias subtraction leaves a flat frame at zero, so there are no midtones
	assert.False(t, a.MidtoneWB.Applied)
	assert.Equal(t, "insufficient midtone pixels", a.MidtoneWB.Reason)
	assert.Zero(t, a.MidtoneWB.NMidtone)
	assert.Nil(t, a.MidtoneWB.EffectiveGains)
}

func TestProcess_TooSmall(t *testing.T) {
	t.Parallel()
	lum := emath.NewUniformPlane(40, 40, 0.2)
	_, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImageTooSmall))
	assert.Contains(t, err.Error(), "corner_stats")
	assert.Contains(t, err.Error(), "shape=(40, 40)")
}

func TestProcess_ShapeMismatch(t *testing.T) {
	t.Parallel()
	lum := emath.NewUniformPlane(120, 120, 0.2)
	rgb := grayOf(emath.NewUniformPlane(130, 120, 0.2))
	_, err := newTestProcessor(t).Process(context.Background(), frameOf(lum, rgb))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	p := newTestProcessor(t)
	model := emath.NewPlane(60, 60)
	p.LumModel = &model
	_, err = p.Process(context.Background(), frameOf(lum, grayOf(lum)))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestProcess_LumModelSubtracted(t *testing.T) {
	t.Parallel()
	lum := darkRoomScene(200, 200, 0.05, 0.4, 0.4)
	p := newTestProcessor(t)
	model := emath.NewUniformPlane(200, 200, 0.04)
	p.LumModel = &model

	res, err := p.Process(context.Background(), frameOf(lum, grayOf(lum)))
	require.NoError(t, err)
	assert.True(t, res.Audit.NoiseModel.LumModelApplied)
	assert.False(t, res.Audit.NoiseModel.RGBModelApplied)
	assert.InDelta(t, 0.01, res.Audit.CornerOverscan.Bias, 1e-6)
}

func TestProcess_MissingPlane(t *testing.T) {
	t.Parallel()
	lum := emath.NewUniformPlane(120, 120, 0.2)
	in := frameOf(lum, grayOf(lum))
	in.Color = nil
	_, err := newTestProcessor(t).Process(context.Background(), in)
	assert.Error(t, err)
}

func TestProcess_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lum := emath.NewUniformPlane(120, 120, 0.2)
	_, err := newTestProcessor(t).Process(ctx, frameOf(lum, grayOf(lum)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageOrder(t *testing.T) {
	t.Parallel()
	want := []string{
		"normalize", "noise_model", "corner_stats", "classify", "bias_subtract",
		"resolve_recipe", "hot_pixel_dab", "guardrails", "stretch_luminance",
		"shadow_denoise", "rgb_bias_subtract", "stretch_color", "blue_suppress",
		"midtone_wb", "composite", "chroma_blur", "desaturate", "quality_metrics",
	}
	assert.Equal(t, want, newTestProcessor(t).StageNames())
	assert.NoError(t, ValidateStages(DefaultStages()))
}

func TestValidateStages(t *testing.T) {
	t.Parallel()
	noop := func(*Processor, *frameState) error { return nil }

	tests := []struct {
		name   string
		stages []Stage
		errStr string
	}{
		{"duplicate", []Stage{{"a", nil, []string{"x"}, noop}, {"a", nil, nil, noop}}, "duplicate"},
		{"no run", []Stage{{"a", nil, nil, nil}}, "no Run"},
		{"missing input", []Stage{{"a", []string{"x"}, nil, noop}}, "input 'x'"},
		{"consumer before producer", []Stage{{"b", []string{"x"}, nil, noop}, {"a", nil, []string{"x"}, noop}}, "input 'x'"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStages(tt.stages)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errStr)
		})
	}

	// swapping two dependent default stages must be caught
	stages := DefaultStages()
	stages[8], stages[7] = stages[7], stages[8]
	assert.Error(t, ValidateStages(stages))
}

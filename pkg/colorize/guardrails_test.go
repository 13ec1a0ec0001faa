package colorize

import(
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBPGuardrails_Disabled(t *testing.T) {
	t.Parallel()
	for _, k := range []float64{0, -1} {
		bp, res := ApplyBPGuardrails(k, 0.01, 0.5, 0.1)
		assert.Nil(t, bp)
		assert.False(t, res.Applied)
		assert.Equal(t, "corner_sigma_bp <= 0", res.Reason)
	}
}

func TestApplyBPGuardrails_Unclamped(t *testing.T) {
	t.Parallel()
	bp, res := ApplyBPGuardrails(1.0, 0.01, 0.5, 0.1)
	require.NotNil(t, bp)
	assert.InDelta(t, 0.01, *bp, 1e-12)
	assert.False(t, res.WasClamped)
	assert.InDelta(t, 0.125, res.MaxBPFromWP, 1e-12)
	assert.InDelta(t, 0.15, res.MaxBPFromP10, 1e-12)
}

func TestApplyBPGuardrails_Ceilings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		k, sigma, wp, p10 float64
		want              float64
		p10Skipped        bool
		wasClamped        bool
	}{
		{"wp ceiling", 10, 0.1, 0.4, 0.5, 0.1, false, true},
		{"p10 ceiling", 10, 0.1, 4.0, 0.02, 0.03, false, true},
		{"p10 skipped when tiny", 10, 0.01, 1.0, 0.0005, 0.1, true, false},
		{"p10 skipped, wp still applies", 10, 0.1, 0.2, 0.0, 0.05, true, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bp, res := ApplyBPGuardrails(tt.k, tt.sigma, tt.wp, tt.p10)
			require.NotNil(t, bp)
			assert.InDelta(t, tt.want, *bp, 1e-12)
			assert.Equal(t, tt.p10Skipped, res.P10Skipped)
			assert.Equal(t, tt.wasClamped, res.WasClamped)
			assert.LessOrEqual(t, *bp, 0.25*tt.wp+1e-12)
			if !tt.p10Skipped {
				assert.LessOrEqual(t, *bp, 1.5*tt.p10+1e-12)
			}
		})
	}
}

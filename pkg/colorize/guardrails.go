package colorize

// Guardrail ceilings on the noise-floor black point
const(
	maxBPFractionOfWP = 0.25
	maxBPMultipleOfP10 = 1.5
	minUsableP10       = 0.001
)

type GuardrailResult struct {
	Applied        bool    `json:"applied"`
	Reason         string  `json:"reason,omitempty"`
	CornerSigmaBP  float64 `json:"corner_sigma_bp"`
	Sigma          float64 `json:"sigma"`
	RawOverrideBP  float64 `json:"raw_override_bp"`
	MaxBPFromWP    float64 `json:"max_bp_from_wp"`
	MaxBPFromP10   float64 `json:"max_bp_from_p10"`
	P10Skipped     bool    `json:"p10_ceiling_skipped"`
	ClampedBP      float64 `json:"clamped_bp"`
	WasClamped     bool    `json:"was_clamped"`
}

// ApplyBPGuardrails turns `cornerSigmaBP x sigma` into a black point
// override, clamped to at most 25% of the white point and at most 1.5x
// the 10th percentile. The p10 ceiling is skipped when p10 < 0.001,
// since an extremely dark frame has no meaningful p10. Returns nil when
// no override applies.
func ApplyBPGuardrails(cornerSigmaBP, sigma, wp, p10 float64) (*float64, GuardrailResult) {
	res := GuardrailResult{CornerSigmaBP: cornerSigmaBP, Sigma: sigma}
	if cornerSigmaBP <= 0 {
		res.Reason = "corner_sigma_bp <= 0"
		return nil, res
	}

	raw := cornerSigmaBP * sigma
	res.RawOverrideBP = raw
	res.MaxBPFromWP = maxBPFractionOfWP * wp

	if p10 < minUsableP10 {
		res.MaxBPFromP10 = raw
		res.P10Skipped = true
	} else {
		res.MaxBPFromP10 = maxBPMultipleOfP10 * p10
	}

	clamped := raw
	if res.MaxBPFromWP < clamped  { clamped = res.MaxBPFromWP }
	if res.MaxBPFromP10 < clamped { clamped = res.MaxBPFromP10 }

	res.Applied = true
	res.ClampedBP = clamped
	res.WasClamped = clamped < raw
	return &clamped, res
}

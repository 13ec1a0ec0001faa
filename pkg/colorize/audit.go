package colorize

import(
	"time"

	"github.com/google/uuid"
)

// AuditSchemaVersion is bumped whenever a field is renamed, moved or
// removed. Downstream tools read nested fields such as mode_info.mode
// and quality_metrics.*, so the layout below is a contract.
const AuditSchemaVersion = 2

// The Audit record is written next to every output image.
type Audit struct {
	SchemaVersion   int                `json:"schema_version"`
	RunID           string             `json:"run_id"`
	CreatedAt       time.Time          `json:"created_at"`

	Inputs          AuditInputs        `json:"inputs"`
	Normalize       AuditNormalize     `json:"normalize"`
	NoiseModel      AuditNoiseModel    `json:"noise_model"`
	CornerOverscan  *CornerDebug       `json:"corner_overscan"`
	RGBCornerBias   *RGBCornerDebug    `json:"rgb_corner_bias"`
	BiasSubtract    AuditBias          `json:"bias_subtract"`
	BiasSubtractRGB AuditBiasRGB       `json:"bias_subtract_rgb"`
	ModeInfo        *ModeInfo          `json:"mode_info"`
	Recipe          *ResolvedRecipe    `json:"recipe"`
	BPGuardrails    *GuardrailResult   `json:"bp_guardrails"`
	HotPixelDab     *HotPixelDebug     `json:"hot_pixel_dab"`
	Stretch         *StretchDebug      `json:"stretch"`
	ShadowDenoise   ShadowDenoiseDebug `json:"shadow_denoise"`
	BlueSuppress    BlueSuppressDebug  `json:"blue_suppress"`
	MidtoneWB       MidtoneWBDebug     `json:"midtone_wb"`
	ChromaBlur      ChromaBlurDebug    `json:"chroma_blur"`
	Color           ColorDebug         `json:"color"`
	QualityMetrics  *QualityMetrics    `json:"quality_metrics"`
	TimingsMs       map[string]float64 `json:"timings_ms"`
	Output          AuditOutput        `json:"output"`
}

type AuditInputs struct {
	LumPath   string            `json:"lum_path"`
	ColorPath string            `json:"color_path"`
	LumMeta   map[string]string `json:"lum_meta,omitempty"`
	ColorMeta map[string]string `json:"color_meta,omitempty"`
}

type AuditNormalize struct {
	Lum NormalizeInfo `json:"lum"`
	RGB NormalizeInfo `json:"rgb"`
}

type AuditNoiseModel struct {
	LumModelApplied bool `json:"lum_model_applied"`
	RGBModelApplied bool `json:"rgb_model_applied"`
}

type AuditBias struct {
	AppliedTo string  `json:"applied_to"`
	Bias      float64 `json:"bias"`
	SigmaMAD  float64 `json:"sigma_mad"`
}

type AuditBiasRGB struct {
	AppliedTo string    `json:"applied_to"`
	BiasRGB   []float64 `json:"bias_rgb"` // null when disabled by the recipe
}

type AuditOutput struct {
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	HDRPath string `json:"hdr_path,omitempty"`
}

func NewAudit() *Audit {
	return &Audit{
		SchemaVersion: AuditSchemaVersion,
		RunID:         uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		TimingsMs:     map[string]float64{},
	}
}

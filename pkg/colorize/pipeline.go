package colorize

import(
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

// A FrameInput is one capture: a luminance plane and a color plane, as
// decoded, plus where they came from.
type FrameInput struct {
	LumPath   string
	ColorPath string
	Lum       RawSource
	Color     RawSource
	LumMeta   map[string]string
	ColorMeta map[string]string
}

// frameState carries every intermediate of one run. Stages read and
// write named slots of it; see the Inputs/Outputs of each Stage.
type frameState struct {
	in            FrameInput
	lum           emath.Plane
	rgb           ecolor.RGBPlane
	corner        CornerStats
	rgbBias       RGBCornerBias
	modeInfo      ModeInfo
	lumCorr       emath.Plane
	recipe        ResolvedRecipe
	overrideBP    *float64
	stretch       StretchResult
	lumStretched  emath.Plane
	rgbCorr       ecolor.RGBPlane
	rgbStretched  ecolor.RGBPlane
	out           ecolor.RGBPlane
	audit         *Audit
}

// A Stage is one named step of the pipeline. Inputs and Outputs name
// the frameState slots it reads and writes.
type Stage struct {
	Name    string
	Inputs  []string
	Outputs []string
	Run     func(p *Processor, fs *frameState) error
}

// slots available before any stage runs
var initialSlots = []string{"raw_lum", "raw_rgb"}

// DefaultStages is the processing order. It is data, not incidental
// call order: ValidateStages checks that every input is produced by an
// earlier stage.
func DefaultStages() []Stage {
	return []Stage{
		{"normalize",         []string{"raw_lum", "raw_rgb"},                             []string{"lum", "rgb"},             stageNormalize},
		{"noise_model",       []string{"lum", "rgb"},                                     []string{"lum", "rgb"},             stageNoiseModel},
		{"corner_stats",      []string{"lum", "rgb"},                                     []string{"corner_stats", "rgb_bias"}, stageCornerStats},
		{"classify",          []string{"lum"},                                            []string{"mode_info"},              stageClassify},
		{"bias_subtract",     []string{"lum", "corner_stats"},                            []string{"lum_corr"},               stageBiasSubtract},
		{"resolve_recipe",    []string{"mode_info"},                                      []string{"recipe"},                 stageResolveRecipe},
		{"hot_pixel_dab",     []string{"lum_corr", "corner_stats", "recipe"},             []string{"lum_corr"},               stageHotPixelDab},
		{"guardrails",        []string{"lum_corr", "corner_stats", "recipe"},             []string{"override_bp"},            stageGuardrails},
		{"stretch_luminance", []string{"lum_corr", "recipe", "override_bp"},              []string{"lum_stretched", "bp_wp"}, stageStretchLuminance},
		{"shadow_denoise",    []string{"lum_stretched", "recipe"},                        []string{"lum_stretched"},          stageShadowDenoise},
		{"rgb_bias_subtract", []string{"rgb", "rgb_bias", "recipe"},                      []string{"rgb_corr"},               stageRGBBiasSubtract},
		{"stretch_color",     []string{"rgb_corr", "bp_wp", "recipe"},                    []string{"rgb_stretched"},          stageStretchColor},
		{"blue_suppress",     []string{"rgb_stretched", "recipe"},                        []string{"rgb_stretched"},          stageBlueSuppress},
		{"midtone_wb",        []string{"rgb_stretched", "recipe"},                        []string{"rgb_stretched"},          stageMidtoneWB},
		{"composite",         []string{"lum_stretched", "rgb_stretched", "recipe"},       []string{"out"},                    stageComposite},
		{"chroma_blur",       []string{"out", "recipe"},                                  []string{"out"},                    stageChromaBlur},
		{"desaturate",        []string{"out", "recipe"},                                  []string{"out"},                    stageDesaturate},
		{"quality_metrics",   []string{"out", "recipe"},                                  []string{"quality_metrics"},        stageQualityMetrics},
	}
}

// ValidateStages checks the declared data dependencies of a stage list.
func ValidateStages(stages []Stage) error {
	have := map[string]bool{}
	for _, s := range initialSlots {
		have[s] = true
	}
	seen := map[string]bool{}
	for i, st := range stages {
		if seen[st.Name] {
			return fmt.Errorf("stage %d '%s': duplicate name", i, st.Name)
		}
		seen[st.Name] = true
		if st.Run == nil {
			return fmt.Errorf("stage %d '%s': no Run func", i, st.Name)
		}
		for _, in := range st.Inputs {
			if !have[in] {
				return fmt.Errorf("stage %d '%s': input '%s' not produced by an earlier stage", i, st.Name, in)
			}
		}
		for _, out := range st.Outputs {
			have[out] = true
		}
	}
	return nil
}

// The Processor runs one frame at a time through the stage list. It
// holds no per-frame state, so one Processor can serve many goroutines.
type Processor struct {
	Config   Config
	Resolver Resolver
	LumModel *emath.Plane     // optional background models, in normalized units
	RGBModel *ecolor.RGBPlane
	Stages   []Stage
}

func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		Config:   cfg,
		Resolver: NewResolver(),
		Stages:   DefaultStages(),
	}
	if err := ValidateStages(p.Stages); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Processor)StageNames() []string {
	names := make([]string, len(p.Stages))
	for i, st := range p.Stages {
		names[i] = st.Name
	}
	return names
}

type Result struct {
	Output ecolor.RGBPlane
	Audit  *Audit
}

// Process runs every stage in order. Stages never run out of order, and
// a failing stage stops the frame. The context is checked between stages.
func (p *Processor)Process(ctx context.Context, in FrameInput) (*Result, error) {
	fs := &frameState{in: in, audit: NewAudit()}
	fs.audit.Inputs = AuditInputs{LumPath: in.LumPath, ColorPath: in.ColorPath, LumMeta: in.LumMeta, ColorMeta: in.ColorMeta}

	for _, st := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("before stage '%s': %w", st.Name, err)
		}
		tStart := time.Now()
		if err := st.Run(p, fs); err != nil {
			return nil, fmt.Errorf("stage '%s': %w", st.Name, err)
		}
		fs.audit.TimingsMs[st.Name] = float64(time.Since(tStart).Microseconds()) / 1000.0
		if p.Config.Verbosity > 1 {
			monitoring.Logf("%s: stage %-17s %8.2fms", in.LumPath, st.Name, fs.audit.TimingsMs[st.Name])
		}
	}

	return &Result{Output: fs.out, Audit: fs.audit}, nil
}

// dump writes a debug PNG of a plane, when DumpPlanes names a dir.
func (p *Processor)dump(fs *frameState, name string, pl emath.Plane) {
	if p.Config.DumpPlanes == "" {
		return
	}
	base := filepath.Base(fs.in.LumPath)
	filename := filepath.Join(p.Config.DumpPlanes, fmt.Sprintf("%s-%s.png", base, name))
	if err := pl.ToImg(name+" "+pl.Stats(), filename); err != nil {
		monitoring.Logf("dump %s: %v", name, err)
	}
}

func stageNormalize(p *Processor, fs *frameState) error {
	if fs.in.Lum == nil || fs.in.Color == nil {
		return fmt.Errorf("frame needs both a luminance and a color plane")
	}

	var err error
	if fs.lum, fs.audit.Normalize.Lum, err = fs.in.Lum.NormalizeMono(); err != nil {
		return fmt.Errorf("luminance '%s': %w", fs.in.LumPath, err)
	}
	if fs.rgb, fs.audit.Normalize.RGB, err = fs.in.Color.NormalizeColor(); err != nil {
		return fmt.Errorf("color '%s': %w", fs.in.ColorPath, err)
	}
	if !fs.lum.SameSize(fs.rgb.R) {
		return fmt.Errorf("%w: luminance %dx%d, color %dx%d", ErrShapeMismatch, fs.lum.Dx(), fs.lum.Dy(), fs.rgb.Dx(), fs.rgb.Dy())
	}
	p.dump(fs, "lum", fs.lum)
	return nil
}

func stageNoiseModel(p *Processor, fs *frameState) error {
	if p.LumModel != nil {
		if !p.LumModel.SameSize(fs.lum) {
			return fmt.Errorf("%w: luminance model %dx%d, frame %dx%d", ErrShapeMismatch, p.LumModel.Dx(), p.LumModel.Dy(), fs.lum.Dx(), fs.lum.Dy())
		}
		fs.lum = fs.lum.SubClip01(*p.LumModel)
		fs.audit.NoiseModel.LumModelApplied = true
	}
	if p.RGBModel != nil {
		if !p.RGBModel.R.SameSize(fs.rgb.R) {
			return fmt.Errorf("%w: color model %dx%d, frame %dx%d", ErrShapeMismatch, p.RGBModel.Dx(), p.RGBModel.Dy(), fs.rgb.Dx(), fs.rgb.Dy())
		}
		fs.rgb = fs.rgb.SubPlanesClip01(*p.RGBModel)
		fs.audit.NoiseModel.RGBModelApplied = true
	}
	return nil
}

func stageCornerStats(p *Processor, fs *frameState) error {
	roi, margin := p.Config.CornerGeometry()

	var err error
	if fs.corner, err = EstimateBiasSigma(fs.lum, roi, margin); err != nil {
		return err
	}
	if fs.rgbBias, err = EstimateRGBBias(fs.rgb, roi, margin); err != nil {
		return err
	}
	fs.audit.CornerOverscan = &fs.corner.Debug
	fs.audit.RGBCornerBias = &fs.rgbBias.Debug
	return nil
}

func stageClassify(p *Processor, fs *frameState) error {
	fs.modeInfo = ClassifyMode(fs.lum, p.Config.ClassifierThresholds())
	fs.audit.ModeInfo = &fs.modeInfo
	return nil
}

func stageBiasSubtract(p *Processor, fs *frameState) error {
	bias := fs.corner.Bias
	fs.lumCorr = fs.lum.Map(func(v float64) float64 { return emath.Clip01(v - bias) })
	fs.audit.BiasSubtract = AuditBias{AppliedTo: "lum", Bias: bias, SigmaMAD: fs.corner.Sigma}
	p.dump(fs, "lum_corr", fs.lumCorr)
	return nil
}

func stageResolveRecipe(p *Processor, fs *frameState) error {
	fs.recipe = p.Resolver.Resolve(fs.modeInfo.Mode, p.Config.AutoMode, p.Config.Recipe)

	// corner stats already ran with the configured geometry; record what was used
	fs.recipe.Effective.CornerROI, fs.recipe.Effective.CornerMargin = p.Config.CornerGeometry()
	fs.audit.Recipe = &fs.recipe
	return nil
}

func stageHotPixelDab(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	if !eff.HPDab {
		return nil
	}
	var dbg HotPixelDebug
	fs.lumCorr, dbg = HotPixelDab(fs.lumCorr, fs.corner.Sigma, eff.HPK, eff.HPMaxLuma)
	fs.audit.HotPixelDab = &dbg
	return nil
}

func stageGuardrails(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	_, wp, _ := StretchPoints(fs.lumCorr, eff.StretchParams(), nil)
	p10 := fs.lumCorr.Percentile(10)

	var res GuardrailResult
	fs.overrideBP, res = ApplyBPGuardrails(eff.CornerSigmaBP, fs.corner.Sigma, wp, p10)
	fs.audit.BPGuardrails = &res
	return nil
}

func stageStretchLuminance(p *Processor, fs *frameState) error {
	fs.stretch = StretchMono(fs.lumCorr, fs.recipe.Effective.StretchParams(), fs.overrideBP)
	fs.lumStretched = fs.stretch.Plane
	fs.audit.Stretch = &fs.stretch.Debug
	p.dump(fs, "lum_stretched", fs.lumStretched)
	return nil
}

func stageShadowDenoise(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	fs.audit.ShadowDenoise = ShadowDenoiseDebug{Amount: eff.ShadowDenoise, Start: eff.ShadowStart, End: eff.ShadowEnd}
	if eff.ShadowDenoise <= 0 {
		return nil
	}
	fs.lumStretched = ShadowDenoise(fs.lumStretched, eff.ShadowDenoise, eff.ShadowStart, eff.ShadowEnd)
	fs.audit.ShadowDenoise.Applied = true
	return nil
}

func stageRGBBiasSubtract(p *Processor, fs *frameState) error {
	fs.audit.BiasSubtractRGB.AppliedTo = "rgb_pre_stretch"
	if !fs.recipe.Effective.RGBBiasSubtract {
		fs.rgbCorr = fs.rgb
		return nil
	}
	fs.rgbCorr = fs.rgb.SubClip01(fs.rgbBias.Bias)
	fs.audit.BiasSubtractRGB.BiasRGB = fs.rgbBias.Bias.Slice()
	return nil
}

func stageStretchColor(p *Processor, fs *frameState) error {
	fs.rgbStretched = StretchRGB(fs.rgbCorr, fs.stretch.BlackPoint, fs.stretch.WhitePoint, fs.recipe.Effective.StretchParams())
	return nil
}

func stageBlueSuppress(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	fs.audit.BlueSuppress = BlueSuppressDebug{Strength: eff.BlueSuppress, Floor: eff.BlueFloor}
	if eff.BlueSuppress <= 0 {
		return nil
	}
	fs.rgbStretched, fs.audit.BlueSuppress.Affected = BlueSuppress(fs.rgbStretched, eff.BlueSuppress, eff.BlueFloor)
	fs.audit.BlueSuppress.Applied = true
	return nil
}

func stageMidtoneWB(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	if !eff.MidtoneWB {
		fs.audit.MidtoneWB = MidtoneWBDebug{Reason: "disabled by recipe", Strength: eff.MidtoneWBStrength}
		return nil
	}
	fs.rgbStretched, fs.audit.MidtoneWB = MidtoneWhiteBalance(fs.rgbStretched, eff.MidtoneWBStrength, p.Config.MidtoneWB)
	return nil
}

func stageComposite(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	fs.out = InjectChroma(fs.lumStretched, fs.rgbStretched, eff.ColorStrength, eff.ChromaClip)
	fs.audit.Color = ColorDebug{
		ColorStrength: eff.ColorStrength,
		ChromaClip:    eff.ChromaClip,
		BlueSuppress:  eff.BlueSuppress,
		BlueFloor:     eff.BlueFloor,
		Desaturate:    eff.Desaturate,
	}
	return nil
}

func stageChromaBlur(p *Processor, fs *frameState) error {
	r := fs.recipe.Effective.ChromaBlur
	fs.audit.ChromaBlur = ChromaBlurDebug{Radius: r}
	if r <= 0 {
		return nil
	}
	fs.out = BlurChromaOnly(fs.out, r)
	fs.audit.ChromaBlur.Applied = true
	return nil
}

func stageDesaturate(p *Processor, fs *frameState) error {
	if a := fs.recipe.Effective.Desaturate; a > 0 {
		fs.out = Desaturate(fs.out, a)
	}
	return nil
}

func stageQualityMetrics(p *Processor, fs *frameState) error {
	eff := fs.recipe.Effective
	qm := ComputeQualityMetrics(fs.out, eff.CornerROI, eff.CornerMargin)
	fs.audit.QualityMetrics = &qm
	fs.audit.Color.MeanAbsChroma = qm.MeanAbsChroma
	return nil
}

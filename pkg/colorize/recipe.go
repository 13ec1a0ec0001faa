package colorize

// RecipeParams is every tunable of the pipeline, fully populated.
type RecipeParams struct {
	BlackPct          float64 `yaml:"black_pct"           json:"black_pct"`
	WhitePct          float64 `yaml:"white_pct"           json:"white_pct"`
	Asinh             float64 `yaml:"asinh"               json:"asinh"`
	Gamma             float64 `yaml:"gamma"               json:"gamma"`
	ColorStrength     float64 `yaml:"color_strength"      json:"color_strength"`
	ChromaClip        float64 `yaml:"chroma_clip"         json:"chroma_clip"`
	BlueSuppress      float64 `yaml:"blue_suppress"       json:"blue_suppress"`
	BlueFloor         float64 `yaml:"blue_floor"          json:"blue_floor"`
	Desaturate        float64 `yaml:"desaturate"          json:"desaturate"`
	CornerROI         int     `yaml:"corner_roi"          json:"corner_roi"`
	CornerMargin      int     `yaml:"corner_margin"       json:"corner_margin"`
	CornerSigmaBP     float64 `yaml:"corner_sigma_bp"     json:"corner_sigma_bp"`
	RGBBiasSubtract   bool    `yaml:"rgb_bias_subtract"   json:"rgb_bias_subtract"`
	HPDab             bool    `yaml:"hp_dab"              json:"hp_dab"`
	HPK               float64 `yaml:"hp_k"                json:"hp_k"`
	HPMaxLuma         float64 `yaml:"hp_max_luma"         json:"hp_max_luma"`
	ShadowDenoise     float64 `yaml:"shadow_denoise"      json:"shadow_denoise"`
	ShadowStart       float64 `yaml:"shadow_start"        json:"shadow_start"`
	ShadowEnd         float64 `yaml:"shadow_end"          json:"shadow_end"`
	ChromaBlur        int     `yaml:"chroma_blur"         json:"chroma_blur"`
	MidtoneWB         bool    `yaml:"midtone_wb"          json:"midtone_wb"`
	MidtoneWBStrength float64 `yaml:"midtone_wb_strength" json:"midtone_wb_strength"`
}

// RecipeOverrides mirrors RecipeParams, but every field is optional: nil
// means "the caller did not ask for this", which is not the same as
// asking for zero or false.
type RecipeOverrides struct {
	BlackPct          *float64 `yaml:"black_pct,omitempty"           json:"black_pct,omitempty"`
	WhitePct          *float64 `yaml:"white_pct,omitempty"           json:"white_pct,omitempty"`
	Asinh             *float64 `yaml:"asinh,omitempty"               json:"asinh,omitempty"`
	Gamma             *float64 `yaml:"gamma,omitempty"               json:"gamma,omitempty"`
	ColorStrength     *float64 `yaml:"color_strength,omitempty"      json:"color_strength,omitempty"`
	ChromaClip        *float64 `yaml:"chroma_clip,omitempty"         json:"chroma_clip,omitempty"`
	BlueSuppress      *float64 `yaml:"blue_suppress,omitempty"       json:"blue_suppress,omitempty"`
	BlueFloor         *float64 `yaml:"blue_floor,omitempty"          json:"blue_floor,omitempty"`
	Desaturate        *float64 `yaml:"desaturate,omitempty"          json:"desaturate,omitempty"`
	CornerROI         *int     `yaml:"corner_roi,omitempty"          json:"corner_roi,omitempty"`
	CornerMargin      *int     `yaml:"corner_margin,omitempty"       json:"corner_margin,omitempty"`
	CornerSigmaBP     *float64 `yaml:"corner_sigma_bp,omitempty"     json:"corner_sigma_bp,omitempty"`
	RGBBiasSubtract   *bool    `yaml:"rgb_bias_subtract,omitempty"   json:"rgb_bias_subtract,omitempty"`
	HPDab             *bool    `yaml:"hp_dab,omitempty"              json:"hp_dab,omitempty"`
	HPK               *float64 `yaml:"hp_k,omitempty"                json:"hp_k,omitempty"`
	HPMaxLuma         *float64 `yaml:"hp_max_luma,omitempty"         json:"hp_max_luma,omitempty"`
	ShadowDenoise     *float64 `yaml:"shadow_denoise,omitempty"      json:"shadow_denoise,omitempty"`
	ShadowStart       *float64 `yaml:"shadow_start,omitempty"        json:"shadow_start,omitempty"`
	ShadowEnd         *float64 `yaml:"shadow_end,omitempty"          json:"shadow_end,omitempty"`
	ChromaBlur        *int     `yaml:"chroma_blur,omitempty"         json:"chroma_blur,omitempty"`
	MidtoneWB         *bool    `yaml:"midtone_wb,omitempty"          json:"midtone_wb,omitempty"`
	MidtoneWBStrength *float64 `yaml:"midtone_wb_strength,omitempty" json:"midtone_wb_strength,omitempty"`
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Bool(v bool) *bool        { return &v }

// ApplyTo copies every requested field over `p`.
func (o RecipeOverrides)ApplyTo(p RecipeParams) RecipeParams {
	setF := func(dst *float64, src *float64) { if src != nil { *dst = *src } }
	setI := func(dst *int, src *int)         { if src != nil { *dst = *src } }
	setB := func(dst *bool, src *bool)       { if src != nil { *dst = *src } }

	setF(&p.BlackPct, o.BlackPct)
	setF(&p.WhitePct, o.WhitePct)
	setF(&p.Asinh, o.Asinh)
	setF(&p.Gamma, o.Gamma)
	setF(&p.ColorStrength, o.ColorStrength)
	setF(&p.ChromaClip, o.ChromaClip)
	setF(&p.BlueSuppress, o.BlueSuppress)
	setF(&p.BlueFloor, o.BlueFloor)
	setF(&p.Desaturate, o.Desaturate)
	setI(&p.CornerROI, o.CornerROI)
	setI(&p.CornerMargin, o.CornerMargin)
	setF(&p.CornerSigmaBP, o.CornerSigmaBP)
	setB(&p.RGBBiasSubtract, o.RGBBiasSubtract)
	setB(&p.HPDab, o.HPDab)
	setF(&p.HPK, o.HPK)
	setF(&p.HPMaxLuma, o.HPMaxLuma)
	setF(&p.ShadowDenoise, o.ShadowDenoise)
	setF(&p.ShadowStart, o.ShadowStart)
	setF(&p.ShadowEnd, o.ShadowEnd)
	setI(&p.ChromaBlur, o.ChromaBlur)
	setB(&p.MidtoneWB, o.MidtoneWB)
	setF(&p.MidtoneWBStrength, o.MidtoneWBStrength)

	return p
}

// GenericDefaults is the recipe used when auto mode is off, or the mode
// has no table entry.
func GenericDefaults() RecipeParams {
	return RecipeParams{
		BlackPct:          5.0,
		WhitePct:          99.9,
		Asinh:             30.0,
		Gamma:             1.05,
		ColorStrength:     1.20,
		ChromaClip:        0.55,
		BlueSuppress:      0.92,
		BlueFloor:         0.020,
		Desaturate:        0.05,
		CornerROI:         50,
		CornerMargin:      5,
		CornerSigmaBP:     0.0,
		RGBBiasSubtract:   true,
		HPDab:             false,
		HPK:               11.0,
		HPMaxLuma:         0.25,
		ShadowDenoise:     0.0,
		ShadowStart:       0.02,
		ShadowEnd:         0.14,
		ChromaBlur:        0,
		MidtoneWB:         false,
		MidtoneWBStrength: 0.6,
	}
}

// A ModeTable maps each mode to its own default recipe.
type ModeTable map[Mode]RecipeParams

// DefaultModeTable builds a fresh copy of the stock per-mode recipes.
func DefaultModeTable() ModeTable {
	g := GenericDefaults()

	nightClosed := g
	nightClosed.CornerSigmaBP = 1.0
	nightClosed.HPDab = true
	nightClosed.ShadowDenoise = 0.25
	nightClosed.ChromaBlur = 1

	veryDark := nightClosed
	veryDark.BlueSuppress = 0.85
	veryDark.CornerSigmaBP = 1.5
	veryDark.HPK = 7.0
	veryDark.HPMaxLuma = 0.35
	veryDark.ShadowDenoise = 0.80
	veryDark.ShadowStart = 0.0
	veryDark.ShadowEnd = 0.30
	veryDark.ChromaBlur = 6

	nightOpen := g
	nightOpen.BlackPct = 3.0
	nightOpen.Asinh = 25.0
	nightOpen.Gamma = 1.08
	nightOpen.ColorStrength = 1.15
	nightOpen.ChromaClip = 0.60
	nightOpen.BlueSuppress = 0.80
	nightOpen.BlueFloor = 0.015
	nightOpen.Desaturate = 0.03
	nightOpen.CornerSigmaBP = 0.5
	nightOpen.HPDab = true
	nightOpen.HPK = 12.0
	nightOpen.HPMaxLuma = 0.30
	nightOpen.ShadowDenoise = 0.15
	nightOpen.ShadowEnd = 0.12
	nightOpen.ChromaBlur = 1

	dayClosed := g
	dayClosed.BlackPct = 1.0
	dayClosed.WhitePct = 99.7
	dayClosed.Asinh = 12.0
	dayClosed.Gamma = 1.10
	dayClosed.ColorStrength = 1.55
	dayClosed.ChromaClip = 0.85
	dayClosed.BlueSuppress = 0.45
	dayClosed.BlueFloor = 0.02
	dayClosed.Desaturate = 0.0
	dayClosed.MidtoneWB = true
	dayClosed.MidtoneWBStrength = 0.6

	dayOpen := g
	dayOpen.BlackPct = 0.5
	dayOpen.WhitePct = 99.5
	dayOpen.Asinh = 8.0
	dayOpen.Gamma = 1.12
	dayOpen.ColorStrength = 1.40
	dayOpen.ChromaClip = 0.90
	dayOpen.BlueSuppress = 0.30
	dayOpen.BlueFloor = 0.015
	dayOpen.Desaturate = 0.0
	dayOpen.MidtoneWB = true
	dayOpen.MidtoneWBStrength = 0.5

	return ModeTable{
		NightRoofClosed:         nightClosed,
		NightRoofClosedVeryDark: veryDark,
		NightRoofOpen:           nightOpen,
		DayRoofClosed:           dayClosed,
		DayRoofOpen:             dayOpen,
	}
}

// ResolvedRecipe records how the effective parameters came about.
type ResolvedRecipe struct {
	Mode      Mode            `json:"mode"`
	AutoMode  bool            `json:"auto_mode"`
	Requested RecipeOverrides `json:"requested"`
	Effective RecipeParams    `json:"effective"`
}

// A Resolver turns a mode plus caller overrides into effective
// parameters. It reads nothing but its own fields.
type Resolver struct {
	Table   ModeTable
	Generic RecipeParams
}

func NewResolver() Resolver {
	return Resolver{Table: DefaultModeTable(), Generic: GenericDefaults()}
}

// Resolve applies, per field: the mode default (or the generic default
// when auto is off), then the caller's explicit value, then the mode's
// conditional safety overrides, but only for fields the caller left
// unset. The last two steps must not be swapped, or a day-mode safety
// override would clobber an explicit request.
func (r Resolver)Resolve(mode Mode, auto bool, req RecipeOverrides) ResolvedRecipe {
	base := r.Generic
	if auto {
		if p, exists := r.Table[mode]; exists {
			base = p
		}
	}

	eff := req.ApplyTo(base)

	if auto {
		switch {
		case mode.IsDay():
			if req.CornerSigmaBP == nil { eff.CornerSigmaBP = 0.0 }
			if req.HPDab == nil         { eff.HPDab = false }
			if req.ShadowDenoise == nil { eff.ShadowDenoise = 0.0 }
			if req.ChromaBlur == nil    { eff.ChromaBlur = 0 }
			if req.MidtoneWB == nil     { eff.MidtoneWB = true }
		case mode.IsNight():
			if req.MidtoneWB == nil     { eff.MidtoneWB = false }
		}
	}

	return ResolvedRecipe{Mode: mode, AutoMode: auto, Requested: req, Effective: eff}
}

package main

import(
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/frameio"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

// pipelineFlags are the flags shared by `process` and `batch`. Recipe
// flags only become overrides when the user actually set them, so an
// unset flag never masks the mode's own value.
type pipelineFlags struct {
	noAuto    bool
	writeHDR  bool
	dump      string
	lumModel  string
	rgbModel  string
	workers   int

	floats    map[string]*float64
	ints      map[string]*int
	bools     map[string]*bool
}

func addPipelineFlags(cmd *cobra.Command) *pipelineFlags {
	pf := &pipelineFlags{floats: map[string]*float64{}, ints: map[string]*int{}, bools: map[string]*bool{}}
	f := cmd.Flags()
	g := colorize.GenericDefaults()

	f.BoolVar(&pf.noAuto, "no-auto", false, "don't pick the recipe from the detected mode; use the generic recipe")
	f.BoolVar(&pf.writeHDR, "hdr", false, "also write the float composite as Radiance .hdr")
	f.StringVar(&pf.dump, "dump", "", "dir to receive debug PNGs of intermediate planes")
	f.StringVar(&pf.lumModel, "lum-model", "", "luminance background model (.tif), subtracted after normalizing")
	f.StringVar(&pf.rgbModel, "rgb-model", "", "color background model (.tif)")
	f.IntVar(&pf.workers, "workers", 0, "parallel frames (0: one per CPU)")

	for _, d := range []struct{ name string; def float64; usage string }{
		{"black-pct", g.BlackPct, "black point percentile"},
		{"white-pct", g.WhitePct, "white point percentile"},
		{"asinh", g.Asinh, "asinh stretch strength (0 disables)"},
		{"gamma", g.Gamma, "gamma after the stretch"},
		{"color-strength", g.ColorStrength, "chroma scale when injecting color into luminance"},
		{"chroma-clip", g.ChromaClip, "max |chroma| per channel"},
		{"blue-suppress", g.BlueSuppress, "scale blue chroma above blue-floor by (1 - strength), 0..1"},
		{"blue-floor", g.BlueFloor, "only suppress blue chroma above this level"},
		{"desaturate", g.Desaturate, "final blend towards gray, 0..1"},
		{"corner-sigma-bp", g.CornerSigmaBP, "black point at this many corner sigmas (0 disables)"},
		{"hp-k", g.HPK, "hot pixel threshold, in sigmas above the local median"},
		{"hp-max-luma", g.HPMaxLuma, "only dab hot pixels darker than this"},
		{"shadow-denoise", g.ShadowDenoise, "shadow denoise blend, 0..1"},
		{"shadow-start", g.ShadowStart, "full denoise below this luminance"},
		{"shadow-end", g.ShadowEnd, "no denoise above this luminance"},
		{"midtone-wb-strength", g.MidtoneWBStrength, "midtone white balance blend, 0..1"},
	} {
		pf.floats[d.name] = f.Float64(d.name, d.def, d.usage)
	}
	for _, d := range []struct{ name string; def int; usage string }{
		{"corner-roi", g.CornerROI, "corner patch size, pixels"},
		{"corner-margin", g.CornerMargin, "corner patch inset from the edge, pixels"},
		{"chroma-blur", g.ChromaBlur, "chroma blur radius (0 disables)"},
	} {
		pf.ints[d.name] = f.Int(d.name, d.def, d.usage)
	}
	for _, d := range []struct{ name string; def bool; usage string }{
		{"rgb-bias-subtract", g.RGBBiasSubtract, "subtract per-channel corner bias from the color plane"},
		{"hp-dab", g.HPDab, "replace hot pixels with the local median"},
		{"midtone-wb", g.MidtoneWB, "neutralize midtones in the center of the frame"},
	} {
		pf.bools[d.name] = f.Bool(d.name, d.def, d.usage)
	}
	return pf
}

// config loads --config (if any), then layers the changed flags on top.
func (pf *pipelineFlags)config(cmd *cobra.Command) (colorize.Config, error) {
	cfg := colorize.NewConfig()
	if fConfigFile != "" {
		var err error
		if cfg, err = colorize.LoadConfig(fConfigFile); err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("verbose")   { cfg.Verbosity = fVerbosity }
	if changed("no-auto")   { cfg.AutoMode = !pf.noAuto }
	if changed("hdr")       { cfg.WriteHDR = pf.writeHDR }
	if changed("dump")      { cfg.DumpPlanes = pf.dump }
	if changed("lum-model") { cfg.LumModel = pf.lumModel }
	if changed("rgb-model") { cfg.RGBModel = pf.rgbModel }
	if changed("workers")   { cfg.Workers = pf.workers }

	o := &cfg.Recipe
	for name, dst := range map[string]**float64{
		"black-pct": &o.BlackPct, "white-pct": &o.WhitePct, "asinh": &o.Asinh, "gamma": &o.Gamma,
		"color-strength": &o.ColorStrength, "chroma-clip": &o.ChromaClip,
		"blue-suppress": &o.BlueSuppress, "blue-floor": &o.BlueFloor, "desaturate": &o.Desaturate,
		"corner-sigma-bp": &o.CornerSigmaBP, "hp-k": &o.HPK, "hp-max-luma": &o.HPMaxLuma,
		"shadow-denoise": &o.ShadowDenoise, "shadow-start": &o.ShadowStart, "shadow-end": &o.ShadowEnd,
		"midtone-wb-strength": &o.MidtoneWBStrength,
	} {
		if changed(name) {
			*dst = colorize.Float(*pf.floats[name])
		}
	}
	for name, dst := range map[string]**int{
		"corner-roi": &o.CornerROI, "corner-margin": &o.CornerMargin, "chroma-blur": &o.ChromaBlur,
	} {
		if changed(name) {
			*dst = colorize.Int(*pf.ints[name])
		}
	}
	for name, dst := range map[string]**bool{
		"rgb-bias-subtract": &o.RGBBiasSubtract, "hp-dab": &o.HPDab, "midtone-wb": &o.MidtoneWB,
	} {
		if changed(name) {
			*dst = colorize.Bool(*pf.bools[name])
		}
	}

	return cfg, cfg.Validate()
}

// processor builds the pipeline, loading any background models.
func (pf *pipelineFlags)processor(cmd *cobra.Command) (*colorize.Processor, error) {
	cfg, err := pf.config(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Verbosity > 0 {
		monitoring.Logf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	p, err := colorize.NewProcessor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.LumModel != "" {
		m, err := frameio.LoadMono(cfg.LumModel)
		if err != nil {
			return nil, fmt.Errorf("lum model: %w", err)
		}
		p.LumModel = &m
	}
	if cfg.RGBModel != "" {
		m, err := frameio.LoadColor(cfg.RGBModel)
		if err != nil {
			return nil, fmt.Errorf("rgb model: %w", err)
		}
		p.RGBModel = &m
	}
	return p, nil
}

package colorize

import(
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Verbosity  int             `yaml:"verbosity"`
	AutoMode   bool            `yaml:"auto_mode"`   // pick the recipe from the classified mode

	Thresholds Thresholds      `yaml:"thresholds"`
	Recipe     RecipeOverrides `yaml:"recipe"`      // explicit caller values; unset fields come from the mode
	MidtoneWB  MidtoneWBConfig `yaml:"midtone_wb"`

	WriteHDR   bool            `yaml:"write_hdr"`   // also write the float composite as Radiance .hdr
	DumpPlanes string          `yaml:"dump_planes"` // if set, a dir to receive debug PNGs of intermediate planes
	Workers    int             `yaml:"workers"`     // batch parallelism; 0 means one per CPU

	LumModel   string          `yaml:"lum_model"`   // optional background model TIFFs, subtracted after normalizing
	RGBModel   string          `yaml:"rgb_model"`
}

func NewConfig() Config {
	return Config{
		AutoMode:   true,
		Thresholds: DefaultThresholds(),
		MidtoneWB:  DefaultMidtoneWBConfig(),
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("config yaml: %w", err)
	}
	return c, c.Validate()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read '%s': %w", filename, err)
	}
	return NewConfigFromYaml(contents)
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// CornerGeometry is the ROI size and margin used for background
// statistics. An explicit recipe value wins over the threshold block,
// since corner stats run before the recipe is resolved.
func (c Config)CornerGeometry() (int, int) {
	roi, margin := c.Thresholds.CornerROI, c.Thresholds.CornerMargin
	if c.Recipe.CornerROI != nil    { roi = *c.Recipe.CornerROI }
	if c.Recipe.CornerMargin != nil { margin = *c.Recipe.CornerMargin }
	return roi, margin
}

// ClassifierThresholds are the thresholds with the resolved corner geometry.
func (c Config)ClassifierThresholds() Thresholds {
	th := c.Thresholds
	th.CornerROI, th.CornerMargin = c.CornerGeometry()
	return th
}

func (c Config)Validate() error {
	th := c.Thresholds
	if th.CenterFrac <= 0 || th.CenterFrac > 1 {
		return fmt.Errorf("thresholds.center_frac %g outside (0,1]", th.CenterFrac)
	}
	if th.ClosedRatio <= 0 {
		return fmt.Errorf("thresholds.closed_ratio %g must be > 0", th.ClosedRatio)
	}

	roi, margin := c.CornerGeometry()
	if roi < 1 || margin < 0 {
		return fmt.Errorf("corner roi=%d margin=%d: roi must be >= 1 and margin >= 0", roi, margin)
	}

	r := c.Recipe
	for name, v := range map[string]*float64{"black_pct": r.BlackPct, "white_pct": r.WhitePct} {
		if v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("recipe.%s %g outside [0,100]", name, *v)
		}
	}
	if r.BlackPct != nil && r.WhitePct != nil && *r.BlackPct >= *r.WhitePct {
		return fmt.Errorf("recipe.black_pct %g must be below white_pct %g", *r.BlackPct, *r.WhitePct)
	}
	if r.ChromaBlur != nil && *r.ChromaBlur < 0 {
		return fmt.Errorf("recipe.chroma_blur %d must be >= 0", *r.ChromaBlur)
	}
	if r.Gamma != nil && *r.Gamma <= 0 {
		return fmt.Errorf("recipe.gamma %g must be > 0", *r.Gamma)
	}

	wb := c.MidtoneWB
	if wb.LumaLow >= wb.LumaHigh {
		return fmt.Errorf("midtone_wb.luma_low %g must be below luma_high %g", wb.LumaLow, wb.LumaHigh)
	}
	if wb.MinGain <= 0 || wb.MinGain > wb.MaxGain {
		return fmt.Errorf("midtone_wb gains [%g,%g] invalid", wb.MinGain, wb.MaxGain)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers %d must be >= 0", c.Workers)
	}
	return nil
}

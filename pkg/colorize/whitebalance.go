package colorize

import(
	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

// MidtoneWBConfig holds the sampling rules for the midtone white balance.
type MidtoneWBConfig struct {
	ROIFrac   float64 `yaml:"roi_frac"   json:"roi_frac"`
	LumaLow   float64 `yaml:"luma_low"   json:"luma_low"`
	LumaHigh  float64 `yaml:"luma_high"  json:"luma_high"`
	MinPixels int     `yaml:"min_pixels" json:"min_pixels"`
	MinGain   float64 `yaml:"min_gain"   json:"min_gain"`
	MaxGain   float64 `yaml:"max_gain"   json:"max_gain"`
}

func DefaultMidtoneWBConfig() MidtoneWBConfig {
	return MidtoneWBConfig{
		ROIFrac:   0.25,
		LumaLow:   0.15,
		LumaHigh:  0.85,
		MinPixels: 100,
		MinGain:   0.5,
		MaxGain:   2.0,
	}
}

type MidtoneWBDebug struct {
	Applied        bool      `json:"applied"`
	Reason         string    `json:"reason,omitempty"`
	NMidtone       int       `json:"n_midtone"`
	ChannelMeans   []float64 `json:"channel_means,omitempty"`
	Target         float64   `json:"target,omitempty"`
	RawGains       []float64 `json:"raw_gains,omitempty"`
	EffectiveGains []float64 `json:"effective_gains,omitempty"`
	Strength       float64   `json:"strength"`
}

// MidtoneWhiteBalance neutralizes a color cast using the midtone pixels
// of a center crop: each channel is pulled toward the mean of the three
// channel means. Too few midtone pixels means no correction, and the
// input comes back unchanged.
func MidtoneWhiteBalance(rgb ecolor.RGBPlane, strength float64, cfg MidtoneWBConfig) (ecolor.RGBPlane, MidtoneWBDebug) {
	rgb = rgb.Clip01()
	dbg := MidtoneWBDebug{Strength: strength}

	roi := centerRect(rgb.Dx(), rgb.Dy(), cfg.ROIFrac)
	y := rgb.Luminance().Region(roi)
	ch := rgb.Channels()
	r, g, b := ch[0].Region(roi), ch[1].Region(roi), ch[2].Region(roi)

	sums := emath.Vec3{}
	for i, yv := range y {
		if yv < cfg.LumaLow || yv > cfg.LumaHigh {
			continue
		}
		sums[0] += r[i]
		sums[1] += g[i]
		sums[2] += b[i]
		dbg.NMidtone++
	}

	if dbg.NMidtone < cfg.MinPixels {
		dbg.Reason = "insufficient midtone pixels"
		return rgb, dbg
	}

	means := emath.Vec3{}
	for c := 0; c < 3; c++ {
		means[c] = sums[c] / float64(dbg.NMidtone)
	}
	target := means.Mean()

	gains := emath.Vec3{}
	for c := 0; c < 3; c++ {
		m := means[c]
		if m < 1e-6 { m = 1e-6 }
		gains[c] = target / m
	}
	gains.FloorAt(cfg.MinGain)
	gains.CeilingAt(cfg.MaxGain)

	eff := emath.Vec3{}
	for c := 0; c < 3; c++ {
		eff[c] = 1.0 + strength*(gains[c]-1.0)
	}

	out := [3]emath.Plane{}
	for c := 0; c < 3; c++ {
		gain := eff[c]
		out[c] = ch[c].Map(func(v float64) float64 { return emath.Clip01(v * gain) })
	}

	dbg.Applied = true
	dbg.ChannelMeans = means.Slice()
	dbg.Target = target
	dbg.RawGains = gains.Slice()
	dbg.EffectiveGains = eff.Slice()
	return ecolor.FromChannels(out), dbg
}

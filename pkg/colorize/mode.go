package colorize

import(
	"image"
	"strings"

	"github.com/abworrall/skycolor/pkg/emath"
)

// A Mode is the scene state a frame is classified into.
type Mode string

const(
	DayRoofOpen             Mode = "DAY_ROOF_OPEN"
	DayRoofClosed           Mode = "DAY_ROOF_CLOSED"
	NightRoofOpen           Mode = "NIGHT_ROOF_OPEN"
	NightRoofClosed         Mode = "NIGHT_ROOF_CLOSED"
	NightRoofClosedVeryDark Mode = "NIGHT_ROOF_CLOSED_VERY_DARK"
)

var AllModes = []Mode{DayRoofOpen, DayRoofClosed, NightRoofOpen, NightRoofClosed, NightRoofClosedVeryDark}

func (m Mode)IsDay() bool   { return strings.HasPrefix(string(m), "DAY_") }
func (m Mode)IsNight() bool { return strings.HasPrefix(string(m), "NIGHT_") }

// Thresholds drive the classifier. They were hand tuned against one
// camera and site, so they live in config rather than in code.
type Thresholds struct {
	DayP50        float64 `yaml:"day_p50"         json:"day_p50"`
	DayP99        float64 `yaml:"day_p99"         json:"day_p99"`
	ClosedRatio   float64 `yaml:"closed_ratio"    json:"closed_ratio"`
	ClosedDelta   float64 `yaml:"closed_delta"    json:"closed_delta"`
	CornerROI     int     `yaml:"corner_roi"      json:"corner_roi"`
	CornerMargin  int     `yaml:"corner_margin"   json:"corner_margin"`
	CenterFrac    float64 `yaml:"center_frac"     json:"center_frac"`
	VeryDarkP99   float64 `yaml:"very_dark_p99"   json:"very_dark_p99"`
	VeryDarkRange float64 `yaml:"very_dark_range" json:"very_dark_range"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DayP50:        0.10,
		DayP99:        0.35,
		ClosedRatio:   0.55,
		ClosedDelta:   0.02,
		CornerROI:     50,
		CornerMargin:  5,
		CenterFrac:    0.25,
		VeryDarkP99:   0.05,
		VeryDarkRange: 0.02,
	}
}

type ModeStats struct {
	P1                  float64 `json:"p1"`
	P10                 float64 `json:"p10"`
	P50                 float64 `json:"p50"`
	P90                 float64 `json:"p90"`
	P99                 float64 `json:"p99"`
	DynamicRange        float64 `json:"dynamic_range_p99_p1"`
	CornerMed           float64 `json:"corner_med"`
	CornerP90           float64 `json:"corner_p90"`
	CenterMed           float64 `json:"center_med"`
	CenterP90           float64 `json:"center_p90"`
	CornerToCenterRatio float64 `json:"corner_to_center_ratio"`
	CenterMinusCorner   float64 `json:"center_minus_corner"`
	IsDay               bool    `json:"is_day"`
	IsClosed            bool    `json:"is_closed"`
	VeryDarkFrame       bool    `json:"very_dark_frame"`
}

// ModeInfo is computed once per frame, and kept verbatim in the audit record.
type ModeInfo struct {
	Mode       Mode       `json:"mode"`
	BaseMode   Mode       `json:"base_mode"`
	Reason     string     `json:"reason"`
	Stats      ModeStats  `json:"stats"`
	Thresholds Thresholds `json:"thresholds"`
}

// CenterRegion is the centered crop covering `frac` of each dimension;
// frac is clipped to [0.05, 0.8].
func CenterRegion(w, h int, frac float64) image.Rectangle {
	return centerRect(w, h, emath.Clamp(frac, 0.05, 0.8))
}

func centerRect(w, h int, frac float64) image.Rectangle {
	ch := int(float64(h) * frac)
	cw := int(float64(w) * frac)
	if ch < 1 { ch = 1 }
	if cw < 1 { cw = 1 }
	y0 := (h - ch) / 2
	x0 := (w - cw) / 2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

// ClassifyMode must be given the luminance *before* bias subtraction; it
// compares a plausibly dark corner region with a plausibly bright center,
// and subtracting a corner-derived bias would erase that contrast.
func ClassifyMode(lum emath.Plane, th Thresholds) ModeInfo {
	lum = lum.Clip01()
	s := ModeStats{}

	pcts := lum.Percentiles(1, 10, 50, 90, 99, 5)
	s.P1, s.P10, s.P50, s.P90, s.P99 = pcts[0], pcts[1], pcts[2], pcts[3], pcts[4]
	s.DynamicRange = s.P99 - s.P1

	s.IsDay = s.P50 >= th.DayP50 || s.P99 >= th.DayP99

	if corners, _, err := CornerSamples(lum, th.CornerROI, th.CornerMargin); err == nil {
		cp := emath.Percentiles(corners, 50, 90)
		s.CornerMed, s.CornerP90 = cp[0], cp[1]
	} else {
		// Too small for corner ROIs; the dim end of the histogram stands in
		s.CornerMed, s.CornerP90 = pcts[5], s.P10
	}

	center := lum.Region(CenterRegion(lum.Dx(), lum.Dy(), th.CenterFrac))
	cp := emath.Percentiles(center, 50, 90)
	s.CenterMed, s.CenterP90 = cp[0], cp[1]

	denom := s.CenterMed
	if denom < 1e-6 { denom = 1e-6 }
	s.CornerToCenterRatio = s.CornerMed / denom
	s.CenterMinusCorner = s.CenterMed - s.CornerMed

	s.VeryDarkFrame = s.P99 < th.VeryDarkP99 && s.DynamicRange < th.VeryDarkRange
	standardClosed := s.CornerToCenterRatio <= th.ClosedRatio && s.CenterMinusCorner >= th.ClosedDelta
	s.IsClosed = s.VeryDarkFrame || standardClosed

	closedReason := "corners similar to center"
	if s.VeryDarkFrame {
		closedReason = "very dark frame (p99 < 0.05, low DR)"
	} else if standardClosed {
		closedReason = "corners much darker than center"
	}

	info := ModeInfo{Stats: s, Thresholds: th}
	switch {
	case s.IsDay && s.IsClosed:
		info.BaseMode, info.Reason = DayRoofClosed, "day brightness + " + closedReason
	case s.IsDay:
		info.BaseMode, info.Reason = DayRoofOpen, "day brightness + corners similar to center"
	case s.IsClosed:
		info.BaseMode, info.Reason = NightRoofClosed, "night brightness + " + closedReason
	default:
		info.BaseMode, info.Reason = NightRoofOpen, "night brightness + corners similar to center"
	}
	info.Mode = RefineMode(info.BaseMode, s.VeryDarkFrame)

	return info
}

// RefineMode splits NIGHT_ROOF_CLOSED into its very-dark variant.
func RefineMode(base Mode, veryDark bool) Mode {
	if base == NightRoofClosed && veryDark {
		return NightRoofClosedVeryDark
	}
	return base
}

package colorize

import(
	"errors"
	"fmt"
	"image"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

var ErrImageTooSmall = errors.New("image too small")

// sigmaFloor keeps sigma strictly positive on perfectly flat corners
const sigmaFloor = 1e-8

// CornerRegions returns the four ROI squares (TL, TR, BL, BR), each of
// side `roi`, inset by `margin` from its corner. The image must be big
// enough that the four squares cannot touch.
func CornerRegions(w, h, roi, margin int) ([4]image.Rectangle, error) {
	need := 2 * (margin + roi + 1)
	if roi < 1 || margin < 0 || h < need || w < need {
		return [4]image.Rectangle{}, fmt.Errorf("%w for roi=%d margin=%d: shape=(%d, %d)", ErrImageTooSmall, roi, margin, h, w)
	}
	m, r := margin, roi
	return [4]image.Rectangle{
		image.Rect(m,       m,       m+r,   m+r),   // TL
		image.Rect(w-m-r,   m,       w-m,   m+r),   // TR
		image.Rect(m,       h-m-r,   m+r,   h-m),   // BL
		image.Rect(w-m-r,   h-m-r,   w-m,   h-m),   // BR
	}, nil
}

// CornerSamples concatenates the four corner ROIs into one background
// sample set; it also returns each corner's samples.
func CornerSamples(p emath.Plane, roi, margin int) ([]float64, [4][]float64, error) {
	rects, err := CornerRegions(p.Dx(), p.Dy(), roi, margin)
	if err != nil {
		return nil, [4][]float64{}, err
	}
	all := make([]float64, 0, 4*roi*roi)
	each := [4][]float64{}
	for i, r := range rects {
		each[i] = p.Region(r)
		all = append(all, each[i]...)
	}
	return all, each, nil
}

type CornerDebug struct {
	ROI      int     `json:"roi"`
	Margin   int     `json:"margin"`
	NVals    int     `json:"n_vals"`
	TLMed    float64 `json:"tl_med"`
	TRMed    float64 `json:"tr_med"`
	BLMed    float64 `json:"bl_med"`
	BRMed    float64 `json:"br_med"`
	AllMin   float64 `json:"all_min"`
	AllP10   float64 `json:"all_p10"`
	AllP50   float64 `json:"all_p50"`
	AllP90   float64 `json:"all_p90"`
	AllMax   float64 `json:"all_max"`
	Bias     float64 `json:"bias"`
	SigmaMAD float64 `json:"sigma_mad"`
}

// CornerStats is the background estimate for a luminance plane. Sigma is
// always > 0.
type CornerStats struct {
	Bias  float64
	Sigma float64
	Debug CornerDebug
}

// EstimateBiasSigma samples the four corner ROIs of the (uncorrected)
// plane: bias is their median, sigma is the MAD-derived spread.
func EstimateBiasSigma(p emath.Plane, roi, margin int) (CornerStats, error) {
	all, each, err := CornerSamples(p, roi, margin)
	if err != nil {
		return CornerStats{}, err
	}

	bias, mad := emath.MADSigma(all)
	sigma := mad + sigmaFloor

	pcts := emath.Percentiles(all, 0, 10, 50, 90, 100)
	return CornerStats{
		Bias:  bias,
		Sigma: sigma,
		Debug: CornerDebug{
			ROI:      roi,
			Margin:   margin,
			NVals:    len(all),
			TLMed:    emath.Median(each[0]),
			TRMed:    emath.Median(each[1]),
			BLMed:    emath.Median(each[2]),
			BRMed:    emath.Median(each[3]),
			AllMin:   pcts[0],
			AllP10:   pcts[1],
			AllP50:   pcts[2],
			AllP90:   pcts[3],
			AllMax:   pcts[4],
			Bias:     bias,
			SigmaMAD: sigma,
		},
	}, nil
}

type RGBCornerDebug struct {
	ROI     int     `json:"roi"`
	Margin  int     `json:"margin"`
	BiasR   float64 `json:"bias_r"`
	BiasG   float64 `json:"bias_g"`
	BiasB   float64 `json:"bias_b"`
	NPixels int     `json:"n_pixels"`
}

type RGBCornerBias struct {
	Bias  emath.Vec3
	Debug RGBCornerDebug
}

// EstimateRGBBias is the per-channel counterpart of EstimateBiasSigma.
func EstimateRGBBias(rgb ecolor.RGBPlane, roi, margin int) (RGBCornerBias, error) {
	ret := RGBCornerBias{Debug: RGBCornerDebug{ROI: roi, Margin: margin}}
	for c, p := range rgb.Channels() {
		all, _, err := CornerSamples(p, roi, margin)
		if err != nil {
			return RGBCornerBias{}, err
		}
		ret.Bias[c] = emath.Median(all)
		ret.Debug.NPixels = len(all)
	}
	ret.Debug.BiasR, ret.Debug.BiasG, ret.Debug.BiasB = ret.Bias[0], ret.Bias[1], ret.Bias[2]
	return ret, nil
}

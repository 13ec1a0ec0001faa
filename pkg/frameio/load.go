// Package frameio reads and writes the files around the pipeline: raw
// planes in, 8-bit images, HDR composites, model planes and JSON audit
// records out.
package frameio

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

// Extensions we know how to decode
var Extensions = []string{".tif", ".tiff", ".png"}

func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// A Loaded plane, as decoded, not yet normalized.
type Loaded struct {
	Filename string
	Raw      colorize.RawSource
	Shape    []int             // (H,W) for gray images, (H,W,3) for color
	Meta     map[string]string // capture metadata, when the file has EXIF
}

func Load(filename string) (Loaded, error) {
	l := Loaded{Filename: filename}

	reader, err := os.Open(filename)
	if err != nil {
		return l, fmt.Errorf("open+r img '%s': %w", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
		if err == nil {
			l.Meta = readExif(filename)
		}
	case ".png":
		img, err = png.Decode(reader)
	default:
		return l, fmt.Errorf("'%s': unsupported extension, want one of %v", filename, Extensions)
	}
	if err != nil {
		return l, fmt.Errorf("decode '%s': %w", filename, err)
	}

	l.Raw, l.Shape = FromImage(img)
	return l, nil
}

// LoadMono loads and normalizes a single gray plane, e.g. a luminance
// background model.
func LoadMono(filename string) (emath.Plane, error) {
	l, err := Load(filename)
	if err != nil {
		return emath.Plane{}, err
	}
	p, _, err := l.Raw.NormalizeMono()
	if err != nil {
		return emath.Plane{}, fmt.Errorf("'%s': %w", filename, err)
	}
	return p, nil
}

func LoadColor(filename string) (ecolor.RGBPlane, error) {
	l, err := Load(filename)
	if err != nil {
		return ecolor.RGBPlane{}, err
	}
	rgb, _, err := l.Raw.NormalizeColor()
	if err != nil {
		return ecolor.RGBPlane{}, fmt.Errorf("'%s': %w", filename, err)
	}
	return rgb, nil
}

// LoadPair decodes both planes of a capture into a FrameInput.
func LoadPair(lumFile, colorFile string) (colorize.FrameInput, error) {
	lum, err := Load(lumFile)
	if err != nil {
		return colorize.FrameInput{}, err
	}
	col, err := Load(colorFile)
	if err != nil {
		return colorize.FrameInput{}, err
	}
	return colorize.FrameInput{
		LumPath:   lumFile,
		ColorPath: colorFile,
		Lum:       lum.Raw,
		Color:     col.Raw,
		LumMeta:   lum.Meta,
		ColorMeta: col.Meta,
	}, nil
}

// FromImage converts a decoded image into a raw plane, keeping the
// sample width (8 or 16 bits) so the normalizer divides by the right max.
func FromImage(img image.Image) (colorize.RawSource, []int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray16:
		return grayRaw(w, h, func(x, y int) uint16 { return src.Gray16At(b.Min.X+x, b.Min.Y+y).Y }), []int{h, w}

	case *image.Gray:
		return grayRaw(w, h, func(x, y int) uint8 { return src.GrayAt(b.Min.X+x, b.Min.Y+y).Y }), []int{h, w}

	case *image.NRGBA64:
		return rgbRaw(w, h, func(x, y int) [3]uint16 {
			c := src.NRGBA64At(b.Min.X+x, b.Min.Y+y)
			return [3]uint16{c.R, c.G, c.B}
		}), []int{h, w, 3}

	case *image.NRGBA:
		return rgbRaw(w, h, func(x, y int) [3]uint8 {
			c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			return [3]uint8{c.R, c.G, c.B}
		}), []int{h, w, 3}

	case *image.RGBA:
		return rgbRaw(w, h, func(x, y int) [3]uint8 {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			return [3]uint8{c.R, c.G, c.B}
		}), []int{h, w, 3}
	}

	// Anything else (RGBA64, paletted, CMYK...) goes through the 16-bit color model
	return rgbRaw(w, h, func(x, y int) [3]uint16 {
		c := color.RGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA64)
		return [3]uint16{c.R, c.G, c.B}
	}), []int{h, w, 3}
}

func grayRaw[T uint8 | uint16](w, h int, at func(x, y int) T) colorize.RawPlane[T] {
	rp := colorize.RawPlane[T]{Shape: []int{h, w}, Data: make([]T, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rp.Data[y*w + x] = at(x, y)
		}
	}
	return rp
}

// rgbRaw lays the samples out channel-last, (H,W,3)
func rgbRaw[T uint8 | uint16](w, h int, at func(x, y int) [3]T) colorize.RawPlane[T] {
	rp := colorize.RawPlane[T]{Shape: []int{h, w, 3}, Data: make([]T, 3*w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y)
			copy(rp.Data[3*(y*w + x):], v[:])
		}
	}
	return rp
}

// readExif pulls a few capture fields, if the file carries EXIF. Most
// camera exports do not, so any failure just means no metadata.
func readExif(filename string) map[string]string {
	reader, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer reader.Close()
	return exifMeta(reader)
}

func exifMeta(r io.Reader) map[string]string {
	ex, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	meta := map[string]string{}
	if t, err := ex.DateTime(); err == nil {
		meta["datetime"] = t.Format(time.RFC3339)
	}
	for name, field := range map[string]exif.FieldName{
		"exposure_time": exif.ExposureTime,
		"iso":           exif.ISOSpeedRatings,
		"fnumber":       exif.FNumber,
		"model":         exif.Model,
	} {
		if tag, err := ex.Get(field); err == nil {
			meta[name] = strings.Trim(tag.String(), `"`)
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

package frameio

import(
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

// writeFile creates filename and runs enc over it.
func writeFile(filename string, enc func(io.Writer) error) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	return encodeAndClose(writer, filename, enc)
}

// encodeAndClose runs enc, then closes w. A failed close is an error
// too, unless enc already failed.
func encodeAndClose(w io.WriteCloser, filename string, enc func(io.Writer) error) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close '%s': %w", filename, cerr)
		}
	}()
	if err := enc(w); err != nil {
		return fmt.Errorf("encode '%s': %w", filename, err)
	}
	return nil
}

func WritePNG(img image.Image, filename string) error {
	return writeFile(filename, func(w io.Writer) error { return png.Encode(w, img) })
}

// WriteImage8 quantizes the output planes to 8 bits and writes a PNG.
func WriteImage8(rgb ecolor.RGBPlane, filename string) error {
	return WritePNG(rgb.ToNRGBA(), filename)
}

// WriteToHDR outputs a Radiance HDR image. You can load this into
// photoshop or other HDR tools.
func WriteToHDR(img hdr.Image, filename string) error {
	if err := writeFile(filename, func(w io.Writer) error { return rgbe.Encode(w, img) }); err != nil {
		return fmt.Errorf("WriteToHDR: %w", err)
	}
	return nil
}

func WriteJSON(v interface{}, filename string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json '%s': %w", filename, err)
	}
	if err := os.WriteFile(filename, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	return nil
}

// WriteTIFF16 stores one plane (gray) or three planes (RGB) as a 16-bit
// TIFF. Values are clipped to [0,1] first.
func WriteTIFF16(planes []emath.Plane, filename string) error {
	if len(planes) != 1 && len(planes) != 3 {
		return fmt.Errorf("WriteTIFF16 '%s': want 1 or 3 planes, have %d", filename, len(planes))
	}
	q := func(v float64) uint16 { return uint16(emath.Clip01(v)*65535.0 + 0.5) }

	b := planes[0].Bounds()
	var img image.Image
	if len(planes) == 1 {
		g := image.NewGray16(b)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g.SetGray16(x, y, color.Gray16{q(planes[0].Get(x, y))})
			}
		}
		img = g
	} else {
		c := image.NewNRGBA64(b)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c.SetNRGBA64(x, y, color.NRGBA64{q(planes[0].Get(x, y)), q(planes[1].Get(x, y)), q(planes[2].Get(x, y)), 0xFFFF})
			}
		}
		img = c
	}

	return writeFile(filename, func(w io.Writer) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	})
}

package frameio

import(
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/skycolor/pkg/ecolor"
	"github.com/abworrall/skycolor/pkg/emath"
)

func gradient(w, h int) emath.Plane {
	p := emath.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set(x, y, float64(x+y)/float64(w+h-2))
		}
	}
	return p
}

func TestIsSupported(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]bool{
		"lum_1.tif":  true,
		"lum_1.TIFF": true,
		"raw_1.png":  true,
		"raw_1.fits": false,
		"notes.txt":  false,
		"noext":      false,
	} {
		assert.Equal(t, want, IsSupported(name), name)
	}
}

func TestTIFF16_MonoRoundTrip(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "lum_model.tif")
	p := gradient(32, 24)
	require.NoError(t, WriteTIFF16([]emath.Plane{p}, filename))

	l, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, []int{24, 32}, l.Shape)
	assert.Nil(t, l.Meta)

	p2, err := LoadMono(filename)
	require.NoError(t, err)
	require.True(t, p.SameSize(p2))
	for i, v := range p.Values() {
		assert.InDelta(t, v, p2.Values()[i], 1.0/65535)
	}
}

func TestTIFF16_ColorRoundTrip(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "rgb_model.tif")
	g := gradient(20, 10)
	rgb := ecolor.RGBPlane{R: g, G: g.Map(func(v float64) float64 { return v / 2 }), B: emath.NewUniformPlane(20, 10, 0.25)}
	ch := rgb.Channels()
	require.NoError(t, WriteTIFF16(ch[:], filename))

	rgb2, err := LoadColor(filename)
	require.NoError(t, err)
	want, got := rgb.Channels(), rgb2.Channels()
	for c := range want {
		for i, v := range want[c].Values() {
			assert.InDelta(t, v, got[c].Values()[i], 1.0/65535)
		}
	}

	_, err = LoadMono(filename)
	assert.Error(t, err, "a color file is not a mono plane")
}

func TestWriteTIFF16_PlaneCount(t *testing.T) {
	t.Parallel()
	g := gradient(4, 4)
	err := WriteTIFF16([]emath.Plane{g, g}, filepath.Join(t.TempDir(), "x.tif"))
	assert.Error(t, err)
}

func TestWriteImage8_PNGRoundTrip(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "out.png")
	rgb := ecolor.RGBPlane{R: emath.NewUniformPlane(8, 6, 1), G: emath.NewUniformPlane(8, 6, 0.5), B: emath.NewUniformPlane(8, 6, 0)}
	require.NoError(t, WriteImage8(rgb, filename))

	l, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 8, 3}, l.Shape)

	rgb2, _, err := l.Raw.NormalizeColor()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rgb2.R.Get(3, 3), 1e-9)
	assert.InDelta(t, 0.5, rgb2.G.Get(3, 3), 1.0/255)
	assert.InDelta(t, 0.0, rgb2.B.Get(3, 3), 1e-9)
}

func TestFromImage(t *testing.T) {
	t.Parallel()
	g8 := image.NewGray(image.Rect(0, 0, 3, 2))
	g8.SetGray(2, 1, color.Gray{255})
	raw, shape := FromImage(g8)
	assert.Equal(t, []int{2, 3}, shape)
	p, info, err := raw.NormalizeMono()
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Get(2, 1))
	assert.Equal(t, 255.0, info.Denom)

	g16 := image.NewGray16(image.Rect(0, 0, 2, 2))
	g16.SetGray16(0, 0, color.Gray16{65535})
	raw, _ = FromImage(g16)
	p, info, err = raw.NormalizeMono()
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Get(0, 0))
	assert.Equal(t, 65535.0, info.Denom)

	// a sub-image keeps its own origin
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.SetRGBA(2, 2, color.RGBA{255, 0, 0, 255})
	sub := rgba.SubImage(image.Rect(2, 2, 4, 4))
	raw, shape = FromImage(sub)
	assert.Equal(t, []int{2, 2, 3}, shape)
	rgb, _, err := raw.NormalizeColor()
	require.NoError(t, err)
	assert.Equal(t, 1.0, rgb.R.Get(0, 0))
	assert.Equal(t, 0.0, rgb.G.Get(0, 0))

	// anything else goes through the 16-bit color model
	pal := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	pal.SetColorIndex(1, 0, 1)
	raw, shape = FromImage(pal)
	assert.Equal(t, []int{1, 2, 3}, shape)
	rgb, _, err = raw.NormalizeColor()
	require.NoError(t, err)
	assert.Equal(t, 0.0, rgb.B.Get(0, 0))
	assert.Equal(t, 1.0, rgb.B.Get(1, 0))
}

func TestLoadPair(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lumFile, colFile := filepath.Join(dir, "lum_1.tif"), filepath.Join(dir, "raw_1.tif")
	g := gradient(16, 16)
	require.NoError(t, WriteTIFF16([]emath.Plane{g}, lumFile))
	require.NoError(t, WriteTIFF16([]emath.Plane{g, g, g}, colFile))

	in, err := LoadPair(lumFile, colFile)
	require.NoError(t, err)
	assert.Equal(t, lumFile, in.LumPath)
	assert.Equal(t, colFile, in.ColorPath)
	assert.NotNil(t, in.Lum)
	assert.NotNil(t, in.Color)

	_, err = LoadPair(lumFile, filepath.Join(dir, "missing.tif"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	other := filepath.Join(dir, "frame.fits")
	require.NoError(t, os.WriteFile(other, []byte("SIMPLE"), 0644))
	_, err = Load(other)
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestExifMeta_NoExif(t *testing.T) {
	t.Parallel()
	assert.Nil(t, exifMeta(bytes.NewReader([]byte("plain bytes"))))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "audit.json")
	require.NoError(t, WriteJSON(map[string]int{"schema_version": 2}, filename))

	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 2, got["schema_version"])
}

func TestWriteToHDR(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "out.hdr")
	rgb := ecolor.RGBPlane{R: gradient(8, 8), G: gradient(8, 8), B: gradient(8, 8)}
	require.NoError(t, WriteToHDR(rgb, filename))

	fi, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}

type closeFailWriter struct {
	bytes.Buffer
	closeErr error
	closed   int
}

func (w *closeFailWriter)Close() error {
	w.closed++
	return w.closeErr
}

func TestEncodeAndClose(t *testing.T) {
	t.Parallel()
	errDiskFull := errors.New("disk full")
	errEncode := errors.New("bad pixels")

	tests := []struct {
		name     string
		closeErr error
		encErr   error
		wantErr  error
		wantText string
	}{
		{"ok", nil, nil, nil, ""},
		{"close fails", errDiskFull, nil, errDiskFull, "close 'out.png'"},
		{"encode fails first", errDiskFull, errEncode, errEncode, "encode 'out.png'"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := &closeFailWriter{closeErr: tt.closeErr}
			err := encodeAndClose(w, "out.png", func(iw io.Writer) error {
				if tt.encErr != nil {
					return tt.encErr
				}
				_, werr := iw.Write([]byte("data"))
				return werr
			})
			assert.Equal(t, 1, w.closed)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "data", w.String())
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestWriters_ReportCreateFailure(t *testing.T) {
	t.Parallel()
	bad := filepath.Join(t.TempDir(), "missing", "out")
	p := emath.NewPlane(2, 2)

	assert.ErrorContains(t, WritePNG(image.NewGray(image.Rect(0, 0, 2, 2)), bad+".png"), "open+w")
	assert.ErrorContains(t, WriteTIFF16([]emath.Plane{p}, bad+".tif"), "open+w")
}

package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNGBecomesJPEGDataURI(t *testing.T) {
	uri, err := Decode(bytes.NewReader(pngBytes(t, testImage(64, 32))), Options{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("uri prefix = %q", uri[:30])
	}

	mtype, data, err := DecodeDataURI(uri)
	if err != nil || mtype != "image/jpeg" {
		t.Fatalf("DecodeDataURI = %q, %v", mtype, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoded payload is not an image: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("size = %dx%d, expected 64x32", cfg.Width, cfg.Height)
	}
}

func TestDecode_RejectsNonImage(t *testing.T) {
	_, err := Decode(strings.NewReader("just some text"), Options{})
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("err = %v, expected ErrNotImage", err)
	}
}

func TestNormalize_Downscales(t *testing.T) {
	out, err := Normalize(pngBytes(t, testImage(400, 200)), Options{MaxDimension: 100})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" || cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("got %s %dx%d, expected jpeg 100x50", format, cfg.Width, cfg.Height)
	}
}

func TestFit_KeepsSmallImages(t *testing.T) {
	img := testImage(10, 10)
	if Fit(img, 100) != image.Image(img) {
		t.Error("Fit should return small images unchanged")
	}
}

func TestOrient(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	tests := []struct {
		orientation  int
		w, h         int
		first, final image.Point
	}{
		{1, 2, 1, image.Pt(0, 0), image.Pt(1, 0)},
		{2, 2, 1, image.Pt(1, 0), image.Pt(0, 0)},
		{3, 2, 1, image.Pt(1, 0), image.Pt(0, 0)},
		{6, 1, 2, image.Pt(0, 0), image.Pt(0, 1)},
		{8, 1, 2, image.Pt(0, 1), image.Pt(0, 0)},
	}

	for _, tt := range tests {
		got := Orient(src, tt.orientation)
		b := got.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("orientation %d: size %dx%d, expected %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.w, tt.h)
			continue
		}
		if c := color.RGBAModel.Convert(got.At(tt.first.X, tt.first.Y)); c != red {
			t.Errorf("orientation %d: red pixel not at %v", tt.orientation, tt.first)
		}
		if c := color.RGBAModel.Convert(got.At(tt.final.X, tt.final.Y)); c != blue {
			t.Errorf("orientation %d: blue pixel not at %v", tt.orientation, tt.final)
		}
	}
}

func TestOrientation_DefaultsWithoutExif(t *testing.T) {
	if o := Orientation(pngBytes(t, testImage(2, 2))); o != 1 {
		t.Errorf("Orientation = %d, expected 1", o)
	}
}

func TestDecodeDataURI_Malformed(t *testing.T) {
	for _, uri := range []string{"", "image/png;base64,AAAA", "data:image/png,AAAA", "data:image/png;base64", "data:image/png;base64,!!"} {
		if _, _, err := DecodeDataURI(uri); !errors.Is(err, ErrBadDataURI) {
			t.Errorf("DecodeDataURI(%q) err = %v, expected ErrBadDataURI", uri, err)
		}
	}
}

// withDimensions rewrites the IHDR size of an encoded PNG without touching its pixel data.
func withDimensions(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	// 8-byte signature, 4-byte length, then "IHDR" and its 13-byte payload
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecode_RejectsOversizedDimensions(t *testing.T) {
	forged := withDimensions(pngBytes(t, testImage(2, 2)), 40000, 40000)

	_, err := Decode(bytes.NewReader(forged), Options{})
	if !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Decode error = %v, expected ErrTooManyPixels", err)
	}
}

func TestNormalize_AcceptsDimensionsWithinLimit(t *testing.T) {
	if _, err := Normalize(pngBytes(t, testImage(64, 32)), Options{}); err != nil {
		t.Errorf("Normalize failed: %v", err)
	}
}

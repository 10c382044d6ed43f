// Package imaging turns captured frames and uploaded files into the opaque
// data URI payload stored on a record.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1280
	DefaultQuality      = 80

	// MaxUploadBytes caps what Decode will read from an upload.
	MaxUploadBytes = 20 << 20
	// MaxPixels caps the declared width*height an image may have before it is decoded.
	MaxPixels = 50_000_000
)

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrTooLarge      = errors.New("image exceeds upload limit")
	ErrTooManyPixels = errors.New("image dimensions exceed limit")
	ErrBadDataURI    = errors.New("malformed data URI")
)

// Options control re-encoding.
type Options struct {
	MaxDimension int
	Quality      int
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Decode reads a single uploaded image file and returns it as a JPEG data URI,
// corrected for EXIF orientation and scaled to fit opts.MaxDimension.
func Decode(r io.Reader, opts Options) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	normalized, err := Normalize(data, opts)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(normalized), nil
}

// Normalize decodes data, applies EXIF orientation, downsizes it when either
// side exceeds opts.MaxDimension and re-encodes it as JPEG.
func Normalize(data []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if o := Orientation(data); o != 1 {
		img = Orient(img, o)
	}

	return EncodeJPEG(Fit(img, opts.MaxDimension), opts.Quality)
}

// Fit scales img down, keeping its aspect ratio, so that neither side exceeds max.
func Fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	scale := float64(max) / float64(w)
	if s := float64(max) / float64(h); s < scale {
		scale = s
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Orientation returns the EXIF orientation tag, or 1 when absent.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient applies an EXIF orientation so the image displays upright.
func Orient(img image.Image, orientation int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var at func(x, y int) (int, int)
	dw, dh := w, h
	switch orientation {
	case 2: // mirror horizontal
		at = func(x, y int) (int, int) { return w - 1 - x, y }
	case 3: // rotate 180
		at = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4: // mirror vertical
		at = func(x, y int) (int, int) { return x, h - 1 - y }
	case 5: // transpose
		dw, dh = h, w
		at = func(x, y int) (int, int) { return y, x }
	case 6: // rotate 90 cw
		dw, dh = h, w
		at = func(x, y int) (int, int) { return h - 1 - y, x }
	case 7: // transverse
		dw, dh = h, w
		at = func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
	case 8: // rotate 90 ccw
		dw, dh = h, w
		at = func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := at(x, y)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// EncodeDataURI wraps data in a base64 data URI with its sniffed MIME type.
func EncodeDataURI(data []byte) string {
	mtype := mimetype.Detect(data).String()
	if i := strings.IndexByte(mtype, ';'); i >= 0 {
		mtype = mtype[:i]
	}
	return "data:" + mtype + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its MIME type and payload.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	mtype, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: not base64", ErrBadDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return mtype, data, nil
}

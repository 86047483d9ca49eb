package ocr

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSide bounds the longer image edge sent to an engine.
const DefaultMaxSide = 1568

// MaxPixels bounds the decoded size of an upload. Larger images are refused
// before their pixels are decoded.
const MaxPixels = 40_000_000

// Prepare decodes an uploaded image of at most MaxPixels, shrinks it to fit
// within maxSide on both edges and re-encodes it as PNG. Images already small
// enough are only re-encoded.
func Prepare(raw []byte, maxSide uint) ([]byte, error) {
	if _, err := MIMEType(raw); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, errors.Wrapf(ErrUnsupportedImage, "image is %dx%d pixels", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	if maxSide == 0 {
		maxSide = DefaultMaxSide
	}
	b := img.Bounds()
	if uint(b.Dx()) > maxSide || uint(b.Dy()) > maxSide {
		img = resize.Thumbnail(maxSide, maxSide, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode prepared image")
	}
	return buf.Bytes(), nil
}

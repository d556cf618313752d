package media

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	maxDimension = 1600
	jpegQuality  = 85
)

// Normalize decodes an image, applies its EXIF orientation, shrinks it to fit
// within maxDimension and re-encodes it as JPEG.
func Normalize(r io.Reader) (Object, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return Object{}, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	return encode(img)
}

func encode(img image.Image) (Object, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return Object{}, fmt.Errorf("encode image: %w", err)
	}
	return Object{Body: bytes.NewReader(buf.Bytes()), Size: int64(buf.Len()), ContentType: "image/jpeg"}, nil
}

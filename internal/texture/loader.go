package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decoder func(io.Reader) (image.Image, error)

// TGA has no signature, so it is the fallback when nothing else matches.
// Dispatching on magic ourselves keeps a registered empty-magic TGA
// decoder from shadowing the others in image.Decode.
func pick(data []byte) (string, decoder) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png", png.Decode
	case bytes.HasPrefix(data, []byte{0xff, 0xd8}):
		return "jpeg", jpeg.Decode
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp", bmp.Decode
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff", tiff.Decode
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", webp.Decode
	default:
		return "tga", tga.Decode
	}
}

// Decode decodes PNG, JPEG, BMP, TIFF, WebP or TGA data into NRGBA.
func Decode(data []byte) (*image.NRGBA, error) {
	format, dec := pick(data)
	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", format, err)
	}
	return toNRGBA(img), nil
}

// LoadTexture reads and decodes an image file.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}
	return img, nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Package imaging normalizes uploaded item photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds the width and height of stored images.
	MaxDimension = 1024
	// MaxUploadBytes bounds the size of an accepted upload.
	MaxUploadBytes = 10 << 20

	jpegQuality = 85
)

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is a normalized item photo.
type Image struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize decodes an uploaded JPEG, PNG or WebP photo, fits it into a
// MaxDimension square and re-encodes it. Opaque images become JPEG; images
// with transparency stay PNG. The format is sniffed from the bytes, never
// taken from the client.
func Normalize(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	if sniffed := http.DetectContentType(data); !accepted[sniffed] {
		return nil, fmt.Errorf("unsupported image format %s (JPEG, PNG and WebP accepted)", sniffed)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img := fit(src, MaxDimension)

	var buf bytes.Buffer
	out := &Image{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if opaque(img) {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		out.MIME = "image/jpeg"
	} else {
		err = png.Encode(&buf, img)
		out.MIME = "image/png"
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", out.MIME, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// fit scales img down so that neither side exceeds limit. Smaller images
// are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	scale := float64(limit) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

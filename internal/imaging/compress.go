// Package imaging recompresses rendered book pages for transport.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoders for page formats Komga serves
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxWidth is the widest page image returned to clients.
	MaxWidth = 1568
	// Quality is the JPEG quality of returned page images.
	Quality = 80
	// MIMEType is the media type of compressed pages.
	MIMEType = "image/jpeg"
)

// Compressor downsizes images to a maximum width and re-encodes them as JPEG.
type Compressor struct {
	MaxWidth int
	Quality  int
}

// NewCompressor returns a Compressor with the default width and quality.
func NewCompressor() *Compressor {
	return &Compressor{MaxWidth: MaxWidth, Quality: Quality}
}

// Compress decodes a JPEG, PNG, GIF or WebP image, scales it down to MaxWidth
// preserving the aspect ratio, and encodes it as JPEG. Images are never enlarged.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := src
	b := src.Bounds()
	if c.MaxWidth > 0 && b.Dx() > c.MaxWidth {
		height := max(1, b.Dy()*c.MaxWidth/b.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, c.MaxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("encode %s page as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

package assetstore

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultWidths is the fixed size ladder derivatives are generated for,
// widest first.
var DefaultWidths = []int{1920, 1440, 1080, 720, 480, 240}

// Resizer is the opaque re-encoding capability: given source bytes and a
// target width, produce re-encoded bytes in the resizer's fixed output
// format. Implementations must be safe for concurrent use and must not
// share buffers between calls.
type Resizer interface {
	// Resize re-encodes src scaled down to width pixels wide
	Resize(src []byte, width int) ([]byte, error)

	// Format returns the file extension (with dot) and content type of the
	// resizer's output encoding
	Format() (ext, contentType string)
}

// ImagingResizer resizes with Lanczos resampling and re-encodes as JPEG.
type ImagingResizer struct {
	// Quality is the JPEG quality (1-100); 0 means 80
	Quality int
}

// Resize decodes src, scales it to the target width preserving aspect
// ratio, and re-encodes it. Each call decodes into its own buffers.
func (r ImagingResizer) Resize(src []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	quality := r.Quality
	if quality <= 0 {
		quality = 80
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode variant: %w", err)
	}
	return buf.Bytes(), nil
}

// Format reports the JPEG output encoding
func (ImagingResizer) Format() (string, string) {
	return ".jpg", "image/jpeg"
}

// Variant is one generated derivative ready for upload
type Variant struct {
	Key         string
	Width       int
	Data        []byte
	ContentType string
}

// VariantKey derives the destination key for a derivative: the original's
// directory, then size/w<width>/, then the base name with the variant
// extension.
func VariantKey(dir, baseName string, width int, ext string) string {
	base, _ := splitExt(baseName)
	return JoinKey(dir, fmt.Sprintf("size/w%d/%s%s", width, base, ext))
}

// VariantGenerator renders the derivative ladder for an original asset.
// Each width is an independent unit of work: a failure in one width never
// aborts the others.
type VariantGenerator struct {
	resizer Resizer
	widths  []int
}

// NewVariantGenerator creates a generator over the given ladder. A nil
// resizer defaults to ImagingResizer, empty widths to DefaultWidths.
func NewVariantGenerator(resizer Resizer, widths []int) *VariantGenerator {
	if resizer == nil {
		resizer = ImagingResizer{}
	}
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	return &VariantGenerator{resizer: resizer, widths: widths}
}

// Widths returns the ladder
func (g *VariantGenerator) Widths() []int {
	return g.widths
}

// Render produces the derivative for a single width
func (g *VariantGenerator) Render(src []byte, dir, baseName string, width int) (Variant, error) {
	data, err := g.resizer.Resize(src, width)
	if err != nil {
		return Variant{}, fmt.Errorf("resize to w%d: %w", width, err)
	}

	ext, contentType := g.resizer.Format()
	return Variant{
		Key:         VariantKey(dir, baseName, width, ext),
		Width:       width,
		Data:        data,
		ContentType: contentType,
	}, nil
}

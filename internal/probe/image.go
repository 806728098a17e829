package probe

import (
	"context"
	"fmt"
	"image"

	"media-index/internal/filesystem"
	"media-index/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ImageProber reads photo dimensions from file headers.
type ImageProber struct{}

// NewImageProber creates the built-in photo prober.
func NewImageProber() *ImageProber {
	return &ImageProber{}
}

// Probe reads image dimensions without fully decoding the image. When the
// header cannot be parsed it falls back to a full decode with
// auto-orientation applied, so rotated camera output reports its display
// dimensions.
func (p *ImageProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	config, _, err := image.DecodeConfig(file)
	if closeErr := file.Close(); closeErr != nil {
		logging.Warn("failed to close image file %s: %v", path, closeErr)
	}
	if err == nil {
		return &Metadata{Width: config.Width, Height: config.Height}, nil
	}

	logging.Debug("Could not read image header for %s: %v, falling back to full decode", path, err)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	return &Metadata{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

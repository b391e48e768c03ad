package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Screenshot captures a full-page PNG of the rendered design and scales it
// down to a thumbnail of at most maxWidth pixels wide.
func (e *Exporter) Screenshot(ctx context.Context, page *rod.Page, maxWidth int) ([]byte, error) {
	raw, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("export: screenshot: %w", err)
	}
	return Thumbnail(raw, maxWidth)
}

// Thumbnail decodes an image and resizes it to maxWidth (preserving aspect
// ratio) when it is wider. Output is PNG.
func Thumbnail(imgBytes []byte, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("export: decode image: %w", err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("export: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

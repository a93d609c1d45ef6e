package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"

	"github.com/filecrate/filecrate/internal/file"
)

// maxImageWidth caps the longest horizontal dimension of optimized
// images. Taller-than-wide images keep their aspect ratio.
const maxImageWidth = 1920

// ImageStage re-encodes images as WebP, downscaling anything wider than
// maxImageWidth.
type ImageStage struct{}

func NewImageStage() *ImageStage { return &ImageStage{} }

func (*ImageStage) Name() string              { return "optimize" }
func (*ImageStage) Suffix() string            { return "optimized" }
func (*ImageStage) OutputExt() string         { return "webp" }
func (*ImageStage) OutputContentType() string { return "image/webp" }
func (*ImageStage) DoneStatus() file.Status   { return file.StatusOptimized }
func (*ImageStage) FailedStatus() file.Status { return file.StatusOptimizationFailed }

func (*ImageStage) Transform(_ context.Context, src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("pipeline: decode image: %w", err)
	}
	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, toNRGBA(img), nil); err != nil {
		return nil, fmt.Errorf("pipeline: encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}

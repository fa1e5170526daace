package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// optimizeJPEG re-encodes the frame as a JPEG at the given quality, scaling
// down to maxWidth when the frame is wider. Frames already at or below
// maxWidth are never upscaled.
func optimizeJPEG(srcPath, dstPath string, maxWidth, quality int) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = scaleToWidth(img, maxWidth)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(dst, img, &jpeg.Options{Quality: quality}); err != nil {
		dst.Close()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return dst.Close()
}

func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

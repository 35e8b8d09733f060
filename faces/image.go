package faces

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Minimum side of a face crop handed to an engine; smaller faces are upscaled.
const minCropSide = 150

// Image is a decoded photo together with its JPEG encoding (dlib only reads JPEG).
type Image struct {
	Pixels      image.Image
	JPEG        []byte
	Orientation int // EXIF orientation that was applied, 0 if none
}

func (img *Image) Bounds() image.Rectangle {
	return img.Pixels.Bounds()
}

// DecodeImage decodes JPEG, PNG, GIF or WebP data and prepares its JPEG encoding.
func DecodeImage(data []byte) (*Image, error) {
	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if format == "jpeg" {
		return &Image{Pixels: pixels, JPEG: data}, nil
	}
	return NewImage(pixels, 90)
}

// NewImage wraps pixels, encoding them as JPEG with the given quality.
func NewImage(pixels image.Image, quality int) (*Image, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pixels, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &Image{Pixels: pixels, JPEG: buf.Bytes()}, nil
}

// CropRegion cuts region (grown by padding, relative to the region size) out of img.
// Regions with no area or outside the image fail with ErrEmbedding.
func CropRegion(img *Image, region Region, padding float64) (*Image, error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: empty region %s", ErrEmbedding, region.ToJSONString())
	}
	bounds := img.Bounds()
	rect := region.Rect()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("%w: region %s outside of image %v", ErrEmbedding, region.ToJSONString(), bounds)
	}
	padX := int(float64(rect.Dx()) * padding)
	padY := int(float64(rect.Dy()) * padding)
	rect = image.Rect(rect.Min.X-padX, rect.Min.Y-padY, rect.Max.X+padX, rect.Max.Y+padY).Intersect(bounds)

	dstW, dstH := rect.Dx(), rect.Dy()
	if side := min(dstW, dstH); side < minCropSide {
		scale := float64(minCropSide) / float64(side)
		dstW = int(float64(dstW) * scale)
		dstH = int(float64(dstH) * scale)
	}
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.Pixels, rect, draw.Src, nil)
	return NewImage(dst, 95)
}

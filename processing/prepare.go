package processing

import (
	"bytes"
	"fmt"
	"image"

	"idcheck/faces"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
)

type PrepareOptions struct {
	// MaxDimension bounds the longer side of the prepared image, 0 keeps the original size.
	MaxDimension uint
	Quality      int
}

// Prepare turns uploaded bytes into the image handed to the face engine:
// decoded, rotated upright per EXIF, downsized and re-encoded as JPEG.
func Prepare(data []byte, opts PrepareOptions) (*faces.Image, error) {
	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faces.ErrDecode, err)
	}
	orientation := readOrientation(data)
	if orientation > 1 {
		pixels = applyOrientation(pixels, orientation)
		log.Infof("Image orientation corrected (EXIF orientation %d)", orientation)
	}
	before := pixels.Bounds().Size()
	pixels = Compress(pixels, opts.MaxDimension)
	if after := pixels.Bounds().Size(); after != before {
		log.Debugf("Image (%s) downsized from %v to %v", format, before, after)
	}
	quality := opts.Quality
	if quality == 0 {
		quality = 90
	}
	img, err := faces.NewImage(pixels, quality)
	if err != nil {
		return nil, err
	}
	img.Orientation = orientation
	return img, nil
}

// readOrientation returns the EXIF orientation (1-8), or 0 when there is none.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 0
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// Compress fits img into a maxDimension square, keeping the aspect ratio. Smaller images are returned as is.
func Compress(img image.Image, maxDimension uint) image.Image {
	if maxDimension == 0 {
		return img
	}
	return resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
}

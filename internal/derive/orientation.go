package derive

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation code (tag 0x0112). 1 is upright.
type Orientation int

const (
	OrientationNormal     Orientation = 1
	OrientationFlipH      Orientation = 2
	OrientationRotate180  Orientation = 3
	OrientationFlipV      Orientation = 4
	OrientationTranspose  Orientation = 5
	OrientationRotate90CW Orientation = 6
	OrientationTransverse Orientation = 7
	OrientationRotate90CC Orientation = 8
)

// readOrientation returns the orientation recorded in the source's EXIF
// block, or OrientationNormal when there is none
func readOrientation(src []byte) Orientation {
	x, err := exif.Decode(bytes.NewReader(src))
	if err != nil {
		return OrientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}
	v, err := tag.Int(0)
	if err != nil {
		return OrientationNormal
	}
	return Orientation(v)
}

// applyOrientation rotates and mirrors img so it displays upright. Unknown
// codes leave the image untouched.
func applyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate90CW:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90CC:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

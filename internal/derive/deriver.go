// Package derive turns one source photo into the resolution variants pxl
// publishes. Derivation is pure: no filesystem or network access.
package derive

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lgulliver/pxl/internal/catalog"
)

// ErrUnreadableImage is returned when the source bytes cannot be decoded
var ErrUnreadableImage = errors.New("unreadable image")

// DefaultQuality is the JPEG quality used when none is configured
const DefaultQuality = 85

// Tier is one downscaled variant: a size tag and its target width in pixels
type Tier struct {
	Size  catalog.Size
	Width int
}

// DefaultTiers is the standard width policy, widest first
var DefaultTiers = []Tier{
	{Size: catalog.SizeDisplay, Width: 1600},
	{Size: catalog.SizeThumbnail, Width: 400},
}

// StandardTiers returns the display and thumbnail tiers at the given widths.
// A non-positive width keeps the DefaultTiers width for that tier.
func StandardTiers(displayWidth, thumbnailWidth int) []Tier {
	tiers := append([]Tier(nil), DefaultTiers...)
	for i := range tiers {
		switch {
		case tiers[i].Size == catalog.SizeDisplay && displayWidth > 0:
			tiers[i].Width = displayWidth
		case tiers[i].Size == catalog.SizeThumbnail && thumbnailWidth > 0:
			tiers[i].Width = thumbnailWidth
		}
	}
	return tiers
}

// Variant is one encoded rendition of the source
type Variant struct {
	Size   catalog.Size
	Data   []byte
	Width  int
	Height int
}

// Result holds the derived variants: the original first, then the
// generated tiers widest first
type Result []Variant

// Sizes returns the tags of the derived variants in order
func (r Result) Sizes() []catalog.Size {
	sizes := make([]catalog.Size, len(r))
	for i, v := range r {
		sizes[i] = v.Size
	}
	return sizes
}

// Get returns the variant for size, if it was generated
func (r Result) Get(size catalog.Size) (Variant, bool) {
	for _, v := range r {
		if v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}

// Deriver applies a fixed tier policy to source images
type Deriver struct {
	tiers   []Tier
	quality int
}

// New creates a Deriver. Tiers are ordered widest first; a non-positive
// quality selects DefaultQuality.
func New(tiers []Tier, quality int) *Deriver {
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Width > sorted[j].Width })
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Deriver{tiers: sorted, quality: quality}
}

// Tiers returns the policy in application order
func (d *Deriver) Tiers() []Tier {
	return append([]Tier(nil), d.tiers...)
}

// Derive decodes src, rights it according to its EXIF orientation and
// encodes the original plus every tier narrower than the source. Tiers at or
// above the source width are left out rather than upscaled.
func (d *Deriver) Derive(src []byte) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	img = applyOrientation(img, readOrientation(src))
	base := flatten(img)

	width, height := base.Bounds().Dx(), base.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnreadableImage)
	}

	original, err := d.encode(base)
	if err != nil {
		return nil, err
	}
	result := Result{{Size: catalog.SizeOriginal, Data: original, Width: width, Height: height}}

	for _, tier := range d.tiers {
		if tier.Width >= width {
			continue
		}
		scaledHeight := ScaledHeight(width, height, tier.Width)
		scaled := imaging.Resize(base, tier.Width, scaledHeight, imaging.Lanczos)

		data, err := d.encode(scaled)
		if err != nil {
			return nil, err
		}
		result = append(result, Variant{Size: tier.Size, Data: data, Width: tier.Width, Height: scaledHeight})
	}

	return result, nil
}

// ScaledHeight preserves the aspect ratio of a width x height source
// resized to targetWidth
func ScaledHeight(width, height, targetWidth int) int {
	h := int(math.Round(float64(height) * float64(targetWidth) / float64(width)))
	if h < 1 {
		return 1
	}
	return h
}

func (d *Deriver) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten converts any color model to opaque RGB by discarding alpha
func flatten(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = 0xff
		return c
	})
}

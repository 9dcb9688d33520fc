package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lgulliver/pxl/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Size is the tag of one resolution tier of an image
type Size string

const (
	SizeOriginal  Size = "original"
	SizeDisplay   Size = "display_w_1600"
	SizeThumbnail Size = "thumbnail_w_400"
)

// Sizes lists every known tier, original first
var Sizes = []Size{SizeOriginal, SizeDisplay, SizeThumbnail}

// Suffix returns the fixed object-name suffix of the tier
func (s Size) Suffix() string {
	switch s {
	case SizeOriginal:
		return "_o"
	case SizeDisplay:
		return "_w_1600"
	case SizeThumbnail:
		return "_w_400"
	default:
		return ""
	}
}

// Valid reports whether s is a known tier
func (s Size) Valid() bool {
	return s.Suffix() != ""
}

// ParseSize converts a tier tag into a Size
func ParseSize(tag string) (Size, error) {
	s := Size(tag)
	if !s.Valid() {
		return "", fmt.Errorf("unknown image size %q", tag)
	}
	return s, nil
}

// Image is one logical photo. ID derives the remote object names of every
// variant; AvailableSizes lists the variants that were uploaded.
type Image struct {
	ID             uuid.UUID
	AvailableSizes []Size
}

// NewImage builds an Image, rejecting variant sets that lack the original
func NewImage(id uuid.UUID, sizes []Size) (Image, error) {
	if id == uuid.Nil {
		return Image{}, fmt.Errorf("image id must not be nil")
	}
	img := Image{ID: id, AvailableSizes: append([]Size(nil), sizes...)}
	if !img.Has(SizeOriginal) {
		return Image{}, fmt.Errorf("image %s has no original variant", id)
	}
	return img, nil
}

// Has reports whether the size variant was generated for the image
func (i Image) Has(size Size) bool {
	for _, s := range i.AvailableSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ObjectName returns the remote object name of the requested variant. A tier
// that was never generated falls back to the original.
func (i Image) ObjectName(size Size, ext string) string {
	if !i.Has(size) {
		log.Warn().
			Str("image", i.ID.String()).
			Str("size", string(size)).
			Msg("size not available, using original")
		size = SizeOriginal
	}
	return i.ID.String() + size.Suffix() + ext
}

// ObjectNames returns the distinct object names of all variants, as used
// when deleting an image
func (i Image) ObjectNames(ext string) []string {
	names := make([]string, 0, len(i.AvailableSizes))
	seen := make(map[string]bool, len(i.AvailableSizes))
	for _, size := range i.AvailableSizes {
		name := i.ObjectName(size, ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Album is a named, dated collection of images. NavName is the URL slug of
// DisplayName and changes with it.
type Album struct {
	Created     time.Time
	Images      []Image
	DisplayName string
	NavName     string
}

// NewAlbum creates an empty album with the slug derived from name
func NewAlbum(name string, created time.Time) Album {
	return Album{
		Created:     created,
		Images:      []Image{},
		DisplayName: name,
		NavName:     utils.Slugify(name),
	}
}

// AddImage returns a copy of the album with img appended. Images are not
// deduplicated by id.
func (a Album) AddImage(img Image) Album {
	images := make([]Image, 0, len(a.Images)+1)
	images = append(images, a.Images...)
	a.Images = append(images, img)
	return a
}

// Rename returns a copy of the album with a new display name and slug
func (a Album) Rename(name string) Album {
	a.Images = append([]Image(nil), a.Images...)
	a.DisplayName = name
	a.NavName = utils.Slugify(name)
	return a
}

// WithCreated returns a copy of the album with a new creation date
func (a Album) WithCreated(created time.Time) Album {
	a.Images = append([]Image(nil), a.Images...)
	a.Created = created
	return a
}

// Catalog is the ordered set of all albums, persisted as one document
type Catalog struct {
	Albums []Album
}

// Empty returns a catalog without albums, used before the first upload
func Empty() Catalog {
	return Catalog{Albums: []Album{}}
}

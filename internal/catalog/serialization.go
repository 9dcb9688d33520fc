package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidDocument is returned when a catalog document does not match the
// expected schema
var ErrInvalidDocument = errors.New("invalid catalog document")

// Offset-less layouts accepted when reading documents written by older tools
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type documentJSON struct {
	Albums *[]albumJSON `json:"albums"`
}

type albumJSON struct {
	Images      *[]imageJSON `json:"images"`
	NameNav     *string      `json:"name_nav"`
	NameDisplay *string      `json:"name_display"`
	Created     *string      `json:"created"`
}

type imageJSON struct {
	RemoteUUID     *string  `json:"remote_uuid"`
	AvailableSizes []string `json:"available_sizes"`
}

// Marshal serializes the catalog into its JSON document
func Marshal(c Catalog) ([]byte, error) {
	albums := make([]albumJSON, 0, len(c.Albums))
	for _, album := range c.Albums {
		images := make([]imageJSON, 0, len(album.Images))
		for _, img := range album.Images {
			id := strings.ReplaceAll(img.ID.String(), "-", "")
			sizes := make([]string, 0, len(img.AvailableSizes))
			for _, s := range img.AvailableSizes {
				sizes = append(sizes, string(s))
			}
			images = append(images, imageJSON{RemoteUUID: &id, AvailableSizes: sizes})
		}

		created := FormatTimestamp(album.Created)
		albums = append(albums, albumJSON{
			Images:      &images,
			NameNav:     ptr(album.NavName),
			NameDisplay: ptr(album.DisplayName),
			Created:     &created,
		})
	}

	return json.Marshal(documentJSON{Albums: &albums})
}

// Unmarshal parses a catalog document. Any schema violation is reported as
// ErrInvalidDocument; nothing is silently dropped.
func Unmarshal(data []byte) (Catalog, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Albums == nil {
		return Catalog{}, fmt.Errorf("%w: missing albums", ErrInvalidDocument)
	}

	c := Catalog{Albums: make([]Album, 0, len(*doc.Albums))}
	for i, raw := range *doc.Albums {
		album, err := raw.toAlbum()
		if err != nil {
			return Catalog{}, fmt.Errorf("%w: album %d: %v", ErrInvalidDocument, i, err)
		}
		c.Albums = append(c.Albums, album)
	}

	return c, nil
}

func (a albumJSON) toAlbum() (Album, error) {
	switch {
	case a.NameDisplay == nil:
		return Album{}, errors.New("missing name_display")
	case a.NameNav == nil:
		return Album{}, errors.New("missing name_nav")
	case a.Created == nil:
		return Album{}, errors.New("missing created")
	case a.Images == nil:
		return Album{}, errors.New("missing images")
	}

	created, err := ParseTimestamp(*a.Created)
	if err != nil {
		return Album{}, err
	}

	images := make([]Image, 0, len(*a.Images))
	for j, raw := range *a.Images {
		img, err := raw.toImage()
		if err != nil {
			return Album{}, fmt.Errorf("image %d: %w", j, err)
		}
		images = append(images, img)
	}

	return Album{
		Created:     created,
		Images:      images,
		DisplayName: *a.NameDisplay,
		NavName:     *a.NameNav,
	}, nil
}

func (i imageJSON) toImage() (Image, error) {
	if i.RemoteUUID == nil {
		return Image{}, errors.New("missing remote_uuid")
	}
	id, err := uuid.Parse(*i.RemoteUUID)
	if err != nil {
		return Image{}, fmt.Errorf("invalid remote_uuid %q: %w", *i.RemoteUUID, err)
	}

	tags := i.AvailableSizes
	if len(tags) == 0 {
		tags = []string{string(SizeOriginal)}
	}
	sizes := make([]Size, 0, len(tags))
	for _, tag := range tags {
		size, err := ParseSize(tag)
		if err != nil {
			return Image{}, err
		}
		sizes = append(sizes, size)
	}

	return NewImage(id, sizes)
}

// FormatTimestamp renders t as ISO-8601 in UTC at second precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ParseTimestamp reads an ISO-8601 timestamp and returns it in UTC. Values
// without an offset are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func ptr(s string) *string {
	return &s
}

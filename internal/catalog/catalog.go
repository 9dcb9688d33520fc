package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrAlbumNotFound = errors.New("album not found")
)

// FindByName returns the album whose display name is exactly name
func (c Catalog) FindByName(name string) (Album, bool) {
	for _, album := range c.Albums {
		if album.DisplayName == name {
			return album, true
		}
	}
	return Album{}, false
}

// AddOrReplace drops any album sharing album's display name and appends
// album. Image lists are not merged; see MergeInto.
func (c Catalog) AddOrReplace(album Album) Catalog {
	albums := c.without(album.DisplayName)
	return Catalog{Albums: append(albums, album)}
}

// Remove drops the album with the given display name. Absent names are a no-op.
func (c Catalog) Remove(name string) Catalog {
	return Catalog{Albums: c.without(name)}
}

// Replace swaps the album named oldName for album, keeping its position.
// Absent names leave the catalog unchanged.
func (c Catalog) Replace(oldName string, album Album) Catalog {
	albums := make([]Album, len(c.Albums))
	for i, existing := range c.Albums {
		if existing.DisplayName == oldName {
			albums[i] = album
		} else {
			albums[i] = existing
		}
	}
	return Catalog{Albums: albums}
}

// MergeInto resolves a rename collision: the images of source are appended
// after those of the album named targetName, which keeps its position, and
// source is removed. Images are not deduplicated.
func (c Catalog) MergeInto(source Album, targetName string) (Catalog, error) {
	target, ok := c.FindByName(targetName)
	if !ok {
		return c, fmt.Errorf("%w: %s", ErrAlbumNotFound, targetName)
	}
	if source.DisplayName == targetName {
		return c, fmt.Errorf("cannot merge album %q into itself", targetName)
	}

	images := make([]Image, 0, len(target.Images)+len(source.Images))
	images = append(images, target.Images...)
	merged := target
	merged.Images = append(images, source.Images...)

	return c.Remove(source.DisplayName).Replace(targetName, merged), nil
}

func (c Catalog) without(name string) []Album {
	albums := make([]Album, 0, len(c.Albums)+1)
	for _, album := range c.Albums {
		if album.DisplayName != name {
			albums = append(albums, album)
		}
	}
	return albums
}

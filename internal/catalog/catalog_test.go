package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, sizes ...Size) Image {
	t.Helper()
	if len(sizes) == 0 {
		sizes = []Size{SizeOriginal}
	}
	img, err := NewImage(uuid.New(), sizes)
	require.NoError(t, err)
	return img
}

func testCatalog(t *testing.T, names ...string) Catalog {
	t.Helper()
	c := Empty()
	created := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, name := range names {
		c = c.AddOrReplace(NewAlbum(name, created).AddImage(testImage(t)))
	}
	return c
}

func TestNewImage(t *testing.T) {
	id := uuid.New()

	img, err := NewImage(id, []Size{SizeOriginal, SizeThumbnail})
	require.NoError(t, err)
	assert.Equal(t, id, img.ID)
	assert.True(t, img.Has(SizeThumbnail))
	assert.False(t, img.Has(SizeDisplay))

	_, err = NewImage(id, []Size{SizeThumbnail})
	assert.Error(t, err, "variant set without original must be rejected")

	_, err = NewImage(uuid.Nil, []Size{SizeOriginal})
	assert.Error(t, err)
}

func TestImage_ObjectName(t *testing.T) {
	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-901234567890")
	img, err := NewImage(id, []Size{SizeOriginal, SizeThumbnail})
	require.NoError(t, err)

	assert.Equal(t, "6f1c2d3e-4a5b-4c6d-8e7f-901234567890_o.jpg", img.ObjectName(SizeOriginal, ".jpg"))
	assert.Equal(t, "6f1c2d3e-4a5b-4c6d-8e7f-901234567890_w_400.jpg", img.ObjectName(SizeThumbnail, ".jpg"))
	assert.Equal(t, "6f1c2d3e-4a5b-4c6d-8e7f-901234567890_o.jpg", img.ObjectName(SizeDisplay, ".jpg"),
		"missing tier falls back to the original")

	assert.Equal(t, []string{
		"6f1c2d3e-4a5b-4c6d-8e7f-901234567890_o.jpg",
		"6f1c2d3e-4a5b-4c6d-8e7f-901234567890_w_400.jpg",
	}, img.ObjectNames(".jpg"))
}

func TestParseSize(t *testing.T) {
	for _, s := range Sizes {
		parsed, err := ParseSize(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseSize("huge")
	assert.Error(t, err)
}

func TestNewAlbum_DerivesSlug(t *testing.T) {
	album := NewAlbum("Summer In Rome", time.Now())
	assert.Equal(t, "Summer In Rome", album.DisplayName)
	assert.Equal(t, "summer-in-rome", album.NavName)
	assert.Empty(t, album.Images)
}

func TestAlbum_Rename(t *testing.T) {
	original := NewAlbum("Trip", time.Now()).AddImage(testImage(t))

	renamed := original.Rename("Road Trip")

	assert.Equal(t, "Road Trip", renamed.DisplayName)
	assert.Equal(t, "road-trip", renamed.NavName)
	assert.Equal(t, original.Images, renamed.Images)
	assert.Equal(t, "Trip", original.DisplayName, "rename must not touch the receiver")
	assert.Equal(t, "trip", original.NavName)
}

func TestAlbum_AddImage(t *testing.T) {
	img := testImage(t)
	album := NewAlbum("Trip", time.Now())

	once := album.AddImage(img)
	twice := once.AddImage(img)

	assert.Len(t, album.Images, 0, "receiver is unchanged")
	assert.Len(t, once.Images, 1)
	assert.Len(t, twice.Images, 2, "images are not deduplicated")
	assert.Equal(t, img.ID, twice.Images[0].ID)
	assert.Equal(t, img.ID, twice.Images[1].ID)
}

func TestAlbum_AddImageDoesNotAlias(t *testing.T) {
	base := NewAlbum("Trip", time.Now()).AddImage(testImage(t))
	base.Images = append(make([]Image, 0, 10), base.Images...)

	a := base.AddImage(testImage(t))
	b := base.AddImage(testImage(t))

	assert.NotEqual(t, a.Images[1].ID, b.Images[1].ID)
}

func TestCatalog_FindByName(t *testing.T) {
	c := testCatalog(t, "Trip", "Wedding")

	album, ok := c.FindByName("Wedding")
	assert.True(t, ok)
	assert.Equal(t, "Wedding", album.DisplayName)

	_, ok = c.FindByName("wedding")
	assert.False(t, ok, "lookup is an exact match")

	_, ok = Empty().FindByName("Trip")
	assert.False(t, ok)
}

func TestCatalog_AddOrReplace(t *testing.T) {
	t.Run("new album is visible and count grows by one", func(t *testing.T) {
		c := testCatalog(t, "Trip", "Wedding")
		album := NewAlbum("Birthday", time.Now()).AddImage(testImage(t))

		updated := c.AddOrReplace(album)

		assert.Len(t, updated.Albums, len(c.Albums)+1)
		found, ok := updated.FindByName("Birthday")
		require.True(t, ok)
		assert.Equal(t, album, found)
		assert.Equal(t, "Birthday", updated.Albums[len(updated.Albums)-1].DisplayName, "appended last")
		assert.Len(t, c.Albums, 2, "receiver unchanged")
	})

	t.Run("existing name replaces images and keeps count", func(t *testing.T) {
		c := testCatalog(t, "Trip", "Wedding")
		oldTrip, _ := c.FindByName("Trip")
		replacement := NewAlbum("Trip", time.Now()).AddImage(testImage(t))

		updated := c.AddOrReplace(replacement)

		assert.Len(t, updated.Albums, 2)
		found, ok := updated.FindByName("Trip")
		require.True(t, ok)
		assert.Equal(t, replacement, found)
		require.Len(t, found.Images, 1)
		assert.NotEqual(t, oldTrip.Images[0].ID, found.Images[0].ID, "images are replaced, not merged")
	})

	t.Run("works on empty catalog", func(t *testing.T) {
		album := NewAlbum("Trip", time.Now())
		updated := Empty().AddOrReplace(album)

		found, ok := updated.FindByName("Trip")
		assert.True(t, ok)
		assert.Equal(t, album, found)
	})
}

func TestCatalog_Remove(t *testing.T) {
	c := testCatalog(t, "Trip", "Wedding", "Birthday")

	updated := c.Remove("Wedding")
	assert.Len(t, updated.Albums, 2)
	_, ok := updated.FindByName("Wedding")
	assert.False(t, ok)
	assert.Equal(t, "Trip", updated.Albums[0].DisplayName)
	assert.Equal(t, "Birthday", updated.Albums[1].DisplayName)

	same := c.Remove("Nope")
	assert.Equal(t, c.Albums, same.Albums, "removing an absent album is a no-op")
}

func TestCatalog_Replace(t *testing.T) {
	c := testCatalog(t, "Trip", "Wedding", "Birthday")
	wedding, _ := c.FindByName("Wedding")

	updated := c.Replace("Wedding", wedding.Rename("Our Wedding"))

	require.Len(t, updated.Albums, 3)
	assert.Equal(t, "Our Wedding", updated.Albums[1].DisplayName, "position is kept")
	assert.Equal(t, "our-wedding", updated.Albums[1].NavName)
	assert.Equal(t, "Wedding", c.Albums[1].DisplayName, "receiver unchanged")
}

func TestCatalog_MergeInto(t *testing.T) {
	i1 := testImage(t)
	i2 := testImage(t)
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	c := Empty().
		AddOrReplace(NewAlbum("B", created).AddImage(i2)).
		AddOrReplace(NewAlbum("Other", created)).
		AddOrReplace(NewAlbum("A", created).AddImage(i1))
	a, _ := c.FindByName("A")

	merged, err := c.MergeInto(a, "B")
	require.NoError(t, err)

	_, ok := merged.FindByName("A")
	assert.False(t, ok, "source album is removed")

	b, ok := merged.FindByName("B")
	require.True(t, ok)
	assert.Equal(t, []Image{i2, i1}, b.Images)
	assert.Equal(t, "B", merged.Albums[0].DisplayName, "target keeps its position")
	assert.Len(t, merged.Albums, 2)

	original, _ := c.FindByName("B")
	assert.Equal(t, []Image{i2}, original.Images, "receiver unchanged")
}

func TestCatalog_MergeIntoDoesNotDeduplicate(t *testing.T) {
	shared := testImage(t)
	created := time.Now()
	c := Empty().
		AddOrReplace(NewAlbum("B", created).AddImage(shared)).
		AddOrReplace(NewAlbum("A", created).AddImage(shared))
	a, _ := c.FindByName("A")

	merged, err := c.MergeInto(a, "B")
	require.NoError(t, err)

	b, _ := merged.FindByName("B")
	assert.Equal(t, []Image{shared, shared}, b.Images)
}

func TestCatalog_MergeIntoErrors(t *testing.T) {
	c := testCatalog(t, "A", "B")
	a, _ := c.FindByName("A")

	_, err := c.MergeInto(a, "Missing")
	assert.ErrorIs(t, err, ErrAlbumNotFound)

	_, err = c.MergeInto(a, "A")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	date := time.Date(2018, 1, 25, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "Jan 25, 2018", FormatDate(date, DefaultDateLayout))
	assert.Equal(t, "Jan 25, 2018", FormatDate(date, ""))
	assert.Equal(t, "25.01.2018", FormatDate(date, "02.01.2006"))
	assert.Equal(t, "Jan 25, 2018", NewAlbum("Trip", date).CreatedHuman())
}

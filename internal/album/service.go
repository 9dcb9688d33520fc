// Package album implements the catalog use cases behind the pxl commands:
// uploading a directory as an album, editing, deleting and listing albums.
package album

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lgulliver/pxl/internal/catalog"
	"github.com/lgulliver/pxl/internal/derive"
	"github.com/lgulliver/pxl/internal/session"
	"github.com/lgulliver/pxl/internal/storage"
	"github.com/lgulliver/pxl/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Extension is appended to every image object name; all variants are JPEG
const Extension = ".jpg"

const (
	imageContentType  = "image/jpeg"
	imageCacheControl = "must-revalidate"
	imageDisposition  = "attachment"
)

var (
	ErrAlbumExists   = errors.New("album already exists")
	ErrAlbumNotFound = catalog.ErrAlbumNotFound
	ErrNotADirectory = errors.New("not a directory")
	ErrNoImages      = errors.New("no JPEG images found")
	ErrNothingToEdit = errors.New("nothing to edit")
)

// Service handles album operations against the shared catalog
type Service struct {
	Sessions *session.Manager
	Storage  storage.BlobStorage
	Deriver  *derive.Deriver
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for default creation dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides how image ids are generated
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new album service
func NewService(sessions *session.Manager, store storage.BlobStorage, deriver *derive.Deriver, opts ...Option) *Service {
	s := &Service{
		Sessions: sessions,
		Storage:  store,
		Deriver:  deriver,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadRequest describes a directory to publish as an album
type UploadRequest struct {
	Dir string
	// Name defaults to the title-cased directory name
	Name string
	// Created defaults to now. Ignored when appending to an existing album.
	Created   time.Time
	Append    bool
	BreakLock bool
}

// SkippedFile is a source file that could not be turned into an image
type SkippedFile struct {
	Path string
	Err  error
}

// UploadReport summarises an upload
type UploadReport struct {
	Album    catalog.Album
	Uploaded []catalog.Image
	Skipped  []SkippedFile
}

// Upload derives every JPEG in req.Dir, uploads the variants and records the
// album in the catalog. Unreadable files are skipped and reported.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadReport, error) {
	files, err := scanDir(req.Dir)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = utils.TitleCase(filepath.Base(filepath.Clean(req.Dir)))
	}
	created := req.Created
	if created.IsZero() {
		created = s.now()
	}

	log.Info().
		Str("album", name).
		Str("dir", req.Dir).
		Int("files", len(files)).
		Bool("append", req.Append).
		Msg("Starting album upload")

	var report *UploadReport
	err = s.Sessions.WithSession(ctx, req.BreakLock, func(ctx context.Context, c catalog.Catalog) (catalog.Catalog, error) {
		album, exists := c.FindByName(name)
		if exists && !req.Append {
			return c, fmt.Errorf("%w: %s", ErrAlbumExists, name)
		}
		if !exists {
			album = catalog.NewAlbum(name, created)
		}

		r := &UploadReport{}
		for _, path := range files {
			img, err := s.uploadFile(ctx, path)
			if errors.Is(err, derive.ErrUnreadableImage) {
				log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable image")
				r.Skipped = append(r.Skipped, SkippedFile{Path: path, Err: err})
				continue
			}
			if err != nil {
				return c, err
			}
			album = album.AddImage(img)
			r.Uploaded = append(r.Uploaded, img)
		}

		r.Album = album
		report = r
		return c.AddOrReplace(album), nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("album", name).
		Int("uploaded", len(report.Uploaded)).
		Int("skipped", len(report.Skipped)).
		Msg("Album upload completed")
	return report, nil
}

func (s *Service) uploadFile(ctx context.Context, path string) (catalog.Image, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return catalog.Image{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := s.Deriver.Derive(src)
	if err != nil {
		return catalog.Image{}, fmt.Errorf("%s: %w", path, err)
	}

	img, err := catalog.NewImage(s.newID(), result.Sizes())
	if err != nil {
		return catalog.Image{}, err
	}

	for _, v := range result {
		key := img.ObjectName(v.Size, Extension)
		err := s.Storage.Store(ctx, key, bytes.NewReader(v.Data), imageContentType,
			storage.Public(),
			storage.CacheControl(imageCacheControl),
			storage.ContentDisposition(imageDisposition),
		)
		if err != nil {
			return catalog.Image{}, storeFailure(ctx, "upload "+key, err)
		}
	}

	log.Info().
		Str("file", filepath.Base(path)).
		Str("image", img.ID.String()).
		Str("source_size", utils.FormatBytes(int64(len(src)))).
		Int("variants", len(result)).
		Msg("Image uploaded")
	return img, nil
}

// scanDir lists the JPEG files directly inside dir, sorted by name
func scanDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !utils.IsJPEG(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return files, nil
}

// EditRequest renames an album, changes its date, or both
type EditRequest struct {
	Name    string
	NewName string
	Created *time.Time
	// Merge allows renaming onto an existing album, appending this album's
	// images to it
	Merge     bool
	BreakLock bool
}

// Edit applies req and returns the resulting album
func (s *Service) Edit(ctx context.Context, req EditRequest) (*catalog.Album, error) {
	renaming := req.NewName != "" && req.NewName != req.Name
	if !renaming && req.Created == nil {
		return nil, ErrNothingToEdit
	}

	var edited catalog.Album
	err := s.Sessions.WithSession(ctx, req.BreakLock, func(ctx context.Context, c catalog.Catalog) (catalog.Catalog, error) {
		album, ok := c.FindByName(req.Name)
		if !ok {
			return c, fmt.Errorf("%w: %s", ErrAlbumNotFound, req.Name)
		}

		if renaming {
			if _, taken := c.FindByName(req.NewName); taken {
				if !req.Merge {
					return c, fmt.Errorf("%w: %s", ErrAlbumExists, req.NewName)
				}
				return s.merge(c, album, req, &edited)
			}
			album = album.Rename(req.NewName)
		}
		if req.Created != nil {
			album = album.WithCreated(*req.Created)
		}

		edited = album
		return c.Replace(req.Name, album), nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("album", req.Name).
		Str("now", edited.DisplayName).
		Int("images", len(edited.Images)).
		Msg("Album edited")
	return &edited, nil
}

func (s *Service) merge(c catalog.Catalog, source catalog.Album, req EditRequest, edited *catalog.Album) (catalog.Catalog, error) {
	merged, err := c.MergeInto(source, req.NewName)
	if err != nil {
		return c, err
	}

	target, _ := merged.FindByName(req.NewName)
	if req.Created != nil {
		target = target.WithCreated(*req.Created)
		merged = merged.Replace(req.NewName, target)
	}

	log.Info().
		Str("source", source.DisplayName).
		Str("target", target.DisplayName).
		Int("moved", len(source.Images)).
		Msg("Merging albums")
	*edited = target
	return merged, nil
}

// DeleteRequest names the album to delete
type DeleteRequest struct {
	Name      string
	BreakLock bool
}

// Delete removes every image object of the album, then the album itself
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*catalog.Album, error) {
	var deleted catalog.Album
	err := s.Sessions.WithSession(ctx, req.BreakLock, func(ctx context.Context, c catalog.Catalog) (catalog.Catalog, error) {
		album, ok := c.FindByName(req.Name)
		if !ok {
			return c, fmt.Errorf("%w: %s", ErrAlbumNotFound, req.Name)
		}

		var keys []string
		for _, img := range album.Images {
			keys = append(keys, img.ObjectNames(Extension)...)
		}
		if len(keys) > 0 {
			if err := s.Storage.Delete(ctx, keys...); err != nil {
				return c, storeFailure(ctx, "delete images of "+req.Name, err)
			}
		}

		log.Info().
			Str("album", req.Name).
			Int("images", len(album.Images)).
			Int("objects", len(keys)).
			Msg("Album deleted")
		deleted = album
		return c.Remove(req.Name), nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// List returns every album in catalog order
func (s *Service) List(ctx context.Context, breakLock bool) ([]catalog.Album, error) {
	var albums []catalog.Album
	err := s.Sessions.View(ctx, breakLock, func(ctx context.Context, c catalog.Catalog) error {
		albums = append([]catalog.Album(nil), c.Albums...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// storeFailure classifies an object store error the way sessions do: a done
// context wins, anything else is the store being unavailable
func storeFailure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %w", session.ErrStoreUnavailable, op, err)
}

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStorage implements BlobStorage on the local filesystem. Keys map to
// paths below basePath. Object metadata (ACL, headers) is not persisted.
type LocalStorage struct {
	basePath string
	mutex    sync.RWMutex
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure the base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Error().Err(err).Str("path", basePath).Msg("failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	log.Debug().Str("path", basePath).Msg("local storage initialized")
	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (ls *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(key)), nil
}

// Store saves content with atomic writes and integrity logging
func (ls *LocalStorage) Store(ctx context.Context, key string, content io.Reader, contentType string, opts ...StoreOption) error {
	startTime := time.Now()

	// Check if context is cancelled before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return err
	}
	options := applyOptions(opts)

	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("key", key).Str("dir", dir).Msg("failed to create directory")
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Create temporary file for atomic write
	tempPath := fullPath + ".tmp." + fmt.Sprintf("%d", time.Now().UnixNano())
	tempFile, err := os.Create(tempPath)
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("temp_path", tempPath).Msg("failed to create temporary file")
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		tempFile.Close()
		if _, err := os.Stat(tempPath); err == nil {
			os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	multiWriter := io.MultiWriter(tempFile, hasher)

	bytesWritten, err := io.Copy(multiWriter, content)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write content to temporary file")
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to sync temporary file")
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	tempFile.Close()

	if err := os.Rename(tempPath, fullPath); err != nil {
		log.Error().Err(err).Str("key", key).Str("temp_path", tempPath).Msg("failed to move temporary file to final location")
		return fmt.Errorf("failed to move file to final location: %w", err)
	}

	log.Debug().
		Str("key", key).
		Str("content_type", contentType).
		Bool("public", options.Public).
		Int64("bytes_written", bytesWritten).
		Str("checksum", hex.EncodeToString(hasher.Sum(nil))).
		Dur("duration", time.Since(startTime)).
		Msg("object stored")

	return nil
}

// Retrieve opens the object stored under key
func (ls *LocalStorage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("key", key).Msg("object not found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		log.Error().Err(err).Str("key", key).Msg("failed to open file")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes the objects stored under keys
func (ls *LocalStorage) Delete(ctx context.Context, keys ...string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	for _, key := range keys {
		fullPath, err := ls.resolve(key)
		if err != nil {
			return err
		}

		if err := os.Remove(fullPath); err != nil {
			if os.IsNotExist(err) {
				log.Debug().Str("key", key).Msg("object already deleted or does not exist")
				continue
			}
			log.Error().Err(err).Str("key", key).Msg("failed to delete file")
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		log.Debug().Str("key", key).Msg("object deleted")
	}

	return nil
}

// Exists checks if an object exists under key
func (ls *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return false, err
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		log.Error().Err(err).Str("key", key).Msg("failed to check file existence")
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return true, nil
}

// List returns the keys starting with prefix, sorted. Prefix matching is on
// the slash-separated key string, as in S3, not on directory boundaries.
func (ls *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	startTime := time.Now()

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	keys := []string{}
	err := filepath.Walk(ls.basePath, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				log.Debug().Err(err).Str("path", path).Msg("skipping inaccessible path")
				return filepath.SkipDir
			}
			return err
		}

		if info.IsDir() || strings.Contains(info.Name(), ".tmp.") {
			return nil
		}

		relPath, err := filepath.Rel(ls.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relPath)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to list files")
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(keys)
	log.Debug().
		Str("prefix", prefix).
		Int("count", len(keys)).
		Dur("duration", time.Since(startTime)).
		Msg("objects listed")

	return keys, nil
}

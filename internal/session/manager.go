// Package session brackets every catalog read or mutation with the
// advisory lock kept next to the catalog in the bucket.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lgulliver/pxl/internal/catalog"
	"github.com/lgulliver/pxl/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	// LockKey holds the lock record while a session is active
	LockKey = "lock.json"
	// StateKey holds the catalog document
	StateKey = "state.json"

	contentTypeJSON = "application/json"

	defaultReleaseTimeout = 30 * time.Second
)

// Body mutates the catalog. The returned catalog is persisted only when err is nil.
type Body func(ctx context.Context, c catalog.Catalog) (catalog.Catalog, error)

// Manager runs sessions against one bucket
type Manager struct {
	store          storage.BlobStorage
	holder         func() LockRecord
	releaseTimeout time.Duration
}

// Option configures a Manager
type Option func(*Manager)

// WithHolder overrides how the lock record for this process is built
func WithHolder(fn func() LockRecord) Option {
	return func(m *Manager) {
		m.holder = fn
	}
}

// WithReleaseTimeout bounds how long the lock release may take
func WithReleaseTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.releaseTimeout = d
		}
	}
}

// NewManager creates a session manager for store
func NewManager(store storage.BlobStorage, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		holder:         CurrentHolder,
		releaseTimeout: defaultReleaseTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithSession acquires the lock, loads the catalog, runs body and, when body
// succeeds, writes the returned catalog back. The lock is released however the
// session ends. Placing the lock is a check followed by an unconditional
// write, so two sessions starting at the same instant can both succeed.
func (m *Manager) WithSession(ctx context.Context, breakLock bool, body Body) error {
	return m.run(ctx, breakLock, body, true)
}

// View runs fn against the catalog under the lock without writing anything back
func (m *Manager) View(ctx context.Context, breakLock bool, fn func(ctx context.Context, c catalog.Catalog) error) error {
	return m.run(ctx, breakLock, func(ctx context.Context, c catalog.Catalog) (catalog.Catalog, error) {
		return c, fn(ctx, c)
	}, false)
}

// Holder returns the current lock record without acquiring, or nil when the
// catalog is unlocked. An unreadable record is returned as a zero LockRecord.
func (m *Manager) Holder(ctx context.Context) (*LockRecord, error) {
	record, held, err := m.readLock(ctx)
	if err != nil || !held {
		return nil, err
	}
	return &record, nil
}

func (m *Manager) run(ctx context.Context, breakLock bool, body Body, persist bool) (err error) {
	if err := m.acquire(ctx, breakLock); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			m.release(ctx)
			panic(r)
		}
		if relErr := m.release(ctx); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()

	current, err := m.load(ctx)
	if err != nil {
		return err
	}

	updated, err := body(ctx, current)
	if err != nil {
		return err
	}

	if !persist {
		return nil
	}
	return m.save(ctx, updated)
}

func (m *Manager) acquire(ctx context.Context, breakLock bool) error {
	existing, held, err := m.readLock(ctx)
	if err != nil {
		return err
	}
	if held {
		if !breakLock {
			return &LockHeldError{Holder: existing}
		}
		log.Warn().
			Str("user", existing.User).
			Str("hostname", existing.Hostname).
			Time("since", existing.StartTime).
			Dur("held_for", existing.Age(time.Now())).
			Msg("Breaking existing lock")
	}

	record := m.holder()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode lock record: %w", err)
	}
	if err := m.store.Store(ctx, LockKey, bytes.NewReader(data), contentTypeJSON); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return unavailable("place lock", err)
	}

	log.Debug().
		Str("user", record.User).
		Str("hostname", record.Hostname).
		Msg("Lock acquired")
	return nil
}

// readLock reports whether a lock record exists and, if it decodes, who holds it
func (m *Manager) readLock(ctx context.Context) (LockRecord, bool, error) {
	keys, err := m.store.List(ctx, LockKey)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return LockRecord{}, false, ctxErr
		}
		return LockRecord{}, false, unavailable("list lock", err)
	}

	found := false
	for _, key := range keys {
		if key == LockKey {
			found = true
			break
		}
	}
	if !found {
		return LockRecord{}, false, nil
	}

	reader, err := m.store.Retrieve(ctx, LockKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// released between the listing and the read
			return LockRecord{}, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return LockRecord{}, false, ctxErr
		}
		return LockRecord{}, false, unavailable("read lock", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return LockRecord{}, false, unavailable("read lock", err)
	}

	var record LockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Warn().Err(err).Msg("Lock record is unreadable, treating catalog as locked")
		return LockRecord{}, true, nil
	}
	return record, true, nil
}

func (m *Manager) load(ctx context.Context) (catalog.Catalog, error) {
	reader, err := m.store.Retrieve(ctx, StateKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug().Msg("No catalog document, starting from an empty catalog")
			return catalog.Empty(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return catalog.Catalog{}, ctxErr
		}
		return catalog.Catalog{}, unavailable("load catalog", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return catalog.Catalog{}, unavailable("load catalog", err)
	}

	c, err := catalog.Unmarshal(data)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	return c, nil
}

func (m *Manager) save(ctx context.Context, c catalog.Catalog) error {
	data, err := catalog.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := m.store.Store(ctx, StateKey, bytes.NewReader(data), contentTypeJSON); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return unavailable("save catalog", err)
	}

	log.Info().Int("albums", len(c.Albums)).Msg("Catalog saved")
	return nil
}

// release deletes the lock record even when the session context is done
func (m *Manager) release(parent context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), m.releaseTimeout)
	defer cancel()

	if err := m.store.Delete(ctx, LockKey); err != nil {
		log.Error().Err(err).Msg("Failed to release lock")
		return fmt.Errorf("%w: %w", ErrReleaseFailed, err)
	}
	log.Debug().Msg("Lock released")
	return nil
}

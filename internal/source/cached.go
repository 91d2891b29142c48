package source

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/internal/persistence"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// Cached wraps a file source with an in-memory copy and an on-disk gob snapshot.
//
// A normal fetch serves the in-memory copy, then a snapshot whose fingerprint
// matches the current file, then the file itself. A forced fetch always reads
// the file and rewrites the snapshot. Concurrent fetches of the same kind
// share one read.
type Cached struct {
	src          File
	snapshotPath string
	logger       *log.Logger
	group        singleflight.Group

	mu      sync.Mutex
	entries []model.Entry
	loaded  bool
}

// NewCached creates a caching wrapper; an empty snapshotPath disables the disk snapshot
func NewCached(src File, snapshotPath string) *Cached {
	return &Cached{
		src:          src,
		snapshotPath: snapshotPath,
		logger:       logger.New("source"),
	}
}

// Path returns the wrapped file's path
func (c *Cached) Path() string {
	return c.src.Path()
}

// LoadEntries returns the dataset; forceRefresh bypasses every cache layer
func (c *Cached) LoadEntries(ctx context.Context, forceRefresh bool) ([]model.Entry, error) {
	key := "load"
	if forceRefresh {
		key = "refresh"
	}
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.load(ctx, forceRefresh)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared dataset fetch", "path", c.src.Path(), "kind", key)
	}
	return cloneEntries(v.([]model.Entry)), nil
}

func (c *Cached) load(ctx context.Context, forceRefresh bool) ([]model.Entry, error) {
	if !forceRefresh {
		c.mu.Lock()
		if c.loaded {
			entries := c.entries
			c.mu.Unlock()
			return entries, nil
		}
		c.mu.Unlock()
	}

	fp, err := c.fingerprint()
	if err != nil {
		return nil, errors.NewDataSourceError(c.src.Path(), err)
	}

	if !forceRefresh {
		if entries, ok := c.fromSnapshot(fp); ok {
			c.remember(entries)
			return entries, nil
		}
	}

	entries, err := c.src.LoadEntries(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	c.remember(entries)

	if c.snapshotPath != "" {
		if err := persistence.SaveSnapshot(c.snapshotPath, fp, entries); err != nil {
			c.logger.Warn("failed to save dataset snapshot", "path", c.snapshotPath, "err", err)
		} else {
			c.logger.Debug("saved dataset snapshot", "path", c.snapshotPath, "entries", len(entries))
		}
	}
	return entries, nil
}

func (c *Cached) fromSnapshot(fp persistence.Fingerprint) ([]model.Entry, bool) {
	if c.snapshotPath == "" {
		return nil, false
	}
	snap, err := persistence.LoadSnapshot(c.snapshotPath)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			c.logger.Warn("ignoring unreadable dataset snapshot", "path", c.snapshotPath, "err", err)
		}
		return nil, false
	}
	if !snap.Source.Equal(fp) {
		c.logger.Debug("dataset snapshot is stale", "path", c.snapshotPath)
		return nil, false
	}
	c.logger.Info("loaded dataset snapshot", "path", c.snapshotPath, "entries", len(snap.Entries))
	return snap.Entries, true
}

func (c *Cached) fingerprint() (persistence.Fingerprint, error) {
	path := c.src.Path()
	info, err := os.Stat(path)
	if err != nil {
		return persistence.Fingerprint{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return persistence.Fingerprint{Path: abs, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (c *Cached) remember(entries []model.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.loaded = true
}

func cloneEntries(entries []model.Entry) []model.Entry {
	if entries == nil {
		return []model.Entry{}
	}
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	return out
}

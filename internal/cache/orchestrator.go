// Package cache coordinates the in-process memory tier and the on-disk tier
// for processed document units and their search indexes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bull/ebook-search-mcp/internal/searchindex"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

// Producer performs the expensive extraction when neither tier has a document.
type Producer func(ctx context.Context) ([]storage.Unit, error)

// Store is the persistent tier.
type Store interface {
	GetFromDisk(id string) (*storage.Record, error)
	SaveToDisk(rec *storage.Record) error
}

// Entry is a memory-tier entry: a document's units and the index built over them.
type Entry struct {
	DocumentID string
	Units      []storage.Unit
	Index      searchindex.Index

	lastAccessed atomic.Int64
}

// LastAccessed returns when the entry was created or last served from memory.
func (e *Entry) LastAccessed() time.Time {
	return time.Unix(0, e.lastAccessed.Load())
}

// Unit returns the unit with the given number.
func (e *Entry) Unit(number int) (storage.Unit, bool) {
	for _, u := range e.Units {
		if u.Number == number {
			return u, true
		}
	}
	return storage.Unit{}, false
}

func (e *Entry) touch(now time.Time) {
	e.lastAccessed.Store(now.UnixNano())
}

// Config holds orchestrator dependencies.
type Config struct {
	// Name labels log lines, e.g. "chapters" or "pages".
	Name string
	// Store is the persistent tier. Nil keeps everything in memory.
	Store Store
	// NewIndex builds empty indexes. Defaults to searchindex.NewBleve.
	NewIndex searchindex.Factory
	Logger   *slog.Logger
	Now      func() time.Time
	// Coalesce makes concurrent cold loads of the same id share one producer call.
	Coalesce bool
}

// Stats describes the memory tier.
type Stats struct {
	Entries      int
	OldestAccess *time.Time
}

// Orchestrator serves entries from memory, then disk, then the producer.
// Memory entries are never evicted while the orchestrator lives.
type Orchestrator struct {
	name     string
	store    Store
	newIndex searchindex.Factory
	logger   *slog.Logger
	now      func() time.Time
	coalesce bool

	mu      sync.Mutex
	entries map[string]*Entry

	group   singleflight.Group
	pending sync.WaitGroup
}

// NewOrchestrator creates an orchestrator with an empty memory tier.
func NewOrchestrator(cfg Config) *Orchestrator {
	o := &Orchestrator{
		name:     cfg.Name,
		store:    cfg.Store,
		newIndex: cfg.NewIndex,
		logger:   cfg.Logger,
		now:      cfg.Now,
		coalesce: cfg.Coalesce,
		entries:  make(map[string]*Entry),
	}
	if o.newIndex == nil {
		o.newIndex = searchindex.NewBleve
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// GetOrCreate returns the entry for id. A memory hit returns immediately.
// Otherwise a valid disk record is loaded, or produce is called and its error
// returned unchanged. Freshly produced units are persisted in the background;
// persistence failures are only logged.
func (o *Orchestrator) GetOrCreate(ctx context.Context, id string, produce Producer, displayName string) (*Entry, error) {
	if e := o.lookup(id); e != nil {
		return e, nil
	}

	if !o.coalesce {
		return o.load(ctx, id, produce, displayName)
	}

	v, err, _ := o.group.Do(id, func() (any, error) {
		if e := o.lookup(id); e != nil {
			return e, nil
		}
		return o.load(ctx, id, produce, displayName)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

func (o *Orchestrator) lookup(id string) *Entry {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[id]
	if !ok {
		return nil
	}
	e.touch(o.now())
	return e
}

func (o *Orchestrator) load(ctx context.Context, id string, produce Producer, displayName string) (*Entry, error) {
	if o.store != nil {
		rec, err := o.store.GetFromDisk(id)
		switch {
		case err == nil:
			o.logger.Info("Loading from disk cache", "cache", o.name, "id", id, "units", len(rec.Units))
			entry, err := o.build(id, rec.Units)
			if err == nil {
				e, _ := o.insert(entry)
				return e, nil
			}
			o.logger.Warn("Failed to rebuild index from disk record", "cache", o.name, "id", id, "error", err)
		case !errors.Is(err, storage.ErrRecordNotFound):
			o.logger.Warn("Disk cache lookup failed", "cache", o.name, "id", id, "error", err)
		}
	}

	o.logger.Info("Processing document", "cache", o.name, "id", id)
	units, err := produce(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := o.build(id, units)
	if err != nil {
		return nil, fmt.Errorf("build search index for %s: %w", id, err)
	}

	e, inserted := o.insert(entry)
	if inserted {
		o.logger.Info("Document cached", "cache", o.name, "id", id, "units", len(units))
		o.persist(id, displayName, units)
	}
	return e, nil
}

// build indexes every unit into a fresh index.
func (o *Orchestrator) build(id string, units []storage.Unit) (*Entry, error) {
	idx, err := o.newIndex()
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if err := idx.Add(u.Number, u.Content); err != nil {
			closeIndex(idx)
			return nil, err
		}
	}

	e := &Entry{DocumentID: id, Units: units, Index: idx}
	e.touch(o.now())
	return e, nil
}

// insert stores e unless another caller got there first, in which case the
// existing entry wins and e's index is released.
func (o *Orchestrator) insert(e *Entry) (*Entry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.entries[e.DocumentID]; ok {
		closeIndex(e.Index)
		existing.touch(o.now())
		return existing, false
	}
	o.entries[e.DocumentID] = e
	return e, true
}

func (o *Orchestrator) persist(id, displayName string, units []storage.Unit) {
	if o.store == nil {
		return
	}

	rec := storage.NewRecord(id, displayName, units, o.now())
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		if err := o.store.SaveToDisk(rec); err != nil {
			o.logger.Warn("Failed to save persistent cache", "cache", o.name, "id", id, "error", err)
		}
	}()
}

// Flush waits for background persistence to finish.
func (o *Orchestrator) Flush() {
	o.pending.Wait()
}

// Stats reports the number of entries and the oldest access time.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := Stats{Entries: len(o.entries)}
	for _, e := range o.entries {
		accessed := e.LastAccessed()
		if stats.OldestAccess == nil || accessed.Before(*stats.OldestAccess) {
			stats.OldestAccess = &accessed
		}
	}
	return stats
}

// Clear drops every memory entry and releases its index. Disk records are untouched.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		closeIndex(e.Index)
	}
	o.entries = make(map[string]*Entry)
}

// Close waits for pending persistence and releases all indexes.
func (o *Orchestrator) Close() error {
	o.Flush()

	o.mu.Lock()
	defer o.mu.Unlock()
	for id, e := range o.entries {
		closeIndex(e.Index)
		delete(o.entries, id)
	}
	return nil
}

func closeIndex(idx searchindex.Index) {
	if c, ok := idx.(io.Closer); ok {
		c.Close()
	}
}

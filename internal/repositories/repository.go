package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/observability"
	"community-service/internal/store"
)

// Lookup resolves a referenced document during hydration. It is read-only.
type Lookup func(ctx context.Context, collection, id string) (json.RawMessage, error)

// Populate hydrates one raw record: reference-id fields are resolved into
// the referenced records at a fixed depth. A dangling reference leaves the
// populated field empty rather than failing the read.
type Populate[T models.Entity] func(ctx context.Context, rec T, lookup Lookup) (T, error)

// Config describes one entity type to the generic repository.
type Config[T models.Entity] struct {
	Collection string
	TTL        time.Duration
	Populate   Populate[T]
}

// Repository is the single cache-aside implementation shared by every
// entity type. Reads hit the cache and fall back to a full rebuild from the
// store; writes go through the store first, splice the cached sequence
// wholesale, and then run the consistency verifier. A per-repository mutex
// serializes get-modify-put for the one cache key the repository owns, so
// two writers to the same collection cannot interleave across the store
// call boundary.
type Repository[T models.Entity] struct {
	gateway store.Gateway
	cache   *cache.Store
	cfg     Config[T]
	mu      sync.Mutex
}

// New constructs a repository over the shared cache and gateway.
func New[T models.Entity](gateway store.Gateway, c *cache.Store, cfg Config[T]) *Repository[T] {
	return &Repository[T]{gateway: gateway, cache: c, cfg: cfg}
}

// Collection returns the cache key / store collection this repository owns.
func (r *Repository[T]) Collection() string { return r.cfg.Collection }

// GetAll returns the full extent of the collection, from cache when fresh.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.getAllLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(recs))
	copy(out, recs)
	return out, nil
}

// GetByID returns the entity with the given id or ErrNotFound.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	recs, err := r.GetAll(ctx)
	if err != nil {
		return zero, err
	}
	rec, ok := lo.Find(recs, func(t T) bool { return t.EntityID() == id })
	if !ok {
		return zero, ErrNotFound
	}
	return rec, nil
}

// GetAllBy filters the collection. Zero matches is a valid empty result,
// never an error.
func (r *Repository[T]) GetAllBy(ctx context.Context, pred func(T) bool) ([]T, error) {
	recs, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(recs, func(t T, _ int) bool { return pred(t) }), nil
}

// Create writes the candidate through the gateway, appends the hydrated
// result to the cached sequence and verifies it is now visible.
func (r *Repository[T]) Create(ctx context.Context, candidate T) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := json.Marshal(candidate)
	if err != nil {
		return zero, err
	}
	raw, err := r.gateway.Create(ctx, r.cfg.Collection, doc)
	if err != nil {
		return zero, &PersistenceError{Op: "create", Collection: r.cfg.Collection, Err: err}
	}
	rec, err := r.hydrate(ctx, raw)
	if err != nil {
		return zero, err
	}

	if v, ok := r.cache.Get(r.cfg.Collection); ok {
		cached := v.([]T)
		next := make([]T, 0, len(cached)+1)
		next = append(next, cached...)
		next = append(next, rec)
		r.cache.Put(r.cfg.Collection, next, r.cfg.TTL)
	}

	if err := r.verifyLocked(ctx, rec.EntityID(), ExpectPresent); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update patches the persisted document, replaces the matching cached
// record with the hydrated result and verifies the new content is visible.
func (r *Repository[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.gateway.Update(ctx, r.cfg.Collection, id, patch)
	if errors.Is(err, store.ErrNoDocument) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, &PersistenceError{Op: "update", Collection: r.cfg.Collection, Err: err}
	}
	rec, err := r.hydrate(ctx, raw)
	if err != nil {
		return zero, err
	}

	if v, ok := r.cache.Get(r.cfg.Collection); ok {
		cached := v.([]T)
		next := make([]T, len(cached))
		for i, c := range cached {
			if c.EntityID() == id {
				next[i] = rec
			} else {
				next[i] = c
			}
		}
		r.cache.Put(r.cfg.Collection, next, r.cfg.TTL)
	}

	if err := r.verifyLocked(ctx, id, ExpectPresent); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete removes the persisted document, drops the matching cached record
// and verifies it is gone.
func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted, err := r.gateway.Delete(ctx, r.cfg.Collection, id)
	if err != nil {
		return false, &PersistenceError{Op: "delete", Collection: r.cfg.Collection, Err: err}
	}
	if !deleted {
		return false, &PersistenceError{Op: "delete", Collection: r.cfg.Collection, Err: store.ErrNoDocument}
	}

	if v, ok := r.cache.Get(r.cfg.Collection); ok {
		cached := v.([]T)
		next := lo.Filter(cached, func(t T, _ int) bool { return t.EntityID() != id })
		r.cache.Put(r.cfg.Collection, next, r.cfg.TTL)
	}

	if err := r.verifyLocked(ctx, id, ExpectAbsent); err != nil {
		return false, err
	}
	return true, nil
}

// Rebuild refetches the full extent from the gateway, hydrates every
// record and replaces the cache entry with a fresh TTL.
func (r *Repository[T]) Rebuild(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildLocked(ctx)
}

func (r *Repository[T]) getAllLocked(ctx context.Context) ([]T, error) {
	if v, ok := r.cache.Get(r.cfg.Collection); ok {
		return v.([]T), nil
	}
	return r.rebuildLocked(ctx)
}

func (r *Repository[T]) rebuildLocked(ctx context.Context) ([]T, error) {
	docs, err := r.gateway.GetAll(ctx, r.cfg.Collection)
	if err != nil {
		return nil, &PersistenceError{Op: "getAll", Collection: r.cfg.Collection, Err: err}
	}

	recs := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.hydrate(ctx, doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	r.cache.Put(r.cfg.Collection, recs, r.cfg.TTL)
	observability.IncCacheRebuild(r.cfg.Collection)
	return recs, nil
}

func (r *Repository[T]) hydrate(ctx context.Context, doc json.RawMessage) (T, error) {
	var rec T
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, &PersistenceError{Op: "decode", Collection: r.cfg.Collection, Err: err}
	}
	if r.cfg.Populate == nil {
		return rec, nil
	}
	return r.cfg.Populate(ctx, rec, r.gateway.GetOne)
}

// verifyLocked checks the cached sequence against the expectation for id.
// On mismatch it rebuilds once and re-checks; a second mismatch is
// terminal: the key is invalidated and CacheConsistencyError returned.
func (r *Repository[T]) verifyLocked(ctx context.Context, id string, want Expectation) error {
	if r.matchLocked(id, want) {
		return nil
	}
	if _, err := r.rebuildLocked(ctx); err != nil {
		return err
	}
	if r.matchLocked(id, want) {
		return nil
	}

	r.cache.Delete(r.cfg.Collection)
	observability.IncCacheConsistencyFailure(r.cfg.Collection)
	log.Printf("SEVERE: cache for %s diverged from store, key invalidated (entity=%s expected=%s)", r.cfg.Collection, id, want)
	return &CacheConsistencyError{Collection: r.cfg.Collection, ID: id, Expected: want}
}

func (r *Repository[T]) matchLocked(id string, want Expectation) bool {
	v, ok := r.cache.Get(r.cfg.Collection)
	if !ok {
		return false
	}
	cached := v.([]T)
	present := lo.SomeBy(cached, func(t T) bool { return t.EntityID() == id })
	if want == ExpectAbsent {
		return !present
	}
	return present
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerStore is a Gateway backed by BadgerDB. Documents are stored as JSON
// under "doc/<collection>/<id>" keys.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) a badger store at dir. An empty dir runs the
// store in memory, which is what the tests use.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error { return s.db.Close() }

func docKey(collection, id string) []byte {
	return []byte("doc/" + collection + "/" + id)
}

func docPrefix(collection string) []byte {
	return []byte("doc/" + collection + "/")
}

// Create stores a new document, assigning a fresh id when the document does
// not carry one. The persisted document is returned.
func (s *BadgerStore) Create(ctx context.Context, collection string, doc json.RawMessage) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	id, _ := fields["id"].(string)
	if id == "" {
		id = uuid.NewString()
		fields["id"] = id
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, id), body)
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	return body, nil
}

// Update merges top-level patch fields into the stored document inside one
// transaction and returns the result.
func (s *BadgerStore) Update(ctx context.Context, collection, id string, patch map[string]any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated []byte
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoDocument
		}
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &fields)
		}); err != nil {
			return err
		}
		for k, v := range patch {
			fields[k] = v
		}
		fields["id"] = id

		updated, err = json.Marshal(fields)
		if err != nil {
			return err
		}
		return txn.Set(docKey(collection, id), updated)
	})
	if errors.Is(err, ErrNoDocument) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return updated, nil
}

// Delete removes a document and reports whether anything was removed.
func (s *BadgerStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := docKey(collection, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		deleted = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return deleted, nil
}

// GetOne fetches a single document.
func (s *BadgerStore) GetOne(ctx context.Context, collection, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoDocument
		}
		if err != nil {
			return err
		}
		doc, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, ErrNoDocument) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// GetAll returns the full extent of a collection.
func (s *BadgerStore) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	prefix := docPrefix(collection)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			doc, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	return docs, nil
}

var _ Gateway = (*BadgerStore)(nil)

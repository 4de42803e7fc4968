package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used across the service.
const (
	CollectionUsers       = "users"
	CollectionChats       = "chats"
	CollectionMessages    = "messages"
	CollectionCourses     = "courses"
	CollectionClasses     = "classes"
	CollectionClubs       = "clubs"
	CollectionBlackboards = "blackboards"
)

// ErrNoDocument is returned when the requested document does not exist.
var ErrNoDocument = errors.New("document not found")

// Gateway is the system of record. It offers at-least-once single-document
// operations and no multi-document transactions; documents are opaque JSON
// objects carrying an "id" field assigned at creation.
type Gateway interface {
	Create(ctx context.Context, collection string, doc json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, collection, id string) (bool, error)
	GetOne(ctx context.Context, collection, id string) (json.RawMessage, error)
	GetAll(ctx context.Context, collection string) ([]json.RawMessage, error)
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/store"
)

// Population paths per entity type live in this file; hydration is
// read-only and resolves each reference one level deep. Course→Class is the
// documented nested path (the class record carries its grade directly, so
// no further level is fetched). A reference to a missing document is left
// unpopulated instead of failing the read.

func resolveOne[R any](ctx context.Context, lookup Lookup, collection, id string) (*R, error) {
	raw, err := lookup(ctx, collection, id)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "populate", Collection: collection, Err: err}
	}
	var rec R
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &PersistenceError{Op: "populate", Collection: collection, Err: err}
	}
	return &rec, nil
}

func resolveMany[R any](ctx context.Context, lookup Lookup, collection string, ids []string) ([]R, error) {
	recs := make([]R, 0, len(ids))
	for _, id := range ids {
		rec, err := resolveOne[R](ctx, lookup, collection, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func populateMessage(ctx context.Context, msg models.Message, lookup Lookup) (models.Message, error) {
	if msg.AuthorID == "" {
		return msg, nil
	}
	author, err := resolveOne[models.User](ctx, lookup, store.CollectionUsers, msg.AuthorID)
	if err != nil {
		return msg, err
	}
	msg.Author = author
	return msg, nil
}

func populateChat(ctx context.Context, chat models.Chat, lookup Lookup) (models.Chat, error) {
	msgs, err := resolveMany[models.Message](ctx, lookup, store.CollectionMessages, chat.Messages)
	if err != nil {
		return chat, err
	}
	chat.MessageRecords = msgs
	return chat, nil
}

func populateCourse(ctx context.Context, course models.Course, lookup Lookup) (models.Course, error) {
	classes, err := resolveMany[models.Class](ctx, lookup, store.CollectionClasses, course.Classes)
	if err != nil {
		return course, err
	}
	course.ClassRecords = classes
	return course, nil
}

// Set bundles one repository per entity type, all sharing the same cache
// store and gateway.
type Set struct {
	Users       *Repository[models.User]
	Chats       *Repository[models.Chat]
	Messages    *Repository[models.Message]
	Courses     *Repository[models.Course]
	Classes     *Repository[models.Class]
	Clubs       *Repository[models.Club]
	Blackboards *Repository[models.Blackboard]
}

// NewSet wires every entity repository with its population path and the
// shared TTL.
func NewSet(gateway store.Gateway, c *cache.Store, ttl time.Duration) *Set {
	return &Set{
		Users: New(gateway, c, Config[models.User]{
			Collection: store.CollectionUsers,
			TTL:        ttl,
		}),
		Chats: New(gateway, c, Config[models.Chat]{
			Collection: store.CollectionChats,
			TTL:        ttl,
			Populate:   populateChat,
		}),
		Messages: New(gateway, c, Config[models.Message]{
			Collection: store.CollectionMessages,
			TTL:        ttl,
			Populate:   populateMessage,
		}),
		Courses: New(gateway, c, Config[models.Course]{
			Collection: store.CollectionCourses,
			TTL:        ttl,
			Populate:   populateCourse,
		}),
		Classes: New(gateway, c, Config[models.Class]{
			Collection: store.CollectionClasses,
			TTL:        ttl,
		}),
		Clubs: New(gateway, c, Config[models.Club]{
			Collection: store.CollectionClubs,
			TTL:        ttl,
		}),
		Blackboards: New(gateway, c, Config[models.Blackboard]{
			Collection: store.CollectionBlackboards,
			TTL:        ttl,
		}),
	}
}

package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAssignsID(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	doc, err := s.Create(ctx, CollectionClubs, json.RawMessage(`{"name":"chess"}`))
	req.NoError(err)

	var club map[string]any
	req.NoError(json.Unmarshal(doc, &club))
	req.NotEmpty(club["id"])
	req.Equal("chess", club["name"])

	got, err := s.GetOne(ctx, CollectionClubs, club["id"].(string))
	req.NoError(err)
	req.JSONEq(string(doc), string(got))
}

func TestCreateKeepsProvidedID(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)

	doc, err := s.Create(context.Background(), CollectionUsers, json.RawMessage(`{"id":"u1","username":"ada"}`))
	req.NoError(err)

	var user map[string]any
	req.NoError(json.Unmarshal(doc, &user))
	req.Equal("u1", user["id"])
}

func TestUpdateMergesTopLevelFields(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CollectionClubs, json.RawMessage(`{"id":"c1","name":"chess","members":["u1"]}`))
	req.NoError(err)

	updated, err := s.Update(ctx, CollectionClubs, "c1", map[string]any{"members": []string{"u1", "u2"}})
	req.NoError(err)

	var club map[string]any
	req.NoError(json.Unmarshal(updated, &club))
	req.Equal("chess", club["name"], "untouched fields survive the merge")
	req.Len(club["members"], 2)
}

func TestUpdateMissingDocument(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Update(context.Background(), CollectionClubs, "nope", map[string]any{"name": "x"})
	require.ErrorIs(t, err, ErrNoDocument)
}

func TestDeleteReportsWhetherRemoved(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CollectionUsers, json.RawMessage(`{"id":"u1","username":"ada"}`))
	req.NoError(err)

	deleted, err := s.Delete(ctx, CollectionUsers, "u1")
	req.NoError(err)
	req.True(deleted)

	deleted, err = s.Delete(ctx, CollectionUsers, "u1")
	req.NoError(err)
	req.False(deleted)

	_, err = s.GetOne(ctx, CollectionUsers, "u1")
	req.ErrorIs(err, ErrNoDocument)
}

func TestGetAllScansOnlyOneCollection(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	for _, username := range []string{"ada", "bob", "cid"} {
		_, err := s.Create(ctx, CollectionUsers, json.RawMessage(`{"username":"`+username+`"}`))
		req.NoError(err)
	}
	_, err := s.Create(ctx, CollectionClubs, json.RawMessage(`{"name":"chess"}`))
	req.NoError(err)

	users, err := s.GetAll(ctx, CollectionUsers)
	req.NoError(err)
	req.Len(users, 3)

	empty, err := s.GetAll(ctx, "nothing-here")
	req.NoError(err)
	req.Empty(empty)
}

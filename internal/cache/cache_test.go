package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetMissOnAbsentKey(t *testing.T) {
	s := New()

	_, ok := s.Get("chats")
	require.False(t, ok)
}

func TestPutReplacesFullRecordSet(t *testing.T) {
	req := require.New(t)
	s := New()

	s.Put("chats", []string{"a", "b"}, time.Minute)
	s.Put("chats", []string{"c"}, time.Minute)

	got, ok := s.Get("chats")
	req.True(ok)
	req.Equal([]string{"c"}, got)
}

func TestGetMissOnExpiredKey(t *testing.T) {
	req := require.New(t)
	s := New()

	clock := time.Now()
	s.now = func() time.Time { return clock }

	s.Put("chats", []string{"a"}, time.Minute)
	_, ok := s.Get("chats")
	req.True(ok)

	clock = clock.Add(2 * time.Minute)
	_, ok = s.Get("chats")
	req.False(ok, "expired key must behave like an absent key")

	// expired entry is evicted, not resurrected
	clock = clock.Add(-2 * time.Minute)
	_, ok = s.Get("chats")
	req.False(ok)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New()

	s.Put("clubs", []int{1}, time.Minute)
	s.Delete("clubs")
	s.Delete("clubs")

	_, ok := s.Get("clubs")
	require.False(t, ok)
}

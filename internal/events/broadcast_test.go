package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/repositories"
	"community-service/internal/store"
	"community-service/internal/ws"
)

type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || f.closed {
		return errors.New("connection closed")
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) lastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func setupRepos(t *testing.T) *repositories.Set {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return repositories.NewSet(s, cache.New(), time.Minute)
}

func TestAudienceFromTargetsAndMemberships(t *testing.T) {
	req := require.New(t)
	repos := setupRepos(t)
	ctx := context.Background()

	course, err := repos.Courses.Create(ctx, models.Course{Name: "math", Members: []string{"B", "D"}})
	req.NoError(err)

	b := NewBroadcaster(ws.NewHub(), repos.Courses, repos.Clubs)
	audience, err := b.Audience(ctx, models.Chat{
		Targets: []string{"A", "B"},
		Courses: []string{course.ID},
	})
	req.NoError(err)
	req.ElementsMatch([]string{"A", "B", "D"}, audience)
}

func TestAudienceSkipsMissingMemberships(t *testing.T) {
	req := require.New(t)
	repos := setupRepos(t)

	b := NewBroadcaster(ws.NewHub(), repos.Courses, repos.Clubs)
	audience, err := b.Audience(context.Background(), models.Chat{
		Targets: []string{"A"},
		Courses: []string{"gone"},
		Clubs:   []string{"also-gone"},
	})
	req.NoError(err)
	req.Equal([]string{"A"}, audience)
}

func TestBroadcastDeliversToExactAudience(t *testing.T) {
	req := require.New(t)
	repos := setupRepos(t)
	ctx := context.Background()

	course, err := repos.Courses.Create(ctx, models.Course{Name: "math", Members: []string{"B", "D"}})
	req.NoError(err)

	hub := ws.NewHub()
	connA, connB, connD, connE := &fakeConn{}, &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register("A", connA, ws.ConnInfo{UserID: "A"})
	hub.Register("B", connB, ws.ConnInfo{UserID: "B"})
	hub.Register("D", connD, ws.ConnInfo{UserID: "D"})
	hub.Register("E", connE, ws.ConnInfo{UserID: "E"})

	b := NewBroadcaster(hub, repos.Courses, repos.Clubs)
	chat := models.Chat{ID: "c1", Targets: []string{"A", "B"}, Courses: []string{course.ID}}

	report, err := b.Broadcast(ctx, chat, models.OutboundEvent{Event: "MESSAGE_SEND_RECEIVED", Payload: "x"}, nil)
	req.NoError(err)
	req.Equal(3, report.Delivered())
	req.Zero(report.Failed())

	req.Equal(1, connA.frameCount())
	req.Equal(1, connB.frameCount())
	req.Equal(1, connD.frameCount())
	req.Zero(connE.frameCount(), "non-audience connections receive nothing")
}

func TestBroadcastExcludesOriginatingConnection(t *testing.T) {
	req := require.New(t)
	repos := setupRepos(t)

	hub := ws.NewHub()
	sender, other := &fakeConn{}, &fakeConn{}
	hub.Register("A", sender, ws.ConnInfo{UserID: "A"})
	hub.Register("B", other, ws.ConnInfo{UserID: "B"})

	b := NewBroadcaster(hub, repos.Courses, repos.Clubs)
	chat := models.Chat{Targets: []string{"A", "B"}}

	report, err := b.Broadcast(context.Background(), chat, models.OutboundEvent{Event: "X_RECEIVED"}, sender)
	req.NoError(err)
	req.Equal(1, report.Delivered())
	req.Zero(sender.frameCount())
	req.Equal(1, other.frameCount())
}

func TestBroadcastPartialFailureIsolation(t *testing.T) {
	req := require.New(t)
	repos := setupRepos(t)

	hub := ws.NewHub()
	good1, bad, good2 := &fakeConn{}, &fakeConn{failWrites: true}, &fakeConn{}
	hub.Register("A", good1, ws.ConnInfo{UserID: "A"})
	hub.Register("B", bad, ws.ConnInfo{UserID: "B"})
	hub.Register("C", good2, ws.ConnInfo{UserID: "C"})

	b := NewBroadcaster(hub, repos.Courses, repos.Clubs)
	chat := models.Chat{Targets: []string{"A", "B", "C"}}

	report, err := b.Broadcast(context.Background(), chat, models.OutboundEvent{Event: "X_RECEIVED"}, nil)
	req.NoError(err, "a disconnected peer is an expected race, not a system error")
	req.Equal(2, report.Delivered())
	req.Equal(1, report.Failed())

	req.Equal(1, good1.frameCount())
	req.Equal(1, good2.frameCount())

	// the dead connection was closed and dropped from the registry
	req.True(bad.closed)
	req.Empty(hub.FindByUser("B"))

	var outbound models.OutboundEvent
	req.NoError(json.Unmarshal(good1.lastFrame(), &outbound))
	req.Equal("X_RECEIVED", outbound.Event)
}

package ws

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gorilla/websocket allows one concurrent writer per connection and panics
// on a second. This pins that every hub-held handle can be written to from
// concurrent broadcast and error-reply goroutines.
func TestConcurrentWritesToOneConnection(t *testing.T) {
	req := require.New(t)

	upgrader := websocket.Upgrader{}
	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn <- conn
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer peer.Close()

	// drain the peer side so large frames never stall on a full buffer
	go func() {
		for {
			if _, _, err := peer.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn := <-serverConn
	defer conn.Close()

	hub := NewHub()
	hub.Register("u1", NewLockedConn(conn), ConnInfo{UserID: "u1"})

	payload := bytes.Repeat([]byte("x"), 256<<10)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, c := range hub.FindByUser("u1") {
				assert.NoError(t, c.WriteMessage(websocket.TextMessage, payload))
			}
		}()
	}
	wg.Wait()
}

package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketPair returns the server side of a live websocket wrapped as a peer of
// userID, plus the dialing side for the test to read from.
func socketPair(t *testing.T, userID int64) (*peer, *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-accepted:
		t.Cleanup(func() { conn.Close() })
		return newPeer(conn, ConnInfo{ConnID: newConnID(), UserID: userID}), client
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket was not accepted")
		return nil, nil
	}
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestHubRemoveReportsLastSocket(t *testing.T) {
	hub := NewHub(nil)
	first, _ := socketPair(t, 7)
	second, _ := socketPair(t, 7)

	hub.add(first)
	hub.add(second)
	hub.setLastPeer(7, 9)
	assert.Equal(t, 2, hub.Connections(7))

	assert.False(t, hub.remove(first))
	assert.Equal(t, int64(9), hub.lastPeerOf(7))

	assert.True(t, hub.remove(second))
	assert.Zero(t, hub.Connections(7))
	assert.Zero(t, hub.lastPeerOf(7))

	assert.False(t, hub.remove(second))
}

func TestHubOnlineTransitions(t *testing.T) {
	hub := NewHub(nil)

	assert.True(t, hub.markOnline(3))
	assert.False(t, hub.markOnline(3))
	assert.True(t, hub.markOffline(3))
	assert.False(t, hub.markOffline(3))
}

func TestHubSendToUserReachesEverySocket(t *testing.T) {
	hub := NewHub(nil)
	a1, c1 := socketPair(t, 1)
	a2, c2 := socketPair(t, 1)
	b, _ := socketPair(t, 2)
	hub.add(a1)
	hub.add(a2)
	hub.add(b)

	hub.SendToUser(context.Background(), 1, []byte(`{"type":"typing","data":true}`))

	assert.Equal(t, `{"type":"typing","data":true}`, readText(t, c1))
	assert.Equal(t, `{"type":"typing","data":true}`, readText(t, c2))
}

func TestHubBroadcastSkipsExcludedUser(t *testing.T) {
	hub := NewHub(nil)
	self, selfClient := socketPair(t, 1)
	other, otherClient := socketPair(t, 2)
	hub.add(self)
	hub.add(other)

	hub.Broadcast(context.Background(), []byte(`{"type":"presence:online","data":1}`), 1)

	assert.Equal(t, `{"type":"presence:online","data":1}`, readText(t, otherClient))

	require.NoError(t, selfClient.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := selfClient.ReadMessage()
	assert.Error(t, err)
}

func TestHubCloseAllSendsGoingAway(t *testing.T) {
	hub := NewHub(nil)
	p, client := socketPair(t, 4)
	hub.add(p)

	hub.CloseAll()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

package replication

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/udisondev/bossengine/internal/boss"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(time.Second, 8)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, typ)
	return data
}

func TestHub_LateJoinerGetsLatestFrames(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	hub, url := startHub(t)
	hub.Broadcast([][]byte{{1, 2}, {3}})

	conn := dial(t, url)
	assert.Equal(t, []byte{1, 2}, readFrame(t, conn))
	assert.Equal(t, []byte{3}, readFrame(t, conn))
}

func TestHub_BroadcastReachesEverySubscriber(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast([][]byte{{9}})
	assert.Equal(t, []byte{9}, readFrame(t, a))
	assert.Equal(t, []byte{9}, readFrame(t, b))
}

func TestHub_DisconnectUnsubscribes(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_FeedsReplica(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	hub, url := startHub(t)
	pub := NewPublisher(hub, 0, 1, nil)

	snap := boss.Snapshot{
		Stack:   []boss.StateID{boss.StateSummonMinions, boss.StateResetCycle},
		History: []boss.StateID{boss.StateDashCharge},
		Timer:   12,
	}
	require.NoError(t, pub.PublishSnapshot(snap))

	r := NewReplica(newActor(t, true), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewClient(url, r).Run(ctx) }()

	require.Eventually(t, func() bool {
		r.Tick()
		return r.Actor().CurrentState() == boss.StateSummonMinions
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []boss.StateID{boss.StateDashCharge}, r.Actor().History())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

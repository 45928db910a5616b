package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestHub_BroadcastBeforeStart(t *testing.T) {
	hub := NewHub(nopLogger{}, nil)
	err := hub.Broadcast("lib-1", core.EventStudentCreated, nil)
	assert.Equal(t, core.ErrNotInitialized, err)
}

func TestHub_RoomDelivery(t *testing.T) {
	hub := NewHub(nopLogger{}, nil)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	member := dial(t, srv)
	outsider := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, wsjson.Write(ctx, member, Message{Event: EventJoinLibrary, Data: "lib-1"}))
	require.NoError(t, wsjson.Write(ctx, outsider, Message{Event: EventJoinLibrary, Data: "lib-2"}))
	require.Eventually(t, func() bool { return hub.RoomSize("lib-1") == 1 && hub.RoomSize("lib-2") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast("lib-1", core.EventPaymentCreated, map[string]string{"id": "pay-1"}))

	var got struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, member, &got))
	assert.Equal(t, core.EventPaymentCreated, got.Event)
	assert.Equal(t, "pay-1", got.Data["id"])

	// the other room gets nothing
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer shortCancel()
	var none Message
	assert.Error(t, wsjson.Read(shortCtx, outsider, &none))
}

func TestHub_LeaveOnDisconnect(t *testing.T) {
	hub := NewHub(nopLogger{}, nil)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Message{Event: EventJoinLibrary, Data: "lib-1"}))
	require.Eventually(t, func() bool { return hub.RoomSize("lib-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return hub.RoomSize("lib-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

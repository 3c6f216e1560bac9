package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/domain"
	"signet/internal/transport"
)

type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	query    url.Values
	received []transport.Frame
	gotFrame chan struct{}
	conn     *websocket.Conn
}

// newFakeServer upgrades every request, records the query and inbound
// frames, then sends the given frames in order.
func newFakeServer(t *testing.T, send ...string) *fakeServer {
	t.Helper()
	fs := &fakeServer{gotFrame: make(chan struct{}, 16)}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.query = r.URL.Query()
		fs.conn = conn
		fs.mu.Unlock()

		for _, raw := range send {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(raw))
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f transport.Frame
			if json.Unmarshal(msg, &f) == nil {
				fs.mu.Lock()
				fs.received = append(fs.received, f)
				fs.mu.Unlock()
				fs.gotFrame <- struct{}{}
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) closeClient() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.conn != nil {
		_ = fs.conn.Close()
	}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestSocket_DeliversEventsToEarlyHandlers(t *testing.T) {
	srv := newFakeServer(t,
		`{"event":"invite","data":{"user":"bob","signature":"s"}}`,
		`not json`,
		`{"event":"connect"}`,
	)
	desc := domain.ConnectDescriptor{Username: "alice", DeviceID: "dev-1", Token: "tok"}
	sock := transport.New(srv.URL, desc)
	defer sock.Close()

	var (
		mu    sync.Mutex
		order []string
	)
	connected := make(chan struct{})
	sock.On(domain.EventInvite, func(data json.RawMessage) {
		mu.Lock()
		order = append(order, "invite:"+string(data))
		mu.Unlock()
	})
	sock.On(domain.EventConnect, func(json.RawMessage) {
		mu.Lock()
		order = append(order, "connect")
		mu.Unlock()
		close(connected)
	})

	require.NoError(t, sock.Connect(context.Background()))
	waitFor(t, connected)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`invite:{"user":"bob","signature":"s"}`, "connect"}, order)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "alice", srv.query.Get("username"))
	assert.Equal(t, "dev-1", srv.query.Get("deviceId"))
	assert.Equal(t, "tok", srv.query.Get("token"))
	assert.Len(t, srv.query, 3)
}

func TestSocket_EmitFrames(t *testing.T) {
	srv := newFakeServer(t)
	sock := transport.New(srv.URL, domain.ConnectDescriptor{Username: "alice"})
	defer sock.Close()

	require.ErrorIs(t, sock.Emit(context.Background(), "x", nil), transport.ErrNotConnected)
	require.NoError(t, sock.Connect(context.Background()))
	require.ErrorIs(t, sock.Connect(context.Background()), transport.ErrAlreadyConnected)

	require.NoError(t, sock.Emit(context.Background(), domain.CommandRemoveInvite, domain.RemoveInviteCommand{Username: "bob"}))
	waitFor(t, srv.gotFrame)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.received, 1)
	assert.Equal(t, domain.CommandRemoveInvite, srv.received[0].Event)
	assert.JSONEq(t, `{"username":"bob"}`, string(srv.received[0].Data))
}

func TestSocket_DoneOnServerClose(t *testing.T) {
	srv := newFakeServer(t, `{"event":"connect"}`)
	sock := transport.New(srv.URL, domain.ConnectDescriptor{})

	connected := make(chan struct{})
	disconnected := make(chan struct{})
	sock.On(domain.EventConnect, func(json.RawMessage) { close(connected) })
	sock.On(domain.EventDisconnect, func(json.RawMessage) { close(disconnected) })

	require.NoError(t, sock.Connect(context.Background()))
	waitFor(t, connected)

	srv.closeClient()
	waitFor(t, sock.Done())
	waitFor(t, disconnected)

	assert.ErrorIs(t, sock.Emit(context.Background(), "x", nil), transport.ErrClosed)
}

func TestSocket_HandlerPanicDoesNotStopDispatch(t *testing.T) {
	srv := newFakeServer(t, `{"event":"invite"}`, `{"event":"connect"}`)
	sock := transport.New(srv.URL, domain.ConnectDescriptor{})
	defer sock.Close()

	connected := make(chan struct{})
	sock.On(domain.EventInvite, func(json.RawMessage) { panic("boom") })
	sock.On(domain.EventConnect, func(json.RawMessage) { close(connected) })

	require.NoError(t, sock.Connect(context.Background()))
	waitFor(t, connected)
}

func TestSocket_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	sock := transport.New(srv.URL, domain.ConnectDescriptor{Token: "secret"})
	err := sock.Connect(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
	waitFor(t, sock.Done())
}

func TestDialURL(t *testing.T) {
	q := url.Values{"token": {"t"}}

	got, err := transport.DialURL("http://example.com", q)
	require.NoError(t, err)
	assert.Equal(t, "ws://example.com/socket?token=t", got)

	got, err = transport.DialURL("https://example.com/rt?x=1", q)
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/rt?token=t&x=1", got)

	_, err = transport.DialURL("ftp://example.com", q)
	assert.Error(t, err)
}

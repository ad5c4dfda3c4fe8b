package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestServer_BroadcastsToTCPClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hub := NewHub(nil)
	srv := NewServer("", hub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	welcome, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"welcome"`)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(CartEvent{Type: EventCartUpdated, SessionID: "s1", Action: CartActionAdded, ItemCount: 2})

	msg, err := r.ReadString('\n')
	require.NoError(t, err)
	var ev CartEvent
	require.NoError(t, json.Unmarshal([]byte(msg), &ev))
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, CartActionAdded, ev.Action)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 0, hub.Stats().TCPClients)
}

func TestWSHandler_ReceivesBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"))

	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, welcome, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(welcome), "websocket")
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(CatalogEvent{Type: EventCatalogUpdated, Products: 4})
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"products":4`)

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.BroadcastJSON(map[string]string{"type": "noop"})
	hub.BroadcastJSON(func() {})
	assert.Equal(t, Stats{}, hub.Stats())
}

func TestServer_SubscribedClientOnlySeesItsSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hub := NewHub(nil)
	srv := NewServer("", hub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	_, err = r.ReadString('\n')
	require.NoError(t, err)

	_, err = conn.Write([]byte(`{"type":"subscribe","session_id":"s2"}` + "\n"))
	require.NoError(t, err)
	ack, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"subscribed","session_id":"s2"}`, ack)
	assert.Equal(t, 1, hub.Stats().Following)

	hub.BroadcastJSON(CartEvent{Type: EventCartUpdated, SessionID: "s1", Action: CartActionAdded})
	hub.BroadcastJSON(CatalogEvent{Type: EventCatalogUpdated, Products: 3})
	hub.BroadcastJSON(CartEvent{Type: EventCartUpdated, SessionID: "s2", Action: CartActionCleared})

	first, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, first, EventCatalogUpdated)

	second, err := r.ReadString('\n')
	require.NoError(t, err)
	var ev CartEvent
	require.NoError(t, json.Unmarshal([]byte(second), &ev))
	assert.Equal(t, "s2", ev.SessionID)
	assert.Equal(t, CartActionCleared, ev.Action)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestWSHandler_SessionQueryFilters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"))

	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=s1"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, welcome, err := ws.ReadMessage()
	require.NoError(t, err)
	var w WelcomeEvent
	require.NoError(t, json.Unmarshal(welcome, &w))
	assert.Equal(t, "s1", w.SessionID)
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(CartEvent{Type: EventCartUpdated, SessionID: "other"})
	hub.BroadcastJSON(CartEvent{Type: EventCartUpdated, SessionID: "s1", ItemCount: 7})

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"item_count":7`)

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 0 }, time.Second, 10*time.Millisecond)
}

func TestParseSubscribe(t *testing.T) {
	s, ok := parseSubscribe([]byte(`{"type":"subscribe","session_id":" s9 "}`))
	assert.True(t, ok)
	assert.Equal(t, "s9", s)

	_, ok = parseSubscribe([]byte(`{"type":"ping"}`))
	assert.False(t, ok)
	_, ok = parseSubscribe([]byte("hello"))
	assert.False(t, ok)
}

// failingListener fails every Accept until closed.
type failingListener struct {
	calls  atomic.Int32
	closed chan struct{}
	once   gosync.Once
}

func (l *failingListener) Accept() (net.Conn, error) {
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	default:
	}
	l.calls.Add(1)
	return nil, errors.New("accept: too many open files")
}

func (l *failingListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *failingListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestServer_AcceptErrorsBackOff(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln := &failingListener{closed: make(chan struct{})}
	srv := NewServer("", NewHub(nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	time.Sleep(150 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// 5+10+20+40+80ms fits about five retries into the window
	calls := ln.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(2))
	assert.LessOrEqual(t, calls, int32(10))
}

func TestNextAcceptDelay(t *testing.T) {
	d := nextAcceptDelay(0)
	assert.Equal(t, minAcceptDelay, d)
	assert.Equal(t, 2*minAcceptDelay, nextAcceptDelay(d))
	for i := 0; i < 20; i++ {
		d = nextAcceptDelay(d)
	}
	assert.Equal(t, maxAcceptDelay, d)
}

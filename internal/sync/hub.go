package sync

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// Scoped is implemented by events that belong to one shopper session.
// Subscribers following a session only receive scoped events for it; events
// that are not Scoped reach everyone.
type Scoped interface {
	Session() string
}

type transport int

const (
	transportTCP transport = iota
	transportWS
)

// subscriber is one connected TCP or WebSocket client.
type subscriber struct {
	kind    transport
	remote  string
	tcp     net.Conn
	ws      *websocket.Conn
	session string // empty follows every session
}

func (s *subscriber) write(b []byte) error {
	switch s.kind {
	case transportWS:
		_ = s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		return s.ws.WriteMessage(websocket.TextMessage, b)
	default:
		_ = s.tcp.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := s.tcp.Write(b)
		return err
	}
}

func (s *subscriber) close() {
	if s.kind == transportWS {
		_ = s.ws.Close()
		return
	}
	_ = s.tcp.Close()
}

func (s *subscriber) wants(session string) bool {
	return s.session == "" || session == "" || s.session == session
}

// Hub fans cart and catalog events out to subscribed storefront pages.
// A subscriber whose write fails is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	byConn map[net.Conn]*subscriber
	byWS   map[*websocket.Conn]*subscriber
	logger *zap.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
	Following  int `json:"following_session"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		byConn: make(map[net.Conn]*subscriber),
		byWS:   make(map[*websocket.Conn]*subscriber),
		logger: logger,
	}
}

// Add registers a TCP client following session ("" for all sessions).
func (h *Hub) Add(conn net.Conn, session string) {
	s := &subscriber{kind: transportTCP, tcp: conn, remote: conn.RemoteAddr().String(), session: session}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.byConn[conn] = s
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	if s, ok := h.byConn[conn]; ok {
		h.dropLocked(s)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// AddWS registers a WebSocket client following session ("" for all sessions).
func (h *Hub) AddWS(ws *websocket.Conn, session string) {
	s := &subscriber{kind: transportWS, ws: ws, remote: ws.RemoteAddr().String(), session: session}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.byWS[ws] = s
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	if s, ok := h.byWS[ws]; ok {
		h.dropLocked(s)
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// Follow changes the session a TCP client is subscribed to.
func (h *Hub) Follow(conn net.Conn, session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.byConn[conn]; ok {
		s.session = session
	}
}

// FollowWS changes the session a WebSocket client is subscribed to.
func (h *Hub) FollowWS(ws *websocket.Conn, session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.byWS[ws]; ok {
		s.session = session
	}
}

// BroadcastJSON encodes v as one JSON line and delivers it to every
// subscriber interested in it.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("drop unencodable event", zap.Error(err))
		return
	}
	b = append(b, '\n')

	var session string
	if sc, ok := v.(Scoped); ok {
		session = sc.Session()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.wants(session) {
			continue
		}
		if err := s.write(b); err != nil {
			h.logger.Debug("drop client", zap.String("remote", s.remote), zap.Error(err))
			s.close()
			h.dropLocked(s)
		}
	}
}

func (h *Hub) dropLocked(s *subscriber) {
	delete(h.subs, s)
	if s.kind == transportWS {
		delete(h.byWS, s.ws)
	} else {
		delete(h.byConn, s.tcp)
	}
}

// Count reports connected TCP clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byConn)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := Stats{TCPClients: len(h.byConn), WSClients: len(h.byWS)}
	for s := range h.subs {
		if s.session != "" {
			st.Following++
		}
	}
	return st
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.close()
		h.dropLocked(s)
	}
}

func (h *Hub) welcome(transportName, session string) []byte {
	st := h.Stats()
	b, _ := json.Marshal(WelcomeEvent{
		Type:      EventWelcome,
		Message:   "connected",
		Transport: transportName,
		SessionID: session,
		Clients:   st.TCPClients + st.WSClients,
	})
	return append(b, '\n')
}

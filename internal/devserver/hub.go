package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signet/internal/domain"
	"signet/internal/transport"
)

const writeTimeout = 5 * time.Second

// peer is one connected socket.
type peer struct {
	conn     *websocket.Conn
	username domain.Username
	deviceID domain.DeviceID

	writeMu sync.Mutex
}

func (p *peer) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return p.conn.WriteJSON(transport.Frame{Event: event, Data: raw})
}

func (p *peer) sendError(msg string) error {
	return p.send(domain.EventError, map[string]string{"message": msg})
}

// hub tracks the open sockets of every user.
type hub struct {
	mu    sync.RWMutex
	peers map[domain.Username]map[*peer]struct{}
}

func newHub() *hub {
	return &hub{peers: make(map[domain.Username]map[*peer]struct{})}
}

func (h *hub) join(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.peers[p.username]
	if !ok {
		set = make(map[*peer]struct{})
		h.peers[p.username] = set
	}
	set[p] = struct{}{}
}

func (h *hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.peers[p.username]
	delete(set, p)
	if len(set) == 0 {
		delete(h.peers, p.username)
	}
}

// deliver sends to every socket of username and reports how many took it.
func (h *hub) deliver(username domain.Username, event string, data any) int {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers[username]))
	for p := range h.peers[username] {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	n := 0
	for _, p := range targets {
		if err := p.send(event, data); err == nil {
			n++
		}
	}
	return n
}

package service

import (
	"encoding/json"
	"sync"

	"dealership-backend/internal/metrics"
	"dealership-backend/internal/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"
)

const sendBuffer = 256

// WSClient is one live realtime link. Identity and room are owned by the hub
// and only read or written under its lock.
type WSClient struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool

	identity   model.Identity
	identified bool
	room       string
}

func NewWSClient(id string, conn *websocket.Conn) *WSClient {
	return &WSClient{ID: id, Conn: conn, Send: make(chan []byte, sendBuffer)}
}

// enqueue never blocks: a slow client loses the frame instead of stalling
// the sender.
func (c *WSClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		metrics.EventsDropped.WithLabelValues("slow_client").Inc()
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ConnState is a snapshot of a connection's verified state.
type ConnState struct {
	Identity   model.Identity
	Identified bool
	Room       string
}

// Relay forwards deliveries to other server instances.
type Relay interface {
	Publish(env *model.FanoutEnvelope)
}

type subjectKey struct {
	id   int64
	role model.Role
}

type clientSet map[*WSClient]struct{}

// WSHub is the room router and connection registry. Each connection sits in
// at most one room; identified connections are also indexed by (subject, role).
type WSHub struct {
	mu       sync.RWMutex
	clients  clientSet
	rooms    map[string]clientSet
	subjects map[subjectKey]clientSet
	relay    Relay
	log      zerolog.Logger
}

func NewWSHub(log zerolog.Logger) *WSHub {
	return &WSHub{
		clients:  make(clientSet),
		rooms:    make(map[string]clientSet),
		subjects: make(map[subjectKey]clientSet),
		log:      log.With().Str("component", "ws_hub").Logger(),
	}
}

// SetRelay enables cross-instance fan-out. Call before serving traffic.
func (h *WSHub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

func (h *WSHub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.log.Debug().Str("conn", c.ID).Int("total", total).Msg("connected")
}

// Unregister detaches c from its room and the subject index and closes its
// send queue. It is safe to call for a connection that never joined.
func (h *WSHub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		h.detachRoomLocked(c)
		h.unindexLocked(c)
		c.identified = false
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		metrics.WSConnections.Dec()
		h.log.Debug().Str("conn", c.ID).Int("total", total).Msg("disconnected")
	}
}

// Identify binds a verified identity to c, replacing any earlier one.
func (h *WSHub) Identify(c *WSClient, id model.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.unindexLocked(c)
	c.identity = id
	c.identified = true

	key := subjectKey{id: id.SubjectID, role: id.Role}
	set := h.subjects[key]
	if set == nil {
		set = make(clientSet)
		h.subjects[key] = set
	}
	set[c] = struct{}{}
}

func (h *WSHub) State(c *WSClient) ConnState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ConnState{Identity: c.identity, Identified: c.identified, Room: c.room}
}

// JoinRoom attaches c to room, leaving its current room first. It returns
// the room that was left, if any.
func (h *WSHub) JoinRoom(c *WSClient, room string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return ""
	}
	if c.room == room {
		return ""
	}
	left := h.detachRoomLocked(c)

	set := h.rooms[room]
	if set == nil {
		set = make(clientSet)
		h.rooms[room] = set
	}
	set[c] = struct{}{}
	c.room = room
	return left
}

// LeaveRoom detaches c from room. It reports false when c was not a member.
func (h *WSHub) LeaveRoom(c *WSClient, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.room == "" || c.room != room {
		return false
	}
	h.detachRoomLocked(c)
	return true
}

func (h *WSHub) detachRoomLocked(c *WSClient) string {
	room := c.room
	if room == "" {
		return ""
	}
	if set := h.rooms[room]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
	c.room = ""
	return room
}

func (h *WSHub) unindexLocked(c *WSClient) {
	if !c.identified {
		return
	}
	key := subjectKey{id: c.identity.SubjectID, role: c.identity.Role}
	if set := h.subjects[key]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subjects, key)
		}
	}
}

// EmitTo delivers ev to c alone.
func (h *WSHub) EmitTo(c *WSClient, ev *model.WSEvent) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", ev.Type).Msg("marshal event")
		return false
	}
	return c.enqueue(data)
}

// BroadcastRoom delivers ev to every connection attached to room and to no
// other connection.
func (h *WSHub) BroadcastRoom(room string, ev *model.WSEvent) int {
	h.publish(&model.FanoutEnvelope{Scope: model.ScopeRoom, Room: room, Event: ev})
	return h.deliverRoom(room, ev)
}

// SendToSubject delivers ev to every connection identified as (id, role).
func (h *WSHub) SendToSubject(id int64, role model.Role, ev *model.WSEvent) int {
	h.publish(&model.FanoutEnvelope{Scope: model.ScopeSubject, SubjectID: id, Role: role, Event: ev})
	return h.deliverSubject(id, role, ev)
}

// BroadcastRole delivers ev to every identified connection of role.
func (h *WSHub) BroadcastRole(role model.Role, ev *model.WSEvent) int {
	h.publish(&model.FanoutEnvelope{Scope: model.ScopeRole, Role: role, Event: ev})
	return h.deliverRole(role, ev)
}

// DeliverRemote repeats a delivery received from another instance on local
// connections only.
func (h *WSHub) DeliverRemote(env *model.FanoutEnvelope) int {
	if env == nil || env.Event == nil {
		return 0
	}
	switch env.Scope {
	case model.ScopeRoom:
		return h.deliverRoom(env.Room, env.Event)
	case model.ScopeSubject:
		return h.deliverSubject(env.SubjectID, env.Role, env.Event)
	case model.ScopeRole:
		return h.deliverRole(env.Role, env.Event)
	default:
		h.log.Warn().Str("scope", env.Scope).Msg("unknown fan-out scope")
		return 0
	}
}

func (h *WSHub) publish(env *model.FanoutEnvelope) {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay != nil {
		relay.Publish(env)
	}
}

func (h *WSHub) deliverRoom(room string, ev *model.WSEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fanout(h.rooms[room], data)
}

func (h *WSHub) deliverSubject(id int64, role model.Role, ev *model.WSEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fanout(h.subjects[subjectKey{id: id, role: role}], data)
}

func (h *WSHub) deliverRole(role model.Role, ev *model.WSEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for key, set := range h.subjects {
		if key.role == role {
			n += fanout(set, data)
		}
	}
	return n
}

func fanout(set clientSet, data []byte) int {
	n := 0
	for c := range set {
		if c.enqueue(data) {
			n++
		}
	}
	return n
}

func (h *WSHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections attached to room.
func (h *WSHub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// SubjectConnections returns how many connections are identified as (id, role).
func (h *WSHub) SubjectConnections(id int64, role model.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subjects[subjectKey{id: id, role: role}])
}

// Shutdown closes every send queue; writer goroutines then close their sockets.
func (h *WSHub) Shutdown() {
	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(clientSet)
	h.rooms = make(map[string]clientSet)
	h.subjects = make(map[subjectKey]clientSet)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	metrics.WSConnections.Set(0)
}

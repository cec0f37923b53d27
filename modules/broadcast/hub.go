package broadcast

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the transport surface the hub needs from a live connection.
// *websocket.Conn satisfies it; tests register fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection registered with the hub. A user may hold
// any number of clients at once, one per device or tab.
type Client struct {
	ID       string
	Username string

	conn    Conn
	writeMu sync.Mutex

	// Group membership, guarded by the hub mutex. A client sits in at
	// most one room group (hangout ids start at 1, so 0 means none).
	room      int
	userGroup bool
}

// NewClient wraps a connection for hub registration.
func NewClient(id, username string, conn Conn) *Client {
	return &Client{
		ID:       id,
		Username: username,
		conn:     conn,
	}
}

// send writes one text frame. The write mutex keeps concurrent
// broadcasts from interleaving frames on the same socket.
func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is the presence and fanout manager. It owns every live connection,
// grouped by hangout room and by user identity, and tracks the per-room
// online-user set. All group bookkeeping happens under one RWMutex; sends
// go to a snapshot of the group so one slow or dead socket never blocks
// membership changes.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int]map[*Client]bool
	users  map[string]map[*Client]bool
	online map[int]map[string]int // roomID -> username -> live connection count
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[int]map[*Client]bool),
		users:  make(map[string]map[*Client]bool),
		online: make(map[int]map[string]int),
	}
}

// JoinRoom registers c under roomID and broadcasts the updated
// online-user set to the room, the new connection included.
func (h *Hub) JoinRoom(c *Client, roomID int) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	c.room = roomID

	if h.online[roomID] == nil {
		h.online[roomID] = make(map[string]int)
	}
	h.online[roomID][c.Username]++
	h.mu.Unlock()

	slog.Debug("client joined room", "clientID", c.ID, "username", c.Username, "roomID", roomID)
	h.broadcastPresence(roomID)
}

// LeaveRoom removes c from roomID and re-broadcasts presence. Removing an
// absent connection is a no-op.
func (h *Hub) LeaveRoom(c *Client, roomID int) {
	h.mu.Lock()
	if !h.rooms[roomID][c] {
		h.mu.Unlock()
		return
	}
	h.dropFromRoomLocked(c, roomID)
	h.mu.Unlock()

	slog.Debug("client left room", "clientID", c.ID, "username", c.Username, "roomID", roomID)
	h.broadcastPresence(roomID)
}

// dropFromRoomLocked removes c from the room group and presence counts.
// Caller holds the hub mutex.
func (h *Hub) dropFromRoomLocked(c *Client, roomID int) {
	delete(h.rooms[roomID], c)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
	c.room = 0

	if counts := h.online[roomID]; counts != nil {
		counts[c.Username]--
		if counts[c.Username] <= 0 {
			delete(counts, c.Username)
		}
		if len(counts) == 0 {
			delete(h.online, roomID)
		}
	}
}

// JoinUser registers c under its username, supporting any number of
// simultaneous devices per identity.
func (h *Hub) JoinUser(c *Client) {
	h.mu.Lock()
	if h.users[c.Username] == nil {
		h.users[c.Username] = make(map[*Client]bool)
	}
	h.users[c.Username][c] = true
	c.userGroup = true
	h.mu.Unlock()

	slog.Debug("client joined user group", "clientID", c.ID, "username", c.Username)
}

// LeaveUser removes c from its user group. Idempotent.
func (h *Hub) LeaveUser(c *Client) {
	h.mu.Lock()
	h.dropFromUserLocked(c)
	h.mu.Unlock()
}

// dropFromUserLocked removes c from the user group. Caller holds the hub
// mutex.
func (h *Hub) dropFromUserLocked(c *Client) {
	if !c.userGroup {
		return
	}
	delete(h.users[c.Username], c)
	if len(h.users[c.Username]) == 0 {
		delete(h.users, c.Username)
	}
	c.userGroup = false
}

// OnlineUsers returns the sorted set of usernames holding at least one
// live connection to roomID.
func (h *Hub) OnlineUsers(roomID int) []string {
	h.mu.RLock()
	names := make([]string, 0, len(h.online[roomID]))
	for name := range h.online[roomID] {
		names = append(names, name)
	}
	h.mu.RUnlock()

	sort.Strings(names)
	return names
}

// BroadcastRoom delivers event to every connection currently registered
// for roomID. A connection whose send fails is removed from its groups
// and closed; delivery to the rest continues. No retries.
func (h *Hub) BroadcastRoom(roomID int, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal room event", "roomID", roomID, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// UnicastUser delivers event to every connection registered for
// username. Zero registered connections is not an error; the event is
// dropped.
func (h *Hub) UnicastUser(username string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal user event", "username", username, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[username]))
	for c := range h.users[username] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// BroadcastUsers delivers event to every connection in every user group,
// one frame per device.
func (h *Hub) BroadcastUsers(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal user broadcast", "error", err)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for _, group := range h.users {
		for c := range group {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// deliver writes data to each target, collecting failures so a dead
// socket never aborts delivery to its siblings, then removes the failed
// connections.
func (h *Hub) deliver(targets []*Client, data []byte) {
	var failed []*Client
	for _, c := range targets {
		if err := c.send(data); err != nil {
			slog.Warn("dropping connection after failed delivery",
				"clientID", c.ID, "username", c.Username, "error", err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.Remove(c)
	}
}

// Remove deregisters c from every group it belongs to and closes its
// connection. Presence is re-broadcast when a room group changed.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	room := c.room
	if room != 0 {
		h.dropFromRoomLocked(c, room)
	}
	h.dropFromUserLocked(c)
	h.mu.Unlock()

	_ = c.conn.Close()
	if room != 0 {
		h.broadcastPresence(room)
	}
}

// CloseRoom closes every connection in roomID and drops the group. Used
// when the hangout itself is deleted; the sessions' own close paths then
// run their usual idempotent deregistration.
func (h *Hub) CloseRoom(roomID int) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
		c.room = 0
	}
	delete(h.rooms, roomID)
	delete(h.online, roomID)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
	slog.Info("closed room", "roomID", roomID, "connections", len(clients))
}

// broadcastPresence recomputes and broadcasts the online-user set for
// roomID.
func (h *Hub) broadcastPresence(roomID int) {
	h.BroadcastRoom(roomID, StatusEvent{
		Type:        "status",
		OnlineUsers: h.OnlineUsers(roomID),
	})
}

// ClientCount returns the number of registered connections across all
// groups, counting a connection once even when it sits in both a room
// and a user group.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, group := range h.rooms {
		for c := range group {
			seen[c] = true
		}
	}
	for _, group := range h.users {
		for c := range group {
			seen[c] = true
		}
	}
	return len(seen)
}

// CloseAll closes every registered connection and clears all groups.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	seen := make(map[*Client]bool)
	for _, group := range h.rooms {
		for c := range group {
			seen[c] = true
			c.room = 0
		}
	}
	for _, group := range h.users {
		for c := range group {
			seen[c] = true
			c.userGroup = false
		}
	}
	h.rooms = make(map[int]map[*Client]bool)
	h.users = make(map[string]map[*Client]bool)
	h.online = make(map[int]map[string]int)
	h.mu.Unlock()

	for c := range seen {
		_ = c.conn.Close()
	}
}

// Package registry tracks which signaling connections belong to which room
// and which connection currently answers for a userId.
//
// All state lives in process memory, so a relay built on Memory is
// single-instance only. A shared store can replace it by implementing
// Registry.
package registry

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
)

// Conn is the registry's view of one participant connection.
type Conn interface {
	ID() string
	UserID() string
	RoomID() string
	IsOpen() bool
	SendRaw(data []byte) error
}

type Registry interface {
	Join(roomID string, c Conn)
	Leave(roomID string, c Conn)
	Broadcast(roomID string, exclude Conn, msg any)
	Bind(userID string, c Conn)
	Unbind(userID string, c Conn)
	Lookup(userID string) (Conn, bool)
}

type RoomStat struct {
	RoomID  string `json:"roomId"`
	Members int    `json:"members"`
}

type Memory struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomID -> set of connections
	users map[string]Conn              // userID -> latest connection
	log   *slog.Logger
}

var _ Registry = (*Memory)(nil)

func NewMemory(log *slog.Logger) *Memory {
	if log == nil {
		log = slog.Default()
	}
	return &Memory{
		rooms: make(map[string]map[Conn]struct{}),
		users: make(map[string]Conn),
		log:   log,
	}
}

func (m *Memory) Join(roomID string, c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs, ok := m.rooms[roomID]
	if !ok {
		rs = make(map[Conn]struct{})
		m.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
}

func (m *Memory) Leave(roomID string, c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rs, ok := m.rooms[roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// Broadcast encodes msg once and hands the bytes to every open member of the
// room except exclude. Delivery is best-effort: failures are logged and
// skipped.
func (m *Memory) Broadcast(roomID string, exclude Conn, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("registry broadcast encode failed", "room", roomID, "err", err)
		return
	}

	for _, c := range m.members(roomID) {
		if c == exclude || !c.IsOpen() {
			continue
		}
		if err := c.SendRaw(data); err != nil {
			m.log.Debug("registry broadcast skipped member",
				"room", roomID, "user", c.UserID(), "conn", c.ID(), "err", err)
		}
	}
}

// members snapshots the room so sends happen outside the lock.
func (m *Memory) members(roomID string) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rs := m.rooms[roomID]
	out := make([]Conn, 0, len(rs))
	for c := range rs {
		out = append(out, c)
	}
	return out
}

// Bind points userID at c, replacing any earlier connection.
func (m *Memory) Bind(userID string, c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.users[userID]; ok && prev != c {
		m.log.Warn("registry userId rebound to newer connection",
			"user", userID, "prev_conn", prev.ID(), "conn", c.ID())
	}
	m.users[userID] = c
}

// Unbind drops the userID mapping only while it still points at c, so a late
// close of a superseded connection cannot evict the live one.
func (m *Memory) Unbind(userID string, c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.users[userID]; ok && cur == c {
		delete(m.users, userID)
	}
}

func (m *Memory) Lookup(userID string) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.users[userID]
	return c, ok
}

func (m *Memory) Rooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Memory) Members(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

func (m *Memory) HasRoom(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok
}

// Snapshot lists rooms ordered by id.
func (m *Memory) Snapshot() []RoomStat {
	m.mu.RLock()
	out := make([]RoomStat, 0, len(m.rooms))
	for id, rs := range m.rooms {
		out = append(out, RoomStat{RoomID: id, Members: len(rs)})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

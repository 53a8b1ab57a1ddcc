// game/manager.go
package game

import "sync"

// Manager is the registry: the single owner of all players and rooms. It
// enforces uniqueness and cross-entity invariants and is the only component
// permitted to create or destroy either. Registry-wide structural changes
// serialize on mu, independently of any single room's lock.
type Manager struct {
	players   map[string]*Player
	rooms     map[string]*Room
	pinLength int
	mu        sync.RWMutex
}

func NewManager(pinLength int) *Manager {
	return &Manager{
		players:   make(map[string]*Player),
		rooms:     make(map[string]*Room),
		pinLength: pinLength,
	}
}

// CreatePlayer registers a new player under the session id. Callers must not
// register the same id twice.
func (m *Manager) CreatePlayer(sid string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := NewPlayer(sid)
	m.players[sid] = p
	return p
}

// RemovePlayer unregisters the player, first leaving its room if it occupies
// one. A room emptied by the leave is destroyed immediately. Returns the
// name of the room left behind, or "" when the player had no room or the
// room was destroyed with it.
func (m *Manager) RemovePlayer(sid string) (string, error) {
	p, err := m.GetPlayer(sid)
	if err != nil {
		return "", err
	}

	left := ""
	if p.RoomName != "" {
		room, err := m.GetRoom(p.RoomName)
		if err == nil {
			roomName := room.GetName()
			empty, err := room.RemoveMember(p)
			if err != nil {
				return "", err
			}
			if empty {
				m.destroyRoom(roomName)
			} else {
				left = roomName
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, sid)
	return left, nil
}

// GetPlayer looks up a registered player.
func (m *Manager) GetPlayer(sid string) (*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[sid]
	if !ok {
		return nil, NewError(ErrPlayerNotFound, "retrieving player")
	}
	return p, nil
}

// GetRoom looks up a room by name.
func (m *Manager) GetRoom(name string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[name]
	if !ok {
		return nil, NewError(ErrRoomNotFound, "retrieving room")
	}
	return room, nil
}

// CreateRoom validates the name, enforces global uniqueness and registers a
// new room. An empty code gets a generated pin.
func (m *Manager) CreateRoom(name, code string) (*Room, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[name]; exists {
		return nil, NewError(ErrRoomAlreadyExists, "creating room")
	}
	room := NewRoom(name, code, m.pinLength)
	m.rooms[name] = room
	return room, nil
}

func (m *Manager) destroyRoom(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, name)
}

// JoinRoom checks the access code, unless explicitly bypassed, and adds the
// player to the room. The bypass covers the join performed right after
// creating a room.
func (m *Manager) JoinRoom(p *Player, room *Room, code string, ignoreCodeCheck bool) error {
	if !room.Authenticate(code) && !ignoreCodeCheck {
		return NewError(ErrRoomAuthenticationFailed, "joining room")
	}
	room.AddMember(p)
	return nil
}

// LeaveRoom removes the player from the room, destroying it when emptied.
// Returns whether the room was destroyed.
func (m *Manager) LeaveRoom(p *Player, room *Room) (bool, error) {
	empty, err := room.RemoveMember(p)
	if err != nil {
		return false, err
	}
	if empty {
		m.destroyRoom(room.GetName())
	}
	return empty, nil
}

// ChangeUsername renames the player within its room. Fails when another
// current member already holds the name, or when the name is invalid.
func (m *Manager) ChangeUsername(room *Room, p *Player, name string) error {
	if room.UsernameTaken(name, p) {
		return NewError(ErrUsernameTaken, "changing username")
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	room.Rename(p, name)
	return nil
}

// ValidateIsOwner fails unless the player owns the room it currently
// occupies.
func (m *Manager) ValidateIsOwner(p *Player) (*Room, error) {
	if p.RoomName == "" {
		return nil, NewError(ErrPlayerNotInRoom, "ownership validator")
	}
	room, err := m.GetRoom(p.RoomName)
	if err != nil {
		return nil, err
	}
	if !room.IsOwner(p) {
		return nil, NewError(ErrNotRoomOwner, "ownership validator")
	}
	return room, nil
}

// ValidateCanStart is the registry-level owner-start check: ownership plus
// settings completeness for the configured mode.
func (m *Manager) ValidateCanStart(p *Player) (*Room, error) {
	room, err := m.ValidateIsOwner(p)
	if err != nil {
		return nil, err
	}
	if !room.SettingsComplete() {
		return nil, NewError(ErrMalformedRequest, "starting game with incomplete settings")
	}
	return room, nil
}

// PlayerCount reports the number of registered players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// RoomCount reports the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RoomSummary is a point-in-time view of one room for operational surfaces.
type RoomSummary struct {
	Name    string
	Members int
	State   string
}

// RoomDirectory snapshots every live room.
func (m *Manager) RoomDirectory() []RoomSummary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, RoomSummary{
			Name:    room.GetName(),
			Members: room.MemberCount(),
			State:   string(room.State()),
		})
	}
	return summaries
}

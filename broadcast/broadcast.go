// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/pagerace/game"
	"github.com/wfunc/pagerace/session"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Broadcaster addresses outbound payloads to a single connection or to a
// room's whole membership.
type Broadcaster interface {
	ToRoom(roomName, event string, payload interface{}) error
	ToSession(sessionID, event string, payload interface{}) error
}

// RoomBroadcaster resolves room membership through the registry and
// connections through the session manager.
type RoomBroadcaster struct {
	registry *game.Manager
	sessions *session.Manager
}

func NewRoomBroadcaster(registry *game.Manager, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		registry: registry,
		sessions: sessions,
	}
}

func (b *RoomBroadcaster) ToRoom(roomName, event string, payload interface{}) error {
	room, err := b.registry.GetRoom(roomName)
	if err != nil {
		return ErrRoomNotFound
	}

	for _, member := range room.Members() {
		s, exists := b.sessions.Get(member.SID)
		if !exists {
			continue
		}
		if err := s.Send(event, payload); err != nil {
			// A dead connection gets cleaned up by its own read loop.
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) ToSession(sessionID, event string, payload interface{}) error {
	s, exists := b.sessions.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(event, payload)
}

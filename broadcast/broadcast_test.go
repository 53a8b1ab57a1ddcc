package broadcast

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/pagerace/game"
	"github.com/wfunc/pagerace/network"
	"github.com/wfunc/pagerace/session"
)

// MockConnection records the events sent through it.
type MockConnection struct {
	events []string
}

func (m *MockConnection) Send(event string, payload interface{}) error {
	m.events = append(m.events, event)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func setup(t *testing.T) (*RoomBroadcaster, *game.Room, map[string]*MockConnection) {
	t.Helper()
	registry := game.NewManager(4)
	sessions := session.NewManager()
	conns := make(map[string]*MockConnection)

	room, err := registry.CreateRoom("arena", "1234")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	for _, sid := range []string{"sid-1", "sid-2"} {
		conn := &MockConnection{}
		conns[sid] = conn
		sessions.Add(session.NewSession(sid, conn))
		p := registry.CreatePlayer(sid)
		if err := registry.JoinRoom(p, room, "1234", false); err != nil {
			t.Fatalf("JoinRoom failed: %v", err)
		}
	}

	return NewRoomBroadcaster(registry, sessions), room, conns
}

func TestRoomBroadcaster_ToRoom(t *testing.T) {
	b, room, conns := setup(t)

	if err := b.ToRoom(room.GetName(), "room_update", map[string]string{}); err != nil {
		t.Fatalf("ToRoom failed: %v", err)
	}

	for sid, conn := range conns {
		if len(conn.events) != 1 || conn.events[0] != "room_update" {
			t.Errorf("Session %s: expected one room_update, got %v", sid, conn.events)
		}
	}
}

func TestRoomBroadcaster_ToRoom_Unknown(t *testing.T) {
	b, _, _ := setup(t)

	if err := b.ToRoom("no_such_room", "room_update", nil); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomBroadcaster_ToSession(t *testing.T) {
	b, _, conns := setup(t)

	if err := b.ToSession("sid-1", "navpage", map[string]string{}); err != nil {
		t.Fatalf("ToSession failed: %v", err)
	}
	if len(conns["sid-1"].events) != 1 {
		t.Errorf("Expected one event for sid-1, got %v", conns["sid-1"].events)
	}
	if len(conns["sid-2"].events) != 0 {
		t.Errorf("Expected no events for sid-2, got %v", conns["sid-2"].events)
	}

	if err := b.ToSession("ghost", "navpage", nil); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

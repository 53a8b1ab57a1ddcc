package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/pagerace/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []string
}

func (m *MockConnection) Send(event string, payload interface{}) error {
	m.sent = append(m.sent, event)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("session1", &MockConnection{})

	manager.Add(sess)

	got, exists := manager.Get("session1")
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if got != sess {
		t.Error("Get should return the same session instance")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected session count to be 1, got %d", manager.Count())
	}

	manager.Remove("session1")
	if _, exists := manager.Get("session1"); exists {
		t.Error("Session was not removed")
	}
}

func TestSession_Send(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("session1", conn)

	if err := sess.Send("room_update", map[string]string{"status": "success"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != "room_update" {
		t.Errorf("Expected one room_update send, got %v", conn.sent)
	}
}

func TestManager_IdleSince(t *testing.T) {
	manager := NewManager()

	idle := NewSession("idle", &MockConnection{})
	idle.lastActive = time.Now().Add(-time.Hour)
	manager.Add(idle)

	active := NewSession("active", &MockConnection{})
	active.Touch()
	manager.Add(active)

	stale := manager.IdleSince(time.Now().Add(-time.Minute))
	if len(stale) != 1 {
		t.Fatalf("Expected 1 idle session, got %d", len(stale))
	}
	if stale[0].GetID() != "idle" {
		t.Errorf("Expected the idle session, got %s", stale[0].GetID())
	}
}

package rpc

import (
	"testing"

	"github.com/wfunc/pagerace/game"
)

func TestAdminService_Stats(t *testing.T) {
	registry := game.NewManager(4)
	svc := NewAdminService(registry)

	registry.CreatePlayer("sid-1")
	room, err := registry.CreateRoom("arena", "1234")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	var stats StatsReply
	if err := svc.Stats(Args{}, &stats); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Players != 1 || stats.Rooms != 1 {
		t.Errorf("Expected 1 player and 1 room, got %+v", stats)
	}

	var rooms RoomListReply
	if err := svc.ListRooms(Args{}, &rooms); err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].Name != room.GetName() {
		t.Errorf("Expected room %s in directory, got %+v", room.GetName(), rooms.Rooms)
	}
}

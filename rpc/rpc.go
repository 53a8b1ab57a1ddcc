// rpc/rpc.go
package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/pagerace/game"
	"github.com/wfunc/pagerace/logger"
)

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller
// before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the listener.
func (s *Server) Stop() {
	s.listener.Close()
}

// AdminService exposes live server stats over RPC for operational tooling.
type AdminService struct {
	registry *game.Manager
}

func NewAdminService(registry *game.Manager) *AdminService {
	return &AdminService{registry: registry}
}

// Args is the empty argument struct for stat queries.
type Args struct{}

type StatsReply struct {
	Players int
	Rooms   int
}

// Stats reports the registered player and room counts.
func (s *AdminService) Stats(_ Args, reply *StatsReply) error {
	reply.Players = s.registry.PlayerCount()
	reply.Rooms = s.registry.RoomCount()
	return nil
}

type RoomListReply struct {
	Rooms []game.RoomSummary
}

// ListRooms snapshots every live room.
func (s *AdminService) ListRooms(_ Args, reply *RoomListReply) error {
	reply.Rooms = s.registry.RoomDirectory()
	return nil
}

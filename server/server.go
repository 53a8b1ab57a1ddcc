// server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/pagerace/broadcast"
	"github.com/wfunc/pagerace/config"
	"github.com/wfunc/pagerace/game"
	"github.com/wfunc/pagerace/logger"
	"github.com/wfunc/pagerace/mode"
	"github.com/wfunc/pagerace/monitor"
	"github.com/wfunc/pagerace/network"
	adminrpc "github.com/wfunc/pagerace/rpc"
	"github.com/wfunc/pagerace/response"
	"github.com/wfunc/pagerace/session"
	"github.com/wfunc/pagerace/timer"
	"github.com/wfunc/pagerace/wiki"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	registry       *game.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	dispatcher     *response.Dispatcher
	provider       wiki.Provider
	monitor        *monitor.Monitor
	rpcServer      *adminrpc.Server
	timers         *timer.TimerManager
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, provider wiki.Provider) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		registry:       game.NewManager(cfg.Game.PINLength),
		sessionManager: session.NewManager(),
		provider:       provider,
		monitor:        monitor.NewMonitor("pagerace"),
		timers:         timer.NewTimerManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.registry, s.sessionManager)
	s.dispatcher = response.NewDispatcher(s.registry, s.broadcaster)

	rpcServer, err := adminrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(adminrpc.NewAdminService(s.registry))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	// Periodic maintenance: close idle sessions and refresh the room gauge.
	s.timers.AddTimer(30*time.Second, 30*time.Second, s.sweep)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, s.Handler())
}

// Handler builds the HTTP routes.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/page/", s.handlePageContent)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) sweep() {
	deadline := time.Now().Add(-s.cfg.Server.SessionTimeout)
	for _, idle := range s.sessionManager.IdleSince(deadline) {
		logger.Log.Infof("Closing idle session %s", idle.GetID())
		// Closing funnels the session through its read loop's disconnect path.
		idle.Close()
	}
	s.monitor.SetActiveRooms(s.registry.RoomCount())
}

// handlePageContent serves renderable page HTML fetched from the content
// provider. Page viewing is not game state; navigation is reported
// separately through game_mode_event.
func (s *GameServer) handlePageContent(w http.ResponseWriter, r *http.Request) {
	pageID := strings.TrimPrefix(r.URL.Path, "/page/")
	if pageID == "" {
		http.Error(w, "missing page id", http.StatusBadRequest)
		return
	}

	start := time.Now()
	html, err := s.provider.FetchRenderableContent(r.Context(), pageID)
	s.monitor.ObserveWikiLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		logger.Log.Errorf("Failed to fetch page %s: %v", pageID, err)
		http.Error(w, "upstream failure", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.registry.CreatePlayer(sess.GetID())
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		roomLeft, err := s.registry.RemovePlayer(sess.GetID())
		if err != nil {
			logger.Log.Warnf("Failed to remove player %s: %v", sess.GetID(), err)
		}
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		s.monitor.SetActiveRooms(s.registry.RoomCount())
		if roomLeft != "" {
			s.dispatcher.EmitRoomUpdate(roomLeft, nil)
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			sess.Touch()
			s.monitor.IncEventsReceived()
			s.handlePacket(sess, packet)
		}
	}
}

// handlePacket is the per-action error boundary: a panic or unclassified
// error is fatal to the request, never to the connection loop or process.
func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Panic handling %s from %s: %v", packet.Event, sess.GetID(), r)
			s.dispatcher.EmitError(sess.GetID(), packet.Event, game.NewError(game.ErrUnknown, "panic"))
		}
	}()

	switch packet.Event {
	case network.EventTryJoinRoom:
		s.handleJoinRoom(sess, packet.Data)
	case network.EventTryCreateRoom:
		s.handleCreateRoom(sess, packet.Data)
	case network.EventTryLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.EventReturnToRoomSettings:
		s.handleReturnToRoomSettings(sess)
	case network.EventTryChangeUsername:
		s.handleChangeUsername(sess, packet.Data)
	case network.EventSearchPages:
		s.handleSearchPages(sess, packet.Data)
	case network.EventTryStartGame:
		s.handleStartGame(sess)
	case network.EventSendChatMessage:
		s.handleChatMessage(sess, packet.Data)
	case network.EventGameModeEvent:
		s.handleGameModeEvent(sess, packet.Data)
	default:
		logger.Log.Infof("Unknown event %q from %s", packet.Event, sess.GetID())
	}
}

type joinRoomRequest struct {
	Room string `json:"room"`
	Code string `json:"code"`
}

func (s *GameServer) handleJoinRoom(sess *session.Session, data json.RawMessage) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, game.NewError(game.ErrMalformedRequest, "joining room"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}
	room, err := s.registry.GetRoom(req.Room)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}
	if err := s.registry.JoinRoom(player, room, req.Code, false); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}

	s.dispatcher.EmitToSession(sess.GetID(), network.EventJoinRoomResponse, response.RoomInfo(room.Info(player)))
	s.dispatcher.EmitRoomUpdate(room.GetName(), nil)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, data json.RawMessage) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, game.NewError(game.ErrMalformedRequest, "creating room"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}
	room, err := s.registry.CreateRoom(req.Room, req.Code)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}
	// The creator joins unconditionally, whatever code the room ended up with.
	if err := s.registry.JoinRoom(player, room, req.Code, true); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventJoinRoomResponse, err)
		return
	}

	logger.Log.Infof("Session %s created room %s", sess.GetID(), room.GetName())
	s.dispatcher.EmitToSession(sess.GetID(), network.EventJoinRoomResponse, response.RoomInfo(room.Info(player)))
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventLeaveRoomResponse, err)
		return
	}
	if player.RoomName == "" {
		s.dispatcher.EmitError(sess.GetID(), network.EventLeaveRoomResponse, game.NewError(game.ErrPlayerNotInRoom, "leaving room"))
		return
	}
	roomName := player.RoomName
	room, err := s.registry.GetRoom(roomName)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventLeaveRoomResponse, err)
		return
	}
	if _, err := s.registry.LeaveRoom(player, room); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventLeaveRoomResponse, err)
		return
	}

	s.dispatcher.EmitToSession(sess.GetID(), network.EventLeaveRoomResponse, response.Success(nil))
	s.dispatcher.EmitRoomUpdate(roomName, nil)
	s.monitor.SetActiveRooms(s.registry.RoomCount())
}

func (s *GameServer) handleReturnToRoomSettings(sess *session.Session) {
	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventReturnToRoomSettingsResponse, err)
		return
	}
	if player.RoomName == "" {
		s.dispatcher.EmitError(sess.GetID(), network.EventReturnToRoomSettingsResponse, game.NewError(game.ErrPlayerNotInRoom, "returning to settings"))
		return
	}
	room, err := s.registry.GetRoom(player.RoomName)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventReturnToRoomSettingsResponse, err)
		return
	}

	room.ReturnToSettings(player)
	s.dispatcher.EmitRoomUpdate(room.GetName(), nil)
}

type changeUsernameRequest struct {
	Username string `json:"username"`
}

func (s *GameServer) handleChangeUsername(sess *session.Session, data json.RawMessage) {
	var req changeUsernameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventChangeUsernameResponse, game.NewError(game.ErrMalformedRequest, "changing username"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventChangeUsernameResponse, err)
		return
	}
	if player.RoomName == "" {
		s.dispatcher.EmitError(sess.GetID(), network.EventChangeUsernameResponse, game.NewError(game.ErrPlayerNotInRoom, "changing username"))
		return
	}
	room, err := s.registry.GetRoom(player.RoomName)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventChangeUsernameResponse, err)
		return
	}
	if err := s.registry.ChangeUsername(room, player, req.Username); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventChangeUsernameResponse, err)
		return
	}

	s.dispatcher.EmitToSession(sess.GetID(), network.EventChangeUsernameResponse, response.Success(response.Payload{
		"username": player.Name,
	}))
	s.dispatcher.EmitRoomUpdate(room.GetName(), nil)
}

type searchPagesRequest struct {
	Element string `json:"element"`
	Query   string `json:"query"`
}

func (s *GameServer) handleSearchPages(sess *session.Session, data json.RawMessage) {
	var req searchPagesRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, game.NewError(game.ErrMalformedRequest, "searching pages"))
		return
	}
	if req.Element != game.ElementStartPage && req.Element != game.ElementEndPage {
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, game.NewError(game.ErrMalformedRequest, "searching pages"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, err)
		return
	}
	room, err := s.registry.ValidateIsOwner(player)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, err)
		return
	}

	start := time.Now()
	page, err := s.provider.SearchFirstMatch(context.Background(), req.Query)
	s.monitor.ObserveWikiLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, game.NewError(game.ErrPageNotFound, "searching for page"))
			return
		}
		logger.Log.Errorf("Page search failed for %q: %v", req.Query, err)
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, game.NewError(game.ErrUnknown, "searching for page"))
		return
	}

	if err := room.SetPage(req.Element, page); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSearchPages, err)
		return
	}
	s.dispatcher.EmitRoomUpdate(room.GetName(), nil)
}

func (s *GameServer) handleStartGame(sess *session.Session) {
	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventStartGameResponse, err)
		return
	}
	room, err := s.registry.ValidateCanStart(player)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventStartGameResponse, err)
		return
	}

	intent := room.Mode().Start(room)
	s.monitor.IncGamesStarted()
	s.dispatcher.Dispatch(intent, player, room)
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

func (s *GameServer) handleChatMessage(sess *session.Session, data json.RawMessage) {
	var req chatMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSendChatMessage, game.NewError(game.ErrMalformedRequest, "sending chat message"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventSendChatMessage, err)
		return
	}
	if player.RoomName == "" {
		s.dispatcher.EmitError(sess.GetID(), network.EventSendChatMessage, game.NewError(game.ErrPlayerNotInRoom, "sending chat message"))
		return
	}

	payload := response.ChatMessage(player.Name, req.Text)
	if err := s.broadcaster.ToRoom(player.RoomName, network.EventSendChatMessage, payload); err != nil {
		logger.Log.Warnf("Failed to relay chat in room %s: %v", player.RoomName, err)
	}
}

type gameModeEventRequest struct {
	Event     string `json:"event"`
	PageID    string `json:"page_id"`
	Direction string `json:"direction"`
}

func (s *GameServer) handleGameModeEvent(sess *session.Session, data json.RawMessage) {
	var req gameModeEventRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventGameModeEvent, game.NewError(game.ErrMalformedRequest, "handling game mode event"))
		return
	}

	player, err := s.registry.GetPlayer(sess.GetID())
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventGameModeEvent, err)
		return
	}
	if player.RoomName == "" {
		s.dispatcher.EmitError(sess.GetID(), network.EventGameModeEvent, game.NewError(game.ErrPlayerNotInRoom, "handling game mode event"))
		return
	}
	room, err := s.registry.GetRoom(player.RoomName)
	if err != nil {
		s.dispatcher.EmitError(sess.GetID(), network.EventGameModeEvent, err)
		return
	}

	nav := mode.NavigationRequest{PageID: req.PageID, Direction: req.Direction}
	intent := room.Mode().UserEvent(room, player, req.Event, nav)

	switch intent.Kind {
	case mode.IntentNavigate:
		start := time.Now()
		intent = mode.ResolveNavigation(context.Background(), s.provider, room, player, nav)
		if nav.Direction == "" {
			s.monitor.ObserveWikiLatency(time.Since(start))
		}
	case mode.IntentVictory:
		room.UnreadyAll()
	}

	s.dispatcher.Dispatch(intent, player, room)
}

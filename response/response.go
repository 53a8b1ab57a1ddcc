// response/response.go
package response

import (
	"errors"

	"github.com/wfunc/pagerace/broadcast"
	"github.com/wfunc/pagerace/game"
	"github.com/wfunc/pagerace/logger"
	"github.com/wfunc/pagerace/mode"
	"github.com/wfunc/pagerace/network"
	"github.com/wfunc/pagerace/wiki"
)

// Payload is one outbound JSON object.
type Payload map[string]interface{}

// Dispatcher is a pure projection from (intent, context) to addressed
// outbound messages. It owns no game state.
type Dispatcher struct {
	registry    *game.Manager
	broadcaster broadcast.Broadcaster
}

func NewDispatcher(registry *game.Manager, broadcaster broadcast.Broadcaster) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// Success builds a success payload with optional extra fields.
func Success(extra Payload) Payload {
	p := Payload{"status": network.StatusSuccess}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

// Failure builds an error payload. Domain errors surface their client
// message; anything outside the taxonomy renders as a generic failure.
func Failure(err error) Payload {
	var domainErr *game.Error
	message := game.NewError(game.ErrUnknown, "").ClientMessage()
	switch {
	case errors.As(err, &domainErr):
		message = domainErr.ClientMessage()
	case errors.Is(err, wiki.ErrPageNotFound):
		message = game.NewError(game.ErrPageNotFound, "").ClientMessage()
	}
	return Payload{
		"status": network.StatusFailure,
		"error":  message,
	}
}

// RoomInfo renders the room snapshot payload.
func RoomInfo(info game.Info) Payload {
	return Payload{
		"status":              network.StatusSuccess,
		"name":                info.Name,
		"code":                info.Code,
		"requires_code":       info.RequiresCode,
		"players":             info.Players,
		"owner":               info.Owner,
		"mode":                info.Mode,
		"start_article":       wiki.Serialize(info.StartPage),
		"end_article":         wiki.Serialize(info.EndPage),
		"waiting_for_players": info.WaitingForPlayers,
		"state":               string(info.State),
		"username":            info.Username,
	}
}

// ChatMessage renders a relayed chat line.
func ChatMessage(sender, message string) Payload {
	return Payload{
		"status":  network.StatusSuccess,
		"sender":  sender,
		"message": message,
	}
}

// EmitError sends an error payload for the given response event to the
// originating connection only.
func (d *Dispatcher) EmitError(sessionID, event string, err error) {
	if sendErr := d.broadcaster.ToSession(sessionID, event, Failure(err)); sendErr != nil {
		logger.Log.Warnf("Failed to emit error response to %s: %v", sessionID, sendErr)
	}
}

// EmitToSession sends a payload to one connection.
func (d *Dispatcher) EmitToSession(sessionID, event string, payload Payload) {
	if err := d.broadcaster.ToSession(sessionID, event, payload); err != nil {
		logger.Log.Warnf("Failed to emit %s to %s: %v", event, sessionID, err)
	}
}

// EmitRoomUpdate broadcasts the room snapshot to the whole membership, or to
// a single audience player when one is given.
func (d *Dispatcher) EmitRoomUpdate(roomName string, audience *game.Player) {
	room, err := d.registry.GetRoom(roomName)
	if err != nil {
		// The room emptied out in the meantime; nobody to update.
		return
	}

	if audience != nil {
		d.EmitToSession(audience.SID, network.EventRoomUpdate, RoomInfo(room.Info(audience)))
		return
	}

	// Each member sees its own username in the snapshot.
	for _, member := range room.Members() {
		d.EmitToSession(member.SID, network.EventRoomUpdate, RoomInfo(room.Info(member)))
	}
}

// Dispatch renders a game-mode intent into its outbound messages. User
// scoped intents go to the acting player's connection; the rest broadcast to
// the room.
func (d *Dispatcher) Dispatch(intent mode.Intent, player *game.Player, room *game.Room) {
	switch intent.Kind {
	case mode.IntentNone:

	case mode.IntentStartGame:
		payload := Success(Payload{
			"scene":       intent.Scene,
			"start_title": intent.PageID,
		})
		if err := d.broadcaster.ToRoom(room.GetName(), network.EventStart, payload); err != nil {
			logger.Log.Warnf("Failed to broadcast game start for room %s: %v", room.GetName(), err)
		}

	case mode.IntentNavigate:
		d.EmitToSession(player.SID, network.EventNavigatePage, Success(Payload{
			"page_id": intent.PageID,
		}))

	case mode.IntentVictory:
		payload := Success(Payload{
			"scene":       "victory",
			"winner_name": player.Name,
			"page_path":   room.HistoryTitles(player),
		})
		if err := d.broadcaster.ToRoom(room.GetName(), network.EventVictoryRace, payload); err != nil {
			logger.Log.Warnf("Failed to broadcast victory for room %s: %v", room.GetName(), err)
		}

	case mode.IntentChangeUserScene:
		d.EmitToSession(player.SID, network.EventChangeUserScene, Success(scenePayload(intent)))

	case mode.IntentChangeAllScenes:
		if err := d.broadcaster.ToRoom(room.GetName(), network.EventChangeAllScenes, Success(scenePayload(intent))); err != nil {
			logger.Log.Warnf("Failed to broadcast scene change for room %s: %v", room.GetName(), err)
		}

	case mode.IntentError:
		d.EmitError(player.SID, network.EventGameModeEvent, intent.Err)

	default:
		logger.Log.Warnf("Unhandled intent kind: %d", intent.Kind)
	}
}

func scenePayload(intent mode.Intent) Payload {
	p := Payload{"scene": intent.Scene}
	for k, v := range intent.SceneData {
		p[k] = v
	}
	return p
}

// network/protocol.go
package network

// Client to server events.
const (
	EventTryJoinRoom          = "try_join_room"
	EventTryCreateRoom        = "try_create_room"
	EventTryLeaveRoom         = "try_leave_room"
	EventReturnToRoomSettings = "return_to_room_settings"
	EventTryChangeUsername    = "try_change_username"
	EventSearchPages          = "search_pages"
	EventTryStartGame         = "try_start_game"
	EventSendChatMessage      = "send_chat_message"
	EventGameModeEvent        = "game_mode_event"
)

// Server to client events.
const (
	EventJoinRoomResponse       = "join_room"
	EventLeaveRoomResponse      = "left_room"
	EventChangeUsernameResponse = "change_username"
	EventRoomUpdate             = "room_update"
	EventStartGameResponse      = "start_game_response"

	EventReturnToRoomSettingsResponse = "returned_to_room_settings"

	EventStart           = "start"
	EventNavigatePage    = "navpage"
	EventVictoryRace     = "victory_race"
	EventChangeUserScene = "change_user_scene"
	EventChangeAllScenes = "change_all_scenes"
)

// Response status values. Every payload carries one.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

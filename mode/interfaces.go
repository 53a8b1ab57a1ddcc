// mode/interfaces.go
package mode

import "github.com/wfunc/pagerace/wiki"

// Player defines the minimal interface for a player entity that a game mode
// needs to interact with.
type Player interface {
	GetID() string
	GetName() string
}

// RoomContext defines the interface a room must implement to host a game
// mode. This breaks the import cycle between game and mode.
type RoomContext interface {
	GetName() string
	StartPage() (wiki.PageRef, bool)
	EndPage() (wiki.PageRef, bool)

	// BeginGame resets every member's page history to the configured start
	// page and moves the room into its in-game state.
	BeginGame()

	// StepHistory moves the player's history cursor one step back or forward,
	// clamped to the recorded history, and returns the page at the new
	// position. Cursor zero resolves to the configured start page.
	StepHistory(player Player, back bool) wiki.PageRef

	// CommitNavigation truncates the player's history beyond the current
	// cursor, appends the resolved page and places the cursor on it.
	CommitNavigation(player Player, page wiki.PageRef)
}

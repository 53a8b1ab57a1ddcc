// mode/mode.go
package mode

import (
	"context"
	"errors"

	"github.com/wfunc/pagerace/wiki"
)

// EventNavigatePage is the page-navigation user event shared by page-based
// game modes.
const EventNavigatePage = "navpage"

// GameMode is the per-mode state machine. Start and UserEvent mutate room
// state through the RoomContext and describe what happened as an Intent.
// Preconditions (settings completeness, ownership) are enforced by callers.
type GameMode interface {
	Name() string
	Start(room RoomContext) Intent
	UserEvent(room RoomContext, player Player, event string, nav NavigationRequest) Intent
}

// NavigationRequest is the payload of a page-navigation user event. Either
// Direction is set (history move) or PageID (fresh navigation).
type NavigationRequest struct {
	PageID    string `json:"page_id"`
	Direction string `json:"direction"`
}

// New constructs the game mode registered under name, defaulting to Race.
// Adding a mode means adding a case here and an implementation, nothing else.
func New(name string) GameMode {
	switch name {
	case "Race":
		return &Race{}
	default:
		return &Race{}
	}
}

// Race is the classic mode: first player to navigate from the start page to
// the end page wins.
type Race struct{}

func (r *Race) Name() string { return "Race" }

// Start resets every member to the configured start page and announces the
// game to the whole room.
func (r *Race) Start(room RoomContext) Intent {
	start, _ := room.StartPage()
	room.BeginGame()
	return Intent{Kind: IntentStartGame, Scene: "wikiWindow", PageID: start.PageID}
}

// UserEvent recognizes page navigation only. Reaching the configured end
// page is a victory; anything else is a navigation to resolve.
func (r *Race) UserEvent(room RoomContext, player Player, event string, nav NavigationRequest) Intent {
	if event != EventNavigatePage {
		return None
	}
	if end, ok := room.EndPage(); ok && nav.PageID != "" && nav.PageID == end.PageID {
		return Intent{Kind: IntentVictory}
	}
	return Intent{Kind: IntentNavigate, PageID: nav.PageID}
}

// ResolveNavigation applies a navigation request to the acting player's
// history. It is mode independent.
//
// Back/forward moves never touch the provider and never change the history
// length. A fresh navigation resolves the page first, without any room lock
// held, and commits the mutation only on success.
func ResolveNavigation(ctx context.Context, provider wiki.Provider, room RoomContext, player Player, nav NavigationRequest) Intent {
	if nav.Direction == "back" || nav.Direction == "forward" {
		page := room.StepHistory(player, nav.Direction == "back")
		return Intent{Kind: IntentNavigate, PageID: page.PageID}
	}

	page, err := provider.ResolvePage(ctx, nav.PageID)
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			return Intent{Kind: IntentError, Err: wiki.ErrPageNotFound}
		}
		return Intent{Kind: IntentError, Err: err}
	}

	room.CommitNavigation(player, *page)
	return Intent{Kind: IntentNavigate, PageID: nav.PageID}
}

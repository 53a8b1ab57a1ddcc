// game/settings.go
package game

import (
	"github.com/wfunc/pagerace/mode"
	"github.com/wfunc/pagerace/wiki"
)

// Settings element names, matching the search_pages payload contract.
const (
	ElementStartPage = "start_article"
	ElementEndPage   = "end_article"
)

// RoomSettings holds a room's configurable game-mode parameters. Pages are
// explicit optionals: nil means "no page". Guarded by the owning room's lock.
type RoomSettings struct {
	Mode      mode.GameMode
	StartPage *wiki.PageRef
	EndPage   *wiki.PageRef
}

func NewRoomSettings() *RoomSettings {
	return &RoomSettings{Mode: mode.New("Race")}
}

// Complete reports whether the settings allow a game to start. Race needs
// both a start and an end page.
func (s *RoomSettings) Complete() bool {
	return s.StartPage != nil && s.EndPage != nil
}

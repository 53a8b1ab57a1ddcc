// game/player.go
package game

import "github.com/wfunc/pagerace/wiki"

// Player is one connected participant. The SID is the connection-session id
// and is stable for the connection's lifetime. RoomName is a non-owning
// back-reference resolved through the registry; the room's member list owns
// the membership edge.
//
// History and Cursor are mutated only through Room methods so that all
// in-room mutations share the room's lock.
type Player struct {
	SID      string
	Name     string
	RoomName string
	History  []wiki.PageRef
	Cursor   int
	Ready    bool
}

// NewPlayer creates an unaffiliated player whose display name starts out as
// its raw session id. A cursor of -1 means unset.
func NewPlayer(sid string) *Player {
	return &Player{
		SID:    sid,
		Name:   sid,
		Cursor: -1,
		Ready:  true,
	}
}

func (p *Player) GetID() string { return p.SID }

func (p *Player) GetName() string { return p.Name }

// HistoryTitles projects the page history to its titles, oldest first.
func (p *Player) HistoryTitles() []string {
	titles := make([]string, 0, len(p.History))
	for _, page := range p.History {
		titles = append(titles, page.Title)
	}
	return titles
}

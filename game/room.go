// game/room.go
package game

import (
	"sync"

	"github.com/wfunc/pagerace/mode"
	"github.com/wfunc/pagerace/wiki"
)

// RoomState is the lifecycle phase of a room. A room cycles between these
// until it is destroyed by emptiness; there is no terminal state.
type RoomState string

const (
	StateWaitingRoom    RoomState = "waiting_room"
	StateInRoomSettings RoomState = "in_room_settings"
	StateInGame         RoomState = "in_game"
)

// Room is a named, code-gated group of players sharing one game session. All
// mutable fields are guarded by mu; every inbound action touching one room
// serializes on it. Rooms are fully independent of each other.
type Room struct {
	name            string
	code            string
	requiresCode    bool
	members         []*Player
	owner           *Player
	settings        *RoomSettings
	state           RoomState
	waitingForReset bool
	mu              sync.RWMutex
}

// NewRoom creates a room in the waiting state. An empty code gets a
// generated numeric pin of pinLength digits.
func NewRoom(name, code string, pinLength int) *Room {
	if code == "" {
		code = GeneratePIN(pinLength)
	}
	return &Room{
		name:            name,
		code:            code,
		requiresCode:    true,
		settings:        NewRoomSettings(),
		state:           StateWaitingRoom,
		waitingForReset: true,
	}
}

func (r *Room) GetName() string { return r.name }

func (r *Room) Code() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

// Authenticate reports whether the supplied code grants entry.
func (r *Room) Authenticate(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.requiresCode || r.code == code
}

// AddMember appends the player to the member list. The first joiner becomes
// owner. A player still named after its raw session id gets a generated
// display name unique within the room.
func (r *Room) AddMember(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.owner == nil {
		r.owner = p
	}
	if p.Name == p.SID {
		p.Name = GenerateUniqueName(r.members)
	}
	r.members = append(r.members, p)
	p.RoomName = r.name
}

// RemoveMember removes the player and reports whether the room is now empty.
// If the removed player owned the room, ownership passes to the next
// remaining member in join order.
func (r *Room) RemoveMember(p *Player) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, member := range r.members {
		if member.SID == p.SID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, NewError(ErrPlayerNotInRoom, "removing player from room")
	}

	wasOwner := r.owner != nil && r.owner.SID == p.SID
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	p.RoomName = ""

	if wasOwner {
		if len(r.members) > 0 {
			r.owner = r.members[0]
		} else {
			r.owner = nil
		}
	}
	return len(r.members) == 0, nil
}

// IsOwner reports whether the player owns this room.
func (r *Room) IsOwner(p *Player) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner != nil && r.owner.SID == p.SID
}

// Members returns a snapshot of the member list in join order.
func (r *Room) Members() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Player(nil), r.members...)
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// UsernameTaken reports whether another member (not except) already holds
// the exact name.
func (r *Room) UsernameTaken(name string, except *Player) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, member := range r.members {
		if member.Name == name && (except == nil || member.SID != except.SID) {
			return true
		}
	}
	return false
}

// Rename changes the player's display name.
func (r *Room) Rename(p *Player, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Name = name
}

// UnreadyAll clears every member's ready flag, gating the next game start
// until everyone returns to the settings screen.
func (r *Room) UnreadyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		member.Ready = false
	}
}

// EvaluateWaitingForReset reports whether any member is not ready, storing
// the result on the room. Once every member is ready it also moves a waiting
// room into the settings state; this is the only transition out of
// StateWaitingRoom.
func (r *Room) EvaluateWaitingForReset() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evaluateWaitingLocked()
}

func (r *Room) evaluateWaitingLocked() bool {
	for _, member := range r.members {
		if !member.Ready {
			r.waitingForReset = true
			return true
		}
	}
	r.waitingForReset = false
	if r.state == StateWaitingRoom {
		r.state = StateInRoomSettings
	}
	return false
}

// ReturnToSettings marks the player ready again after a finished game and
// re-arms the reset gate, so the room heads back through the waiting
// evaluation on the next status query.
func (r *Room) ReturnToSettings(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Ready = true
	r.waitingForReset = true
	r.state = StateWaitingRoom
}

func (r *Room) State() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SetPage sets the start or end page. Element names follow the search_pages
// payload contract.
func (r *Room) SetPage(element string, page *wiki.PageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch element {
	case ElementStartPage:
		r.settings.StartPage = page
	case ElementEndPage:
		r.settings.EndPage = page
	default:
		return NewError(ErrMalformedRequest, "setting room page")
	}
	return nil
}

// SettingsComplete reports whether the configured mode can start.
func (r *Room) SettingsComplete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Complete()
}

// Mode returns the active game mode. The mode is fixed at creation, so no
// lock is required to call into it.
func (r *Room) Mode() mode.GameMode {
	return r.settings.Mode
}

// --- mode.RoomContext ---

func (r *Room) StartPage() (wiki.PageRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings.StartPage == nil {
		return wiki.PageRef{}, false
	}
	return *r.settings.StartPage, true
}

func (r *Room) EndPage() (wiki.PageRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings.EndPage == nil {
		return wiki.PageRef{}, false
	}
	return *r.settings.EndPage, true
}

// BeginGame resets every member's history to exactly the configured start
// page with the cursor on it, and moves the room in game.
func (r *Room) BeginGame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.settings.StartPage
	if start == nil {
		return
	}
	for _, member := range r.members {
		member.History = []wiki.PageRef{*start}
		member.Cursor = 0
	}
	r.state = StateInGame
}

// StepHistory moves the acting player's cursor one step, clamped to the
// recorded history. Cursor zero resolves to the configured start page.
func (r *Room) StepHistory(player mode.Player, back bool) wiki.PageRef {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(player.GetID())
	if p == nil {
		return wiki.PageRef{}
	}

	if p.Cursor == -1 {
		p.Cursor = 0
	}
	if back {
		p.Cursor--
	} else {
		p.Cursor++
	}
	if p.Cursor >= len(p.History) {
		p.Cursor = len(p.History) - 1
	}
	if p.Cursor < 0 {
		p.Cursor = 0
	}

	if p.Cursor > 0 {
		return p.History[p.Cursor]
	}
	if r.settings.StartPage != nil {
		return *r.settings.StartPage
	}
	return wiki.PageRef{}
}

// CommitNavigation discards any forward history beyond the cursor, appends
// the resolved page and places the cursor on it. A new branch overwrites the
// redundant future.
func (r *Room) CommitNavigation(player mode.Player, page wiki.PageRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(player.GetID())
	if p == nil {
		return
	}

	if p.Cursor == -1 {
		p.Cursor = 0
	}
	if p.Cursor+1 <= len(p.History) {
		p.History = p.History[:p.Cursor+1]
	}
	p.History = append(p.History, page)
	p.Cursor = len(p.History) - 1
}

func (r *Room) memberLocked(sid string) *Player {
	for _, member := range r.members {
		if member.SID == sid {
			return member
		}
	}
	return nil
}

// HistoryTitles returns the player's navigated page titles in order.
func (r *Room) HistoryTitles(player mode.Player) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.memberLocked(player.GetID())
	if p == nil {
		return nil
	}
	return p.HistoryTitles()
}

// Info is the room snapshot rendered to clients after almost every mutating
// action.
type Info struct {
	Name              string
	Code              string
	RequiresCode      bool
	Players           []string
	Owner             string
	Mode              string
	StartPage         *wiki.PageRef
	EndPage           *wiki.PageRef
	WaitingForPlayers bool
	State             RoomState
	Username          string
}

// Info assembles the room snapshot. The waiting evaluation runs as part of
// the snapshot, so a room whose members all became ready advances into the
// settings state here. Username is filled when a specific player is the
// audience.
func (r *Room) Info(audience *Player) Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	waiting := r.evaluateWaitingLocked()

	players := make([]string, 0, len(r.members))
	for _, member := range r.members {
		players = append(players, member.Name)
	}

	ownerName := ""
	if r.owner != nil {
		ownerName = r.owner.Name
	}

	info := Info{
		Name:              r.name,
		Code:              r.code,
		RequiresCode:      r.requiresCode,
		Players:           players,
		Owner:             ownerName,
		Mode:              r.settings.Mode.Name(),
		StartPage:         r.settings.StartPage,
		EndPage:           r.settings.EndPage,
		WaitingForPlayers: waiting,
		State:             r.state,
	}
	if audience != nil {
		info.Username = audience.Name
	}
	return info
}

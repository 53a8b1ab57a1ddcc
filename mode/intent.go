// mode/intent.go
package mode

// IntentKind enumerates what a game mode decided happened. The response
// dispatcher renders each kind into addressed outbound messages.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentStartGame
	IntentChangeUserScene
	IntentChangeAllScenes
	IntentNavigate
	IntentVictory
	IntentError
)

// Intent describes the outcome of a game-mode action. It carries no
// addressing; the acting player and room travel alongside it.
type Intent struct {
	Kind IntentKind

	// Scene and SceneData apply to scene-change intents.
	Scene     string
	SceneData map[string]interface{}

	// PageID is the navigated or start page for navigate/start intents.
	PageID string

	// Err classifies error intents, e.g. wiki.ErrPageNotFound.
	Err error
}

// None is the empty intent.
var None = Intent{Kind: IntentNone}

// game/errors.go
package game

// ErrorKind is the machine-stable classification of a domain error.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrPlayerNotFound
	ErrUsernameTaken
	ErrRoomAlreadyExists
	ErrRoomNotFound
	ErrRoomAuthenticationFailed
	ErrPlayerNotInRoom
	ErrNotRoomOwner
	ErrPageNotFound
	ErrMalformedRequest
	ErrNameTooLong
	ErrNameTooShort
	ErrNameNonASCII
)

// clientMessages are the only error strings ever shown to a client. The
// context string stays server-side.
var clientMessages = map[ErrorKind]string{
	ErrUnknown:                  "Unknown error",
	ErrPlayerNotFound:           "Player does not exist or has not been registered to the server",
	ErrUsernameTaken:            "That username is taken",
	ErrRoomAlreadyExists:        "That room already exists",
	ErrRoomNotFound:             "That room does not exist",
	ErrRoomAuthenticationFailed: "The code is incorrect",
	ErrPlayerNotInRoom:          "Player not found in this room",
	ErrNotRoomOwner:             "Not the owner of the room",
	ErrPageNotFound:             "Couldn't find that page",
	ErrMalformedRequest:         "Malformed request",
	ErrNameTooLong:              "Too long",
	ErrNameTooShort:             "Too short",
	ErrNameNonASCII:             "Invalid characters",
}

// Error is a domain error: a stable kind plus a free-text context string for
// diagnostics.
type Error struct {
	Kind    ErrorKind
	Context string
}

func (e *Error) Error() string {
	return "game: \"" + e.ClientMessage() + "\" with context: " + e.Context
}

// ClientMessage returns the human-readable message safe to send to a client.
func (e *Error) ClientMessage() string {
	if msg, ok := clientMessages[e.Kind]; ok {
		return msg
	}
	return clientMessages[ErrUnknown]
}

// NewError builds a domain error of the given kind.
func NewError(kind ErrorKind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

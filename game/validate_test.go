package game_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/pagerace/game"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  game.ErrorKind
	}{
		{"valid", "alice", 0},
		{"minimum length", "abc", 0},
		{"maximum length", strings.Repeat("a", 25), 0},
		{"too short", "ab", game.ErrNameTooShort},
		{"empty", "", game.ErrNameTooShort},
		{"too long", strings.Repeat("a", 26), game.ErrNameTooLong},
		{"non ascii", "zürich", game.ErrNameNonASCII},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := game.ValidateName(tt.input)
			if tt.kind == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, errorKind(t, err))
		})
	}
}

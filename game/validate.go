// game/validate.go
package game

const (
	MinNameLength = 3
	MaxNameLength = 25
)

// ValidateName checks a display or room name against the length and
// character-set rules. Names must be 3-25 characters of printable ASCII.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return NewError(ErrNameTooLong, "validating name")
	}
	if len(name) < MinNameLength {
		return NewError(ErrNameTooShort, "validating name")
	}
	for _, c := range name {
		if c >= 128 {
			return NewError(ErrNameNonASCII, "validating name")
		}
	}
	return nil
}

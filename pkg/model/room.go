package model

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxRoomNameLength = 64

var ErrRoomNameEmpty = errors.New("room name must not be empty")
var ErrRoomNameTooLong = errors.New("room name too long")
var ErrRoomNameInvalidChars = errors.New("room name must not contain control characters")

// ValidateRoomName checks that a room name is non-blank, at most 64 runes,
// and free of control characters. Rooms are created implicitly on first
// join, so this is the only gate a name ever passes through.
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrRoomNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrRoomNameInvalidChars
		}
	}
	return nil
}

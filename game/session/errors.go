package session

import (
	"errors"
	"fmt"
)

// UserError is a rejected command. Its message is meant for the player.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

func userErrorf(format string, args ...interface{}) *UserError {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err is (or wraps) a *UserError and returns it.
func IsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Player-facing rejections.
const (
	MsgAlreadyDeclared = "You have already declared an action this turn."
	MsgNotParticipant  = "You are not a participant in this battle."
	MsgBattleOver      = "The battle is already over."
	MsgBattleEnded     = "The battle has ended."
	MsgMustReplace     = "Your creature fainted. Switch in a replacement first."
)

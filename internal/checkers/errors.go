package checkers

import "errors"

// Rule violations. They are ordinary outcomes of a move attempt; callers match them with errors.Is.
var (
	ErrInvalidSquare      = errors.New("invalid square")
	ErrEmptySource        = errors.New("no piece on source square")
	ErrWrongTurn          = errors.New("not this side's turn")
	ErrCaptureMandatory   = errors.New("a capture is available and must be played")
	ErrIllegalDestination = errors.New("illegal destination")
	ErrGameOver           = errors.New("game is over")

	ErrMustContinueChain = errors.New("the capturing piece must continue its jump")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)

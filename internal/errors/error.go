package errors

import "errors"

// Validation errors: the request was understood and rejected.
var (
	ErrOutOfBounds       = errors.New("coordinates are outside the board")
	ErrDotOccupied       = errors.New("dot is already owned or captured")
	ErrDotsNotAdjacent   = errors.New("dots are not adjacent")
	ErrInvalidMove       = errors.New("invalid move payload")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrInvalidResult     = errors.New("match result must be 0, 0.5 or 1")
)

// Capacity errors: policy limits, not user mistakes.
var (
	ErrGameFull         = errors.New("game already has two players")
	ErrSlotTaken        = errors.New("player already joined this game")
	ErrAlreadyInGame    = errors.New("player already has an active game")
	ErrGameLimitReached = errors.New("active game limit reached")
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrInternal     = errors.New("internal error")
)

package game

import "errors"

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrAlreadySubmitted   = errors.New("already submitted this round")
	ErrRoundOver          = errors.New("round is over")
	ErrNotPlaying         = errors.New("game is not playing")
	ErrWrongKind          = errors.New("answer does not match game kind")
	ErrNoPlayers          = errors.New("game has no players")
	ErrPlayerNotInGame    = errors.New("player is not in this game")
	ErrInvalidKind        = errors.New("invalid game type")
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
	ErrInvalidOperation   = errors.New("invalid math operation")
	ErrUnknownCategory    = errors.New("unknown quiz category")
	ErrInvalidConfig      = errors.New("invalid game config")
)

// IsRejectedSubmission reports whether err marks a submission that was
// refused because of game state rather than a malformed request.
func IsRejectedSubmission(err error) bool {
	return errors.Is(err, ErrInvalidSubmission)
}

package commands

import (
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"

	"github.com/pkg/errors"
)

// preconditionError maps a failed command guard onto the HTTP status the
// chat gateway translates into a user-facing notice.
func preconditionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrNotAPlayer):
		return core.NewCommandError(404, err)
	case errors.Is(err, domain.ErrSessionAlreadyExists),
		errors.Is(err, domain.ErrAlreadyAPlayer),
		errors.Is(err, domain.ErrAlreadyPlaying),
		errors.Is(err, domain.ErrNotPlaying),
		errors.Is(err, domain.ErrNotYourTurnToVote),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrNotEnoughPlayers):
		return core.NewCommandError(409, err)
	case errors.Is(err, domain.ErrNotTheJudge),
		errors.Is(err, domain.ErrJudgeMayNotAnswer),
		errors.Is(err, domain.ErrWrongChannel):
		return core.NewCommandError(403, err)
	default:
		return core.NewCommandError(500, err)
	}
}

// validationError covers malformed user input: reported back, state
// unchanged, never fatal.
func validationError(err error) error {
	return core.NewCommandError(400, err)
}

package domain

import "errors"

// Validation errors. Reported back to the offending user, round state
// untouched.
var (
	ErrWrongAnswerCount = errors.New("wrong number of answers for the current prompt")
	ErrAnswerOutOfRange = errors.New("answer index is outside the hand")
	ErrDuplicateAnswer  = errors.New("the same answer was submitted twice")
	ErrChoiceOutOfRange = errors.New("choice index is outside the submitted answers")
	ErrNonIntegerInput  = errors.New("answer is not an integer")
)

// Precondition errors. A command's guard failed; no state mutation occurs.
var (
	ErrNoActiveSession      = errors.New("no game exists for this community")
	ErrSessionAlreadyExists = errors.New("a game already exists for this community")
	ErrNotEnoughPlayers     = errors.New("not enough players to start the game")
	ErrAlreadyPlaying       = errors.New("the game is already running")
	ErrNotPlaying           = errors.New("the game is not running")
	ErrNotAPlayer           = errors.New("user is not a player in this game")
	ErrAlreadyAPlayer       = errors.New("user already joined this game")
	ErrNotTheJudge          = errors.New("only the judge can do this")
	ErrJudgeMayNotAnswer    = errors.New("the judge does not submit answers")
	ErrWrongChannel         = errors.New("votes must come from the player's own channel")
	ErrAlreadyVoted         = errors.New("answers were already submitted this round")
	ErrNotYourTurnToVote    = errors.New("it is not time for this vote")
	ErrEmptyRoster          = errors.New("cannot pick a judge from an empty roster")
)

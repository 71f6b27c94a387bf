package domain

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Voting tracks whose input the round is currently waiting on. Together
// with Playing it encodes the session phase; the two stay separate fields
// for persistence compatibility.
type Voting string

const (
	VotingNobody  Voting = "nobody"
	VotingPlayers Voting = "players"
	VotingJudge   Voting = "judge"
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseDealing
	PhasePlayersVoting
	PhaseJudgeVoting
)

// RoundResult maps one anonymized position on the board back to the player
// whose submission rendered into it.
type RoundResult struct {
	PlayerID uuid.UUID
	Rendered string
}

// Session is the per-community game state. At most one session exists per
// community.
type Session struct {
	ID          uuid.UUID
	CommunityID string

	BoardChannel    string
	CategoryChannel string

	JudgeID   uuid.UUID
	PlayerIDs []uuid.UUID

	UsedBlackCardIDs []uuid.UUID
	UsedWhiteCardIDs []uuid.UUID

	ScoreTarget  int
	Playing      bool
	Voting       Voting
	RoundResults []RoundResult

	CreatedAt time.Time
}

func (s *Session) Phase() Phase {
	switch {
	case !s.Playing:
		return PhaseLobby
	case s.Voting == VotingPlayers:
		return PhasePlayersVoting
	case s.Voting == VotingJudge:
		return PhaseJudgeVoting
	default:
		return PhaseDealing
	}
}

func (s *Session) AddPlayer(playerID uuid.UUID) error {
	for _, id := range s.PlayerIDs {
		if id == playerID {
			return ErrAlreadyAPlayer
		}
	}

	s.PlayerIDs = append(s.PlayerIDs, playerID)
	return nil
}

// RemovePlayer takes the player out of the roster and reports whether the
// departing player was the acting judge, so the caller can reassign.
// Judge reassignment is never a silent side effect here.
func (s *Session) RemovePlayer(playerID uuid.UUID) (wasJudge bool, err error) {
	index := -1
	for i, id := range s.PlayerIDs {
		if id == playerID {
			index = i
			break
		}
	}

	if index == -1 {
		return false, ErrNotAPlayer
	}

	s.PlayerIDs = append(s.PlayerIDs[:index], s.PlayerIDs[index+1:]...)

	if s.JudgeID == playerID {
		s.JudgeID = uuid.Nil
		return true, nil
	}

	return false, nil
}

func (s *Session) IsPlayer(playerID uuid.UUID) bool {
	for _, id := range s.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

func (s *Session) IsJudge(playerID uuid.UUID) bool {
	return s.JudgeID != uuid.Nil && s.JudgeID == playerID
}

// AssignRandomJudge picks the judge uniformly at random from the roster.
func (s *Session) AssignRandomJudge(rng *rand.Rand) error {
	if len(s.PlayerIDs) == 0 {
		return ErrEmptyRoster
	}

	s.JudgeID = s.PlayerIDs[rng.Intn(len(s.PlayerIDs))]
	return nil
}

func (s *Session) HasQuorum(minPlayers int) bool {
	return len(s.PlayerIDs) >= minPlayers
}

// IsScoreCapped reports whether any score has reached the session target.
// Crossing the target is the only natural termination besides an explicit
// stop.
func (s *Session) IsScoreCapped(scores []int) bool {
	for _, score := range scores {
		if score >= s.ScoreTarget {
			return true
		}
	}
	return false
}

// MarkBlackCardUsed and MarkWhiteCardsUsed record drawn card ids so they
// are never dealt again within this session's lifetime.
func (s *Session) MarkBlackCardUsed(id uuid.UUID) {
	s.UsedBlackCardIDs = append(s.UsedBlackCardIDs, id)
}

func (s *Session) MarkWhiteCardsUsed(ids ...uuid.UUID) {
	s.UsedWhiteCardIDs = append(s.UsedWhiteCardIDs, ids...)
}

// ScrubRoundResult drops a departing player's entry so a stale submission
// can never win the round. Reports whether an entry was removed; removal
// shifts the positions of the entries after it, so any choice cast against
// the old positions must be discarded.
func (s *Session) ScrubRoundResult(playerID uuid.UUID) bool {
	results := s.RoundResults[:0]
	for _, result := range s.RoundResults {
		if result.PlayerID != playerID {
			results = append(results, result)
		}
	}

	removed := len(results) != len(s.RoundResults)
	s.RoundResults = results
	return removed
}

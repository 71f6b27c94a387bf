package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Player is the per-user mutable state of one game: the hand of unseen
// white cards, the answers moved out of it for the current round, the
// score, and the judge's choice when this player is judging.
type Player struct {
	ID          uuid.UUID
	CommunityID string
	UserRef     string
	ChannelRef  string

	Score            int
	Hand             []uuid.UUID
	SubmittedAnswers []uuid.UUID
	JudgeChoice      int

	JoinedAt time.Time
}

// SubmitAnswers moves the hand entries at the given 1-based indices into
// SubmittedAnswers, in the order given. A black card's blanks are filled
// positionally, so submission order is preserved. Removal from the hand
// happens highest index first so the remaining indices stay stable.
func (p *Player) SubmitAnswers(indices []int, pick int) error {
	if len(indices) != pick {
		return ErrWrongAnswerCount
	}

	seen := make(map[int]struct{}, len(indices))
	for _, index := range indices {
		if index < 1 || index > len(p.Hand) {
			return ErrAnswerOutOfRange
		}
		if _, dup := seen[index]; dup {
			return ErrDuplicateAnswer
		}
		seen[index] = struct{}{}
	}

	for _, index := range indices {
		p.SubmittedAnswers = append(p.SubmittedAnswers, p.Hand[index-1])
	}

	removal := make([]int, len(indices))
	copy(removal, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(removal)))
	for _, index := range removal {
		p.Hand = append(p.Hand[:index-1], p.Hand[index:]...)
	}

	return nil
}

// CastJudgeChoice records the judge's 1-based pick among the shuffled
// submissions of the current round.
func (p *Player) CastJudgeChoice(index, submissionCount int) error {
	if index < 1 || index > submissionCount {
		return ErrChoiceOutOfRange
	}

	p.JudgeChoice = index
	return nil
}

func (p *Player) HasSubmitted() bool {
	return len(p.SubmittedAnswers) > 0
}

// ClearRoundState empties the submitted answers and the judge choice.
// Called once per round boundary.
func (p *Player) ClearRoundState() {
	p.SubmittedAnswers = nil
	p.JudgeChoice = 0
}

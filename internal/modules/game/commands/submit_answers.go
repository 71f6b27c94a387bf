package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/catalog"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/google/uuid"
)

// CardFinder resolves the round's black card so the submission count can
// be validated against its pick.
type CardFinder interface {
	Find(ctx context.Context, id uuid.UUID) (catalog.Card, error)
}

// SubmitAnswersCommand carries the raw answer tokens as typed by the user.
// Non-integer input has to surface as a validation notice, not a decode
// failure.
type SubmitAnswersCommand struct {
	CommunityID string   `json:"community_id"`
	UserRef     string   `json:"user_ref"`
	ChannelRef  string   `json:"channel_ref"`
	Answers     []string `json:"answers"`
}

func (c SubmitAnswersCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	if c.UserRef == "" {
		return fmt.Errorf("invalid UserRef - '%s'", c.UserRef)
	}

	if len(c.Answers) == 0 {
		return fmt.Errorf("no answers provided")
	}

	return nil
}

func (c SubmitAnswersCommand) LockKey() string {
	return c.CommunityID
}

type SubmitAnswersCommandHandler struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	cards    CardFinder
	gateway  messaging.Gateway
}

func NewSubmitAnswersCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	cards CardFinder,
	gateway messaging.Gateway,
) *SubmitAnswersCommandHandler {
	return &SubmitAnswersCommandHandler{sessions, players, cards, gateway}
}

func (h *SubmitAnswersCommandHandler) Handle(
	ctx context.Context,
	request SubmitAnswersCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if !session.Playing {
		return core.Unit{}, preconditionError(domain.ErrNotPlaying)
	}

	if session.Voting != domain.VotingPlayers {
		return core.Unit{}, preconditionError(domain.ErrNotYourTurnToVote)
	}

	player, err := h.players.FindByUser(ctx, request.CommunityID, request.UserRef)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if request.ChannelRef != player.ChannelRef {
		return core.Unit{}, preconditionError(domain.ErrWrongChannel)
	}

	if session.IsJudge(player.ID) {
		return core.Unit{}, preconditionError(domain.ErrJudgeMayNotAnswer)
	}

	if player.HasSubmitted() {
		return core.Unit{}, preconditionError(domain.ErrAlreadyVoted)
	}

	indices := make([]int, 0, len(request.Answers))
	for _, token := range request.Answers {
		index, err := strconv.Atoi(token)
		if err != nil {
			return core.Unit{}, validationError(domain.ErrNonIntegerInput)
		}
		indices = append(indices, index)
	}

	if len(session.UsedBlackCardIDs) == 0 {
		return core.Unit{}, preconditionError(domain.ErrNotYourTurnToVote)
	}

	blackCard, err := h.cards.Find(ctx, session.UsedBlackCardIDs[len(session.UsedBlackCardIDs)-1])
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if err := player.SubmitAnswers(indices, blackCard.Pick); err != nil {
		return core.Unit{}, validationError(err)
	}

	if err := h.players.Save(ctx, session.ID, &player); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	banner := messaging.Text(fmt.Sprintf("%s has voted!", request.UserRef))
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, banner); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to announce vote"))
	}

	return core.Unit{}, nil
}

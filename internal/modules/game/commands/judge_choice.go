package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"
)

type JudgeChoiceCommand struct {
	CommunityID string `json:"community_id"`
	UserRef     string `json:"user_ref"`
	ChannelRef  string `json:"channel_ref"`
	Choice      string `json:"choice"`
}

func (c JudgeChoiceCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	if c.UserRef == "" {
		return fmt.Errorf("invalid UserRef - '%s'", c.UserRef)
	}

	if c.Choice == "" {
		return fmt.Errorf("no choice provided")
	}

	return nil
}

func (c JudgeChoiceCommand) LockKey() string {
	return c.CommunityID
}

type JudgeChoiceCommandHandler struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	gateway  messaging.Gateway
}

func NewJudgeChoiceCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	gateway messaging.Gateway,
) *JudgeChoiceCommandHandler {
	return &JudgeChoiceCommandHandler{sessions, players, gateway}
}

func (h *JudgeChoiceCommandHandler) Handle(
	ctx context.Context,
	request JudgeChoiceCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if !session.Playing {
		return core.Unit{}, preconditionError(domain.ErrNotPlaying)
	}

	if session.Voting != domain.VotingJudge {
		return core.Unit{}, preconditionError(domain.ErrNotYourTurnToVote)
	}

	player, err := h.players.FindByUser(ctx, request.CommunityID, request.UserRef)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if request.ChannelRef != player.ChannelRef {
		return core.Unit{}, preconditionError(domain.ErrWrongChannel)
	}

	if !session.IsJudge(player.ID) {
		return core.Unit{}, preconditionError(domain.ErrNotTheJudge)
	}

	choice, err := strconv.Atoi(request.Choice)
	if err != nil {
		return core.Unit{}, validationError(domain.ErrNonIntegerInput)
	}

	if err := player.CastJudgeChoice(choice, len(session.RoundResults)); err != nil {
		return core.Unit{}, validationError(err)
	}

	if err := h.players.Save(ctx, session.ID, &player); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	banner := messaging.Text(fmt.Sprintf("%s has decided!", request.UserRef))
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, banner); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to announce judge choice"))
	}

	return core.Unit{}, nil
}

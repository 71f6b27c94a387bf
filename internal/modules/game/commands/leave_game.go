package commands

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type LeaveGameCommand struct {
	CommunityID string `json:"community_id"`
	UserRef     string `json:"user_ref"`
}

func (c LeaveGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	if c.UserRef == "" {
		return fmt.Errorf("invalid UserRef - '%s'", c.UserRef)
	}

	return nil
}

func (c LeaveGameCommand) LockKey() string {
	return c.CommunityID
}

type LeaveGameCommandHandler struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	gateway  messaging.Gateway
	rng      *rand.Rand
}

func NewLeaveGameCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	gateway messaging.Gateway,
	rng *rand.Rand,
) *LeaveGameCommandHandler {
	return &LeaveGameCommandHandler{sessions, players, gateway, rng}
}

// Handle removes the player and cleans every trace of them out of the
// round: their proposal entry is scrubbed so the judge can never pick a
// ghost, a judge choice cast against the old proposal positions is reset,
// their cards go to the used pool so they never resurface, and a departing
// judge is replaced immediately. Leaving twice fails the not-a-player
// guard with no state change.
func (h *LeaveGameCommandHandler) Handle(
	ctx context.Context,
	request LeaveGameCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	player, err := h.players.FindByUser(ctx, request.CommunityID, request.UserRef)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	wasJudge, err := session.RemovePlayer(player.ID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	scrubbed := session.ScrubRoundResult(player.ID)
	session.MarkWhiteCardsUsed(player.Hand...)
	session.MarkWhiteCardsUsed(player.SubmittedAnswers...)

	if scrubbed && session.JudgeID != uuid.Nil {
		judge, err := h.players.Find(ctx, session.JudgeID)
		if err != nil && !errors.Is(err, domain.ErrNotAPlayer) {
			return core.Unit{}, core.NewCommandError(500, err)
		}
		if err == nil && judge.JudgeChoice != 0 {
			judge.JudgeChoice = 0
			if err := h.players.Save(ctx, session.ID, &judge); err != nil {
				return core.Unit{}, core.NewCommandError(500, err)
			}
		}
	}

	if wasJudge && session.Playing && len(session.PlayerIDs) > 0 {
		if err := session.AssignRandomJudge(h.rng); err != nil {
			return core.Unit{}, core.NewCommandError(500, err)
		}
	}

	if err := h.sessions.Save(ctx, &session); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if err := h.players.Delete(ctx, player.ID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if err := h.gateway.DeleteChannel(ctx, player.ChannelRef); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to delete player channel"))
	}

	banner := messaging.Text(fmt.Sprintf("%s has left the game", request.UserRef))
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, banner); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to announce leave"))
	}

	return core.Unit{}, nil
}

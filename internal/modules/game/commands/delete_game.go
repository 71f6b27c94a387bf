package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"
)

type DeleteGameCommand struct {
	CommunityID string `json:"community_id"`
}

func (c DeleteGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	return nil
}

func (c DeleteGameCommand) LockKey() string {
	return c.CommunityID
}

type DeleteGameCommandHandler struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	gateway  messaging.Gateway
}

func NewDeleteGameCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	gateway messaging.Gateway,
) *DeleteGameCommandHandler {
	return &DeleteGameCommandHandler{sessions, players, gateway}
}

// Handle tears the whole game down: every player row and private channel,
// the board, the category, and finally the session itself.
func (h *DeleteGameCommandHandler) Handle(
	ctx context.Context,
	request DeleteGameCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	players, err := h.players.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	for _, player := range players {
		if err := h.gateway.DeleteChannel(ctx, player.ChannelRef); err != nil {
			return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to delete player channel"))
		}

		if err := h.players.Delete(ctx, player.ID); err != nil {
			return core.Unit{}, core.NewCommandError(500, err)
		}
	}

	if err := h.gateway.DeleteChannel(ctx, session.BoardChannel); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to delete board channel"))
	}

	if err := h.gateway.DeleteChannel(ctx, session.CategoryChannel); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to delete category channel"))
	}

	if err := h.sessions.Delete(ctx, session.ID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	return core.Unit{}, nil
}

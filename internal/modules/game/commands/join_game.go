package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/pkg/errors"
)

type JoinGameCommand struct {
	CommunityID string `json:"community_id"`
	UserRef     string `json:"user_ref"`
	DisplayName string `json:"display_name"`
}

func (c JoinGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	if c.UserRef == "" {
		return fmt.Errorf("invalid UserRef - '%s'", c.UserRef)
	}

	return nil
}

func (c JoinGameCommand) LockKey() string {
	return c.CommunityID
}

type JoinGameCommandHandler struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	gateway  messaging.Gateway
}

func NewJoinGameCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	gateway messaging.Gateway,
) *JoinGameCommandHandler {
	return &JoinGameCommandHandler{sessions, players, gateway}
}

// Handle adds the user to the roster with a fresh private channel only
// that user can read.
func (h *JoinGameCommandHandler) Handle(
	ctx context.Context,
	request JoinGameCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	_, err = h.players.FindByUser(ctx, request.CommunityID, request.UserRef)
	switch {
	case err == nil:
		return core.Unit{}, preconditionError(domain.ErrAlreadyAPlayer)
	case !errors.Is(err, domain.ErrNotAPlayer):
		return core.Unit{}, core.NewCommandError(500, err)
	}

	name := request.DisplayName
	if name == "" {
		name = request.UserRef
	}
	channelName := strings.Join(strings.Fields(name), "_")

	channel, err := h.gateway.CreateChannel(
		ctx,
		request.CommunityID,
		channelName,
		messaging.VisibilityPrivate,
	)
	if err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to create player channel"))
	}

	if err := h.gateway.SetPermissions(ctx, channel, request.UserRef, messaging.PermissionReadWrite); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to set channel permissions"))
	}

	player := domain.Player{
		CommunityID: request.CommunityID,
		UserRef:     request.UserRef,
		ChannelRef:  channel,
	}

	if err := h.players.Save(ctx, session.ID, &player); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	banner := messaging.Text(fmt.Sprintf("%s has joined the game", request.UserRef))
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, banner); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to announce join"))
	}

	return core.Unit{}, nil
}

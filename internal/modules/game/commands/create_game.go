package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/pkg/errors"
)

const categoryChannelName = "Cards Against Humanity"

type CreateGameCommand struct {
	CommunityID string `json:"community_id"`
}

func (c CreateGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	return nil
}

func (c CreateGameCommand) LockKey() string {
	return c.CommunityID
}

type CreateGameResponse struct {
	SessionID string `json:"session_id"`
}

type CreateGameCommandHandler struct {
	sessions           domain.SessionStore
	gateway            messaging.Gateway
	defaultScoreTarget int
}

func NewCreateGameCommandHandler(
	sessions domain.SessionStore,
	gateway messaging.Gateway,
	defaultScoreTarget int,
) *CreateGameCommandHandler {
	return &CreateGameCommandHandler{sessions, gateway, defaultScoreTarget}
}

func (h *CreateGameCommandHandler) Handle(
	ctx context.Context,
	request CreateGameCommand,
) (CreateGameResponse, error) {
	_, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	switch {
	case err == nil:
		return CreateGameResponse{}, preconditionError(domain.ErrSessionAlreadyExists)
	case !errors.Is(err, domain.ErrNoActiveSession):
		return CreateGameResponse{}, core.NewCommandError(500, err)
	}

	category, err := h.gateway.CreateChannel(
		ctx,
		request.CommunityID,
		categoryChannelName,
		messaging.VisibilityPublic,
	)
	if err != nil {
		return CreateGameResponse{}, core.NewCommandError(502, err, core.WithReason("failed to create category channel"))
	}

	board, err := h.gateway.CreateChannel(ctx, request.CommunityID, "board", messaging.VisibilityPublic)
	if err != nil {
		return CreateGameResponse{}, core.NewCommandError(502, err, core.WithReason("failed to create board channel"))
	}

	session := domain.Session{
		CommunityID:     request.CommunityID,
		BoardChannel:    board,
		CategoryChannel: category,
		ScoreTarget:     h.defaultScoreTarget,
		Voting:          domain.VotingNobody,
	}

	if err := h.sessions.Save(ctx, &session); err != nil {
		return CreateGameResponse{}, core.NewCommandError(500, err)
	}

	return CreateGameResponse{SessionID: session.ID.String()}, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
)

type StopGameCommand struct {
	CommunityID string `json:"community_id"`
}

func (c StopGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	return nil
}

func (c StopGameCommand) LockKey() string {
	return c.CommunityID
}

type StopGameCommandHandler struct {
	sessions domain.SessionStore
}

func NewStopGameCommandHandler(sessions domain.SessionStore) *StopGameCommandHandler {
	return &StopGameCommandHandler{sessions}
}

// Handle clears the playing flag. The round task observes it at the next
// step boundary or poll tick and aborts the round instead of completing a
// stale one.
func (h *StopGameCommandHandler) Handle(
	ctx context.Context,
	request StopGameCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if !session.Playing {
		return core.Unit{}, preconditionError(domain.ErrNotPlaying)
	}

	session.Playing = false
	if err := h.sessions.Save(ctx, &session); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	return core.Unit{}, nil
}

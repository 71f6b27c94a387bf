package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"
)

type ReminderCommand struct {
	CommunityID string `json:"community_id"`
	ChannelRef  string `json:"channel_ref"`
}

func (c ReminderCommand) Validate() error {
	if c.ChannelRef == "" {
		return fmt.Errorf("invalid ChannelRef - '%s'", c.ChannelRef)
	}

	return nil
}

type ReminderCommandHandler struct {
	gateway messaging.Gateway
}

func NewReminderCommandHandler(gateway messaging.Gateway) *ReminderCommandHandler {
	return &ReminderCommandHandler{gateway}
}

func (h *ReminderCommandHandler) Handle(
	ctx context.Context,
	request ReminderCommand,
) (core.Unit, error) {
	reminder := messaging.Message{Title: "Rules", Body: rulesText}
	if err := h.gateway.SendMessage(ctx, request.ChannelRef, reminder); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to send the rules"))
	}

	return core.Unit{}, nil
}

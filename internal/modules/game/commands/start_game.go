package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/engine"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"
)

const rulesText = `Course of the game:
1. A black card (question) is picked
2. Players pick white cards (answers)
3. Players vote - use the vote command in your channel
4. The judge votes - use the judge command in your channel
5. The winner is decided and the next round starts`

type StartGameCommand struct {
	CommunityID string `json:"community_id"`
	// ScoreTarget overrides the configured default when positive.
	ScoreTarget int `json:"score_target"`
}

func (c StartGameCommand) Validate() error {
	if c.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", c.CommunityID)
	}

	if c.ScoreTarget < 0 {
		return fmt.Errorf("invalid ScoreTarget - '%d'", c.ScoreTarget)
	}

	return nil
}

func (c StartGameCommand) LockKey() string {
	return c.CommunityID
}

type StartGameCommandHandler struct {
	sessions   domain.SessionStore
	players    domain.PlayerStore
	gateway    messaging.Gateway
	engine     *engine.Engine
	runCtx     context.Context
	minPlayers int
}

func NewStartGameCommandHandler(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	gateway messaging.Gateway,
	eng *engine.Engine,
	runCtx context.Context,
	minPlayers int,
) *StartGameCommandHandler {
	return &StartGameCommandHandler{sessions, players, gateway, eng, runCtx, minPlayers}
}

// Handle flips the session into its playing state and launches the round
// task. Exactly one round task runs per session - the already-playing
// guard holds because commands for one community are serialized.
func (h *StartGameCommandHandler) Handle(
	ctx context.Context,
	request StartGameCommand,
) (core.Unit, error) {
	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, preconditionError(err)
	}

	if session.Playing {
		return core.Unit{}, preconditionError(domain.ErrAlreadyPlaying)
	}

	if !session.HasQuorum(h.minPlayers) {
		return core.Unit{}, preconditionError(domain.ErrNotEnoughPlayers)
	}

	session.Playing = true
	session.Voting = domain.VotingNobody
	session.RoundResults = nil
	if request.ScoreTarget > 0 {
		session.ScoreTarget = request.ScoreTarget
	}

	if err := h.sessions.Save(ctx, &session); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	// Leftovers from an earlier game would otherwise count as this game's
	// input: answers already submitted, a cast judge choice, old scores.
	players, err := h.players.FindByCommunity(ctx, request.CommunityID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	for i := range players {
		player := &players[i]
		player.ClearRoundState()
		player.Score = 0
		if err := h.players.Save(ctx, session.ID, player); err != nil {
			return core.Unit{}, core.NewCommandError(500, err)
		}
	}

	reminder := messaging.Message{Title: "Rules", Body: rulesText}
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, reminder); err != nil {
		return core.Unit{}, core.NewCommandError(502, err, core.WithReason("failed to post the rules"))
	}

	// The round task outlives this request - it is bound to the server's
	// base context, not the HTTP request context.
	go func() {
		_ = h.engine.Run(h.runCtx, request.CommunityID)
	}()

	return core.Unit{}, nil
}

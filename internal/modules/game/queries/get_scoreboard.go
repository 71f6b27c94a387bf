package queries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/eskrenkovic/tql"
	"github.com/pkg/errors"
)

type GetScoreboardQuery struct {
	CommunityID string `json:"community_id"`
}

func (q GetScoreboardQuery) Validate() error {
	if q.CommunityID == "" {
		return fmt.Errorf("invalid CommunityID - '%s'", q.CommunityID)
	}

	return nil
}

type PlayerScore struct {
	UserRef string `db:"user_ref" json:"user_ref"`
	Score   int    `db:"score" json:"score"`
}

type GetScoreboardQueryHandler struct {
	db       *sql.DB
	sessions domain.SessionStore
	gateway  messaging.Gateway
}

func NewGetScoreboardQueryHandler(
	db *sql.DB,
	sessions domain.SessionStore,
	gateway messaging.Gateway,
) *GetScoreboardQueryHandler {
	return &GetScoreboardQueryHandler{db, sessions, gateway}
}

// Handle returns the scoreboard and also posts it to the session's board
// channel, so the standings land where the game is played.
func (h *GetScoreboardQueryHandler) Handle(
	ctx context.Context,
	request GetScoreboardQuery,
) ([]PlayerScore, error) {
	const query = `
		SELECT
			user_ref, score
		FROM
			player
		WHERE
			community_id = $1
		ORDER BY
			score DESC, joined_at;`

	scores, err := tql.Query[PlayerScore](ctx, h.db, query, request.CommunityID)
	if err != nil {
		return nil, err
	}

	session, err := h.sessions.FindByCommunity(ctx, request.CommunityID)
	if errors.Is(err, domain.ErrNoActiveSession) {
		return scores, nil
	}
	if err != nil {
		return nil, err
	}

	var board strings.Builder
	for _, score := range scores {
		fmt.Fprintf(&board, "%s: %d\n", score.UserRef, score.Score)
	}

	message := messaging.Message{Title: "Scoreboard", Body: strings.TrimRight(board.String(), "\n")}
	if err := h.gateway.SendMessage(ctx, session.BoardChannel, message); err != nil {
		return nil, core.NewCommandError(502, err, core.WithReason("failed to post the scoreboard"))
	}

	return scores, nil
}

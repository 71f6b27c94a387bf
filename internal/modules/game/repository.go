package game

import (
	"context"
	"database/sql"
	"time"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type sessionRow struct {
	ID              uuid.UUID     `db:"id"`
	CommunityID     string        `db:"community_id"`
	BoardChannel    string        `db:"board_channel"`
	CategoryChannel string        `db:"category_channel"`
	JudgeID         uuid.NullUUID `db:"judge_id"`
	ScoreTarget     int           `db:"score_target"`
	Playing         bool          `db:"playing"`
	Voting          string        `db:"voting"`
	CreatedAt       time.Time     `db:"created_at"`
}

type usedCardRow struct {
	SessionID uuid.UUID `db:"session_id"`
	CardID    uuid.UUID `db:"card_id"`
	Kind      string    `db:"kind"`
	Position  int       `db:"position"`
}

type roundResultRow struct {
	SessionID uuid.UUID `db:"session_id"`
	Position  int       `db:"position"`
	PlayerID  uuid.UUID `db:"player_id"`
	Rendered  string    `db:"rendered"`
}

type rosterRow struct {
	ID uuid.UUID `db:"id"`
}

// SessionRepository persists sessions across the game_session,
// session_used_card, and round_result tables. The roster is derived from
// the player table, so Save never writes PlayerIDs - joining and leaving
// persist through the PlayerRepository.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db}
}

var _ domain.SessionStore = (*SessionRepository)(nil)

func (r *SessionRepository) FindByCommunity(ctx context.Context, communityID string) (domain.Session, error) {
	const query = `
		SELECT *
		FROM game_session
		WHERE community_id = $1;`

	row, err := tql.QueryFirst[sessionRow](ctx, r.db, query, communityID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Session{}, domain.ErrNoActiveSession
	case err != nil:
		return domain.Session{}, errors.Wrap(err, "failed to load game session")
	}

	session := domain.Session{
		ID:              row.ID,
		CommunityID:     row.CommunityID,
		BoardChannel:    row.BoardChannel,
		CategoryChannel: row.CategoryChannel,
		ScoreTarget:     row.ScoreTarget,
		Playing:         row.Playing,
		Voting:          domain.Voting(row.Voting),
		CreatedAt:       row.CreatedAt,
	}
	if row.JudgeID.Valid {
		session.JudgeID = row.JudgeID.UUID
	}

	const rosterQuery = `
		SELECT id
		FROM player
		WHERE session_id = $1
		ORDER BY joined_at;`

	roster, err := tql.Query[rosterRow](ctx, r.db, rosterQuery, session.ID)
	if err != nil {
		return domain.Session{}, errors.Wrap(err, "failed to load session roster")
	}
	session.PlayerIDs = core.Map(roster, func(row rosterRow) uuid.UUID { return row.ID })

	const usedQuery = `
		SELECT *
		FROM session_used_card
		WHERE session_id = $1
		ORDER BY position;`

	used, err := tql.Query[usedCardRow](ctx, r.db, usedQuery, session.ID)
	if err != nil {
		return domain.Session{}, errors.Wrap(err, "failed to load used cards")
	}

	for _, card := range used {
		switch card.Kind {
		case "black":
			session.UsedBlackCardIDs = append(session.UsedBlackCardIDs, card.CardID)
		case "white":
			session.UsedWhiteCardIDs = append(session.UsedWhiteCardIDs, card.CardID)
		}
	}

	const resultsQuery = `
		SELECT *
		FROM round_result
		WHERE session_id = $1
		ORDER BY position;`

	results, err := tql.Query[roundResultRow](ctx, r.db, resultsQuery, session.ID)
	if err != nil {
		return domain.Session{}, errors.Wrap(err, "failed to load round results")
	}
	session.RoundResults = core.Map(results, func(row roundResultRow) domain.RoundResult {
		return domain.RoundResult{PlayerID: row.PlayerID, Rendered: row.Rendered}
	})

	return session, nil
}

// Save upserts the session row and replaces its used-card and round-result
// rows in a single transaction.
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
		session.CreatedAt = time.Now().UTC()
	}

	row := sessionRow{
		ID:              session.ID,
		CommunityID:     session.CommunityID,
		BoardChannel:    session.BoardChannel,
		CategoryChannel: session.CategoryChannel,
		ScoreTarget:     session.ScoreTarget,
		Playing:         session.Playing,
		Voting:          string(session.Voting),
		CreatedAt:       session.CreatedAt,
	}
	if session.JudgeID != uuid.Nil {
		row.JudgeID = uuid.NullUUID{UUID: session.JudgeID, Valid: true}
	}

	return core.Tx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			INSERT INTO game_session
				(id, community_id, board_channel, category_channel, judge_id,
				 score_target, playing, voting, created_at)
			VALUES
				(:id, :community_id, :board_channel, :category_channel, :judge_id,
				 :score_target, :playing, :voting, :created_at)
			ON CONFLICT (id)
			DO UPDATE
			SET
				board_channel = :board_channel,
				category_channel = :category_channel,
				judge_id = :judge_id,
				score_target = :score_target,
				playing = :playing,
				voting = :voting;`

		if _, err := tql.Exec(ctx, tx, stmt, row); err != nil {
			return errors.Wrap(err, "failed to save game session")
		}

		const deleteUsed = `
			DELETE FROM session_used_card
			WHERE session_id = $1;`
		if _, err := tql.Exec(ctx, tx, deleteUsed, session.ID); err != nil {
			return errors.Wrap(err, "failed to clear used cards")
		}

		const insertUsed = `
			INSERT INTO session_used_card (session_id, card_id, kind, position)
			VALUES (:session_id, :card_id, :kind, :position);`

		position := 0
		for _, cardID := range session.UsedBlackCardIDs {
			used := usedCardRow{SessionID: session.ID, CardID: cardID, Kind: "black", Position: position}
			if _, err := tql.Exec(ctx, tx, insertUsed, used); err != nil {
				return errors.Wrap(err, "failed to save used black card")
			}
			position++
		}
		for _, cardID := range session.UsedWhiteCardIDs {
			used := usedCardRow{SessionID: session.ID, CardID: cardID, Kind: "white", Position: position}
			if _, err := tql.Exec(ctx, tx, insertUsed, used); err != nil {
				return errors.Wrap(err, "failed to save used white card")
			}
			position++
		}

		const deleteResults = `
			DELETE FROM round_result
			WHERE session_id = $1;`
		if _, err := tql.Exec(ctx, tx, deleteResults, session.ID); err != nil {
			return errors.Wrap(err, "failed to clear round results")
		}

		const insertResult = `
			INSERT INTO round_result (session_id, position, player_id, rendered)
			VALUES (:session_id, :position, :player_id, :rendered);`

		for i, result := range session.RoundResults {
			row := roundResultRow{
				SessionID: session.ID,
				Position:  i,
				PlayerID:  result.PlayerID,
				Rendered:  result.Rendered,
			}
			if _, err := tql.Exec(ctx, tx, insertResult, row); err != nil {
				return errors.Wrap(err, "failed to save round result")
			}
		}

		return nil
	})
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return core.Tx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		statements := []string{
			`DELETE FROM round_result WHERE session_id = $1;`,
			`DELETE FROM session_used_card WHERE session_id = $1;`,
			`DELETE FROM game_session WHERE id = $1;`,
		}

		for _, stmt := range statements {
			if _, err := tql.Exec(ctx, tx, stmt, id); err != nil {
				return errors.Wrap(err, "failed to delete game session")
			}
		}

		return nil
	})
}

type playerRow struct {
	ID          uuid.UUID `db:"id"`
	SessionID   uuid.UUID `db:"session_id"`
	CommunityID string    `db:"community_id"`
	UserRef     string    `db:"user_ref"`
	ChannelRef  string    `db:"channel_ref"`
	Score       int       `db:"score"`
	JudgeChoice int       `db:"judge_choice"`
	JoinedAt    time.Time `db:"joined_at"`
}

type playerCardRow struct {
	PlayerID uuid.UUID `db:"player_id"`
	CardID   uuid.UUID `db:"card_id"`
	Slot     int       `db:"slot"`
}

type playerAnswerRow struct {
	PlayerID uuid.UUID `db:"player_id"`
	CardID   uuid.UUID `db:"card_id"`
	Position int       `db:"position"`
}

// PlayerRepository persists players across the player, player_card, and
// player_answer tables.
type PlayerRepository struct {
	db *sql.DB
}

func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db}
}

var _ domain.PlayerStore = (*PlayerRepository)(nil)

func (r *PlayerRepository) Find(ctx context.Context, id uuid.UUID) (domain.Player, error) {
	const query = `
		SELECT *
		FROM player
		WHERE id = $1;`

	row, err := tql.QueryFirst[playerRow](ctx, r.db, query, id)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Player{}, domain.ErrNotAPlayer
	case err != nil:
		return domain.Player{}, errors.Wrap(err, "failed to load player")
	}

	return r.hydrate(ctx, row)
}

func (r *PlayerRepository) FindByUser(ctx context.Context, communityID, userRef string) (domain.Player, error) {
	const query = `
		SELECT *
		FROM player
		WHERE community_id = $1 AND user_ref = $2;`

	row, err := tql.QueryFirst[playerRow](ctx, r.db, query, communityID, userRef)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Player{}, domain.ErrNotAPlayer
	case err != nil:
		return domain.Player{}, errors.Wrap(err, "failed to load player")
	}

	return r.hydrate(ctx, row)
}

func (r *PlayerRepository) FindByCommunity(ctx context.Context, communityID string) ([]domain.Player, error) {
	const query = `
		SELECT *
		FROM player
		WHERE community_id = $1
		ORDER BY joined_at;`

	rows, err := tql.Query[playerRow](ctx, r.db, query, communityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load players")
	}

	players := make([]domain.Player, 0, len(rows))
	for _, row := range rows {
		player, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	return players, nil
}

func (r *PlayerRepository) hydrate(ctx context.Context, row playerRow) (domain.Player, error) {
	player := domain.Player{
		ID:          row.ID,
		CommunityID: row.CommunityID,
		UserRef:     row.UserRef,
		ChannelRef:  row.ChannelRef,
		Score:       row.Score,
		JudgeChoice: row.JudgeChoice,
		JoinedAt:    row.JoinedAt,
	}

	const handQuery = `
		SELECT *
		FROM player_card
		WHERE player_id = $1
		ORDER BY slot;`

	hand, err := tql.Query[playerCardRow](ctx, r.db, handQuery, row.ID)
	if err != nil {
		return domain.Player{}, errors.Wrap(err, "failed to load player hand")
	}
	player.Hand = core.Map(hand, func(row playerCardRow) uuid.UUID { return row.CardID })

	const answersQuery = `
		SELECT *
		FROM player_answer
		WHERE player_id = $1
		ORDER BY position;`

	answers, err := tql.Query[playerAnswerRow](ctx, r.db, answersQuery, row.ID)
	if err != nil {
		return domain.Player{}, errors.Wrap(err, "failed to load player answers")
	}
	player.SubmittedAnswers = core.Map(answers, func(row playerAnswerRow) uuid.UUID { return row.CardID })

	return player, nil
}

// Save upserts the player row and replaces the hand and answer rows in a
// single transaction. The session binding comes from the owning session's
// id and never changes after join.
func (r *PlayerRepository) Save(ctx context.Context, sessionID uuid.UUID, player *domain.Player) error {
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
		player.JoinedAt = time.Now().UTC()
	}

	row := playerRow{
		ID:          player.ID,
		SessionID:   sessionID,
		CommunityID: player.CommunityID,
		UserRef:     player.UserRef,
		ChannelRef:  player.ChannelRef,
		Score:       player.Score,
		JudgeChoice: player.JudgeChoice,
		JoinedAt:    player.JoinedAt,
	}

	return core.Tx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			INSERT INTO player
				(id, session_id, community_id, user_ref, channel_ref, score,
				 judge_choice, joined_at)
			VALUES
				(:id, :session_id, :community_id, :user_ref, :channel_ref, :score,
				 :judge_choice, :joined_at)
			ON CONFLICT (id)
			DO UPDATE
			SET
				channel_ref = :channel_ref,
				score = :score,
				judge_choice = :judge_choice;`

		if _, err := tql.Exec(ctx, tx, stmt, row); err != nil {
			return errors.Wrap(err, "failed to save player")
		}

		const deleteHand = `
			DELETE FROM player_card
			WHERE player_id = $1;`
		if _, err := tql.Exec(ctx, tx, deleteHand, player.ID); err != nil {
			return errors.Wrap(err, "failed to clear player hand")
		}

		const insertCard = `
			INSERT INTO player_card (player_id, card_id, slot)
			VALUES (:player_id, :card_id, :slot);`

		for slot, cardID := range player.Hand {
			card := playerCardRow{PlayerID: player.ID, CardID: cardID, Slot: slot}
			if _, err := tql.Exec(ctx, tx, insertCard, card); err != nil {
				return errors.Wrap(err, "failed to save hand card")
			}
		}

		const deleteAnswers = `
			DELETE FROM player_answer
			WHERE player_id = $1;`
		if _, err := tql.Exec(ctx, tx, deleteAnswers, player.ID); err != nil {
			return errors.Wrap(err, "failed to clear player answers")
		}

		const insertAnswer = `
			INSERT INTO player_answer (player_id, card_id, position)
			VALUES (:player_id, :card_id, :position);`

		for position, cardID := range player.SubmittedAnswers {
			answer := playerAnswerRow{PlayerID: player.ID, CardID: cardID, Position: position}
			if _, err := tql.Exec(ctx, tx, insertAnswer, answer); err != nil {
				return errors.Wrap(err, "failed to save submitted answer")
			}
		}

		return nil
	})
}

func (r *PlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return core.Tx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		statements := []string{
			`DELETE FROM player_answer WHERE player_id = $1;`,
			`DELETE FROM player_card WHERE player_id = $1;`,
			`DELETE FROM player WHERE id = $1;`,
		}

		for _, stmt := range statements {
			if _, err := tql.Exec(ctx, tx, stmt, id); err != nil {
				return errors.Wrap(err, "failed to delete player")
			}
		}

		return nil
	})
}

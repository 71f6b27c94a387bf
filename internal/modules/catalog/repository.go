package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type CardRepository struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db}
}

func (r *CardRepository) Find(ctx context.Context, id uuid.UUID) (Card, error) {
	const query = `
		SELECT *
		FROM card
		WHERE id = $1;`

	var card Card
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return Card{}, errors.Wrap(err, "failed to load card")
	}

	return card, nil
}

func (r *CardRepository) FindAll(ctx context.Context, ids []uuid.UUID) ([]Card, error) {
	const query = `
		SELECT *
		FROM card
		WHERE id = ANY($1);`

	var cards []Card
	if err := r.db.SelectContext(ctx, &cards, query, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "failed to load cards")
	}

	return cards, nil
}

// SampleOne returns a uniformly random card of the given kind. The backing
// store's only random primitive is a single-row sample, which is what the
// rejection-sampling draw builds on.
func (r *CardRepository) SampleOne(ctx context.Context, kind CardKind) (Card, error) {
	const query = `
		SELECT *
		FROM card
		WHERE kind = $1
		ORDER BY random()
		LIMIT 1;`

	var card Card
	if err := r.db.GetContext(ctx, &card, query, kind); err != nil {
		return Card{}, errors.Wrap(err, "failed to sample card")
	}

	return card, nil
}

func (r *CardRepository) Count(ctx context.Context, kind CardKind) (int, error) {
	const query = `
		SELECT count(id)
		FROM card
		WHERE kind = $1;`

	var count int
	if err := r.db.GetContext(ctx, &count, query, kind); err != nil {
		return 0, errors.Wrap(err, "failed to count cards")
	}

	return count, nil
}

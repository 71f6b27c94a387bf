package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// roundRobinSampler cycles deterministically through a fixed card list, the
// way a uniform sample behaves against a tiny catalog.
type roundRobinSampler struct {
	cards []Card
	next  int
}

func (s *roundRobinSampler) SampleOne(_ context.Context, kind CardKind) (Card, error) {
	for range s.cards {
		card := s.cards[s.next%len(s.cards)]
		s.next++
		if card.Kind == kind {
			return card, nil
		}
	}
	return Card{}, ErrCatalogExhausted
}

func Test_DrawUnused_Returns_First_Card_Outside_Exclusion_Set(t *testing.T) {
	// Arrange
	used := Card{ID: uuid.New(), Kind: KindWhite}
	fresh := Card{ID: uuid.New(), Kind: KindWhite}
	sampler := &roundRobinSampler{cards: []Card{used, fresh}}
	drawer := NewDrawer(sampler, 10)

	excluded := map[uuid.UUID]struct{}{used.ID: {}}

	// Act
	card, err := drawer.DrawUnused(context.Background(), KindWhite, excluded)

	// Assert
	require.NoError(t, err)
	require.Equal(t, fresh.ID, card.ID)
}

func Test_DrawUnused_Skips_Excluded_Cards(t *testing.T) {
	// Arrange
	cards := []Card{
		{ID: uuid.New(), Kind: KindWhite},
		{ID: uuid.New(), Kind: KindWhite},
		{ID: uuid.New(), Kind: KindWhite},
	}
	sampler := &roundRobinSampler{cards: cards}
	drawer := NewDrawer(sampler, 10)

	excluded := map[uuid.UUID]struct{}{
		cards[0].ID: {},
		cards[1].ID: {},
	}

	// Act
	card, err := drawer.DrawUnused(context.Background(), KindWhite, excluded)

	// Assert
	require.NoError(t, err)
	require.Equal(t, cards[2].ID, card.ID)
}

func Test_DrawUnused_Fails_When_Attempt_Budget_Runs_Out(t *testing.T) {
	// Arrange
	only := Card{ID: uuid.New(), Kind: KindBlack}
	sampler := &roundRobinSampler{cards: []Card{only}}
	drawer := NewDrawer(sampler, 5)

	excluded := map[uuid.UUID]struct{}{only.ID: {}}

	// Act
	_, err := drawer.DrawUnused(context.Background(), KindBlack, excluded)

	// Assert
	require.ErrorIs(t, err, ErrCatalogExhausted)
	require.Equal(t, 5, sampler.next)
}

func Test_DrawUnused_Aborts_On_Canceled_Context(t *testing.T) {
	// Arrange
	sampler := &roundRobinSampler{cards: []Card{{ID: uuid.New(), Kind: KindWhite}}}
	drawer := NewDrawer(sampler, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := drawer.DrawUnused(ctx, KindWhite, nil)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}

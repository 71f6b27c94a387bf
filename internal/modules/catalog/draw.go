package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrCatalogExhausted is returned when the draw loop cannot find an unused
// card within its attempt budget. The round must fail instead of spinning
// forever against a nearly-exhausted catalog.
var ErrCatalogExhausted = errors.New("card catalog exhausted")

// Sampler is the single store primitive the drawer depends on.
type Sampler interface {
	SampleOne(ctx context.Context, kind CardKind) (Card, error)
}

// Drawer draws random cards without repetition. There is no shuffled deck:
// the catalog may be arbitrarily large, so the drawer rejection-samples
// until it hits an id outside the exclusion set.
type Drawer struct {
	sampler     Sampler
	maxAttempts int
}

func NewDrawer(sampler Sampler, maxAttempts int) *Drawer {
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	return &Drawer{sampler: sampler, maxAttempts: maxAttempts}
}

// DrawUnused samples cards of the given kind until one outside excluded
// turns up, or the attempt budget runs out.
func (d *Drawer) DrawUnused(
	ctx context.Context,
	kind CardKind,
	excluded map[uuid.UUID]struct{},
) (Card, error) {
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Card{}, err
		}

		card, err := d.sampler.SampleOne(ctx, kind)
		if err != nil {
			return Card{}, err
		}

		if _, used := excluded[card.ID]; !used {
			return card, nil
		}
	}

	return Card{}, fmt.Errorf("no unused %s card found in %d attempts: %w", kind, d.maxAttempts, ErrCatalogExhausted)
}

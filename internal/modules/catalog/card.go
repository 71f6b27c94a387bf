package catalog

import (
	"strings"

	"github.com/google/uuid"
)

type CardKind string

const (
	KindBlack CardKind = "black"
	KindWhite CardKind = "white"
)

// Card is immutable reference data. Pick is only meaningful for black
// cards and holds the number of blanks the prompt expects.
type Card struct {
	ID   uuid.UUID `db:"id"`
	Kind CardKind  `db:"kind"`
	Text string    `db:"text"`
	Pick int       `db:"pick"`
}

// Render substitutes the prompt's blanks with the given answers, left to
// right. Prompts without an explicit blank get the answers appended as
// sentence endings, one per pick.
func (c Card) Render(answers []string) string {
	if !strings.Contains(c.Text, "_") {
		var b strings.Builder
		b.WriteString(c.Text)
		for _, answer := range answers {
			b.WriteString(" **")
			b.WriteString(answer)
			b.WriteString("**.")
		}
		return b.String()
	}

	rendered := c.Text
	for _, answer := range answers {
		rendered = strings.Replace(rendered, "_", "**"+answer+"**", 1)
	}
	return rendered
}

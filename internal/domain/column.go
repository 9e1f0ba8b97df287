package domain

import "slices"

// Column is one fixed board bucket holding an ordered card sequence.
type Column struct {
	ID    Status
	Title string
	Cards []Card
}

// Status returns the status every card in the column carries.
func (c Column) Status() Status {
	return c.ID
}

// IndexOf returns the position of cardID in the column, or -1.
func (c Column) IndexOf(cardID string) int {
	return slices.IndexFunc(c.Cards, func(card Card) bool {
		return card.ID == cardID
	})
}

// Len returns the number of cards in the column.
func (c Column) Len() int {
	return len(c.Cards)
}

func (c Column) clone() Column {
	out := c
	out.Cards = make([]Card, 0, len(c.Cards))
	for _, card := range c.Cards {
		out.Cards = append(out.Cards, card.Clone())
	}
	return out
}

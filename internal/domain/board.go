package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Board is an immutable snapshot of every column and card.
//
// Mutating helpers never touch the receiver; they return a new Board whose
// changed columns carry fresh card slices while untouched columns are shared.
type Board struct {
	Columns   []Column
	IsLoading bool
	Error     string
}

// NewBoard builds the four fixed empty columns. Missing titles fall back to defaults.
func NewBoard(titles map[Status]string) Board {
	columns := make([]Column, 0, len(orderedStatuses))
	for _, status := range orderedStatuses {
		title := strings.TrimSpace(titles[status])
		if title == "" {
			title = status.DefaultTitle()
		}
		columns = append(columns, Column{ID: status, Title: title, Cards: []Card{}})
	}
	return Board{Columns: columns}
}

// ColumnIndex returns the index of the column with the given status, or -1.
func (b Board) ColumnIndex(status Status) int {
	return slices.IndexFunc(b.Columns, func(c Column) bool {
		return c.ID == status
	})
}

// Column returns the column with the given status.
func (b Board) Column(status Status) (Column, bool) {
	idx := b.ColumnIndex(status)
	if idx < 0 {
		return Column{}, false
	}
	return b.Columns[idx], true
}

// Locate returns the column index and position of cardID.
func (b Board) Locate(cardID string) (int, int, bool) {
	for ci, column := range b.Columns {
		if pos := column.IndexOf(cardID); pos >= 0 {
			return ci, pos, true
		}
	}
	return -1, -1, false
}

// FindCard returns the card with id.
func (b Board) FindCard(id string) (Card, bool) {
	ci, pos, ok := b.Locate(strings.TrimSpace(id))
	if !ok {
		return Card{}, false
	}
	return b.Columns[ci].Cards[pos], true
}

// CardCount returns the total number of cards on the board.
func (b Board) CardCount() int {
	total := 0
	for _, column := range b.Columns {
		total += len(column.Cards)
	}
	return total
}

// Counts returns per-column card counts keyed by status.
func (b Board) Counts() map[Status]int {
	out := make(map[Status]int, len(b.Columns))
	for _, column := range b.Columns {
		out[column.ID] = len(column.Cards)
	}
	return out
}

// CardIDs returns every card id in board order.
func (b Board) CardIDs() []string {
	out := make([]string, 0, b.CardCount())
	for _, column := range b.Columns {
		for _, card := range column.Cards {
			out = append(out, card.ID)
		}
	}
	return out
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	out := b
	out.Columns = make([]Column, 0, len(b.Columns))
	for _, column := range b.Columns {
		out.Columns = append(out.Columns, column.clone())
	}
	return out
}

// CheckIntegrity verifies the fixed column set, unique card ids, and status/column agreement.
func (b Board) CheckIntegrity() error {
	if len(b.Columns) != len(orderedStatuses) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrInvariantViolation, len(orderedStatuses), len(b.Columns))
	}
	seen := make(map[string]Status, b.CardCount())
	for i, column := range b.Columns {
		if column.ID != orderedStatuses[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrInvariantViolation, i, column.ID, orderedStatuses[i])
		}
		for _, card := range column.Cards {
			if strings.TrimSpace(card.ID) == "" {
				return fmt.Errorf("%w: card with empty id in %q", ErrInvariantViolation, column.ID)
			}
			if prev, ok := seen[card.ID]; ok {
				return fmt.Errorf("%w: card %q appears in %q and %q", ErrInvariantViolation, card.ID, prev, column.ID)
			}
			seen[card.ID] = column.ID
			if card.Status != column.ID {
				return fmt.Errorf("%w: card %q has status %q inside %q", ErrInvariantViolation, card.ID, card.Status, column.ID)
			}
		}
	}
	return nil
}

// AppendCard returns a snapshot with card appended to the column matching its status.
func (b Board) AppendCard(card Card) (Board, error) {
	ci := b.ColumnIndex(card.Status)
	if ci < 0 {
		return b, ErrInvalidStatus
	}
	column := b.Columns[ci]
	cards := make([]Card, 0, len(column.Cards)+1)
	cards = append(cards, column.Cards...)
	cards = append(cards, card)
	return b.withColumnCards(ci, cards), nil
}

// RemoveCard returns a snapshot without cardID and the removed card.
func (b Board) RemoveCard(cardID string) (Board, Card, error) {
	ci, pos, ok := b.Locate(cardID)
	if !ok {
		return b, Card{}, ErrCardNotFound
	}
	removed := b.Columns[ci].Cards[pos]
	cards := slices.Delete(slices.Clone(b.Columns[ci].Cards), pos, pos+1)
	return b.withColumnCards(ci, cards), removed, nil
}

// ReplaceCard returns a snapshot with card swapped in at the position of the card sharing its id.
// A status change relocates the card to the end of the matching column.
func (b Board) ReplaceCard(card Card) (Board, error) {
	ci, pos, ok := b.Locate(card.ID)
	if !ok {
		return b, ErrCardNotFound
	}
	if b.Columns[ci].ID != card.Status {
		next, _, err := b.RemoveCard(card.ID)
		if err != nil {
			return b, err
		}
		return next.AppendCard(card)
	}
	cards := slices.Clone(b.Columns[ci].Cards)
	cards[pos] = card
	return b.withColumnCards(ci, cards), nil
}

func (b Board) withColumnCards(ci int, cards []Card) Board {
	out := b
	out.Columns = slices.Clone(b.Columns)
	out.Columns[ci].Cards = cards
	return out
}

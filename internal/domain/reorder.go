package domain

import (
	"slices"
	"strings"
)

// DropPosition selects where a dragged card lands relative to a target card.
type DropPosition int

// DropBefore inserts at the target card's position; DropAfter inserts right after it.
const (
	DropBefore DropPosition = iota
	DropAfter
)

// MoveResult describes the outcome of one reorder.
type MoveResult struct {
	Board     Board
	Card      Card
	From      Status
	To        Status
	FromIndex int
	ToIndex   int
	Changed   bool
}

// Reorder moves cardID to the position of targetID. targetID may name a card
// (insert before it) or a column (append to its end).
func Reorder(b Board, cardID, targetID string) (Board, error) {
	result, err := PlanMove(b, cardID, targetID, DropBefore)
	if err != nil {
		return b, err
	}
	return result.Board, nil
}

// ReorderAt is Reorder with an explicit drop position for card targets.
func ReorderAt(b Board, cardID, targetID string, drop DropPosition) (Board, error) {
	result, err := PlanMove(b, cardID, targetID, drop)
	if err != nil {
		return b, err
	}
	return result.Board, nil
}

// PlanMove computes the snapshot produced by dragging cardID onto targetID.
//
// The moved card keeps its status; callers rewrite it to result.To. Self drops,
// empty or unknown targets, and drops that land on the card's own position
// return the input board with Changed=false.
func PlanMove(b Board, cardID, targetID string, drop DropPosition) (MoveResult, error) {
	cardID = strings.TrimSpace(cardID)
	targetID = strings.TrimSpace(targetID)

	srcCol, srcPos, ok := b.Locate(cardID)
	if !ok {
		return MoveResult{Board: b}, ErrCardNotFound
	}
	card := b.Columns[srcCol].Cards[srcPos]
	unchanged := MoveResult{
		Board:     b,
		Card:      card,
		From:      b.Columns[srcCol].ID,
		To:        b.Columns[srcCol].ID,
		FromIndex: srcPos,
		ToIndex:   srcPos,
	}
	if targetID == "" || targetID == cardID {
		return unchanged, nil
	}

	dstCol, targetPos, targetIsCard := b.Locate(targetID)
	if !targetIsCard {
		dstCol = b.ColumnIndex(Status(targetID))
		if dstCol < 0 {
			return unchanged, nil
		}
	}

	remaining := slices.Delete(slices.Clone(b.Columns[srcCol].Cards), srcPos, srcPos+1)
	destination := b.Columns[dstCol].Cards
	if dstCol == srcCol {
		destination = remaining
	}

	insertAt := len(destination)
	if targetIsCard {
		targetPos = slices.IndexFunc(destination, func(c Card) bool { return c.ID == targetID })
		insertAt = targetPos
		if drop == DropAfter {
			insertAt++
		}
	}
	if dstCol == srcCol && insertAt == srcPos {
		return unchanged, nil
	}

	next := b
	next.Columns = slices.Clone(b.Columns)
	if dstCol == srcCol {
		next.Columns[srcCol].Cards = slices.Insert(remaining, insertAt, card)
	} else {
		next.Columns[srcCol].Cards = remaining
		next.Columns[dstCol].Cards = slices.Insert(slices.Clone(destination), insertAt, card)
	}

	return MoveResult{
		Board:     next,
		Card:      card,
		From:      b.Columns[srcCol].ID,
		To:        b.Columns[dstCol].ID,
		FromIndex: srcPos,
		ToIndex:   insertAt,
		Changed:   true,
	}, nil
}

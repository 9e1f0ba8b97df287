package app

import (
	"context"

	"github.com/hylla/kanboard/internal/domain"
)

// Persistence is the optional downstream collaborator that stores board cards.
//
// Failures never roll back an in-memory mutation; the store surfaces them
// through Board.Error instead.
type Persistence interface {
	LoadBoard(context.Context) (domain.Board, error)
	SaveCard(context.Context, domain.Card) error
	RemoveCard(context.Context, string) error
	SaveColumnOrder(context.Context, domain.Status, []string) error
	// BoardSeeded reports whether this board was initialized before, so an
	// emptied board is not reseeded on the next start.
	BoardSeeded(context.Context) (bool, error)
	MarkBoardSeeded(context.Context) error
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/kanboard/internal/domain"
)

// SnapshotVersion identifies the snapshot JSON layout.
const SnapshotVersion = "kanboard.snapshot.v1"

// Snapshot is the portable JSON form of a board.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Columns    []SnapshotColumn `json:"columns"`
}

// SnapshotColumn represents one column in a snapshot.
type SnapshotColumn struct {
	ID    domain.Status  `json:"id"`
	Title string         `json:"title"`
	Cards []SnapshotCard `json:"cards"`
}

// SnapshotCard represents one card in a snapshot.
type SnapshotCard struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.Status     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Assignee    *SnapshotAssignee `json:"assignee,omitempty"`
}

// SnapshotAssignee represents a card assignee in a snapshot.
type SnapshotAssignee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExportSnapshot captures the current board.
func (s *Store) ExportSnapshot() Snapshot {
	return SnapshotFromBoard(s.Board(), s.clock())
}

// ImportSnapshot validates snap and replaces the board with its contents.
func (s *Store) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	board, err := snap.Board()
	if err != nil {
		return err
	}
	return s.ReplaceBoard(ctx, board)
}

// SnapshotFromBoard converts b into its snapshot form.
func SnapshotFromBoard(b domain.Board, now time.Time) Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now.UTC(),
		Columns:    make([]SnapshotColumn, 0, len(b.Columns)),
	}
	for _, column := range b.Columns {
		sc := SnapshotColumn{
			ID:    column.ID,
			Title: column.Title,
			Cards: make([]SnapshotCard, 0, len(column.Cards)),
		}
		for _, card := range column.Cards {
			sc.Cards = append(sc.Cards, snapshotCardFromDomain(card))
		}
		snap.Columns = append(snap.Columns, sc)
	}
	return snap
}

// Validate checks version, column ids, and card uniqueness.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	columns := map[domain.Status]struct{}{}
	cards := map[string]struct{}{}
	for i, column := range s.Columns {
		if !column.ID.Valid() {
			return fmt.Errorf("columns[%d].id %q is not a known status", i, column.ID)
		}
		if _, exists := columns[column.ID]; exists {
			return fmt.Errorf("duplicate column id: %q", column.ID)
		}
		columns[column.ID] = struct{}{}
		for j, card := range column.Cards {
			id := strings.TrimSpace(card.ID)
			if id == "" {
				return fmt.Errorf("columns[%d].cards[%d].id is required", i, j)
			}
			if strings.TrimSpace(card.Title) == "" {
				return fmt.Errorf("columns[%d].cards[%d].title is required", i, j)
			}
			if card.Status != "" && card.Status != column.ID {
				return fmt.Errorf("columns[%d].cards[%d] status %q does not match column %q", i, j, card.Status, column.ID)
			}
			if card.CreatedAt.IsZero() || card.UpdatedAt.IsZero() {
				return fmt.Errorf("columns[%d].cards[%d] timestamps are required", i, j)
			}
			if _, exists := cards[id]; exists {
				return fmt.Errorf("duplicate card id: %q", id)
			}
			cards[id] = struct{}{}
		}
	}
	return nil
}

// Board validates the snapshot and rebuilds the board it describes.
func (s Snapshot) Board() (domain.Board, error) {
	if err := s.Validate(); err != nil {
		return domain.Board{}, err
	}
	titles := make(map[domain.Status]string, len(s.Columns))
	for _, column := range s.Columns {
		titles[column.ID] = column.Title
	}
	board := domain.NewBoard(titles)
	for _, column := range s.Columns {
		for _, card := range column.Cards {
			dc := card.toDomain()
			dc.Status = column.ID
			next, err := board.AppendCard(dc)
			if err != nil {
				return domain.Board{}, err
			}
			board = next
		}
	}
	if err := board.CheckIntegrity(); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

func snapshotCardFromDomain(card domain.Card) SnapshotCard {
	out := SnapshotCard{
		ID:          card.ID,
		Title:       card.Title,
		Description: card.Description,
		Status:      card.Status,
		CreatedAt:   card.CreatedAt.UTC(),
		UpdatedAt:   card.UpdatedAt.UTC(),
	}
	if card.Assignee != nil {
		out.Assignee = &SnapshotAssignee{ID: card.Assignee.ID, Name: card.Assignee.Name}
	}
	return out
}

func (c SnapshotCard) toDomain() domain.Card {
	out := domain.Card{
		ID:          strings.TrimSpace(c.ID),
		Title:       strings.TrimSpace(c.Title),
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	if c.Assignee != nil {
		out.Assignee = &domain.Assignee{ID: c.Assignee.ID, Name: c.Assignee.Name}
	}
	return out
}

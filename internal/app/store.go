package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/kanboard/internal/domain"
)

// IDGenerator returns unique identifiers for new cards.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// StoreConfig holds board initialization settings.
type StoreConfig struct {
	ColumnTitles map[domain.Status]string
	Seed         bool
	SeedCards    []domain.CardPayload
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLogger routes store events to logger.
func WithLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type cardLocation struct {
	column   int
	position int
}

// Store owns the canonical board snapshot and serializes every mutation.
type Store struct {
	mu      sync.RWMutex
	board   domain.Board
	index   map[string]cardLocation
	persist Persistence
	idGen   IDGenerator
	clock   Clock
	logger  *log.Logger
	cfg     StoreConfig
}

// NewStore constructs a store holding an empty, loading board. persist may be nil.
func NewStore(persist Persistence, idGen IDGenerator, clock Clock, cfg StoreConfig, opts ...StoreOption) *Store {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.SeedCards == nil {
		cfg.SeedCards = DefaultSeedCards()
	}
	board := domain.NewBoard(cfg.ColumnTitles)
	board.IsLoading = true
	s := &Store{
		board:   board,
		index:   map[string]cardLocation{},
		persist: persist,
		idGen:   idGen,
		clock:   clock,
		logger:  log.New(io.Discard),
		cfg:     cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Initialize populates the columns from persistence, or from the seed cards
// when persistence is absent or has never been initialized, and clears the
// loading flag. A persisted board that was emptied by the user stays empty.
func (s *Store) Initialize(ctx context.Context) domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.NewBoard(s.cfg.ColumnTitles)
	loadErr := ""
	loaded := false
	if s.persist != nil {
		stored, err := s.persist.LoadBoard(ctx)
		switch {
		case err != nil:
			loadErr = fmt.Sprintf("load board: %v", err)
			s.logger.Error("board load failed", "err", err)
		default:
			merged, mergeErr := mergeColumns(next, stored)
			if mergeErr != nil {
				loadErr = fmt.Sprintf("load board: %v", mergeErr)
				s.logger.Error("stored board rejected", "err", mergeErr)
				break
			}
			if merged.CardCount() > 0 {
				next = merged
				loaded = true
				break
			}
			seededBefore, seedErr := s.persist.BoardSeeded(ctx)
			if seedErr != nil {
				loadErr = fmt.Sprintf("load board: %v", seedErr)
				s.logger.Error("board seed marker unreadable", "err", seedErr)
				break
			}
			loaded = seededBefore
		}
	}

	var seeded []domain.Card
	if !loaded && loadErr == "" && s.cfg.Seed {
		now := s.clock()
		for _, payload := range s.cfg.SeedCards {
			card, err := domain.NewCard(s.idGen(), payload, now)
			if err != nil {
				s.logger.Warn("skipping invalid seed card", "title", payload.Title, "err", err)
				continue
			}
			candidate, err := next.AppendCard(card)
			if err != nil {
				s.logger.Warn("skipping invalid seed card", "title", payload.Title, "err", err)
				continue
			}
			next = candidate
			seeded = append(seeded, card)
		}
	}

	next.IsLoading = false
	next.Error = loadErr
	if err := s.swap(next); err != nil {
		s.board.IsLoading = false
		s.board.Error = err.Error()
		return s.board
	}
	for _, card := range seeded {
		s.persistCall(ctx, "save seed card", card.ID, func(ctx context.Context) error {
			return s.persist.SaveCard(ctx, card)
		})
	}
	if loadErr == "" {
		s.persistCall(ctx, "mark board", "seeded", func(ctx context.Context) error {
			return s.persist.MarkBoardSeeded(ctx)
		})
	}
	s.logger.Info("board initialized", "cards", s.board.CardCount(), "seeded", len(seeded), "persisted", loaded)
	return s.board
}

// Board returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Board() domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

// FindCard returns the card with id.
func (s *Store) FindCard(id string) (domain.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return domain.Card{}, false
	}
	return s.board.Columns[loc.column].Cards[loc.position].Clone(), true
}

// CreateCard validates payload and appends a new card to its status column.
func (s *Store) CreateCard(ctx context.Context, payload domain.CardPayload) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := domain.NewCard(s.idGen(), payload, s.clock())
	if err != nil {
		return domain.Card{}, err
	}
	if _, exists := s.index[card.ID]; exists {
		return domain.Card{}, fmt.Errorf("%w: duplicate card id %q", domain.ErrInvariantViolation, card.ID)
	}
	next, err := s.board.AppendCard(card)
	if err != nil {
		return domain.Card{}, err
	}
	if err := s.commit(next); err != nil {
		return domain.Card{}, err
	}
	s.logger.Debug("card created", "card_id", card.ID, "status", card.Status)
	s.persistCall(ctx, "save card", card.ID, func(ctx context.Context) error {
		return s.persist.SaveCard(ctx, card)
	})
	return card.Clone(), nil
}

// UpdateCard merges payload into the card with id. A status change moves the
// card to the end of the matching column.
func (s *Store) UpdateCard(ctx context.Context, id string, payload domain.CardPayload) (domain.Card, error) {
	return s.PatchCard(ctx, id, func(domain.Card) domain.CardPayload {
		return payload
	})
}

// PatchCard reads the card with id and applies the payload built by patch
// from it, all under one lock, so concurrent partial edits never drop each
// other's fields.
func (s *Store) PatchCard(ctx context.Context, id string, patch func(domain.Card) domain.CardPayload) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	loc, ok := s.index[id]
	if !ok {
		return domain.Card{}, s.notFound("update", id)
	}
	card := s.board.Columns[loc.column].Cards[loc.position].Clone()
	previous := card.Status
	if err := card.ApplyUpdate(patch(card.Clone()), s.clock()); err != nil {
		return domain.Card{}, err
	}
	next, err := s.board.ReplaceCard(card)
	if err != nil {
		return domain.Card{}, err
	}
	if err := s.commit(next); err != nil {
		return domain.Card{}, err
	}
	s.logger.Debug("card updated", "card_id", card.ID, "from", previous, "to", card.Status)
	s.persistCall(ctx, "save card", card.ID, func(ctx context.Context) error {
		return s.persist.SaveCard(ctx, card)
	})
	return card.Clone(), nil
}

// DeleteCard removes the card with id from whichever column holds it.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	if _, ok := s.index[id]; !ok {
		return s.notFound("delete", id)
	}
	next, _, err := s.board.RemoveCard(id)
	if err != nil {
		return err
	}
	if err := s.commit(next); err != nil {
		return err
	}
	s.logger.Debug("card deleted", "card_id", id)
	s.persistCall(ctx, "remove card", id, func(ctx context.Context) error {
		return s.persist.RemoveCard(ctx, id)
	})
	return nil
}

// MoveCard drops cardID onto targetID, which names a card (insert before it)
// or a column (append). It returns the resulting snapshot.
func (s *Store) MoveCard(ctx context.Context, cardID, targetID string) (domain.Board, error) {
	result, err := s.MoveCardAt(ctx, cardID, targetID, domain.DropBefore)
	if err != nil {
		return s.Board(), err
	}
	return result.Board, nil
}

// MoveCardAt is MoveCard with an explicit drop position for card targets.
// The moved card's status is rewritten to the destination column.
func (s *Store) MoveCardAt(ctx context.Context, cardID, targetID string, drop domain.DropPosition) (domain.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := domain.PlanMove(s.board, cardID, targetID, drop)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return domain.MoveResult{Board: s.board}, s.notFound("move", cardID)
		}
		return domain.MoveResult{Board: s.board}, err
	}
	if !result.Changed {
		return result, nil
	}

	next := result.Board
	card := result.Card
	if card.Status != result.To {
		card.Status = result.To
		card.UpdatedAt = s.clock().UTC()
		next, err = next.ReplaceCard(card)
		if err != nil {
			return domain.MoveResult{Board: s.board}, err
		}
	}
	if err := s.commit(next); err != nil {
		return domain.MoveResult{Board: s.board}, err
	}
	result.Board = s.board
	result.Card = card.Clone()
	s.logger.Debug("card moved", "card_id", card.ID, "from", result.From, "to", result.To, "index", result.ToIndex)

	s.persistCall(ctx, "save card", card.ID, func(ctx context.Context) error {
		return s.persist.SaveCard(ctx, card)
	})
	for _, status := range movedColumns(result) {
		column, _ := s.board.Column(status)
		ids := columnCardIDs(column)
		s.persistCall(ctx, "save column order", string(status), func(ctx context.Context) error {
			return s.persist.SaveColumnOrder(ctx, status, ids)
		})
	}
	result.Board = s.board
	return result, nil
}

// ReplaceBoard swaps in an entirely new board after checking its invariants.
func (s *Store) ReplaceBoard(ctx context.Context, board domain.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := mergeColumns(domain.NewBoard(s.cfg.ColumnTitles), board)
	if err != nil {
		return err
	}
	previous := s.board
	if err := s.commit(next); err != nil {
		return err
	}
	for _, id := range previous.CardIDs() {
		if _, kept := s.index[id]; kept {
			continue
		}
		s.persistCall(ctx, "remove card", id, func(ctx context.Context) error {
			return s.persist.RemoveCard(ctx, id)
		})
	}
	for _, column := range s.board.Columns {
		for _, card := range column.Cards {
			s.persistCall(ctx, "save card", card.ID, func(ctx context.Context) error {
				return s.persist.SaveCard(ctx, card)
			})
		}
		ids := columnCardIDs(column)
		status := column.ID
		s.persistCall(ctx, "save column order", string(status), func(ctx context.Context) error {
			return s.persist.SaveColumnOrder(ctx, status, ids)
		})
	}
	s.logger.Info("board replaced", "cards", s.board.CardCount())
	return nil
}

// swap verifies next and makes it the visible snapshot. On failure the prior
// snapshot stays in place.
func (s *Store) swap(next domain.Board) error {
	if err := next.CheckIntegrity(); err != nil {
		s.logger.Error("mutation aborted", "err", err)
		return err
	}
	index := make(map[string]cardLocation, next.CardCount())
	for ci, column := range next.Columns {
		for pos, card := range column.Cards {
			index[card.ID] = cardLocation{column: ci, position: pos}
		}
	}
	s.board = next
	s.index = index
	return nil
}

// commit swaps in the result of a new mutation. Any persistence error left by
// an earlier operation is dropped; this mutation's own writes report afresh.
func (s *Store) commit(next domain.Board) error {
	next.Error = ""
	return s.swap(next)
}

// persistCall runs one collaborator write and records its outcome on the board.
func (s *Store) persistCall(ctx context.Context, op, subject string, fn func(context.Context) error) {
	if s.persist == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.board.Error = fmt.Sprintf("%s %s: %v", op, subject, err)
		s.logger.Error("persistence failed", "op", op, "subject", subject, "err", err)
	}
}

func (s *Store) notFound(op, id string) error {
	s.logger.Warn("card not found", "op", op, "card_id", id)
	return fmt.Errorf("%w: card %q", ErrNotFound, id)
}

// mergeColumns copies the cards of src into base column by column, keeping base titles.
func mergeColumns(base, src domain.Board) (domain.Board, error) {
	out := base
	for _, column := range src.Columns {
		for _, card := range column.Cards {
			if card.Status == "" {
				card.Status = column.ID
			}
			if card.Status != column.ID {
				return base, fmt.Errorf("%w: card %q has status %q inside %q", domain.ErrInvariantViolation, card.ID, card.Status, column.ID)
			}
			next, err := out.AppendCard(card)
			if err != nil {
				return base, fmt.Errorf("%w: card %q: %w", domain.ErrInvariantViolation, card.ID, err)
			}
			out = next
		}
	}
	if err := out.CheckIntegrity(); err != nil {
		return base, err
	}
	return out, nil
}

func movedColumns(result domain.MoveResult) []domain.Status {
	if result.From == result.To {
		return []domain.Status{result.To}
	}
	return []domain.Status{result.From, result.To}
}

func columnCardIDs(column domain.Column) []string {
	ids := make([]string, 0, len(column.Cards))
	for _, card := range column.Cards {
		ids = append(ids, card.ID)
	}
	return ids
}

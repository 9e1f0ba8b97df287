package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto the board store and form controller.
type AppServiceAdapter struct {
	store *app.Store
	form  *app.FormController
}

var _ BoardService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over a board store.
func NewAppServiceAdapter(store *app.Store) *AppServiceAdapter {
	if store == nil {
		return &AppServiceAdapter{}
	}
	return &AppServiceAdapter{
		store: store,
		form:  app.NewFormController(store),
	}
}

// GetBoard returns the current board snapshot.
func (a *AppServiceAdapter) GetBoard(_ context.Context) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	return BoardViewFromDomain(a.store.Board()), nil
}

// GetCard returns one card by id.
func (a *AppServiceAdapter) GetCard(_ context.Context, id string) (CardView, error) {
	if err := a.ready(); err != nil {
		return CardView{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return CardView{}, fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	card, ok := a.store.FindCard(id)
	if !ok {
		return CardView{}, fmt.Errorf("get card %q: %w", id, ErrNotFound)
	}
	return CardViewFromDomain(card), nil
}

// CreateCard validates and creates one card through the form controller.
func (a *AppServiceAdapter) CreateCard(ctx context.Context, in CreateCardRequest) (CardView, error) {
	if err := a.ready(); err != nil {
		return CardView{}, err
	}
	input := app.FormInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
	if in.Assignee != nil {
		input.AssigneeID = in.Assignee.ID
		input.AssigneeName = in.Assignee.Name
	}
	result, err := a.form.Submit(ctx, input)
	if err != nil {
		return CardView{}, mapFormError("create card", result, err)
	}
	return CardViewFromDomain(result.Card), nil
}

// UpdateCard merges a partial update into the stored card and submits it.
func (a *AppServiceAdapter) UpdateCard(ctx context.Context, in UpdateCardRequest) (CardView, error) {
	if err := a.ready(); err != nil {
		return CardView{}, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return CardView{}, fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	result, err := a.form.Patch(ctx, id, func(input *app.FormInput) {
		if in.Title != nil {
			input.Title = *in.Title
		}
		if in.Description != nil {
			input.Description = *in.Description
		}
		if in.Status != nil {
			input.Status = *in.Status
		}
		switch {
		case in.Unassign:
			input.AssigneeID, input.AssigneeName = "", ""
		case in.Assignee != nil:
			input.AssigneeID, input.AssigneeName = in.Assignee.ID, in.Assignee.Name
		}
	})
	if err != nil {
		return CardView{}, mapFormError("update card", result, err)
	}
	return CardViewFromDomain(result.Card), nil
}

// DeleteCard deletes one card by id.
func (a *AppServiceAdapter) DeleteCard(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	if err := a.form.Delete(ctx, id); err != nil {
		return mapAppError("delete card", err)
	}
	return nil
}

// MoveCard applies one drag-and-drop instruction.
func (a *AppServiceAdapter) MoveCard(ctx context.Context, in MoveCardRequest) (MoveCardResult, error) {
	if err := a.ready(); err != nil {
		return MoveCardResult{}, err
	}
	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		return MoveCardResult{}, fmt.Errorf("card_id is required: %w", ErrInvalidRequest)
	}
	drop, err := parseDropPosition(in.Position)
	if err != nil {
		return MoveCardResult{}, err
	}
	result, err := a.store.MoveCardAt(ctx, cardID, in.TargetID, drop)
	if err != nil {
		return MoveCardResult{}, mapAppError("move card", err)
	}
	return MoveCardResult{
		Card:    CardViewFromDomain(result.Card),
		From:    string(result.From),
		To:      string(result.To),
		Index:   result.ToIndex,
		Changed: result.Changed,
		Board:   BoardViewFromDomain(result.Board),
	}, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.store == nil || a.form == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// BoardViewFromDomain converts a board snapshot into its transport shape.
func BoardViewFromDomain(b domain.Board) BoardView {
	out := BoardView{
		Columns:   make([]ColumnView, 0, len(b.Columns)),
		CardCount: b.CardCount(),
		IsLoading: b.IsLoading,
		Error:     b.Error,
	}
	for _, column := range b.Columns {
		cv := ColumnView{
			ID:    string(column.ID),
			Title: column.Title,
			Count: len(column.Cards),
			Cards: make([]CardView, 0, len(column.Cards)),
		}
		for _, card := range column.Cards {
			cv.Cards = append(cv.Cards, CardViewFromDomain(card))
		}
		out.Columns = append(out.Columns, cv)
	}
	return out
}

// CardViewFromDomain converts a card into its transport shape.
func CardViewFromDomain(card domain.Card) CardView {
	out := CardView{
		ID:          card.ID,
		Title:       card.Title,
		Description: card.Description,
		Status:      string(card.Status),
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
	if card.Assignee != nil {
		out.Assignee = &AssigneeView{ID: card.Assignee.ID, Name: card.Assignee.Name}
	}
	return out
}

func parseDropPosition(raw string) (domain.DropPosition, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", DropBefore:
		return domain.DropBefore, nil
	case DropAfter:
		return domain.DropAfter, nil
	default:
		return domain.DropBefore, fmt.Errorf("position must be %q or %q: %w", DropBefore, DropAfter, ErrInvalidRequest)
	}
}

func mapFormError(operation string, result app.FormResult, err error) error {
	if len(result.FieldErrors) > 0 {
		return fmt.Errorf("%s: %w", operation, &FieldErrors{Fields: result.FieldErrors})
	}
	return mapAppError(operation, err)
}

// mapAppError maps app and domain errors onto transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, domain.ErrCardNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvariantViolation):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidAssignee):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

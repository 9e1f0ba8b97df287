package app

import (
	"context"
	"strings"

	"github.com/hylla/kanboard/internal/domain"
)

// CardStore is the subset of Store the form controller drives.
type CardStore interface {
	CreateCard(context.Context, domain.CardPayload) (domain.Card, error)
	UpdateCard(context.Context, string, domain.CardPayload) (domain.Card, error)
	PatchCard(context.Context, string, func(domain.Card) domain.CardPayload) (domain.Card, error)
	DeleteCard(context.Context, string) error
	FindCard(string) (domain.Card, bool)
}

// FormInput holds raw card form values. An empty CardID means create.
type FormInput struct {
	CardID       string
	Title        string
	Description  string
	Status       string
	AssigneeID   string
	AssigneeName string
}

// FormResult reports the outcome of a form submit.
type FormResult struct {
	Card        domain.Card
	Created     bool
	FieldErrors map[string]string
}

// FormController turns form input into store mutations.
type FormController struct {
	store CardStore
}

// NewFormController constructs a form controller over store.
func NewFormController(store CardStore) *FormController {
	return &FormController{store: store}
}

// Payload normalizes the input into a card payload.
func (in FormInput) Payload() domain.CardPayload {
	payload := domain.CardPayload{
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.Status(in.Status),
	}
	if strings.TrimSpace(in.AssigneeID) != "" || strings.TrimSpace(in.AssigneeName) != "" {
		payload.Assignee = &domain.Assignee{ID: in.AssigneeID, Name: in.AssigneeName}
	}
	return payload.Normalize()
}

// Submit validates in and creates or updates a card. Validation failures
// return field messages and leave the store untouched.
func (f *FormController) Submit(ctx context.Context, in FormInput) (FormResult, error) {
	payload := in.Payload()
	if err := domain.ValidateCardPayload(payload); err != nil {
		return formFailure(err), err
	}

	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		card, err := f.store.CreateCard(ctx, payload)
		if err != nil {
			return formFailure(err), err
		}
		return FormResult{Card: card, Created: true}, nil
	}
	card, err := f.store.UpdateCard(ctx, cardID, payload)
	if err != nil {
		return formFailure(err), err
	}
	return FormResult{Card: card}, nil
}

// Patch edits the current values of cardID in place and submits them. The
// read and the write happen in one store call.
func (f *FormController) Patch(ctx context.Context, cardID string, edit func(*FormInput)) (FormResult, error) {
	card, err := f.store.PatchCard(ctx, cardID, func(current domain.Card) domain.CardPayload {
		in := FormInputFromCard(current)
		edit(&in)
		return in.Payload()
	})
	if err != nil {
		return formFailure(err), err
	}
	return FormResult{Card: card}, nil
}

// Delete removes the card with id after the caller confirmed it.
func (f *FormController) Delete(ctx context.Context, id string) error {
	return f.store.DeleteCard(ctx, id)
}

// Defaults returns pre-filled values for editing cardID, or blank values with
// status backlog when cardID is empty or unknown.
func (f *FormController) Defaults(cardID string) FormInput {
	card, ok := f.store.FindCard(cardID)
	if strings.TrimSpace(cardID) == "" || !ok {
		return FormInput{Status: string(domain.StatusBacklog)}
	}
	return FormInputFromCard(card)
}

// FormInputFromCard converts card into editable form values.
func FormInputFromCard(card domain.Card) FormInput {
	in := FormInput{
		CardID:      card.ID,
		Title:       card.Title,
		Description: card.Description,
		Status:      string(card.Status),
	}
	if card.Assignee != nil {
		in.AssigneeID = card.Assignee.ID
		in.AssigneeName = card.Assignee.Name
	}
	return in
}

func formFailure(err error) FormResult {
	if ve, ok := domain.AsValidationError(err); ok {
		return FormResult{FieldErrors: ve.Messages()}
	}
	return FormResult{}
}

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/hylla/kanboard/internal/domain"
)

func TestFormSubmitCreatesAndUpdates(t *testing.T) {
	s := newTestStore(t, nil, false)
	form := NewFormController(s)

	created, err := form.Submit(context.Background(), FormInput{
		Title:        "  New card ",
		Description:  " body ",
		Status:       " Review ",
		AssigneeID:   "u-7",
		AssigneeName: "Grace",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !created.Created || created.Card.Status != domain.StatusReview || created.Card.Title != "New card" {
		t.Fatalf("unexpected create result %#v", created)
	}
	if created.Card.Assignee == nil || created.Card.Assignee.Name != "Grace" {
		t.Fatalf("expected assignee, got %#v", created.Card.Assignee)
	}

	defaults := form.Defaults(created.Card.ID)
	if defaults.CardID != created.Card.ID || defaults.Status != "review" || defaults.AssigneeID != "u-7" {
		t.Fatalf("unexpected defaults %#v", defaults)
	}
	defaults.Status = "done"
	updated, err := form.Submit(context.Background(), defaults)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if updated.Created || updated.Card.ID != created.Card.ID || updated.Card.Status != domain.StatusDone {
		t.Fatalf("unexpected update result %#v", updated)
	}
}

func TestFormSubmitValidationDoesNotMutate(t *testing.T) {
	s := newTestStore(t, nil, true)
	form := NewFormController(s)
	before := s.Board().CardCount()

	result, err := form.Submit(context.Background(), FormInput{Title: " ", Description: "", Status: "later"})
	if !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	want := map[string]string{
		"title":       "Title is required",
		"description": "Description is required",
		"status":      "Status must be one of backlog, doing, review, done",
	}
	for field, msg := range want {
		if result.FieldErrors[field] != msg {
			t.Fatalf("field %s = %q, want %q", field, result.FieldErrors[field], msg)
		}
	}
	if s.Board().CardCount() != before {
		t.Fatal("expected no card added")
	}
}

func TestFormSubmitUnknownCard(t *testing.T) {
	form := NewFormController(newTestStore(t, nil, false))
	_, err := form.Submit(context.Background(), FormInput{CardID: "ghost", Title: "t", Description: "d", Status: "doing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := form.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFormDefaultsForNewCard(t *testing.T) {
	form := NewFormController(newTestStore(t, nil, false))
	if got := form.Defaults(""); got.Status != "backlog" || got.Title != "" {
		t.Fatalf("unexpected blank defaults %#v", got)
	}
	if got := form.Defaults("missing"); got.Status != "backlog" || got.CardID != "" {
		t.Fatalf("unexpected defaults for unknown id %#v", got)
	}
}

func TestFormPatchEditsCurrentValues(t *testing.T) {
	s := newTestStore(t, nil, false)
	form := NewFormController(s)
	card := mustCreate(t, s, "Draft", domain.StatusBacklog)

	result, err := form.Patch(context.Background(), card.ID, func(in *FormInput) {
		in.Status = "doing"
	})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if result.Card.Title != "Draft" || result.Card.Status != domain.StatusDoing {
		t.Fatalf("unexpected patched card %#v", result.Card)
	}

	result, err = form.Patch(context.Background(), card.ID, func(in *FormInput) {
		in.Description = " "
	})
	if !errors.Is(err, domain.ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
	if result.FieldErrors["description"] != "Description is required" {
		t.Fatalf("unexpected field errors %#v", result.FieldErrors)
	}
	if _, err := form.Patch(context.Background(), "ghost", func(*FormInput) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

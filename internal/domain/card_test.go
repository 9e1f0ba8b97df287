package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewCardTrimsAndStamps(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("x", 3600))
	card, err := NewCard(" c1 ", CardPayload{
		Title:       "  Write docs ",
		Description: " draft the README ",
		Status:      " Doing ",
		Assignee:    &Assignee{ID: " u1 ", Name: " Ada "},
	}, now)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	if card.ID != "c1" || card.Title != "Write docs" || card.Description != "draft the README" {
		t.Fatalf("unexpected card fields %#v", card)
	}
	if card.Status != StatusDoing {
		t.Fatalf("expected status doing, got %q", card.Status)
	}
	if !card.CreatedAt.Equal(now) || !card.UpdatedAt.Equal(now) || card.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps equal to now, got %v / %v", card.CreatedAt, card.UpdatedAt)
	}
	if card.Assignee == nil || card.Assignee.ID != "u1" || card.Assignee.Name != "Ada" {
		t.Fatalf("unexpected assignee %#v", card.Assignee)
	}
}

func TestNewCardValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewCard("", CardPayload{Title: "t", Description: "d", Status: StatusBacklog}, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	cases := []struct {
		name    string
		payload CardPayload
		field   string
		message string
		want    error
	}{
		{"empty title", CardPayload{Title: " ", Description: "x", Status: StatusDoing}, "title", "Title is required", ErrInvalidTitle},
		{"empty description", CardPayload{Title: "t", Description: "", Status: StatusDoing}, "description", "Description is required", ErrInvalidDescription},
		{"missing status", CardPayload{Title: "t", Description: "d"}, "status", "Status is required", ErrInvalidStatus},
		{"unknown status", CardPayload{Title: "t", Description: "d", Status: "blocked"}, "status", "Status must be one of backlog, doing, review, done", ErrInvalidStatus},
		{"assignee without id", CardPayload{Title: "t", Description: "d", Status: StatusDone, Assignee: &Assignee{Name: "Bo"}}, "assignee", "Assignee id is required", ErrInvalidAssignee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCard("c1", tc.payload, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if got := ve.Messages()[tc.field]; got != tc.message {
				t.Fatalf("expected %s message %q, got %q", tc.field, tc.message, got)
			}
		})
	}
}

func TestValidateCardPayloadReportsEveryField(t *testing.T) {
	err := ValidateCardPayload(CardPayload{})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %#v", ve.Fields)
	}
	for _, sentinel := range []error{ErrInvalidTitle, ErrInvalidDescription, ErrInvalidStatus} {
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected errors.Is(%v), got %v", sentinel, err)
		}
	}
}

func TestApplyUpdatePreservesIdentity(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	card, err := NewCard("c1", CardPayload{Title: "a", Description: "b", Status: StatusBacklog}, created)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	later := created.Add(time.Hour)
	if err := card.ApplyUpdate(CardPayload{Title: "A", Description: "B", Status: StatusReview}, later); err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	if card.ID != "c1" || !card.CreatedAt.Equal(created) {
		t.Fatalf("expected id/created_at preserved, got %#v", card)
	}
	if card.Title != "A" || card.Status != StatusReview || !card.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected merged card %#v", card)
	}

	before := card
	if err := card.ApplyUpdate(CardPayload{Title: "", Description: "B", Status: StatusReview}, later.Add(time.Hour)); err == nil {
		t.Fatal("expected validation error")
	}
	if card != before {
		t.Fatalf("expected card unchanged after rejected update, got %#v", card)
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"backlog", " DOING ", "Review", "done"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q) error = %v", raw, err)
		}
	}
	if _, err := ParseStatus("archived"); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if got := StatusReview.Index(); got != 2 {
		t.Fatalf("expected review index 2, got %d", got)
	}
}

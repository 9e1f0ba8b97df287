package domain

import (
	"errors"
	"strings"
	"time"
)

// Assignee identifies the person a card is assigned to.
type Assignee struct {
	ID   string
	Name string
}

// Card is one task on the board.
type Card struct {
	ID          string
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Assignee    *Assignee
}

// CardPayload holds the user-editable card fields for create and update.
type CardPayload struct {
	Title       string
	Description string
	Status      Status
	Assignee    *Assignee
}

// FieldError reports one invalid payload field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// Error implements error.
func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap exposes the field sentinel.
func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError collects every invalid field of a rejected payload.
type ValidationError struct {
	Fields []FieldError
}

// Error implements error.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match the per-field sentinels.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, 0, len(e.Fields))
	for _, field := range e.Fields {
		out = append(out, field.Err)
	}
	return out
}

// Messages returns field name to message, suitable for form rendering.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, field := range e.Fields {
		if _, ok := out[field.Field]; ok {
			continue
		}
		out[field.Field] = field.Message
	}
	return out
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Normalize trims payload strings and lowercases the status.
func (p CardPayload) Normalize() CardPayload {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Status = Status(strings.ToLower(strings.TrimSpace(string(p.Status))))
	p.Assignee = normalizeAssignee(p.Assignee)
	return p
}

// ValidateCardPayload checks a normalized payload and returns a *ValidationError on failure.
func ValidateCardPayload(p CardPayload) error {
	p = p.Normalize()
	var fields []FieldError
	if p.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "Title is required", Err: ErrInvalidTitle})
	}
	if p.Description == "" {
		fields = append(fields, FieldError{Field: "description", Message: "Description is required", Err: ErrInvalidDescription})
	}
	switch {
	case p.Status == "":
		fields = append(fields, FieldError{Field: "status", Message: "Status is required", Err: ErrInvalidStatus})
	case !p.Status.Valid():
		fields = append(fields, FieldError{Field: "status", Message: "Status must be one of backlog, doing, review, done", Err: ErrInvalidStatus})
	}
	if p.Assignee != nil && p.Assignee.ID == "" {
		fields = append(fields, FieldError{Field: "assignee", Message: "Assignee id is required", Err: ErrInvalidAssignee})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NewCard builds a card from a validated payload.
func NewCard(id string, p CardPayload, now time.Time) (Card, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Card{}, ErrInvalidID
	}
	if err := ValidateCardPayload(p); err != nil {
		return Card{}, err
	}
	p = p.Normalize()
	ts := now.UTC()
	return Card{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Assignee:    p.Assignee,
	}, nil
}

// ApplyUpdate merges payload fields into c, keeping ID and CreatedAt.
func (c *Card) ApplyUpdate(p CardPayload, now time.Time) error {
	if err := ValidateCardPayload(p); err != nil {
		return err
	}
	p = p.Normalize()
	c.Title = p.Title
	c.Description = p.Description
	c.Status = p.Status
	c.Assignee = p.Assignee
	c.UpdatedAt = now.UTC()
	return nil
}

// Payload returns the editable fields of c.
func (c Card) Payload() CardPayload {
	return CardPayload{
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		Assignee:    cloneAssignee(c.Assignee),
	}
}

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	c.Assignee = cloneAssignee(c.Assignee)
	return c
}

func normalizeAssignee(a *Assignee) *Assignee {
	if a == nil {
		return nil
	}
	out := Assignee{
		ID:   strings.TrimSpace(a.ID),
		Name: strings.TrimSpace(a.Name),
	}
	if out.ID == "" && out.Name == "" {
		return nil
	}
	return &out
}

func cloneAssignee(a *Assignee) *Assignee {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrValidationFailed reports a card payload rejected by field validation.
var ErrValidationFailed = errors.New("validation failed")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a mutation aborted to keep the board consistent.
var ErrConflict = errors.New("conflict")

// DropBefore and DropAfter are the accepted move positions.
const (
	DropBefore = "before"
	DropAfter  = "after"
)

// FieldErrors carries per-field validation messages across transports.
type FieldErrors struct {
	Fields map[string]string
}

// Error implements error.
func (e *FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match ErrValidationFailed.
func (e *FieldErrors) Unwrap() error {
	return ErrValidationFailed
}

// AssigneeView is the transport shape of a card assignee.
type AssigneeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CardView is the transport shape of one card.
type CardView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Assignee    *AssigneeView `json:"assignee,omitempty"`
}

// ColumnView is the transport shape of one column.
type ColumnView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Count int        `json:"count"`
	Cards []CardView `json:"cards"`
}

// BoardView is the transport shape of the board snapshot.
type BoardView struct {
	Columns   []ColumnView `json:"columns"`
	CardCount int          `json:"card_count"`
	IsLoading bool         `json:"is_loading"`
	Error     string       `json:"error,omitempty"`
}

// CreateCardRequest captures input for new cards.
type CreateCardRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Assignee    *AssigneeView `json:"assignee,omitempty"`
}

// UpdateCardRequest captures a partial card update. Nil fields keep their current value.
type UpdateCardRequest struct {
	ID          string        `json:"-"`
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *string       `json:"status,omitempty"`
	Assignee    *AssigneeView `json:"assignee,omitempty"`
	Unassign    bool          `json:"unassign,omitempty"`
}

// MoveCardRequest captures one drag-and-drop instruction.
type MoveCardRequest struct {
	CardID   string `json:"card_id"`
	TargetID string `json:"target_id"`
	Position string `json:"position,omitempty"`
}

// MoveCardResult reports the outcome of a move.
type MoveCardResult struct {
	Card    CardView  `json:"card"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Index   int       `json:"index"`
	Changed bool      `json:"changed"`
	Board   BoardView `json:"board"`
}

// BoardService is the board surface shared by HTTP and MCP transports.
type BoardService interface {
	GetBoard(context.Context) (BoardView, error)
	GetCard(context.Context, string) (CardView, error)
	CreateCard(context.Context, CreateCardRequest) (CardView, error)
	UpdateCard(context.Context, UpdateCardRequest) (CardView, error)
	DeleteCard(context.Context, string) error
	MoveCard(context.Context, MoveCardRequest) (MoveCardResult, error)
}

package domain

import (
	"slices"
	"strings"
)

// Status identifies one of the fixed board columns a card can live in.
type Status string

// StatusBacklog and related constants list the fixed column identifiers in board order.
const (
	StatusBacklog Status = "backlog"
	StatusDoing   Status = "doing"
	StatusReview  Status = "review"
	StatusDone    Status = "done"
)

var orderedStatuses = []Status{StatusBacklog, StatusDoing, StatusReview, StatusDone}

var defaultStatusTitles = map[Status]string{
	StatusBacklog: "Backlog",
	StatusDoing:   "Doing",
	StatusReview:  "Review",
	StatusDone:    "Done",
}

// Statuses returns the fixed column order.
func Statuses() []Status {
	return slices.Clone(orderedStatuses)
}

// ParseStatus normalizes raw user input into a known status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether s is one of the four column identifiers.
func (s Status) Valid() bool {
	return slices.Contains(orderedStatuses, s)
}

// Index returns the column position for s, or -1.
func (s Status) Index() int {
	return slices.Index(orderedStatuses, s)
}

// DefaultTitle returns the display title used when no override is configured.
func (s Status) DefaultTitle() string {
	if title, ok := defaultStatusTitles[s]; ok {
		return title
	}
	return string(s)
}

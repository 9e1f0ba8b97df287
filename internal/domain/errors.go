package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidAssignee    = errors.New("invalid assignee")
	ErrCardNotFound       = errors.New("card not found")
	ErrInvariantViolation = errors.New("board invariant violation")
)

package app

import "errors"

// ErrNotFound reports an operation that references a card the board does not hold.
var ErrNotFound = errors.New("not found")

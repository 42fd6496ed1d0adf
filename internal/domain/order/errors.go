package order

import "errors"

var (
	// ErrOrderNotFound indicates the order doesn't exist or isn't visible to the user.
	ErrOrderNotFound = errors.New("order not found")
	// ErrTaskNotFound indicates the checklist task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrBlockNotFound indicates the block doesn't exist or has no members.
	ErrBlockNotFound = errors.New("block not found")
	// ErrHistoryNotFound indicates the archived order doesn't exist.
	ErrHistoryNotFound = errors.New("history entry not found")
	// ErrInvalidInput indicates invalid order input.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrForbidden indicates the acting user lacks the required permission.
	ErrForbidden = errors.New("permission denied")
	// ErrBlockTooSmall indicates fewer than two orders were given for a block.
	ErrBlockTooSmall = errors.New("a block needs at least 2 orders")
	// ErrAlreadyActive indicates a restored order's ref is already being tracked.
	ErrAlreadyActive = errors.New("order is already active")
)

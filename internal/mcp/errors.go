package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

var (
	// ErrUnknownMethod indicates a JSON-RPC call to a tool that doesn't exist.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams indicates tool params that don't decode.
	ErrInvalidParams = errors.New("invalid params")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return &APIError{Code: "ORDER_NOT_FOUND", Message: "order not found", RecoveryHint: "Check the ref with search_orders"}
	case errors.Is(err, order.ErrTaskNotFound):
		return &APIError{Code: "TASK_NOT_FOUND", Message: "task not found", RecoveryHint: "Task ids are listed in the order's tasks"}
	case errors.Is(err, order.ErrBlockNotFound):
		return &APIError{Code: "BLOCK_NOT_FOUND", Message: "block not found"}
	case errors.Is(err, order.ErrBlockTooSmall):
		return &APIError{Code: "BLOCK_TOO_SMALL", Message: err.Error(), RecoveryHint: "Pass at least two refs"}
	case errors.Is(err, dashboard.ErrNotArchivable):
		return &APIError{Code: "NOT_ARCHIVABLE", Message: err.Error(), RecoveryHint: "Set a delivered or rejected status first"}
	case errors.Is(err, order.ErrForbidden), errors.Is(err, user.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "permission denied", RecoveryHint: "Ask an administrator for the permission"}
	case errors.Is(err, order.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error()}
	case errors.Is(err, errUnauthenticated), errors.Is(err, user.ErrInvalidToken):
		return &APIError{Code: "UNAUTHORIZED", Message: "missing or invalid bearer token"}
	default:
		return nil
	}
}

// mapError returns the MCP form of err when it has one.
func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
)

var errBadBody = errors.New("invalid request body")

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError answers with the status matching err and an ErrorResponse body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respond(w, status, api.ErrorResponse{Success: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, user.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden), errors.Is(err, user.ErrForbidden),
		errors.Is(err, user.ErrSuperImmutable), errors.Is(err, portal.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrTaskNotFound),
		errors.Is(err, order.ErrBlockNotFound), errors.Is(err, order.ErrHistoryNotFound),
		errors.Is(err, user.ErrUserNotFound), errors.Is(err, portal.ErrClientNotFound),
		errors.Is(err, portal.ErrPortalNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrAlreadyActive), errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, portal.ErrDuplicateClient):
		return http.StatusConflict
	case errors.Is(err, errBadBody), errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, order.ErrBlockTooSmall), errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, portal.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body into out. An empty body leaves out untouched.
func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(out)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{order.ErrForbidden, http.StatusForbidden},
		{user.ErrSuperImmutable, http.StatusForbidden},
		{fmt.Errorf("getting: %w", order.ErrOrderNotFound), http.StatusNotFound},
		{portal.ErrPortalNotFound, http.StatusNotFound},
		{order.ErrAlreadyActive, http.StatusConflict},
		{user.ErrEmailTaken, http.StatusConflict},
		{order.ErrBlockTooSmall, http.StatusBadRequest},
		{errBadBody, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("database is locked"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}

func TestDecodeBody(t *testing.T) {
	var out struct {
		Notes string `json:"notes"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"hi"}`))
	require.NoError(t, decodeBody(req, &out))
	assert.Equal(t, "hi", out.Notes)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	require.NoError(t, decodeBody(req, &out))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{notes`))
	assert.ErrorIs(t, decodeBody(req, &out), errBadBody)
}

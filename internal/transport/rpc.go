package transport

import (
	"errors"
	"net/http"

	"github.com/ganot/logitrack/internal/mcp"
)

// handleRPC exposes the MCP tools as plain JSON-RPC 2.0 calls.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, req.ID, parseErrorCode(err), err.Error(), nil)
		return
	}
	if s.cfg.RPC == nil {
		WriteError(w, req.ID, ErrMethodNotFound, "rpc is disabled", nil)
		return
	}

	result, err := s.cfg.RPC.Handle(r.Context(), mustUser(r), req.Method, req.Params)
	if err != nil {
		code, data := rpcError(err)
		WriteError(w, req.ID, code, err.Error(), data)
		return
	}
	WriteResult(w, req.ID, result)
}

func rpcError(err error) (int, any) {
	switch {
	case errors.Is(err, mcp.ErrUnknownMethod):
		return ErrMethodNotFound, nil
	case errors.Is(err, mcp.ErrInvalidParams):
		return ErrInvalidParams, nil
	}
	var apiErr *mcp.APIError
	if errors.As(err, &apiErr) {
		return ErrApplication, apiErr
	}
	return ErrInternal, nil
}

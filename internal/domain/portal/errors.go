package portal

import "errors"

var (
	// ErrClientNotFound indicates the client doesn't exist.
	ErrClientNotFound = errors.New("client not found")
	// ErrPortalNotFound indicates the portal doesn't exist.
	ErrPortalNotFound = errors.New("portal not found")
	// ErrDuplicateClient indicates a client with the same name already exists.
	ErrDuplicateClient = errors.New("client already exists")
	// ErrInvalidInput indicates invalid portal input.
	ErrInvalidInput = errors.New("invalid portal input")
	// ErrForbidden indicates the acting user lacks manage_portals.
	ErrForbidden = errors.New("permission denied")
)

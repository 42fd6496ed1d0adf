// Package api defines the JSON bodies exchanged between the server and its clients.
package api

import (
	"errors"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

// MutationResult is returned by every mutating endpoint. Only the fields
// relevant to the mutation are set. Clients must not apply any change unless
// Success is true.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	Ref    string       `json:"ref,omitempty"`
	Status order.Status `json:"status,omitempty"`
	// UpdatedRefs lists every order whose status changed. Changing one member
	// of a block changes all of them.
	UpdatedRefs []string `json:"updated_refs,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	TaskID      int64    `json:"task_id,omitempty"`
	Done        bool     `json:"done,omitempty"`

	BlockID       int64    `json:"block_id,omitempty"`
	GroupedRefs   []string `json:"grouped_refs,omitempty"`
	UngroupedRefs []string `json:"ungrouped_refs,omitempty"`
	ArchivedRefs  []string `json:"archived_refs,omitempty"`

	Sync *order.SyncResult `json:"sync,omitempty"`
}

// Failure builds an unsuccessful result.
func Failure(msg string) MutationResult {
	return MutationResult{Success: false, Error: msg}
}

// OrdersResponse is the body of GET /api/orders.
type OrdersResponse struct {
	Orders   []order.Order `json:"orders"`
	Channels []string      `json:"channels"`
	// Channel is the channel actually loaded.
	Channel string `json:"channel"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	User             user.User         `json:"user"`
	Permissions      []user.Permission `json:"permissions"`
	CanManagePortals bool              `json:"can_manage_portals"`
}

// NewMeResponse builds the profile body for u.
func NewMeResponse(u user.User) MeResponse {
	return MeResponse{
		User:             u,
		Permissions:      u.EffectivePermissions(),
		CanManagePortals: u.Can(user.PermManagePortals),
	}
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type StatusRequest struct {
	Status order.Status `json:"status"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type TaskRequest struct {
	Done bool `json:"done"`
}

type RefsRequest struct {
	Refs []string `json:"refs"`
}

type PermissionsRequest struct {
	Permissions []user.Permission `json:"permissions"`
}

type ChannelsRequest struct {
	Channels []string `json:"channels"`
}

// CreatedUserResponse carries the API token issued to a new user. The token is
// only ever returned once.
type CreatedUserResponse struct {
	Success bool      `json:"success"`
	User    user.User `json:"user"`
	Token   string    `json:"token"`
}

// ChannelsResponse is the body of GET /api/channels.
type ChannelsResponse struct {
	Channels []string `json:"channels"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Entries []order.HistoryEntry `json:"entries"`
}

// UsersResponse is the body of GET /api/users.
type UsersResponse struct {
	Users []user.User `json:"users"`
}

// BlockResponse is the body of GET /api/blocks/{id}.
type BlockResponse = order.BlockDetail

type ClientRequest struct {
	Name string `json:"name"`
}

// ErrUnauthenticated is returned by clients when the server rejects the
// credentials. Callers show the login view instead of retrying.
var ErrUnauthenticated = errors.New("unauthenticated")

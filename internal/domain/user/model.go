package user

import (
	"slices"
	"time"
)

// Permission names a capability granted to a user.
type Permission string

const (
	PermUpdateStatus  Permission = "update_status"
	PermEditNotes     Permission = "edit_notes"
	PermArchiveOrders Permission = "archive_orders"
	PermGroupOrders   Permission = "group_orders"
	PermManagePortals Permission = "manage_portals"
	PermManageUsers   Permission = "manage_users"
)

// AllPermissions lists every known permission in display order.
var AllPermissions = []Permission{
	PermUpdateStatus,
	PermEditNotes,
	PermArchiveOrders,
	PermGroupOrders,
	PermManagePortals,
	PermManageUsers,
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return slices.Contains(AllPermissions, p)
}

const (
	RoleSuper = "super"
	RoleUser  = "user"
)

// User is an authenticated operator of the dashboard.
type User struct {
	ID          int64        `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
	Channels    []string     `json:"channels"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsSuper reports whether the user holds the super role.
func (u User) IsSuper() bool {
	return u.Role == RoleSuper
}

// Can reports whether the user holds the permission. Super users hold all.
func (u User) Can(p Permission) bool {
	if u.IsSuper() {
		return true
	}
	return slices.Contains(u.Permissions, p)
}

// SeesChannel reports whether orders of the channel are visible to the user.
func (u User) SeesChannel(channel string) bool {
	if u.IsSuper() {
		return true
	}
	return slices.Contains(u.Channels, channel)
}

// EffectivePermissions returns the permissions the user actually holds.
func (u User) EffectivePermissions() []Permission {
	if u.IsSuper() {
		return slices.Clone(AllPermissions)
	}
	out := make([]Permission, 0, len(u.Permissions))
	for _, p := range AllPermissions {
		if slices.Contains(u.Permissions, p) {
			out = append(out, p)
		}
	}
	return out
}

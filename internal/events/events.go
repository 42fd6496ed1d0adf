// Package events publishes order mutation events to subscribers outside the
// dashboard, such as warehouse or notification services.
package events

import (
	"context"
	"time"
)

// Type identifies what happened to the orders of an event.
type Type string

const (
	TypeStatusChanged Type = "status_changed"
	TypeNotesUpdated  Type = "notes_updated"
	TypeNotesCleared  Type = "notes_cleared"
	TypeTaskToggled   Type = "task_toggled"
	TypeArchived      Type = "archived"
	TypeGrouped       Type = "grouped"
	TypeUngrouped     Type = "ungrouped"
	TypeRestored      Type = "restored"
	TypeSynced        Type = "synced"
)

// SubjectPrefix is prepended to the event type to build the NATS subject.
const SubjectPrefix = "logitrack.orders."

// Subject returns the subject an event of type t is published on.
func Subject(t Type) string {
	return SubjectPrefix + string(t)
}

// OrderEvent describes a confirmed change to one or more orders.
type OrderEvent struct {
	Type       Type           `json:"type"`
	Refs       []string       `json:"refs"`
	Actor      string         `json:"actor"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

func (Nop) Close() error { return nil }

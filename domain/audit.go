package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditKind string

const (
	AuditCommand        AuditKind = "command"
	AuditDenied         AuditKind = "denied"
	AuditDeliveryFailed AuditKind = "delivery_failed"
)

// AuditEntry is one line of the audit journal.
type AuditEntry struct {
	ID      uuid.UUID `json:"id"`
	Kind    AuditKind `json:"kind"`
	Actor   string    `json:"actor"`
	Command string    `json:"command,omitempty"`
	Detail  string    `json:"detail"`
	At      time.Time `json:"at"`
}

func NewAuditEntry(kind AuditKind, actor, command, detail string, at time.Time) AuditEntry {
	return AuditEntry{
		ID:      uuid.New(),
		Kind:    kind,
		Actor:   actor,
		Command: command,
		Detail:  detail,
		At:      at.UTC(),
	}
}

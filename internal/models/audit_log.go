package models

import (
	"encoding/json"
	"time"
)

const PrefixAuditLog = "audit_log:"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"` // denormalized

	// e.g. "product", "order", "purchase", "user"
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`

	Action      AuditAction `json:"action"`
	Description string      `json:"description"`

	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func AuditLogKey(id string) string { return PrefixAuditLog + id }

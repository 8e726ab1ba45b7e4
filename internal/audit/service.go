package audit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"

	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

type LogOptions struct {
	Actor       models.Actor
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Logger keeps the append-only audit trail in the KV store.
type Logger struct {
	store kvstore.Store
	now   func() time.Time
}

func NewLogger(store kvstore.Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Entry builds the audit record and the op that stores it, so callers can commit it in
// the same batch as the change it describes.
func (l *Logger) Entry(opts LogOptions) (models.AuditLog, kvstore.Op, error) {
	entry := models.AuditLog{
		ID:          models.NewID(),
		UserID:      opts.Actor.UserID,
		UserName:    opts.Actor.Name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		CreatedAt:   l.now().UTC(),
	}

	var err error
	if entry.Before, err = encode(opts.Before); err != nil {
		return models.AuditLog{}, kvstore.Op{}, err
	}
	if entry.After, err = encode(opts.After); err != nil {
		return models.AuditLog{}, kvstore.Op{}, err
	}

	op, err := kvstore.Put(models.AuditLogKey(entry.ID), entry)
	if err != nil {
		return models.AuditLog{}, kvstore.Op{}, err
	}
	return entry, op, nil
}

// Write stores a single audit record on its own.
func (l *Logger) Write(ctx context.Context, opts LogOptions) error {
	_, op, err := l.Entry(opts)
	if err != nil {
		return err
	}
	return kvstore.Commit(ctx, l.store, []kvstore.Op{op})
}

// List returns audit records newest first, optionally only those of one entity type.
func (l *Logger) List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	logs, err := kvstore.ScanJSON[models.AuditLog](ctx, l.store, models.PrefixAuditLog)
	if err != nil {
		return nil, err
	}

	out := logs[:0]
	for _, lg := range logs {
		if entityType == "" || lg.EntityType == entityType {
			out = append(out, lg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func encode(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode audit payload")
	}
	return b, nil
}

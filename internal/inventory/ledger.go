package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 1000
)

// Line is a signed stock change for one product.
type Line struct {
	ProductID string
	Change    int
}

// Mutation describes one stock change that the Ledger applies as a single critical section.
type Mutation struct {
	Lines  []Line
	Type   models.StockChangeType
	Reason string
	Actor  models.Actor

	// Attach runs while the product locks are held, after every line passed the stock check.
	// It receives the products as they were before the change and the mutation time. The
	// ops it returns are committed in the same atomic batch as the stock updates; an error
	// aborts the mutation with nothing written.
	Attach func(before map[string]models.Product, at time.Time) ([]kvstore.Op, error)
}

type Result struct {
	// Products holds the updated products keyed by id.
	Products map[string]models.Product
	Entries  []models.StockHistoryEntry
	At       time.Time
}

// Ledger is the only writer of product stock. Every mutation reads the current products,
// checks that no line drives stock negative, then persists the products, one history entry
// per line and any attached records in one batch, all under the products' locks.
type Ledger struct {
	store kvstore.Store
	locks *Locker
	now   func() time.Time
}

func NewLedger(store kvstore.Store, locks *Locker) *Ledger {
	return &Ledger{store: store, locks: locks, now: time.Now}
}

// SetClock replaces the ledger's time source.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

func (l *Ledger) Apply(ctx context.Context, m Mutation) (*Result, error) {
	if len(m.Lines) == 0 {
		return nil, apperr.Invalid("at least one item is required")
	}
	keys := make([]string, 0, len(m.Lines))
	for _, ln := range m.Lines {
		if ln.ProductID == "" {
			return nil, apperr.Invalid("productId is required")
		}
		if ln.Change == 0 {
			return nil, apperr.Invalid("stock change must not be zero")
		}
		keys = append(keys, models.ProductKey(ln.ProductID))
	}

	unlock := l.locks.Lock(keys...)
	defer unlock()

	before := make(map[string]models.Product, len(keys))
	for _, ln := range m.Lines {
		if _, ok := before[ln.ProductID]; ok {
			continue
		}
		p, err := kvstore.GetJSON[models.Product](ctx, l.store, models.ProductKey(ln.ProductID))
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, productNotFound(ln.ProductID)
		}
		if err != nil {
			return nil, err
		}
		before[ln.ProductID] = p
	}

	// Check every line before building any write.
	running := make(map[string]int, len(before))
	for id, p := range before {
		running[id] = p.Stock
	}
	for _, ln := range m.Lines {
		next := running[ln.ProductID] + ln.Change
		if next < 0 {
			p := before[ln.ProductID]
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   p.Stock - next,
			}
		}
		running[ln.ProductID] = next
	}

	at := l.now().UTC()
	after := make(map[string]models.Product, len(before))
	for id, p := range before {
		after[id] = p
	}

	entries := make([]models.StockHistoryEntry, 0, len(m.Lines))
	for _, ln := range m.Lines {
		p := after[ln.ProductID]
		entry := models.StockHistoryEntry{
			ID:          models.NewID(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Change:      ln.Change,
			Type:        m.Type,
			Reason:      m.Reason,
			OldStock:    p.Stock,
			NewStock:    p.Stock + ln.Change,
			Timestamp:   at,
			UserID:      m.Actor.UserID,
			UserName:    m.Actor.Name,
		}
		p.Stock = entry.NewStock
		p.UpdatedAt = at
		after[ln.ProductID] = p
		entries = append(entries, entry)
	}

	var extra []kvstore.Op
	if m.Attach != nil {
		var err error
		if extra, err = m.Attach(before, at); err != nil {
			return nil, err
		}
	}

	ops := make([]kvstore.Op, 0, len(after)+len(entries)+len(extra))
	for _, id := range sortedIDs(after) {
		op, err := kvstore.Put(models.ProductKey(id), after[id])
		if err != nil {
			return nil, apperr.Storage(err, "encode product")
		}
		ops = append(ops, op)
	}
	for _, e := range entries {
		op, err := kvstore.Put(models.StockHistoryKey(e.ID), e)
		if err != nil {
			return nil, apperr.Storage(err, "encode stock history")
		}
		ops = append(ops, op)
	}
	ops = append(ops, extra...)

	if err := kvstore.Commit(ctx, l.store, ops); err != nil {
		log.WithError(err).WithField("type", m.Type).Error("stock mutation failed")
		return nil, err
	}

	for _, e := range entries {
		log.WithFields(log.Fields{
			"productId": e.ProductID,
			"type":      e.Type,
			"change":    e.Change,
			"newStock":  e.NewStock,
			"userId":    e.UserID,
		}).Info("stock changed")
	}

	return &Result{Products: after, Entries: entries, At: at}, nil
}

// Adjust applies a manual stock change of the given type to one product.
func (l *Ledger) Adjust(ctx context.Context, productID string, change int, typ models.StockChangeType, reason string, actor models.Actor) (models.Product, models.StockHistoryEntry, error) {
	if typ == "" {
		typ = models.StockAdjustment
	}
	if !typ.IsManual() {
		return models.Product{}, models.StockHistoryEntry{}, apperr.Invalid("type must be one of restock, adjustment, damage, return")
	}

	res, err := l.Apply(ctx, Mutation{
		Lines:  []Line{{ProductID: productID, Change: change}},
		Type:   typ,
		Reason: reason,
		Actor:  actor,
	})
	if err != nil {
		var ise *InsufficientStockError
		if errors.As(err, &ise) {
			return models.Product{}, models.StockHistoryEntry{}, apperr.Invalid("stock cannot be negative: %s has %d, change %d", ise.ProductName, ise.Available, change)
		}
		return models.Product{}, models.StockHistoryEntry{}, err
	}
	return res.Products[productID], res.Entries[0], nil
}

// History returns ledger entries newest first, optionally for one product only.
func (l *Ledger) History(ctx context.Context, productID string, limit int) ([]models.StockHistoryEntry, error) {
	entries, err := kvstore.ScanJSON[models.StockHistoryEntry](ctx, l.store, models.PrefixStockHistory)
	if err != nil {
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if productID == "" || e.ProductID == productID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortedIDs(m map[string]models.Product) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

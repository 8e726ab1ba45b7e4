// Package orders runs the customer order lifecycle: pending, shipped, delivered.
// Stock leaves the catalog exactly once, when an order first ships.
package orders

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/inventory"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

var deliveryTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []ItemInput
	DeliveryDate    string
	DeliveryTime    string
	Notes           string
}

// UpdateInput changes an order's status and/or notes. Nil fields are left as they are.
type UpdateInput struct {
	Status *models.OrderStatus
	Notes  *string
}

type Service struct {
	store  kvstore.Store
	ledger *inventory.Ledger
	locks  *inventory.Locker
	audits *audit.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewService(store kvstore.Store, ledger *inventory.Ledger, locks *inventory.Locker, audits *audit.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, ledger: ledger, locks: locks, audits: audits, loc: loc, now: time.Now}
}

// Create stores a pending order priced at current catalog prices. No stock is reserved.
func (s *Service) Create(ctx context.Context, in CreateInput, actor models.Actor) (models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		return models.Order{}, apperr.Invalid("customerName is required")
	}
	if len(in.Items) == 0 {
		return models.Order{}, apperr.Invalid("at least one item is required")
	}
	if _, err := models.ParseDate(in.DeliveryDate); err != nil {
		return models.Order{}, apperr.Invalid("deliveryDate: %s", err.Error())
	}
	if in.DeliveryTime != "" && !deliveryTimePattern.MatchString(in.DeliveryTime) {
		return models.Order{}, apperr.Invalid("deliveryTime must be HH:MM")
	}

	items := make([]models.LineItem, 0, len(in.Items))
	total := decimal.Zero
	for i, it := range in.Items {
		if it.ProductID == "" {
			return models.Order{}, apperr.Invalid("items[%d]: productId is required", i)
		}
		if it.Quantity <= 0 {
			return models.Order{}, apperr.Invalid("items[%d]: quantity must be a positive integer", i)
		}
		p, err := kvstore.GetJSON[models.Product](ctx, s.store, models.ProductKey(it.ProductID))
		if errors.Is(err, kvstore.ErrNotFound) {
			return models.Order{}, apperr.NotFoundf("product %s not found", it.ProductID)
		}
		if err != nil {
			return models.Order{}, err
		}
		line := models.NewLineItem(p, it.Quantity)
		total = total.Add(line.Total)
		items = append(items, line)
	}

	now := s.now().UTC()
	o := models.Order{
		ID:              models.NewID(),
		CustomerName:    in.CustomerName,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Items:           items,
		TotalAmount:     total,
		DeliveryDate:    in.DeliveryDate,
		DeliveryTime:    in.DeliveryTime,
		Status:          models.OrderPending,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedBy:       actor.UserID,
		CreatedByName:   actor.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := kvstore.SetJSON(ctx, s.store, models.OrderKey(o.ID), o); err != nil {
		return models.Order{}, err
	}

	log.WithFields(log.Fields{"orderId": o.ID, "deliveryDate": o.DeliveryDate}).Info("order created")
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Order, error) {
	o, err := kvstore.GetJSON[models.Order](ctx, s.store, models.OrderKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Order{}, apperr.NotFoundf("order %s not found", id)
	}
	return o, err
}

// List returns orders by delivery date and time, optionally of one status only.
func (s *Service) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("unknown status %q", status)
	}
	all, err := kvstore.ScanJSON[models.Order](ctx, s.store, models.PrefixOrder)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, o := range all {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sortByDelivery(out)
	return out, nil
}

// Upcoming returns pending orders due tomorrow or earlier in the reference timezone.
func (s *Service) Upcoming(ctx context.Context) ([]models.Order, error) {
	pending, err := s.List(ctx, models.OrderPending)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.loc)
	tomorrow := time.Date(today.Year(), today.Month(), today.Day()+1, 0, 0, 0, 0, s.loc).Format(models.DateLayout)

	out := pending[:0]
	for _, o := range pending {
		if o.DeliveryDate <= tomorrow {
			out = append(out, o)
		}
	}
	return out, nil
}

// Update applies a status transition and/or a notes change. Moving a pending order to
// shipped or delivered decrements stock once; repeating a transition is a no-op.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actor models.Actor) (models.Order, error) {
	unlock := s.locks.Lock(models.OrderKey(id))
	defer unlock()

	o, err := s.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	target := o.Status
	if in.Status != nil {
		target = *in.Status
		if !target.Valid() {
			return models.Order{}, apperr.Invalid("unknown status %q", target)
		}
	}
	if o.Status == models.OrderDelivered {
		if target != models.OrderDelivered || in.Notes != nil {
			return models.Order{}, apperr.Invalid("order %s is already delivered", o.ID)
		}
		return o, nil
	}
	if target.Before(o.Status) {
		return models.Order{}, apperr.Invalid("cannot move order from %s back to %s", o.Status, target)
	}

	changed := false
	if in.Notes != nil {
		o.Notes = strings.TrimSpace(*in.Notes)
		changed = true
	}

	now := s.now().UTC()
	if target != o.Status {
		if target == models.OrderShipped || target == models.OrderDelivered {
			if o.ShippedAt == nil {
				o.ShippedAt = &now
				o.ShippedBy = actor.Name
			}
		}
		if target == models.OrderDelivered {
			o.DeliveredAt = &now
		}
		log.WithFields(log.Fields{"orderId": o.ID, "from": o.Status, "to": target}).Info("order status changed")
		o.Status = target
		changed = true
	}
	if !changed {
		return o, nil
	}
	o.UpdatedAt = now

	if o.Status != models.OrderPending && !o.StockReduced {
		return s.ship(ctx, o, actor)
	}
	if err := kvstore.SetJSON(ctx, s.store, models.OrderKey(o.ID), o); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// ship decrements stock for every item and stores the order in the same batch.
func (s *Service) ship(ctx context.Context, o models.Order, actor models.Actor) (models.Order, error) {
	lines := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Change: -it.Quantity})
	}

	o.StockReduced = true
	_, err := s.ledger.Apply(ctx, inventory.Mutation{
		Lines:  lines,
		Type:   models.StockOrder,
		Reason: fmt.Sprintf("Order delivery: %s", o.CustomerName),
		Actor:  actor,
		Attach: func(map[string]models.Product, time.Time) ([]kvstore.Op, error) {
			op, err := kvstore.Put(models.OrderKey(o.ID), o)
			if err != nil {
				return nil, apperr.Storage(err, "encode order")
			}
			return []kvstore.Op{op}, nil
		},
	})
	if err != nil {
		return models.Order{}, err
	}

	log.WithFields(log.Fields{"orderId": o.ID, "items": len(o.Items)}).Info("order stock reduced")
	return o, nil
}

// Delete removes an order at any status. Stock that already left with a shipped order is
// not restored; the audit entry keeps the shipped items on record.
func (s *Service) Delete(ctx context.Context, id string, actor models.Actor) error {
	unlock := s.locks.Lock(models.OrderKey(id))
	defer unlock()

	o, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	desc := fmt.Sprintf("Deleted %s order for %s", o.Status, o.CustomerName)
	if o.StockReduced {
		desc += " (stock already reduced, not restored)"
	}
	_, auditOp, err := s.audits.Entry(audit.LogOptions{
		Actor:       actor,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionDelete,
		Description: desc,
		Before:      o,
	})
	if err != nil {
		return apperr.Storage(err, "build audit entry")
	}
	if err := kvstore.Commit(ctx, s.store, []kvstore.Op{kvstore.Del(models.OrderKey(o.ID)), auditOp}); err != nil {
		return err
	}

	log.WithFields(log.Fields{"orderId": o.ID, "status": o.Status, "stockReduced": o.StockReduced}).Info("order deleted")
	return nil
}

func sortByDelivery(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.DeliveryDate != b.DeliveryDate {
			return a.DeliveryDate < b.DeliveryDate
		}
		if a.DeliveryTime != b.DeliveryTime {
			return a.DeliveryTime < b.DeliveryTime
		}
		return a.ID < b.ID
	})
}

package inventory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

type ProductInput struct {
	Name         string
	Category     string
	SellingPrice decimal.Decimal
	CostPrice    decimal.Decimal
	Stock        int
	Description  string
}

// ProductPatch carries the fields of a partial product update. Stock is not editable here.
type ProductPatch struct {
	Name         *string
	Category     *string
	SellingPrice *decimal.Decimal
	CostPrice    *decimal.Decimal
	Description  *string
}

// Catalog manages product records. Stock changes go through the Ledger; the catalog only
// touches stock when a product is created with an opening quantity.
type Catalog struct {
	store  kvstore.Store
	locks  *Locker
	audits *audit.Logger
	now    func() time.Time
}

func NewCatalog(store kvstore.Store, locks *Locker, audits *audit.Logger) *Catalog {
	return &Catalog{store: store, locks: locks, audits: audits, now: time.Now}
}

func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	products, err := kvstore.ScanJSON[models.Product](ctx, c.store, models.PrefixProduct)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		a, b := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if a != b {
			return a < b
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := kvstore.GetJSON[models.Product](ctx, c.store, models.ProductKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Product{}, productNotFound(id)
	}
	return p, err
}

// Create stores a new product. A non-zero opening stock is recorded as a restock entry in
// the same batch so that the ledger accounts for every unit.
func (c *Catalog) Create(ctx context.Context, in ProductInput, actor models.Actor) (models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateProduct(in.Name, in.SellingPrice, in.CostPrice); err != nil {
		return models.Product{}, err
	}
	if in.Stock < 0 {
		return models.Product{}, apperr.Invalid("stock cannot be negative")
	}

	now := c.now().UTC()
	p := models.Product{
		ID:           models.NewID(),
		Name:         in.Name,
		Category:     in.Category,
		SellingPrice: in.SellingPrice,
		CostPrice:    in.CostPrice,
		Stock:        in.Stock,
		Description:  strings.TrimSpace(in.Description),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	op, err := kvstore.Put(models.ProductKey(p.ID), p)
	if err != nil {
		return models.Product{}, apperr.Storage(err, "encode product")
	}
	ops := []kvstore.Op{op}

	if p.Stock > 0 {
		entry := models.StockHistoryEntry{
			ID:          models.NewID(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Change:      p.Stock,
			Type:        models.StockRestock,
			Reason:      "initial stock",
			OldStock:    0,
			NewStock:    p.Stock,
			Timestamp:   now,
			UserID:      actor.UserID,
			UserName:    actor.Name,
		}
		op, err := kvstore.Put(models.StockHistoryKey(entry.ID), entry)
		if err != nil {
			return models.Product{}, apperr.Storage(err, "encode stock history")
		}
		ops = append(ops, op)
	}

	if err := kvstore.Commit(ctx, c.store, ops); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (c *Catalog) Update(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	unlock := c.locks.Lock(models.ProductKey(id))
	defer unlock()

	p, err := c.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if err := validateProduct(p.Name, p.SellingPrice, p.CostPrice); err != nil {
		return models.Product{}, err
	}
	p.UpdatedAt = c.now().UTC()

	if err := kvstore.SetJSON(ctx, c.store, models.ProductKey(p.ID), p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Delete removes a product. Its ledger entries and past sales keep their snapshots.
func (c *Catalog) Delete(ctx context.Context, id string, actor models.Actor) error {
	unlock := c.locks.Lock(models.ProductKey(id))
	defer unlock()

	p, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	_, auditOp, err := c.audits.Entry(audit.LogOptions{
		Actor:       actor,
		EntityType:  "product",
		EntityID:    p.ID,
		Action:      models.AuditActionDelete,
		Description: "Deleted product " + p.Name,
		Before:      p,
	})
	if err != nil {
		return apperr.Storage(err, "build audit entry")
	}
	return kvstore.Commit(ctx, c.store, []kvstore.Op{kvstore.Del(models.ProductKey(p.ID)), auditOp})
}

func validateProduct(name string, selling, cost decimal.Decimal) error {
	if name == "" {
		return apperr.Invalid("name is required")
	}
	if selling.IsNegative() || cost.IsNegative() {
		return apperr.Invalid("prices cannot be negative")
	}
	return nil
}

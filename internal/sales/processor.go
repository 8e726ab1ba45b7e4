// Package sales records point-of-sale transactions.
package sales

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/inventory"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type CartLine struct {
	ProductID string
	Quantity  int
}

type Sale struct {
	Items         []CartLine
	Discount      decimal.Decimal
	PaymentMethod models.PaymentMethod
}

type ListFilter struct {
	Range models.DateRange
	Limit int
}

// Processor turns a cart into a Transaction. The stock decrement, the ledger entries and the
// transaction record are committed together by the inventory ledger.
type Processor struct {
	store  kvstore.Store
	ledger *inventory.Ledger
	loc    *time.Location
}

func NewProcessor(store kvstore.Store, ledger *inventory.Ledger, loc *time.Location) *Processor {
	if loc == nil {
		loc = time.UTC
	}
	return &Processor{store: store, ledger: ledger, loc: loc}
}

func (p *Processor) Process(ctx context.Context, sale Sale, cashier models.Actor) (models.Transaction, error) {
	if err := validateSale(&sale); err != nil {
		return models.Transaction{}, err
	}

	lines := make([]inventory.Line, 0, len(sale.Items))
	for _, it := range sale.Items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Change: -it.Quantity})
	}

	var txn models.Transaction
	_, err := p.ledger.Apply(ctx, inventory.Mutation{
		Lines: lines,
		Type:  models.StockSale,
		Actor: cashier,
		Attach: func(before map[string]models.Product, at time.Time) ([]kvstore.Op, error) {
			items := make([]models.LineItem, 0, len(sale.Items))
			for _, it := range sale.Items {
				items = append(items, models.NewLineItem(before[it.ProductID], it.Quantity))
			}

			var err error
			txn, err = buildTransaction(items, sale.Discount)
			if err != nil {
				return nil, err
			}
			txn.ID = models.NewID()
			txn.PaymentMethod = sale.PaymentMethod
			txn.CashierID = cashier.UserID
			txn.CashierName = cashier.Name
			txn.Timestamp = at
			txn.Date = models.DateIn(at, p.loc)

			op, err := kvstore.Put(models.TransactionKey(txn.ID), txn)
			if err != nil {
				return nil, apperr.Storage(err, "encode transaction")
			}
			return []kvstore.Op{op}, nil
		},
	})
	if err != nil {
		return models.Transaction{}, err
	}

	log.WithFields(log.Fields{
		"transactionId": txn.ID,
		"total":         txn.Total.String(),
		"items":         txn.ItemCount(),
		"cashierId":     txn.CashierID,
	}).Info("transaction recorded")
	return txn, nil
}

// buildTransaction prices the snapshotted items and applies the discount.
func buildTransaction(items []models.LineItem, discount decimal.Decimal) (models.Transaction, error) {
	subtotal, cogs := decimal.Zero, decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
		cogs = cogs.Add(it.COGS)
	}
	if discount.GreaterThan(subtotal) {
		return models.Transaction{}, apperr.Invalid("discount %s exceeds subtotal %s", discount, subtotal)
	}

	total := subtotal.Sub(discount)
	return models.Transaction{
		Items:    items,
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		COGS:     cogs,
		Profit:   total.Sub(cogs),
	}, nil
}

func validateSale(sale *Sale) error {
	if len(sale.Items) == 0 {
		return apperr.Invalid("at least one item is required")
	}
	for i, it := range sale.Items {
		if it.ProductID == "" {
			return apperr.Invalid("items[%d]: productId is required", i)
		}
		if it.Quantity <= 0 {
			return apperr.Invalid("items[%d]: quantity must be a positive integer", i)
		}
	}
	if sale.Discount.IsNegative() {
		return apperr.Invalid("discount cannot be negative")
	}
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = models.PaymentCash
	}
	if !sale.PaymentMethod.Valid() {
		return apperr.Invalid("unsupported payment method %q", sale.PaymentMethod)
	}
	return nil
}

func (p *Processor) Get(ctx context.Context, id string) (models.Transaction, error) {
	txn, err := kvstore.GetJSON[models.Transaction](ctx, p.store, models.TransactionKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Transaction{}, apperr.NotFoundf("transaction %s not found", id)
	}
	return txn, err
}

// List returns transactions newest first.
func (p *Processor) List(ctx context.Context, f ListFilter) ([]models.Transaction, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}

	txns, err := p.InRange(ctx, f.Range)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].Timestamp.After(txns[j].Timestamp)
		}
		return txns[i].ID > txns[j].ID
	})
	if f.Limit > 0 && len(txns) > f.Limit {
		txns = txns[:f.Limit]
	}
	return txns, nil
}

// InRange returns every transaction whose date falls in r, in key order.
func (p *Processor) InRange(ctx context.Context, r models.DateRange) ([]models.Transaction, error) {
	all, err := kvstore.ScanJSON[models.Transaction](ctx, p.store, models.PrefixTransaction)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Location is the reference timezone transaction dates are computed in.
func (p *Processor) Location() *time.Location { return p.loc }

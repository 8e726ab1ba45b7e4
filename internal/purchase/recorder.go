// Package purchase records supplier purchases. A purchase is a financial record only; the
// goods reach the catalog through a separate stock adjustment.
package purchase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

const defaultUnit = "pcs"

type ItemInput struct {
	ItemName      string
	Quantity      decimal.Decimal
	Unit          string
	PurchasePrice decimal.Decimal
}

type Input struct {
	PurchaseDate  string
	Supplier      string
	FundingSource models.FundingSource
	FundingOwner  string
	Items         []ItemInput
	Notes         string
}

// FundingTotal is the amount spent from one funding source.
type FundingTotal struct {
	FundingSource models.FundingSource `json:"fundingSource"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	Count         int                  `json:"count"`
}

type Summary struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Count       int             `json:"count"`
	BySource    []FundingTotal  `json:"bySource"`
}

type Recorder struct {
	store  kvstore.Store
	audits *audit.Logger
	now    func() time.Time
}

func NewRecorder(store kvstore.Store, audits *audit.Logger) *Recorder {
	return &Recorder{store: store, audits: audits, now: time.Now}
}

func (r *Recorder) Create(ctx context.Context, in Input, actor models.Actor) (models.Purchase, error) {
	if _, err := models.ParseDate(in.PurchaseDate); err != nil {
		return models.Purchase{}, apperr.Invalid("purchaseDate: %s", err.Error())
	}
	in.Supplier = strings.TrimSpace(in.Supplier)
	if in.Supplier == "" {
		return models.Purchase{}, apperr.Invalid("supplier is required")
	}
	if !in.FundingSource.Valid() {
		return models.Purchase{}, apperr.Invalid("fundingSource must be one of company, personal, owner, loan")
	}
	in.FundingOwner = strings.TrimSpace(in.FundingOwner)
	if in.FundingSource == models.FundingPersonal {
		if in.FundingOwner == "" {
			return models.Purchase{}, apperr.Invalid("fundingOwner is required for personal funding")
		}
	} else {
		in.FundingOwner = ""
	}
	if len(in.Items) == 0 {
		return models.Purchase{}, apperr.Invalid("at least one item is required")
	}

	items := make([]models.PurchaseItem, 0, len(in.Items))
	total := decimal.Zero
	for i, it := range in.Items {
		name := strings.TrimSpace(it.ItemName)
		if name == "" {
			return models.Purchase{}, apperr.Invalid("items[%d]: itemName is required", i)
		}
		if !it.Quantity.IsPositive() {
			return models.Purchase{}, apperr.Invalid("items[%d]: quantity must be positive", i)
		}
		if it.PurchasePrice.IsNegative() {
			return models.Purchase{}, apperr.Invalid("items[%d]: purchasePrice cannot be negative", i)
		}
		unit := strings.TrimSpace(it.Unit)
		if unit == "" {
			unit = defaultUnit
		}
		line := models.PurchaseItem{
			ItemName:      name,
			Quantity:      it.Quantity,
			Unit:          unit,
			PurchasePrice: it.PurchasePrice,
			Total:         it.PurchasePrice.Mul(it.Quantity),
		}
		total = total.Add(line.Total)
		items = append(items, line)
	}

	p := models.Purchase{
		ID:            models.NewID(),
		PurchaseDate:  in.PurchaseDate,
		Supplier:      in.Supplier,
		FundingSource: in.FundingSource,
		FundingOwner:  in.FundingOwner,
		Items:         items,
		TotalAmount:   total,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedBy:     actor.UserID,
		CreatedByName: actor.Name,
		CreatedAt:     r.now().UTC(),
	}
	if err := kvstore.SetJSON(ctx, r.store, models.PurchaseKey(p.ID), p); err != nil {
		return models.Purchase{}, err
	}

	log.WithFields(log.Fields{
		"purchaseId":    p.ID,
		"fundingSource": p.FundingSource,
		"total":         p.TotalAmount.String(),
	}).Info("purchase recorded")
	return p, nil
}

func (r *Recorder) Get(ctx context.Context, id string) (models.Purchase, error) {
	p, err := kvstore.GetJSON[models.Purchase](ctx, r.store, models.PurchaseKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Purchase{}, apperr.NotFoundf("purchase %s not found", id)
	}
	return p, err
}

// List returns purchases dated within rng, newest first.
func (r *Recorder) List(ctx context.Context, rng models.DateRange) ([]models.Purchase, error) {
	if err := rng.Validate(); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	all, err := kvstore.ScanJSON[models.Purchase](ctx, r.store, models.PrefixPurchase)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, p := range all {
		if rng.Contains(p.PurchaseDate) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PurchaseDate != out[j].PurchaseDate {
			return out[i].PurchaseDate > out[j].PurchaseDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a purchase for good. There is no stock effect to undo.
func (r *Recorder) Delete(ctx context.Context, id string, actor models.Actor) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	_, auditOp, err := r.audits.Entry(audit.LogOptions{
		Actor:       actor,
		EntityType:  "purchase",
		EntityID:    p.ID,
		Action:      models.AuditActionDelete,
		Description: "Deleted purchase from " + p.Supplier,
		Before:      p,
	})
	if err != nil {
		return apperr.Storage(err, "build audit entry")
	}
	return kvstore.Commit(ctx, r.store, []kvstore.Op{kvstore.Del(models.PurchaseKey(p.ID)), auditOp})
}

// Summarize totals spending per funding source over rng.
func (r *Recorder) Summarize(ctx context.Context, rng models.DateRange) (Summary, error) {
	purchases, err := r.List(ctx, rng)
	if err != nil {
		return Summary{}, err
	}

	bySource := make(map[models.FundingSource]*FundingTotal)
	sum := Summary{TotalAmount: decimal.Zero, BySource: []FundingTotal{}}
	for _, p := range purchases {
		ft, ok := bySource[p.FundingSource]
		if !ok {
			ft = &FundingTotal{FundingSource: p.FundingSource, TotalAmount: decimal.Zero}
			bySource[p.FundingSource] = ft
		}
		ft.TotalAmount = ft.TotalAmount.Add(p.TotalAmount)
		ft.Count++
		sum.TotalAmount = sum.TotalAmount.Add(p.TotalAmount)
		sum.Count++
	}
	for _, ft := range bySource {
		sum.BySource = append(sum.BySource, *ft)
	}
	sort.Slice(sum.BySource, func(i, j int) bool {
		return sum.BySource[i].FundingSource < sum.BySource[j].FundingSource
	})
	return sum, nil
}

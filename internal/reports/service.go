package reports

import (
	"context"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
)

// TransactionSource reads the transaction log.
type TransactionSource interface {
	InRange(ctx context.Context, r models.DateRange) ([]models.Transaction, error)
}

// Service recomputes reports from the transaction log on every call.
type Service struct {
	src TransactionSource
	loc *time.Location
	now func() time.Time
}

func NewService(src TransactionSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, loc: loc, now: time.Now}
}

func (s *Service) SalesReport(ctx context.Context, rng models.DateRange, groupBy string) ([]PeriodTotals, error) {
	g, err := ParseGroupBy(groupBy)
	if err != nil {
		return nil, err
	}
	txns, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	return Sales(txns, rng, g), nil
}

func (s *Service) ProductReport(ctx context.Context, rng models.DateRange) ([]ProductTotals, error) {
	txns, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	return Products(txns, rng), nil
}

// DailySummary aggregates one day; an empty date means today in the reference timezone.
func (s *Service) DailySummary(ctx context.Context, date string) (DailySummary, error) {
	if date == "" {
		date = models.DateIn(s.now(), s.loc)
	}
	txns, err := s.load(ctx, models.DateRange{Start: date, End: date})
	if err != nil {
		return DailySummary{}, err
	}
	return Daily(txns, date), nil
}

func (s *Service) load(ctx context.Context, rng models.DateRange) ([]models.Transaction, error) {
	if err := rng.Validate(); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	return s.src.InRange(ctx, rng)
}

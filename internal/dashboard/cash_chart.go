// Package dashboard serves the revenue chart shown on the manager dashboard.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
	"pos-backend/internal/reports"
	"pos-backend/internal/request"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

const maxCount = 366

var defaultCounts = map[Period]int{Daily: 7, Weekly: 8, Monthly: 12}

var groupings = map[Period]reports.GroupBy{
	Daily:   reports.GroupByDay,
	Weekly:  reports.GroupByWeek,
	Monthly: reports.GroupByMonth,
}

// CashChartPoint is one bucket of revenue split by payment method.
type CashChartPoint struct {
	Label    string                                   `json:"label"`
	ByMethod map[models.PaymentMethod]decimal.Decimal `json:"byMethod"`
	Total    decimal.Decimal                          `json:"total"`
}

type CashChartResponse struct {
	Period      Period           `json:"period"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Points      []CashChartPoint `json:"points"`
	GrandTotals CashChartPoint   `json:"grandTotals"`
}

// Window returns the inclusive date range covering the last count periods up to today.
func Window(now time.Time, loc *time.Location, period Period, count int) models.DateRange {
	now = now.In(loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var start time.Time
	switch period {
	case Weekly:
		start = end.AddDate(0, 0, -7*(count-1))
	case Monthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(count - 1), 0)
	default:
		start = end.AddDate(0, 0, -(count - 1))
	}
	return models.DateRange{Start: start.Format(models.DateLayout), End: end.Format(models.DateLayout)}
}

// BuildCashChart buckets txns by period, oldest bucket first.
func BuildCashChart(txns []models.Transaction, period Period, rng models.DateRange) CashChartResponse {
	g := groupings[period]
	buckets := make(map[string]*CashChartPoint)
	grand := CashChartPoint{Label: "total", ByMethod: map[models.PaymentMethod]decimal.Decimal{}}

	for _, t := range txns {
		if !rng.Contains(t.Date) {
			continue
		}
		key := reports.PeriodKey(t.Date, g)
		p, ok := buckets[key]
		if !ok {
			p = &CashChartPoint{Label: key, ByMethod: map[models.PaymentMethod]decimal.Decimal{}}
			buckets[key] = p
		}
		p.ByMethod[t.PaymentMethod] = p.ByMethod[t.PaymentMethod].Add(t.Total)
		p.Total = p.Total.Add(t.Total)
		grand.ByMethod[t.PaymentMethod] = grand.ByMethod[t.PaymentMethod].Add(t.Total)
		grand.Total = grand.Total.Add(t.Total)
	}

	points := make([]CashChartPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })

	return CashChartResponse{
		Period:      period,
		From:        rng.Start,
		To:          rng.End,
		Points:      points,
		GrandTotals: grand,
	}
}

type Chart struct {
	src reports.TransactionSource
	loc *time.Location
	now func() time.Time
}

func NewChart(src reports.TransactionSource, loc *time.Location) *Chart {
	if loc == nil {
		loc = time.UTC
	}
	return &Chart{src: src, loc: loc, now: time.Now}
}

func (ch *Chart) Build(ctx context.Context, period Period, count int) (CashChartResponse, error) {
	if period == "" {
		period = Daily
	}
	if _, ok := groupings[period]; !ok {
		return CashChartResponse{}, apperr.Invalid("period must be one of daily, weekly, monthly")
	}
	if count == 0 {
		count = defaultCounts[period]
	}
	if count < 0 || count > maxCount {
		return CashChartResponse{}, apperr.Invalid("count must be between 1 and 366")
	}

	rng := Window(ch.now(), ch.loc, period, count)
	txns, err := ch.src.InRange(ctx, rng)
	if err != nil {
		return CashChartResponse{}, err
	}
	return BuildCashChart(txns, period, rng), nil
}

// GET /dashboard/cash-chart?period=daily&count=7
func CashChartHandler(ch *Chart) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := request.BoundedInt(c, "count", 0, maxCount)
		if err != nil {
			return err
		}
		resp, err := ch.Build(c.UserContext(), Period(c.Query("period")), count)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(resp)
	}
}

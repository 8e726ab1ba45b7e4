// Package reports aggregates the transaction log. Nothing here writes.
package reports

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
)

type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy defaults an empty value to day.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case "":
		return GroupByDay, nil
	case GroupByDay, GroupByWeek, GroupByMonth:
		return g, nil
	}
	return "", apperr.Invalid("groupBy must be one of day, week, month")
}

type PeriodTotals struct {
	Period           string          `json:"period"`
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalProfit      decimal.Decimal `json:"totalProfit"`
	TotalCogs        decimal.Decimal `json:"totalCogs"`
	TransactionCount int             `json:"transactionCount"`
	ItemCount        int             `json:"itemCount"`
}

type ProductTotals struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	QuantitySold int             `json:"quantitySold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCogs    decimal.Decimal `json:"totalCogs"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
}

type DailySummary struct {
	Date              string          `json:"date"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalProfit       decimal.Decimal `json:"totalProfit"`
	TotalCogs         decimal.Decimal `json:"totalCogs"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalItems        int             `json:"totalItems"`
}

// PeriodKey maps a YYYY-MM-DD date to its bucket. Weeks are day-of-month buckets
// (days 1-7 are W1, 8-14 W2 and so on), not ISO weeks.
func PeriodKey(date string, g GroupBy) string {
	switch g {
	case GroupByMonth:
		if len(date) >= 7 {
			return date[:7]
		}
	case GroupByWeek:
		if len(date) == len(models.DateLayout) {
			day, err := strconv.Atoi(date[8:10])
			if err == nil {
				return fmt.Sprintf("%s-W%d", date[:7], (day+6)/7)
			}
		}
	}
	return date
}

// Sales groups txns into periods, latest period first.
func Sales(txns []models.Transaction, rng models.DateRange, g GroupBy) []PeriodTotals {
	buckets := make(map[string]*PeriodTotals)
	for _, t := range txns {
		if !rng.Contains(t.Date) {
			continue
		}
		key := PeriodKey(t.Date, g)
		b, ok := buckets[key]
		if !ok {
			b = &PeriodTotals{Period: key}
			buckets[key] = b
		}
		b.TotalSales = b.TotalSales.Add(t.Total)
		b.TotalProfit = b.TotalProfit.Add(t.Profit)
		b.TotalCogs = b.TotalCogs.Add(t.COGS)
		b.TransactionCount++
		b.ItemCount += t.ItemCount()
	}

	out := make([]PeriodTotals, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

// Products totals each product's lines, highest revenue first. Profit is gross per line;
// transaction discounts are not spread over products. ProductName is the name on the most
// recent sale in range, so a product renamed mid-range reports under its newer name.
func Products(txns []models.Transaction, rng models.DateRange) []ProductTotals {
	byID := make(map[string]*ProductTotals)
	namedAt := make(map[string]models.Transaction)
	for _, t := range txns {
		if !rng.Contains(t.Date) {
			continue
		}
		for _, it := range t.Items {
			p, ok := byID[it.ProductID]
			if !ok {
				p = &ProductTotals{ProductID: it.ProductID}
				byID[it.ProductID] = p
			}
			if last, seen := namedAt[it.ProductID]; !seen || newer(t, last) {
				p.ProductName = it.ProductName
				namedAt[it.ProductID] = t
			}
			p.QuantitySold += it.Quantity
			p.TotalRevenue = p.TotalRevenue.Add(it.Total)
			p.TotalCogs = p.TotalCogs.Add(it.COGS)
			p.TotalProfit = p.TotalProfit.Add(it.Total.Sub(it.COGS))
		}
	}

	out := make([]ProductTotals, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

func newer(a, b models.Transaction) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return a.Timestamp.After(b.Timestamp)
}

// Daily sums the transactions dated date.
func Daily(txns []models.Transaction, date string) DailySummary {
	s := DailySummary{Date: date}
	for _, t := range txns {
		if t.Date != date {
			continue
		}
		s.TotalSales = s.TotalSales.Add(t.Total)
		s.TotalProfit = s.TotalProfit.Add(t.Profit)
		s.TotalCogs = s.TotalCogs.Add(t.COGS)
		s.TotalTransactions++
		s.TotalItems += t.ItemCount()
	}
	return s
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PrefixTransaction = "transaction:"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentEWallet  PaymentMethod = "ewallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentQRIS, PaymentEWallet:
		return true
	}
	return false
}

// LineItem snapshots a product at the moment it was sold or ordered.
type LineItem struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	Total        decimal.Decimal `json:"total"`
	COGS         decimal.Decimal `json:"cogs"`
}

// NewLineItem prices quantity units of p at its current catalog prices.
func NewLineItem(p Product, quantity int) LineItem {
	q := decimal.NewFromInt(int64(quantity))
	return LineItem{
		ProductID:    p.ID,
		ProductName:  p.Name,
		Quantity:     quantity,
		SellingPrice: p.SellingPrice,
		CostPrice:    p.CostPrice,
		Total:        p.SellingPrice.Mul(q),
		COGS:         p.CostPrice.Mul(q),
	}
}

type Transaction struct {
	ID            string          `json:"id"`
	Items         []LineItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	COGS          decimal.Decimal `json:"cogs"`
	Profit        decimal.Decimal `json:"profit"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CashierID     string          `json:"cashierId"`
	CashierName   string          `json:"cashierName"`
	Timestamp     time.Time       `json:"timestamp"`
	// Date is the calendar day of Timestamp in the server's reference timezone.
	Date string `json:"date"`
}

func (t Transaction) ItemCount() int {
	n := 0
	for _, it := range t.Items {
		n += it.Quantity
	}
	return n
}

func TransactionKey(id string) string { return PrefixTransaction + id }

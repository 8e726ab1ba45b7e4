package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PrefixOrder = "order:"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

func (s OrderStatus) rank() int {
	switch s {
	case OrderShipped:
		return 1
	case OrderDelivered:
		return 2
	}
	return 0
}

// Before reports whether s comes earlier than other in pending -> shipped -> delivered.
func (s OrderStatus) Before(other OrderStatus) bool { return s.rank() < other.rank() }

type Order struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerAddress string          `json:"customerAddress"`
	Items           []LineItem      `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DeliveryDate    string          `json:"deliveryDate"`
	DeliveryTime    string          `json:"deliveryTime"`
	Status          OrderStatus     `json:"status"`
	StockReduced    bool            `json:"stockReduced"`
	Notes           string          `json:"notes"`
	CreatedBy       string          `json:"createdBy"`
	CreatedByName   string          `json:"createdByName"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	ShippedBy       string          `json:"shippedBy,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

func OrderKey(id string) string { return PrefixOrder + id }

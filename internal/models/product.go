package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PrefixProduct = "product:"

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	Stock        int             `json:"stock"` // never negative
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func ProductKey(id string) string { return PrefixProduct + id }

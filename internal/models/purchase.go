package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PrefixPurchase = "purchase:"

type FundingSource string

const (
	FundingCompany  FundingSource = "company"
	FundingPersonal FundingSource = "personal"
	FundingOwner    FundingSource = "owner"
	FundingLoan     FundingSource = "loan"
)

func (f FundingSource) Valid() bool {
	switch f {
	case FundingCompany, FundingPersonal, FundingOwner, FundingLoan:
		return true
	}
	return false
}

type PurchaseItem struct {
	ItemName      string          `json:"itemName"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	Total         decimal.Decimal `json:"total"`
}

// Purchase is a financial record only: it never changes catalog stock.
type Purchase struct {
	ID            string          `json:"id"`
	PurchaseDate  string          `json:"purchaseDate"`
	Supplier      string          `json:"supplier"`
	FundingSource FundingSource   `json:"fundingSource"`
	FundingOwner  string          `json:"fundingOwner"`
	Items         []PurchaseItem  `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Notes         string          `json:"notes"`
	CreatedBy     string          `json:"createdBy"`
	CreatedByName string          `json:"createdByName"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func PurchaseKey(id string) string { return PrefixPurchase + id }

package models

import "time"

const PrefixStockHistory = "stock_history:"

type StockChangeType string

const (
	StockSale       StockChangeType = "sale"
	StockRestock    StockChangeType = "restock"
	StockAdjustment StockChangeType = "adjustment"
	StockDamage     StockChangeType = "damage"
	StockReturn     StockChangeType = "return"
	StockOrder      StockChangeType = "order"
)

// IsManual reports whether t may be chosen by a caller of a manual stock adjustment.
func (t StockChangeType) IsManual() bool {
	switch t {
	case StockRestock, StockAdjustment, StockDamage, StockReturn:
		return true
	}
	return false
}

// StockHistoryEntry is one immutable ledger record. NewStock-OldStock always equals Change.
type StockHistoryEntry struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Change      int             `json:"change"`
	Type        StockChangeType `json:"type"`
	Reason      string          `json:"reason,omitempty"`
	OldStock    int             `json:"oldStock"`
	NewStock    int             `json:"newStock"`
	Timestamp   time.Time       `json:"timestamp"`
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
}

func StockHistoryKey(id string) string { return PrefixStockHistory + id }

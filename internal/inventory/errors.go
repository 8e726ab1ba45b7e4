package inventory

import (
	"fmt"

	"pos-backend/internal/apperr"
)

// InsufficientStockError reports a line that would drive a product's stock below zero.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d, Requested: %d", e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Kind() apperr.Kind { return apperr.InsufficientStock }

func productNotFound(id string) error {
	return apperr.NotFoundf("product %s not found", id)
}

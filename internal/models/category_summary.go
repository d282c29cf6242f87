package models

import (
	"github.com/shopspring/decimal"
)

// CategorySummary is one row of the spending-by-category aggregate.
type CategorySummary struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

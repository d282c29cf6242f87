package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendtrack/internal/models"
)

// summaryService implements SummaryServiceInterface. Aggregates are
// recomputed from the current lists on every call and never persisted.
type summaryService struct{}

// NewSummaryService creates the display-aggregate service.
func NewSummaryService() SummaryServiceInterface {
	return &summaryService{}
}

// TotalBalanceUSD sums account balances converted to USD via the fixed rate
// table.
func (s *summaryService) TotalBalanceUSD(accounts []models.Account) decimal.Decimal {
	return models.TotalBalanceUSD(accounts)
}

// CategoryTotals buckets expenses by category, largest total first. Amounts
// are summed as recorded; they are denominated in the currency of each
// expense's account.
func (s *summaryService) CategoryTotals(expenses []models.Expense) []models.CategorySummary {
	totals := make(map[string]*models.CategorySummary)
	order := make([]string, 0)

	for _, e := range expenses {
		bucket, ok := totals[e.Category]
		if !ok {
			bucket = &models.CategorySummary{Category: e.Category, Total: decimal.Zero}
			totals[e.Category] = bucket
			order = append(order, e.Category)
		}
		bucket.Total = bucket.Total.Add(e.Amount)
		bucket.Count++
	}

	out := make([]models.CategorySummary, 0, len(order))
	for _, category := range order {
		out = append(out, *totals[category])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// PeriodTotal sums the amounts of expenses matching the filters.
func (s *summaryService) PeriodTotal(expenses []models.Expense, filters models.ExpenseFilters) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if filters.Matches(e) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

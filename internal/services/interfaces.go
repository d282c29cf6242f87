package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendtrack/internal/dto"
	"spendtrack/internal/models"
)

// LedgerServiceInterface couples expense mutations to account balance
// mutations: recording an expense debits its account, removing one credits
// the amount back, amending one recomputes the delta.
type LedgerServiceInterface interface {
	RecordExpense(ctx context.Context, draft dto.ExpenseDraft) (uuid.UUID, error)
	RemoveExpense(ctx context.Context, id uuid.UUID) error
	AmendExpense(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) error
}

// SummaryServiceInterface computes display aggregates. All operations are
// pure over their inputs; nothing is persisted.
type SummaryServiceInterface interface {
	TotalBalanceUSD(accounts []models.Account) decimal.Decimal
	CategoryTotals(expenses []models.Expense) []models.CategorySummary
	PeriodTotal(expenses []models.Expense, filters models.ExpenseFilters) decimal.Decimal
}

// AccountStates is the slice of the account state manager the ledger needs.
type AccountStates interface {
	Account(id uuid.UUID) (models.Account, bool)
	UpdateAccount(ctx context.Context, id uuid.UUID, patch dto.AccountPatch) error
}

// ExpenseStates is the slice of the expense state manager the ledger needs.
type ExpenseStates interface {
	Expense(id uuid.UUID) (models.Expense, bool)
	AddExpense(ctx context.Context, draft dto.ExpenseDraft) (uuid.UUID, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseDraft is an expense without an id, as submitted for creation.
type ExpenseDraft struct {
	Title     string          `json:"title" validate:"required,min=1,max=200"`
	Amount    decimal.Decimal `json:"amount" validate:"required,positive_amount"`
	Category  string          `json:"category" validate:"required,min=1,max=100"`
	Date      time.Time       `json:"date" validate:"required"`
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	UserID    uuid.UUID       `json:"user_id" validate:"required"`
}

// ExpensePatch is a partial expense update. Nil fields are left untouched.
type ExpensePatch struct {
	Title     *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Amount    *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,positive_amount"`
	Category  *string          `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Date      *time.Time       `json:"date,omitempty"`
	AccountID *uuid.UUID       `json:"account_id,omitempty"`
}

// TouchesView reports whether applying the patch can change the sort position
// or filter membership of the expense, requiring a reload of the derived view.
func (p ExpensePatch) TouchesView() bool {
	return p.Amount != nil || p.Date != nil || p.Category != nil || p.AccountID != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.AccountID == nil
}

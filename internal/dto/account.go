package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountDraft is an account without an id, as submitted for creation.
// Balance may be zero but must be present, hence the pointer. The nil check
// lives in the repository: a "required" tag would reject a zero balance,
// because decimal fields validate through their float value.
type AccountDraft struct {
	Name     string           `json:"name" validate:"required,min=1,max=100"`
	Currency string           `json:"currency" validate:"required,currency"`
	Balance  *decimal.Decimal `json:"balance"`
	Color    string           `json:"color" validate:"required,hex_color"`
	UserID   uuid.UUID        `json:"user_id" validate:"required"`
}

// AccountPatch is a partial account update. Nil fields are left untouched.
type AccountPatch struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Currency *string          `json:"currency,omitempty" validate:"omitempty,currency"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	Color    *string          `json:"color,omitempty" validate:"omitempty,hex_color"`
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Currency == nil && p.Balance == nil && p.Color == nil
}

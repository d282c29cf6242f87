package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Suggested categories offered by the presentation layer. Arbitrary category
// values are accepted everywhere; this set is advisory only.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryBills         = "Bills"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
)

var (
	ErrMissingTitle   = errors.New("expense title is required")
	ErrInvalidAmount  = errors.New("expense amount must be positive")
	ErrMissingAccount = errors.New("expense account is required")
)

// Expense represents a single spend recorded against an account. The amount
// is denominated in the currency of the linked account.
type Expense struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Title     string          `gorm:"type:varchar(200);not null" json:"title"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category  string          `gorm:"type:varchar(100);not null" json:"category"`
	Date      time.Time       `gorm:"not null;index" json:"date"`
	AccountID uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for Expense
func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	return e.Validate()
}

// BeforeUpdate hook for Expense
func (e *Expense) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	return nil
}

// Validate validates the expense fields
func (e *Expense) Validate() error {
	if e.Title == "" {
		return ErrMissingTitle
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.AccountID == uuid.Nil {
		return ErrMissingAccount
	}

	if e.UserID == uuid.Nil {
		return ErrMissingOwner
	}

	return nil
}

// TableName returns the table name for Expense
func (e *Expense) TableName() string {
	return "expenses"
}

// SuggestedCategories returns the advisory category set.
func SuggestedCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryBills,
		CategoryEntertainment,
		CategoryShopping,
	}
}

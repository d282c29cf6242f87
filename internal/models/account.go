package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CurrencyUSD = "USD"
	CurrencyUAH = "UAH"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"

	// MainAccountName is reserved: at most one account per user may carry it,
	// and that account is never deletable.
	MainAccountName = "Main Account"

	// DefaultAccountColor is used for the automatically created Main Account.
	DefaultAccountColor = "#FF6384"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrMissingName     = errors.New("account name is required")
	ErrMissingColor    = errors.New("account color is required")
	ErrMissingOwner    = errors.New("user ID is required")
)

// usdRates is the fixed conversion table used for the cross-account total.
// Display-only: stored balances are never converted in place.
var usdRates = map[string]decimal.Decimal{
	CurrencyUSD: decimal.NewFromInt(1),
	CurrencyUAH: decimal.NewFromFloat(0.025),
	CurrencyEUR: decimal.NewFromFloat(1.09),
	CurrencyGBP: decimal.NewFromFloat(1.28),
}

// Account represents a monetary account owned by a user.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Color     string          `gorm:"type:varchar(9);not null" json:"color"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`

	Expenses []Expense `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook for Account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.Currency == "" {
		a.Currency = CurrencyUSD
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	return a.Validate()
}

// BeforeUpdate hook for Account
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// Validate validates the account fields
func (a *Account) Validate() error {
	if a.Name == "" {
		return ErrMissingName
	}

	if !IsValidCurrency(a.Currency) {
		return ErrInvalidCurrency
	}

	if a.Color == "" {
		return ErrMissingColor
	}

	if a.UserID == uuid.Nil {
		return ErrMissingOwner
	}

	return nil
}

// IsMain reports whether this is the protected Main Account.
func (a *Account) IsMain() bool {
	return a.Name == MainAccountName
}

// BalanceUSD converts the balance to USD using the fixed rate table.
func (a *Account) BalanceUSD() decimal.Decimal {
	return ConvertToUSD(a.Balance, a.Currency)
}

// TableName returns the table name for Account
func (a *Account) TableName() string {
	return "accounts"
}

// IsValidCurrency checks if the currency is one of the supported set
func IsValidCurrency(currency string) bool {
	_, ok := usdRates[currency]
	return ok
}

// Currencies returns the supported currency codes.
func Currencies() []string {
	return []string{CurrencyUSD, CurrencyUAH, CurrencyEUR, CurrencyGBP}
}

// ConvertToUSD converts an amount in the given currency to USD using the
// fixed rate table. Unknown currencies convert at rate zero rather than
// guessing.
func ConvertToUSD(amount decimal.Decimal, currency string) decimal.Decimal {
	rate, ok := usdRates[currency]
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(rate)
}

// TotalBalanceUSD sums account balances converted to USD. Recomputed from the
// current account list on every call; never persisted.
func TotalBalanceUSD(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.BalanceUSD())
	}
	return total
}

package repositories

import (
	"context"

	"github.com/google/uuid"

	"spendtrack/internal/dto"
	"spendtrack/internal/models"
)

// AccountRepositoryInterface is the CRUD facade over the accounts collection.
// It owns the Main Account uniqueness invariant on creation; deletion
// protection for the Main Account is the state manager's responsibility.
type AccountRepositoryInterface interface {
	// List returns the user's accounts ordered by name ascending.
	List(ctx context.Context, userID uuid.UUID) ([]models.Account, error)

	// Create validates and stores a new account. Creating a Main Account when
	// one already exists for the user returns the existing record instead of
	// writing a duplicate.
	Create(ctx context.Context, draft dto.AccountDraft) (*models.Account, error)

	// Update applies a partial patch and returns the updated account.
	Update(ctx context.Context, id uuid.UUID, patch dto.AccountPatch) (*models.Account, error)

	// Delete removes the account. Store-side referential integrity cascades
	// the delete to the account's expenses.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindMainAccount returns the user's Main Account, or ErrNotFound.
	FindMainAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
}

// ExpenseRepositoryInterface is the CRUD facade over the expenses collection.
// It owns the wire-format date conversion: callers only ever see time.Time.
type ExpenseRepositoryInterface interface {
	// List returns the user's expenses ordered by date descending.
	List(ctx context.Context, userID uuid.UUID) ([]models.Expense, error)

	Create(ctx context.Context, draft dto.ExpenseDraft) (*models.Expense, error)
	Update(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) (*models.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

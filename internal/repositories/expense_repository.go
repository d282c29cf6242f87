package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/dto"
	"spendtrack/internal/models"
	"spendtrack/internal/store"
	"spendtrack/internal/validation"
)

// expenseRepository implements ExpenseRepositoryInterface over a store client.
// Dates are RFC 3339 strings on the wire; callers only ever see time.Time.
type expenseRepository struct {
	client store.Client
	logger *slog.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(client store.Client, logger *slog.Logger) ExpenseRepositoryInterface {
	return &expenseRepository{
		client: client,
		logger: logger,
	}
}

// List returns the user's expenses ordered by date descending.
func (r *expenseRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Expense, error) {
	rows, err := r.client.Select(ctx, store.CollectionExpenses,
		[]store.Filter{{Field: "user_id", Value: userID.String()}},
		&store.Order{Field: "date", Desc: true},
	)
	if err != nil {
		return nil, apperrors.Remote(fmt.Errorf("failed to list expenses: %w", err))
	}

	expenses := make([]models.Expense, len(rows))
	for i, row := range rows {
		expenses[i] = expenseFromRow(row)
	}
	return expenses, nil
}

// Create validates and stores a new expense.
func (r *expenseRepository) Create(ctx context.Context, draft dto.ExpenseDraft) (*models.Expense, error) {
	if fieldErrors := validation.GetValidator().ValidateStruct(draft); fieldErrors != nil {
		return nil, validationError(fieldErrors)
	}

	row := store.Row{
		"title":      draft.Title,
		"amount":     draft.Amount,
		"category":   draft.Category,
		"date":       wireDate(draft.Date),
		"account_id": draft.AccountID.String(),
		"user_id":    draft.UserID.String(),
	}

	stored, err := r.client.Insert(ctx, store.CollectionExpenses, row)
	if err != nil {
		return nil, apperrors.Remote(fmt.Errorf("failed to create expense: %w", err))
	}

	expense := expenseFromRow(stored)
	return &expense, nil
}

// Update applies a partial patch and returns the updated expense.
func (r *expenseRepository) Update(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) (*models.Expense, error) {
	if patch.IsEmpty() {
		return nil, apperrors.Validation("patch", "must change at least one field")
	}
	if fieldErrors := validation.GetValidator().ValidateStruct(patch); fieldErrors != nil {
		return nil, validationError(fieldErrors)
	}
	// omitempty skips a zero amount, so the positive check is repeated here.
	if patch.Amount != nil && patch.Amount.Sign() <= 0 {
		return nil, apperrors.Validation("amount", "must be a positive amount")
	}

	row := store.Row{}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Amount != nil {
		row["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		row["category"] = *patch.Category
	}
	if patch.Date != nil {
		row["date"] = wireDate(*patch.Date)
	}
	if patch.AccountID != nil {
		row["account_id"] = patch.AccountID.String()
	}

	updated, err := r.client.Update(ctx, store.CollectionExpenses, id, row)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return nil, apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
		}
		return nil, apperrors.Remote(fmt.Errorf("failed to update expense: %w", err))
	}

	expense := expenseFromRow(updated)
	return &expense, nil
}

// Delete removes the expense.
func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Delete(ctx, store.CollectionExpenses, id); err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
		}
		return apperrors.Remote(fmt.Errorf("failed to delete expense: %w", err))
	}
	return nil
}

func expenseFromRow(row store.Row) models.Expense {
	return models.Expense{
		ID:        rowUUID(row, "id"),
		Title:     rowString(row, "title"),
		Amount:    rowDecimal(row, "amount"),
		Category:  rowString(row, "category"),
		Date:      rowTime(row, "date"),
		AccountID: rowUUID(row, "account_id"),
		UserID:    rowUUID(row, "user_id"),
		CreatedAt: rowTime(row, "created_at"),
		UpdatedAt: rowTime(row, "updated_at"),
	}
}

func wireDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

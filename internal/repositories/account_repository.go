package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/dto"
	"spendtrack/internal/models"
	"spendtrack/internal/store"
	"spendtrack/internal/validation"
)

// accountRepository implements AccountRepositoryInterface over a store client.
type accountRepository struct {
	client store.Client
	logger *slog.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(client store.Client, logger *slog.Logger) AccountRepositoryInterface {
	return &accountRepository{
		client: client,
		logger: logger,
	}
}

// List returns the user's accounts ordered by name ascending.
func (r *accountRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, err := r.client.Select(ctx, store.CollectionAccounts,
		[]store.Filter{{Field: "user_id", Value: userID.String()}},
		&store.Order{Field: "name"},
	)
	if err != nil {
		return nil, apperrors.Remote(fmt.Errorf("failed to list accounts: %w", err))
	}

	accounts := make([]models.Account, len(rows))
	for i, row := range rows {
		accounts[i] = accountFromRow(row)
	}
	return accounts, nil
}

// Create validates and stores a new account. The Main Account singleton is
// enforced idempotently: asked to create a Main Account that already exists,
// it returns the existing record instead of writing a duplicate.
func (r *accountRepository) Create(ctx context.Context, draft dto.AccountDraft) (*models.Account, error) {
	if fieldErrors := validation.GetValidator().ValidateStruct(draft); fieldErrors != nil {
		return nil, validationError(fieldErrors)
	}
	if draft.Balance == nil {
		return nil, apperrors.Validation("balance", "is required")
	}

	if draft.Name == models.MainAccountName {
		existing, err := r.FindMainAccount(ctx, draft.UserID)
		if err == nil {
			r.logger.Info("main account already exists, returning existing record",
				"user_id", draft.UserID, "account_id", existing.ID)
			return existing, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}

	row := store.Row{
		"name":     draft.Name,
		"currency": draft.Currency,
		"balance":  *draft.Balance,
		"color":    draft.Color,
		"user_id":  draft.UserID.String(),
	}

	stored, err := r.client.Insert(ctx, store.CollectionAccounts, row)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) && draft.Name == models.MainAccountName {
			// Lost the creation race; the winner's record is the account we
			// wanted anyway.
			r.logger.Info("main account insert conflicted, recovering existing record",
				"user_id", draft.UserID)
			existing, findErr := r.FindMainAccount(ctx, draft.UserID)
			if findErr == nil {
				return existing, nil
			}
			return nil, apperrors.NewAppError(apperrors.AccountDuplicateMain, apperrors.ErrDuplicateMainAccount, "")
		}
		return nil, apperrors.Remote(fmt.Errorf("failed to create account: %w", err))
	}

	account := accountFromRow(stored)
	return &account, nil
}

// Update applies a partial patch and returns the updated account.
func (r *accountRepository) Update(ctx context.Context, id uuid.UUID, patch dto.AccountPatch) (*models.Account, error) {
	if patch.IsEmpty() {
		return nil, apperrors.Validation("patch", "must change at least one field")
	}
	if fieldErrors := validation.GetValidator().ValidateStruct(patch); fieldErrors != nil {
		return nil, validationError(fieldErrors)
	}

	row := store.Row{}
	if patch.Name != nil {
		row["name"] = *patch.Name
	}
	if patch.Currency != nil {
		row["currency"] = *patch.Currency
	}
	if patch.Balance != nil {
		row["balance"] = *patch.Balance
	}
	if patch.Color != nil {
		row["color"] = *patch.Color
	}

	updated, err := r.client.Update(ctx, store.CollectionAccounts, id, row)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRowNotFound):
			return nil, apperrors.NewAppError(apperrors.AccountNotFound, apperrors.ErrNotFound, "")
		case errors.Is(err, store.ErrUniqueViolation):
			return nil, apperrors.NewAppError(apperrors.AccountDuplicateMain, apperrors.ErrDuplicateMainAccount, "")
		default:
			return nil, apperrors.Remote(fmt.Errorf("failed to update account: %w", err))
		}
	}

	account := accountFromRow(updated)
	return &account, nil
}

// Delete removes the account. Protection of the Main Account is the state
// manager's concern; this just propagates store failures.
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Delete(ctx, store.CollectionAccounts, id); err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return apperrors.NewAppError(apperrors.AccountNotFound, apperrors.ErrNotFound, "")
		}
		return apperrors.Remote(fmt.Errorf("failed to delete account: %w", err))
	}
	return nil
}

// FindMainAccount returns the user's Main Account, or ErrNotFound.
func (r *accountRepository) FindMainAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	rows, err := r.client.Select(ctx, store.CollectionAccounts,
		[]store.Filter{
			{Field: "name", Value: models.MainAccountName},
			{Field: "user_id", Value: userID.String()},
		},
		nil,
	)
	if err != nil {
		return nil, apperrors.Remote(fmt.Errorf("failed to look up main account: %w", err))
	}
	if len(rows) == 0 {
		return nil, apperrors.NewAppError(apperrors.AccountNotFound, apperrors.ErrNotFound, "")
	}

	account := accountFromRow(rows[0])
	return &account, nil
}

func accountFromRow(row store.Row) models.Account {
	return models.Account{
		ID:        rowUUID(row, "id"),
		Name:      rowString(row, "name"),
		Currency:  rowString(row, "currency"),
		Balance:   rowDecimal(row, "balance"),
		Color:     rowString(row, "color"),
		UserID:    rowUUID(row, "user_id"),
		CreatedAt: rowTime(row, "created_at"),
		UpdatedAt: rowTime(row, "updated_at"),
	}
}

func validationError(fieldErrors map[string]string) error {
	details := make([]string, 0, len(fieldErrors))
	for field, reason := range fieldErrors {
		details = append(details, fmt.Sprintf("%s %s", field, reason))
	}
	sort.Strings(details)
	return apperrors.NewAppError(apperrors.ValidationGeneral, apperrors.ErrValidation, strings.Join(details, "; "))
}

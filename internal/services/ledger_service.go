package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/dto"
)

// ledgerService implements LedgerServiceInterface over the two state
// managers. The expense write and the balance write are independent store
// calls with no shared transaction: both are always awaited, neither is
// rolled back if the other fails, and a later reload reveals any drift.
type ledgerService struct {
	accounts AccountStates
	expenses ExpenseStates
	logger   *slog.Logger
}

// NewLedgerService creates the balance adjustment service.
func NewLedgerService(accounts AccountStates, expenses ExpenseStates, logger *slog.Logger) LedgerServiceInterface {
	return &ledgerService{
		accounts: accounts,
		expenses: expenses,
		logger:   logger,
	}
}

// RecordExpense creates the expense and debits the linked account
// concurrently, waiting for both calls to settle. The two requests race
// independently against the store; there is no ordering guarantee between
// them.
func (s *ledgerService) RecordExpense(ctx context.Context, draft dto.ExpenseDraft) (uuid.UUID, error) {
	account, ok := s.accounts.Account(draft.AccountID)
	if !ok {
		// Account not mirrored locally; record the expense alone and let the
		// next reload reconcile.
		s.logger.Warn("recording expense against unmirrored account", "account_id", draft.AccountID)
		return s.expenses.AddExpense(ctx, draft)
	}

	newBalance := account.Balance.Sub(draft.Amount)

	var (
		wg        sync.WaitGroup
		expenseID uuid.UUID
		addErr    error
		debitErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		expenseID, addErr = s.expenses.AddExpense(ctx, draft)
	}()
	go func() {
		defer wg.Done()
		debitErr = s.accounts.UpdateAccount(ctx, account.ID, dto.AccountPatch{Balance: &newBalance})
	}()
	wg.Wait()

	if addErr != nil || debitErr != nil {
		s.logger.Error("record expense left store partially applied",
			"account_id", account.ID,
			"expense_error", addErr,
			"debit_error", debitErr)
	}

	return expenseID, errors.Join(addErr, debitErr)
}

// RemoveExpense deletes the expense first and credits the linked account
// back only if that succeeds. A failed delete leaves the expense visible and
// the balance untouched.
func (s *ledgerService) RemoveExpense(ctx context.Context, id uuid.UUID) error {
	expense, ok := s.expenses.Expense(id)
	if !ok {
		return apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
	}

	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		return err
	}

	account, ok := s.accounts.Account(expense.AccountID)
	if !ok {
		s.logger.Warn("deleted expense referenced unmirrored account", "account_id", expense.AccountID)
		return nil
	}

	newBalance := account.Balance.Add(expense.Amount)
	if err := s.accounts.UpdateAccount(ctx, account.ID, dto.AccountPatch{Balance: &newBalance}); err != nil {
		s.logger.Error("failed to credit account after expense delete",
			"account_id", account.ID, "amount", expense.Amount, "error", err)
		return err
	}

	return nil
}

// AmendExpense patches the expense, then recomputes the balance delta when
// the amount or the linked account changed: the old account is credited the
// old amount, the target account debited the new amount.
func (s *ledgerService) AmendExpense(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) error {
	old, ok := s.expenses.Expense(id)
	if !ok {
		return apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
	}

	if err := s.expenses.UpdateExpense(ctx, id, patch); err != nil {
		return err
	}

	newAmount := old.Amount
	if patch.Amount != nil {
		newAmount = *patch.Amount
	}
	newAccountID := old.AccountID
	if patch.AccountID != nil {
		newAccountID = *patch.AccountID
	}

	if newAccountID == old.AccountID {
		if newAmount.Equal(old.Amount) {
			return nil
		}
		account, ok := s.accounts.Account(old.AccountID)
		if !ok {
			return nil
		}
		balance := account.Balance.Add(old.Amount).Sub(newAmount)
		return s.accounts.UpdateAccount(ctx, account.ID, dto.AccountPatch{Balance: &balance})
	}

	// Moved to another account: two sequential balance writes, old first.
	if account, ok := s.accounts.Account(old.AccountID); ok {
		balance := account.Balance.Add(old.Amount)
		if err := s.accounts.UpdateAccount(ctx, account.ID, dto.AccountPatch{Balance: &balance}); err != nil {
			return err
		}
	}
	if account, ok := s.accounts.Account(newAccountID); ok {
		balance := account.Balance.Sub(newAmount)
		return s.accounts.UpdateAccount(ctx, account.ID, dto.AccountPatch{Balance: &balance})
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"spendtrack/internal/dto"
	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/models"
)

// fakeAccountStates mirrors accounts in memory and applies balance patches,
// standing in for the account state manager.
type fakeAccountStates struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]models.Account
	updateErr error
	updates   int
}

func newFakeAccountStates(accounts ...models.Account) *fakeAccountStates {
	f := &fakeAccountStates{accounts: make(map[uuid.UUID]models.Account)}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeAccountStates) Account(id uuid.UUID) (models.Account, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	return a, ok
}

func (f *fakeAccountStates) UpdateAccount(_ context.Context, id uuid.UUID, patch dto.AccountPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return apperrors.NewAppError(apperrors.AccountNotFound, apperrors.ErrNotFound, "")
	}
	if patch.Balance != nil {
		a.Balance = *patch.Balance
	}
	f.accounts[id] = a
	return nil
}

// fakeExpenseStates mirrors expenses in memory, standing in for the expense
// state manager.
type fakeExpenseStates struct {
	mu        sync.Mutex
	expenses  map[uuid.UUID]models.Expense
	addErr    error
	updateErr error
	deleteErr error
}

func newFakeExpenseStates(expenses ...models.Expense) *fakeExpenseStates {
	f := &fakeExpenseStates{expenses: make(map[uuid.UUID]models.Expense)}
	for _, e := range expenses {
		f.expenses[e.ID] = e
	}
	return f
}

func (f *fakeExpenseStates) Expense(id uuid.UUID) (models.Expense, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	return e, ok
}

func (f *fakeExpenseStates) AddExpense(_ context.Context, draft dto.ExpenseDraft) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return uuid.Nil, f.addErr
	}
	e := models.Expense{
		ID:        uuid.New(),
		Title:     draft.Title,
		Amount:    draft.Amount,
		Category:  draft.Category,
		Date:      draft.Date,
		AccountID: draft.AccountID,
		UserID:    draft.UserID,
	}
	f.expenses[e.ID] = e
	return e.ID, nil
}

func (f *fakeExpenseStates) UpdateExpense(_ context.Context, id uuid.UUID, patch dto.ExpensePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	e, ok := f.expenses[id]
	if !ok {
		return apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.AccountID != nil {
		e.AccountID = *patch.AccountID
	}
	f.expenses[id] = e
	return nil
}

func (f *fakeExpenseStates) DeleteExpense(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.expenses[id]; !ok {
		return apperrors.NewAppError(apperrors.ExpenseNotFound, apperrors.ErrNotFound, "")
	}
	delete(f.expenses, id)
	return nil
}

// LedgerServiceSuite defines the test suite for LedgerServiceInterface
type LedgerServiceSuite struct {
	suite.Suite
	accounts *fakeAccountStates
	expenses *fakeExpenseStates
	service  LedgerServiceInterface
	ctx      context.Context
	userID   uuid.UUID
	main     models.Account
}

// SetupTest runs before each test in the suite
func (s *LedgerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.userID = uuid.New()
	s.main = models.Account{
		ID:       uuid.New(),
		Name:     models.MainAccountName,
		Currency: models.CurrencyUSD,
		Balance:  decimal.NewFromInt(100),
		Color:    models.DefaultAccountColor,
		UserID:   s.userID,
	}
	s.accounts = newFakeAccountStates(s.main)
	s.expenses = newFakeExpenseStates()
	s.service = NewLedgerService(s.accounts, s.expenses, discardLogger())
}

// TestLedgerServiceSuite runs the test suite
func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) draft(amount int64) dto.ExpenseDraft {
	return dto.ExpenseDraft{
		Title:     "Groceries",
		Amount:    decimal.NewFromInt(amount),
		Category:  models.CategoryFood,
		Date:      time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
		AccountID: s.main.ID,
		UserID:    s.userID,
	}
}

func (s *LedgerServiceSuite) balance(id uuid.UUID) decimal.Decimal {
	account, ok := s.accounts.Account(id)
	s.Require().True(ok)
	return account.Balance
}

func (s *LedgerServiceSuite) TestRecordExpense_DebitsAccount() {
	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.NoError(err)
	s.NotEqual(uuid.Nil, id)

	_, ok := s.expenses.Expense(id)
	s.True(ok)
	s.True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)),
		"recording a 30 expense against a 100 balance must leave 70, got %s", s.balance(s.main.ID))
}

func (s *LedgerServiceSuite) TestRecordExpense_UnmirroredAccountSkipsDebit() {
	draft := s.draft(30)
	draft.AccountID = uuid.New()

	id, err := s.service.RecordExpense(s.ctx, draft)
	s.NoError(err)
	s.NotEqual(uuid.Nil, id)
	s.True(decimal.NewFromInt(100).Equal(s.balance(s.main.ID)))
}

func (s *LedgerServiceSuite) TestRecordExpense_PartialApplySurfacesError() {
	s.expenses.addErr = apperrors.Remote(errors.New("boom"))

	_, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Error(err)

	// The debit is not rolled back; a later reload reveals the drift.
	s.True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)))
}

func (s *LedgerServiceSuite) TestRecordExpense_DebitFailureSurfacesError() {
	s.accounts.updateErr = apperrors.Remote(errors.New("boom"))

	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Error(err)

	// The expense write is independent and still lands.
	_, ok := s.expenses.Expense(id)
	s.True(ok)
}

func (s *LedgerServiceSuite) TestRemoveExpense_CreditsBack() {
	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Require().NoError(err)
	s.Require().True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)))

	s.NoError(s.service.RemoveExpense(s.ctx, id))

	_, ok := s.expenses.Expense(id)
	s.False(ok, "the expense is gone from the mirror")
	s.True(decimal.NewFromInt(100).Equal(s.balance(s.main.ID)),
		"removal must credit the amount back, got %s", s.balance(s.main.ID))
}

func (s *LedgerServiceSuite) TestRemoveExpense_UnknownID() {
	err := s.service.RemoveExpense(s.ctx, uuid.New())
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceSuite) TestRemoveExpense_DeleteFailureLeavesBalance() {
	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Require().NoError(err)

	s.expenses.deleteErr = apperrors.Remote(errors.New("boom"))

	s.Error(s.service.RemoveExpense(s.ctx, id))

	_, ok := s.expenses.Expense(id)
	s.True(ok, "the expense stays visible")
	s.True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)), "no credit without a successful delete")
}

func (s *LedgerServiceSuite) TestAmendExpense_AmountChangeRecomputesDelta() {
	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Require().NoError(err)

	newAmount := decimal.NewFromInt(50)
	s.NoError(s.service.AmendExpense(s.ctx, id, dto.ExpensePatch{Amount: &newAmount}))

	s.True(decimal.NewFromInt(50).Equal(s.balance(s.main.ID)),
		"70 + 30 - 50 = 50, got %s", s.balance(s.main.ID))
}

func (s *LedgerServiceSuite) TestAmendExpense_TitleChangeLeavesBalance() {
	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Require().NoError(err)

	before := s.accounts.updates
	title := "Weekly groceries"
	s.NoError(s.service.AmendExpense(s.ctx, id, dto.ExpensePatch{Title: &title}))

	s.Equal(before, s.accounts.updates, "a cosmetic change must not touch any balance")
	s.True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)))
}

func (s *LedgerServiceSuite) TestAmendExpense_MoveBetweenAccounts() {
	travel := models.Account{
		ID:       uuid.New(),
		Name:     "Travel",
		Currency: models.CurrencyUSD,
		Balance:  decimal.NewFromInt(200),
		Color:    "#36A2EB",
		UserID:   s.userID,
	}
	s.accounts = newFakeAccountStates(s.main, travel)
	s.service = NewLedgerService(s.accounts, s.expenses, discardLogger())

	id, err := s.service.RecordExpense(s.ctx, s.draft(30))
	s.Require().NoError(err)
	s.Require().True(decimal.NewFromInt(70).Equal(s.balance(s.main.ID)))

	s.NoError(s.service.AmendExpense(s.ctx, id, dto.ExpensePatch{AccountID: &travel.ID}))

	s.True(decimal.NewFromInt(100).Equal(s.balance(s.main.ID)), "the old account is credited back")
	s.True(decimal.NewFromInt(170).Equal(s.balance(travel.ID)), "the new account is debited")

	expense, ok := s.expenses.Expense(id)
	s.Require().True(ok)
	s.Equal(travel.ID, expense.AccountID)
}

func (s *LedgerServiceSuite) TestAmendExpense_UnknownID() {
	title := "Ghost"
	err := s.service.AmendExpense(s.ctx, uuid.New(), dto.ExpensePatch{Title: &title})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

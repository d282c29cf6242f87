package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"spendtrack/internal/dto"
	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/models"
	"spendtrack/internal/repositories/repository_mocks"
	"spendtrack/internal/session"
	"spendtrack/internal/store"
)

// ExpenseManagerSuite defines the test suite for ExpenseManager
type ExpenseManagerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	repo      *repository_mocks.MockExpenseRepositoryInterface
	store     *stubStore
	sess      *session.MemorySession
	manager   *ExpenseManager
	ctx       context.Context
	userID    uuid.UUID
	accountID uuid.UUID
}

// SetupTest runs before each test in the suite
func (s *ExpenseManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.repo = repository_mocks.NewMockExpenseRepositoryInterface(s.ctrl)
	s.store = newStubStore()
	s.sess = session.NewMemorySession()
	s.manager = NewExpenseManager(s.repo, s.store, s.sess, discardLogger(), time.Millisecond)
	s.ctx = context.Background()
	s.userID = uuid.New()
	s.accountID = uuid.New()
}

// TearDownTest runs after each test in the suite
func (s *ExpenseManagerSuite) TearDownTest() {
	s.manager.Close()
	s.ctrl.Finish()
}

// TestExpenseManagerSuite runs the test suite
func TestExpenseManagerSuite(t *testing.T) {
	suite.Run(t, new(ExpenseManagerSuite))
}

func (s *ExpenseManagerSuite) startSignedIn() {
	s.sess.SetUser(&session.User{ID: s.userID, Email: "test@example.com"})
	s.manager.Start(s.ctx)
}

func (s *ExpenseManagerSuite) expense(title, category string, date time.Time) models.Expense {
	return models.Expense{
		ID:        uuid.New(),
		Title:     title,
		Amount:    decimal.NewFromInt(10),
		Category:  category,
		Date:      date,
		AccountID: s.accountID,
		UserID:    s.userID,
	}
}

func (s *ExpenseManagerSuite) day(d int) time.Time {
	return time.Date(2024, 2, d, 12, 0, 0, 0, time.UTC)
}

func (s *ExpenseManagerSuite) TestLoad_SortsMostRecentFirst() {
	older := s.expense("Coffee", models.CategoryFood, s.day(10))
	newer := s.expense("Taxi", models.CategoryTransport, s.day(20))

	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{older, newer}, nil)

	s.startSignedIn()

	all := s.manager.All()
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)
	s.Equal(older.ID, all[1].ID)

	filtered := s.manager.Filtered()
	s.Require().Len(filtered, 2)
	s.Equal(newer.ID, filtered[0].ID, "the derived view starts as the full sorted sequence")
	s.Equal(StatusReady, s.manager.Status())
}

func (s *ExpenseManagerSuite) TestSignOutDuringLoadDropsStaleResult() {
	existing := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{existing}, nil)
	s.startSignedIn()

	entered := make(chan struct{})
	release := make(chan struct{})
	s.repo.EXPECT().List(gomock.Any(), s.userID).DoAndReturn(
		func(context.Context, uuid.UUID) ([]models.Expense, error) {
			close(entered)
			<-release
			return []models.Expense{existing}, nil
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.manager.Load(s.ctx)
	}()

	// Sign out while the fetch is parked inside the repository.
	<-entered
	s.sess.SetUser(nil)
	close(release)
	<-done

	s.Empty(s.manager.All(), "a load racing a sign-out must not republish the old user's expenses")
	s.Empty(s.manager.Filtered())
	s.Equal(StatusIdle, s.manager.Status())
}

func (s *ExpenseManagerSuite) TestLoad_FailureClearsBothSequences() {
	s.repo.EXPECT().List(gomock.Any(), s.userID).
		Return([]models.Expense{s.expense("Coffee", models.CategoryFood, s.day(10))}, nil)
	s.startSignedIn()
	s.Require().Len(s.manager.All(), 1)

	s.repo.EXPECT().List(gomock.Any(), s.userID).
		Return(nil, apperrors.Remote(errors.New("connection refused")))

	err := s.manager.Load(s.ctx)
	s.Error(err)
	s.Empty(s.manager.All())
	s.Empty(s.manager.Filtered())
	s.Equal(StatusError, s.manager.Status())
}

func (s *ExpenseManagerSuite) TestAddExpense_OptimisticInsert() {
	existing := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{existing}, nil)
	s.startSignedIn()

	created := s.expense("Taxi", models.CategoryTransport, s.day(20))
	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, draft dto.ExpenseDraft) (*models.Expense, error) {
			s.Equal(s.userID, draft.UserID, "the manager stamps the session user")
			return &created, nil
		})

	// No List expectation: the insert must not trigger a reload.
	id, err := s.manager.AddExpense(s.ctx, dto.ExpenseDraft{
		Title:     "Taxi",
		Amount:    decimal.NewFromInt(10),
		Category:  models.CategoryTransport,
		Date:      s.day(20),
		AccountID: s.accountID,
	})
	s.NoError(err)
	s.Equal(created.ID, id)

	all := s.manager.All()
	s.Require().Len(all, 2)
	s.Equal(created.ID, all[0].ID, "the new expense lands at its sorted position")
	s.Len(s.manager.Filtered(), 2)
}

func (s *ExpenseManagerSuite) TestAddExpense_FailureKeepsList() {
	existing := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{existing}, nil)
	s.startSignedIn()

	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Remote(errors.New("boom")))

	_, err := s.manager.AddExpense(s.ctx, dto.ExpenseDraft{
		Title:     "Taxi",
		Amount:    decimal.NewFromInt(10),
		Category:  models.CategoryTransport,
		Date:      s.day(20),
		AccountID: s.accountID,
	})
	s.Error(err)
	s.Len(s.manager.All(), 1)
	s.Equal(StatusReady, s.manager.Status())
	s.NotEmpty(s.manager.Err())
}

func (s *ExpenseManagerSuite) TestUpdateExpense_TitleOnlyPatchesInPlace() {
	expense := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{expense}, nil)
	s.startSignedIn()

	title := "Espresso"
	updated := expense
	updated.Title = title

	// No List expectation: a title change cannot move the record.
	s.repo.EXPECT().Update(gomock.Any(), expense.ID, gomock.Any()).Return(&updated, nil)

	s.NoError(s.manager.UpdateExpense(s.ctx, expense.ID, dto.ExpensePatch{Title: &title}))

	got, ok := s.manager.Expense(expense.ID)
	s.True(ok)
	s.Equal("Espresso", got.Title)
}

func (s *ExpenseManagerSuite) TestUpdateExpense_DateChangeReloads() {
	expense := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{expense}, nil)
	s.startSignedIn()

	newDate := s.day(25)
	updated := expense
	updated.Date = newDate

	s.repo.EXPECT().Update(gomock.Any(), expense.ID, gomock.Any()).Return(&updated, nil)
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{updated}, nil)

	s.NoError(s.manager.UpdateExpense(s.ctx, expense.ID, dto.ExpensePatch{Date: &newDate}))

	got, ok := s.manager.Expense(expense.ID)
	s.True(ok)
	s.True(newDate.Equal(got.Date))
}

func (s *ExpenseManagerSuite) TestDeleteExpense() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	b := s.expense("Taxi", models.CategoryTransport, s.day(20))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a, b}, nil)
	s.startSignedIn()

	// No List expectation: the record is removed from both sequences locally.
	s.repo.EXPECT().Delete(gomock.Any(), a.ID).Return(nil)

	s.NoError(s.manager.DeleteExpense(s.ctx, a.ID))

	s.Len(s.manager.All(), 1)
	s.Len(s.manager.Filtered(), 1)
	_, ok := s.manager.Expense(a.ID)
	s.False(ok)
}

func (s *ExpenseManagerSuite) TestDeleteExpense_FailureKeepsRecord() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a}, nil)
	s.startSignedIn()

	s.repo.EXPECT().Delete(gomock.Any(), a.ID).
		Return(apperrors.Remote(errors.New("boom")))

	s.Error(s.manager.DeleteExpense(s.ctx, a.ID))
	s.Len(s.manager.All(), 1, "a failed delete leaves the record visible")
}

func (s *ExpenseManagerSuite) TestFilter_FebruaryFoodAscending() {
	janFood := s.expense("Groceries", models.CategoryFood, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	febLunch := s.expense("Lunch", models.CategoryFood, s.day(15))
	febDinner := s.expense("Dinner", models.CategoryFood, s.day(5))
	febTaxi := s.expense("Taxi", models.CategoryTransport, s.day(10))

	s.repo.EXPECT().List(gomock.Any(), s.userID).
		Return([]models.Expense{janFood, febLunch, febDinner, febTaxi}, nil)
	s.startSignedIn()

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	filtered := s.manager.Filter(models.ExpenseFilters{
		StartDate:  &start,
		EndDate:    &end,
		Categories: []string{models.CategoryFood},
		SortOrder:  models.SortAsc,
	})

	s.Require().Len(filtered, 2)
	s.Equal(febDinner.ID, filtered[0].ID, "ascending order puts the earlier expense first")
	s.Equal(febLunch.ID, filtered[1].ID)

	s.Len(s.manager.All(), 4, "filtering never mutates the authoritative sequence")
	s.Equal(models.SortAsc, s.manager.SortOrder(), "a valid sort order is remembered")
}

func (s *ExpenseManagerSuite) TestFilter_InvalidSortOrderKeepsCurrent() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	b := s.expense("Taxi", models.CategoryTransport, s.day(20))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a, b}, nil)
	s.startSignedIn()

	filtered := s.manager.Filter(models.ExpenseFilters{})
	s.Require().Len(filtered, 2)
	s.Equal(b.ID, filtered[0].ID, "default descending order applies")
	s.Equal(models.SortDesc, s.manager.SortOrder())
}

func (s *ExpenseManagerSuite) TestFilter_RestoresFullViewWhenCleared() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	b := s.expense("Taxi", models.CategoryTransport, s.day(20))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a, b}, nil)
	s.startSignedIn()

	s.manager.Filter(models.ExpenseFilters{Categories: []string{models.CategoryFood}})
	s.Require().Len(s.manager.Filtered(), 1)

	restored := s.manager.Filter(models.ExpenseFilters{})
	s.Len(restored, 2, "clearing the filters recovers the full view from the authoritative sequence")
}

func (s *ExpenseManagerSuite) TestChangeSortOrder_DoubleSortRoundTrips() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	b := s.expense("Taxi", models.CategoryTransport, s.day(20))
	c := s.expense("Cinema", models.CategoryEntertainment, s.day(15))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a, b, c}, nil)
	s.startSignedIn()

	before := s.manager.Filtered()

	s.manager.ChangeSortOrder(models.SortAsc)
	asc := s.manager.Filtered()
	s.Equal(a.ID, asc[0].ID)

	s.manager.ChangeSortOrder(models.SortDesc)
	after := s.manager.Filtered()

	s.Require().Len(after, len(before))
	for i := range before {
		s.Equal(before[i].ID, after[i].ID, "sorting desc after asc restores the original order")
	}
}

func (s *ExpenseManagerSuite) TestChangeSortOrder_InvalidIgnored() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a}, nil)
	s.startSignedIn()

	s.manager.ChangeSortOrder(models.SortOrder("sideways"))
	s.Equal(models.SortDesc, s.manager.SortOrder())
}

func (s *ExpenseManagerSuite) TestSignOutResetsState() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a}, nil)
	s.startSignedIn()
	s.Require().Len(s.manager.All(), 1)

	s.sess.SetUser(nil)

	s.Empty(s.manager.All())
	s.Empty(s.manager.Filtered())
	s.Equal(StatusIdle, s.manager.Status())
}

func (s *ExpenseManagerSuite) TestStoreEventTriggersReload() {
	a := s.expense("Coffee", models.CategoryFood, s.day(10))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a}, nil)
	s.startSignedIn()

	b := s.expense("Taxi", models.CategoryTransport, s.day(20))
	s.repo.EXPECT().List(gomock.Any(), s.userID).Return([]models.Expense{a, b}, nil)

	s.store.Emit(store.Event{Collection: store.CollectionExpenses, Type: store.EventInsert, RowID: b.ID})

	s.Eventually(func() bool {
		return len(s.manager.All()) == 2
	}, time.Second, 5*time.Millisecond)
}

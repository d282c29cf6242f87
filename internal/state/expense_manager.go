package state

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/dto"
	"spendtrack/internal/models"
	"spendtrack/internal/repositories"
	"spendtrack/internal/session"
	"spendtrack/internal/store"
)

// ExpenseManager maintains the current user's expenses plus a derived,
// independently filtered and sorted view for display. Both sequences are
// cleared together when the user signs out.
type ExpenseManager struct {
	repo    repositories.ExpenseRepositoryInterface
	store   Subscriber
	session session.Session
	logger  *slog.Logger

	mu        sync.Mutex
	status    Status
	all       []models.Expense
	filtered  []models.Expense
	sortOrder models.SortOrder
	errMsg    string
	userID    uuid.UUID

	ctx           context.Context
	coalescer     *reloadCoalescer
	sub           store.Subscription
	cancelSession func()
}

// NewExpenseManager creates an expense manager. A non-positive window falls
// back to DefaultCoalesceWindow.
func NewExpenseManager(
	repo repositories.ExpenseRepositoryInterface,
	st Subscriber,
	sess session.Session,
	logger *slog.Logger,
	window time.Duration,
) *ExpenseManager {
	m := &ExpenseManager{
		repo:      repo,
		store:     st,
		session:   sess,
		logger:    logger,
		status:    StatusIdle,
		sortOrder: models.SortDesc,
	}
	m.coalescer = newReloadCoalescer(window, m.reload)
	return m
}

// Start wires the manager to the session stream and, when a user is already
// present, performs the initial load and store subscription.
func (m *ExpenseManager) Start(ctx context.Context) {
	m.ctx = ctx
	m.cancelSession = m.session.OnChange(m.onSessionChange)
	m.onSessionChange(m.session.CurrentUser())
}

// Close tears down subscriptions. The manager must not be used afterwards.
func (m *ExpenseManager) Close() {
	if m.cancelSession != nil {
		m.cancelSession()
	}
	m.unsubscribe()
	m.coalescer.Close()
}

func (m *ExpenseManager) onSessionChange(u *session.User) {
	if u == nil {
		m.unsubscribe()
		m.mu.Lock()
		m.userID = uuid.Nil
		m.all = nil
		m.filtered = nil
		m.errMsg = ""
		m.status = StatusIdle
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.userID = u.ID
	m.mu.Unlock()

	m.subscribe()
	if err := m.Load(m.ctx); err != nil {
		m.logger.Error("initial expense load failed", "user_id", u.ID, "error", err)
	}
}

func (m *ExpenseManager) subscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return
	}
	m.sub = m.store.Subscribe(store.CollectionExpenses, func(store.Event) {
		m.coalescer.Trigger()
	})
}

func (m *ExpenseManager) unsubscribe() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (m *ExpenseManager) reload() {
	if err := m.Load(m.ctx); err != nil {
		m.logger.Error("expense reload failed", "error", err)
	}
}

// Load fetches all expenses for the user, sorts by the remembered order, and
// publishes both the authoritative and the derived sequence as that result.
func (m *ExpenseManager) Load(ctx context.Context) error {
	m.mu.Lock()
	userID := m.userID
	if userID == uuid.Nil {
		m.all = nil
		m.filtered = nil
		m.status = StatusIdle
		m.mu.Unlock()
		return nil
	}
	m.status = StatusLoading
	m.errMsg = ""
	order := m.sortOrder
	m.mu.Unlock()

	expenses, err := m.repo.List(ctx, userID)
	if err != nil {
		m.logger.Error("failed to load expenses", "user_id", userID, "error", err)
		m.mu.Lock()
		if m.userID == userID {
			m.all = nil
			m.filtered = nil
			m.errMsg = err.Error()
			m.status = StatusError
		}
		m.mu.Unlock()
		return err
	}

	sorted := sortExpensesByDate(expenses, order)

	// A result for a user the session has moved past is dropped: it must not
	// resurrect a signed-out user's expenses or overwrite the next user's.
	m.mu.Lock()
	if m.userID == userID {
		m.all = sorted
		m.filtered = append([]models.Expense(nil), sorted...)
		m.errMsg = ""
		m.status = StatusReady
	}
	m.mu.Unlock()
	return nil
}

// AddExpense creates an expense and patches it into both sequences
// optimistically — no reload, so the visible list doesn't flicker during
// form submission.
func (m *ExpenseManager) AddExpense(ctx context.Context, draft dto.ExpenseDraft) (uuid.UUID, error) {
	m.mu.Lock()
	draft.UserID = m.userID
	m.status = StatusLoading
	m.mu.Unlock()

	created, err := m.repo.Create(ctx, draft)
	if err != nil {
		m.failMutation(err)
		return uuid.Nil, err
	}

	m.mu.Lock()
	m.all = sortExpensesByDate(append(m.all, *created), m.sortOrder)
	m.filtered = sortExpensesByDate(append(m.filtered, *created), m.sortOrder)
	m.errMsg = ""
	m.status = StatusReady
	m.mu.Unlock()

	return created.ID, nil
}

// UpdateExpense patches an expense. When the patch can change sort position
// or filter membership the whole list is reloaded; otherwise the record is
// patched in place in both sequences without a round trip.
func (m *ExpenseManager) UpdateExpense(ctx context.Context, id uuid.UUID, patch dto.ExpensePatch) error {
	m.mu.Lock()
	m.status = StatusLoading
	m.mu.Unlock()

	updated, err := m.repo.Update(ctx, id, patch)
	if err != nil {
		m.failMutation(err)
		return err
	}

	if patch.TouchesView() {
		return m.Load(ctx)
	}

	m.mu.Lock()
	replaceExpense(m.all, *updated)
	replaceExpense(m.filtered, *updated)
	m.errMsg = ""
	m.status = StatusReady
	m.mu.Unlock()
	return nil
}

// DeleteExpense removes an expense from the store and then from both
// sequences, without reloading. On failure the record stays visible.
func (m *ExpenseManager) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.status = StatusLoading
	m.mu.Unlock()

	if err := m.repo.Delete(ctx, id); err != nil {
		m.failMutation(err)
		return err
	}

	m.mu.Lock()
	m.all = removeExpense(m.all, id)
	m.filtered = removeExpense(m.filtered, id)
	m.errMsg = ""
	m.status = StatusReady
	m.mu.Unlock()
	return nil
}

// Filter recomputes the derived view from the authoritative sequence:
// inclusive date bounds, category membership, then sort. The requested sort
// order is remembered for subsequent loads and inserts. Pure with respect to
// the authoritative sequence.
func (m *ExpenseManager) Filter(filters models.ExpenseFilters) []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()

	if filters.SortOrder.IsValid() {
		m.sortOrder = filters.SortOrder
	}

	matched := make([]models.Expense, 0, len(m.all))
	for _, e := range m.all {
		if filters.Matches(e) {
			matched = append(matched, e)
		}
	}

	m.filtered = sortExpensesByDate(matched, m.sortOrder)

	out := make([]models.Expense, len(m.filtered))
	copy(out, m.filtered)
	return out
}

// ChangeSortOrder re-sorts only the current derived view, without refetching
// or re-filtering.
func (m *ExpenseManager) ChangeSortOrder(order models.SortOrder) {
	if !order.IsValid() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortOrder = order
	m.filtered = sortExpensesByDate(m.filtered, order)
}

func (m *ExpenseManager) failMutation(err error) {
	m.mu.Lock()
	m.errMsg = err.Error()
	m.status = StatusReady
	m.mu.Unlock()
}

// All returns a copy of the authoritative expense sequence.
func (m *ExpenseManager) All() []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Expense, len(m.all))
	copy(out, m.all)
	return out
}

// Filtered returns a copy of the derived view.
func (m *ExpenseManager) Filtered() []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Expense, len(m.filtered))
	copy(out, m.filtered)
	return out
}

// Expense returns the published expense with the given id.
func (m *ExpenseManager) Expense(id uuid.UUID) (models.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.all {
		if e.ID == id {
			return e, true
		}
	}
	return models.Expense{}, false
}

// SortOrder returns the remembered sort order.
func (m *ExpenseManager) SortOrder() models.SortOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortOrder
}

// Status returns the manager's lifecycle state.
func (m *ExpenseManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the last user-facing failure message, if any.
func (m *ExpenseManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// sortExpensesByDate returns a new slice sorted by the date's underlying
// instant. Ties keep the incoming order (the store's native order).
func sortExpensesByDate(expenses []models.Expense, order models.SortOrder) []models.Expense {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == models.SortAsc {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[j].Date.Before(sorted[i].Date)
	})
	return sorted
}

func replaceExpense(expenses []models.Expense, updated models.Expense) {
	for i := range expenses {
		if expenses[i].ID == updated.ID {
			expenses[i] = updated
			return
		}
	}
}

func removeExpense(expenses []models.Expense, id uuid.UUID) []models.Expense {
	out := expenses[:0:0]
	for _, e := range expenses {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

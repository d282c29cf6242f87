package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/dto"
	"spendtrack/internal/models"
	"spendtrack/internal/repositories"
	"spendtrack/internal/session"
	"spendtrack/internal/store"
)

// Subscriber is the slice of the store contract the managers need for
// change reactivity.
type Subscriber interface {
	Subscribe(collection string, h store.Handler) store.Subscription
}

// AccountManager maintains the authoritative in-memory list of the current
// user's accounts. It enforces the Main Account singleton, self-heals
// duplicates on load, and reloads (coalesced) on any change notification for
// the accounts collection.
type AccountManager struct {
	repo    repositories.AccountRepositoryInterface
	store   Subscriber
	session session.Session
	logger  *slog.Logger

	mu       sync.Mutex
	status   Status
	accounts []models.Account
	errMsg   string
	userID   uuid.UUID

	ctx           context.Context
	coalescer     *reloadCoalescer
	sub           store.Subscription
	cancelSession func()
}

// NewAccountManager creates an account manager. A non-positive window falls
// back to DefaultCoalesceWindow.
func NewAccountManager(
	repo repositories.AccountRepositoryInterface,
	st Subscriber,
	sess session.Session,
	logger *slog.Logger,
	window time.Duration,
) *AccountManager {
	m := &AccountManager{
		repo:    repo,
		store:   st,
		session: sess,
		logger:  logger,
		status:  StatusIdle,
	}
	m.coalescer = newReloadCoalescer(window, m.reload)
	return m
}

// Start wires the manager to the session stream and, when a user is already
// present, performs the initial load and store subscription.
func (m *AccountManager) Start(ctx context.Context) {
	m.ctx = ctx
	m.cancelSession = m.session.OnChange(m.onSessionChange)
	m.onSessionChange(m.session.CurrentUser())
}

// Close tears down subscriptions. The manager must not be used afterwards.
func (m *AccountManager) Close() {
	if m.cancelSession != nil {
		m.cancelSession()
	}
	m.unsubscribe()
	m.coalescer.Close()
}

func (m *AccountManager) onSessionChange(u *session.User) {
	if u == nil {
		m.unsubscribe()
		m.mu.Lock()
		m.userID = uuid.Nil
		m.accounts = nil
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
		m.logger.Error("initial account load failed", "user_id", u.ID, "error", err)
	}
}

func (m *AccountManager) subscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return
	}
	m.sub = m.store.Subscribe(store.CollectionAccounts, func(store.Event) {
		m.coalescer.Trigger()
	})
}

func (m *AccountManager) unsubscribe() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (m *AccountManager) reload() {
	if err := m.Load(m.ctx); err != nil {
		m.logger.Error("account reload failed", "error", err)
	}
}

// Load fetches the user's accounts, self-heals duplicate Main Accounts,
// creates the default Main Account when none exists, and publishes the
// result. A load failure clears the list; the documented exception is the
// Main Account creation race, which gets one retry fetch.
func (m *AccountManager) Load(ctx context.Context) error {
	m.mu.Lock()
	userID := m.userID
	if userID == uuid.Nil {
		m.accounts = nil
		m.status = StatusIdle
		m.mu.Unlock()
		return nil
	}
	m.status = StatusLoading
	m.errMsg = ""
	m.mu.Unlock()

	accounts, err := m.repo.List(ctx, userID)
	if err != nil {
		return m.failLoad(ctx, userID, err)
	}

	accounts = m.cleanupDuplicateMains(ctx, accounts)

	if len(accounts) == 0 {
		if err := m.createMainAccount(ctx, userID); err != nil {
			return m.failLoad(ctx, userID, err)
		}
		accounts, err = m.repo.List(ctx, userID)
		if err != nil {
			return m.failLoad(ctx, userID, err)
		}
	}

	m.publish(userID, accounts)
	return nil
}

// cleanupDuplicateMains keeps the first Main Account in repository order and
// issues best-effort deletes for the rest. Individual delete failures are
// non-fatal.
func (m *AccountManager) cleanupDuplicateMains(ctx context.Context, accounts []models.Account) []models.Account {
	var mains []models.Account
	for _, acc := range accounts {
		if acc.IsMain() {
			mains = append(mains, acc)
		}
	}
	if len(mains) <= 1 {
		return accounts
	}

	canonical := mains[0]
	m.logger.Warn("found duplicate main accounts, cleaning up",
		"count", len(mains)-1, "canonical_id", canonical.ID)

	for _, dup := range mains[1:] {
		if err := m.repo.Delete(ctx, dup.ID); err != nil {
			m.logger.Error("failed to delete duplicate main account",
				"account_id", dup.ID, "error", err)
		}
	}

	cleaned := accounts[:0:0]
	for _, acc := range accounts {
		if !acc.IsMain() || acc.ID == canonical.ID {
			cleaned = append(cleaned, acc)
		}
	}
	return cleaned
}

func (m *AccountManager) createMainAccount(ctx context.Context, userID uuid.UUID) error {
	zero := decimal.Zero
	_, err := m.repo.Create(ctx, dto.AccountDraft{
		Name:     models.MainAccountName,
		Currency: models.CurrencyUSD,
		Balance:  &zero,
		Color:    models.DefaultAccountColor,
		UserID:   userID,
	})
	if err != nil && !apperrors.IsDuplicateMainAccount(err) {
		return err
	}
	return nil
}

// failLoad publishes an Error state, except for the Main Account race which
// is retried once with whatever the retry returns winning.
func (m *AccountManager) failLoad(ctx context.Context, userID uuid.UUID, loadErr error) error {
	if apperrors.IsDuplicateMainAccount(loadErr) {
		m.logger.Info("suppressing main account race during load, retrying fetch", "user_id", userID)
		accounts, err := m.repo.List(ctx, userID)
		if err == nil {
			m.publish(userID, accounts)
			return nil
		}
		loadErr = err
	}

	m.logger.Error("failed to load accounts", "user_id", userID, "error", loadErr)
	m.mu.Lock()
	if m.userID == userID {
		m.accounts = nil
		m.errMsg = loadErr.Error()
		m.status = StatusError
	}
	m.mu.Unlock()
	return loadErr
}

// publish installs a load result, unless the session moved on while the fetch
// was in flight. A stale result must not resurrect a signed-out user's
// accounts or overwrite the next user's.
func (m *AccountManager) publish(userID uuid.UUID, accounts []models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID != userID {
		return
	}
	m.accounts = accounts
	m.errMsg = ""
	m.status = StatusReady
}

// AddAccount creates an account and appends it to the published list. A Main
// Account duplicate — detected locally or by the repository — reconciles by
// reloading and returning the id of whichever Main Account survived.
func (m *AccountManager) AddAccount(ctx context.Context, draft dto.AccountDraft) (uuid.UUID, error) {
	m.mu.Lock()
	draft.UserID = m.userID
	duplicate := draft.Name == models.MainAccountName && m.findMainLocked() != nil
	m.status = StatusLoading
	m.mu.Unlock()

	if duplicate {
		return m.recoverDuplicateMain(ctx)
	}

	created, err := m.repo.Create(ctx, draft)
	if err != nil {
		if apperrors.IsDuplicateMainAccount(err) {
			return m.recoverDuplicateMain(ctx)
		}
		m.failMutation(err)
		return uuid.Nil, err
	}

	m.mu.Lock()
	m.accounts = append(m.accounts, *created)
	m.errMsg = ""
	m.status = StatusReady
	m.mu.Unlock()

	return created.ID, nil
}

// recoverDuplicateMain reloads the list and returns the id of the Main
// Account now present.
func (m *AccountManager) recoverDuplicateMain(ctx context.Context) (uuid.UUID, error) {
	m.logger.Info("main account already exists, reconciling by reload")
	if err := m.Load(ctx); err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if main := m.findMainLocked(); main != nil {
		return main.ID, nil
	}

	err := apperrors.NewAppError(apperrors.AccountNotFound, apperrors.ErrNotFound,
		"no Main Account found after reconciliation")
	m.errMsg = err.Message
	return uuid.Nil, err
}

// UpdateAccount patches an account and reloads the full list. Balance
// mutations are frequent and must never drift, so every update round-trips.
func (m *AccountManager) UpdateAccount(ctx context.Context, id uuid.UUID, patch dto.AccountPatch) error {
	m.mu.Lock()
	var collision bool
	if patch.Name != nil && *patch.Name == models.MainAccountName {
		if main := m.findMainLocked(); main != nil && main.ID != id {
			collision = true
		}
	}
	if collision {
		err := apperrors.NewAppError(apperrors.AccountDuplicateMain, apperrors.ErrDuplicateMainAccount, "")
		m.errMsg = err.Message
		m.mu.Unlock()
		return err
	}
	m.status = StatusLoading
	m.mu.Unlock()

	if _, err := m.repo.Update(ctx, id, patch); err != nil {
		m.failMutation(err)
		return err
	}

	return m.Load(ctx)
}

// DeleteAccount removes an account and reloads. The Main Account is never
// deletable, regardless of balance or linked expenses.
func (m *AccountManager) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	for i := range m.accounts {
		if m.accounts[i].ID == id && m.accounts[i].IsMain() {
			err := apperrors.NewAppError(apperrors.AccountProtected, apperrors.ErrProtectedAccount, "")
			m.errMsg = err.Message
			m.mu.Unlock()
			return err
		}
	}
	m.status = StatusLoading
	m.mu.Unlock()

	if err := m.repo.Delete(ctx, id); err != nil {
		m.failMutation(err)
		return err
	}

	return m.Load(ctx)
}

// failMutation surfaces a mutation failure without discarding the mirror.
func (m *AccountManager) failMutation(err error) {
	m.mu.Lock()
	m.errMsg = err.Error()
	m.status = StatusReady
	m.mu.Unlock()
}

func (m *AccountManager) findMainLocked() *models.Account {
	for i := range m.accounts {
		if m.accounts[i].IsMain() {
			return &m.accounts[i]
		}
	}
	return nil
}

// Accounts returns a copy of the published account list.
func (m *AccountManager) Accounts() []models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// Account returns the published account with the given id.
func (m *AccountManager) Account(id uuid.UUID) (models.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return models.Account{}, false
}

// Status returns the manager's lifecycle state.
func (m *AccountManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the last user-facing failure message, if any.
func (m *AccountManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

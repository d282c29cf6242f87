package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"spendtrack/internal/config"
	"spendtrack/internal/database"
	"spendtrack/internal/repositories"
	"spendtrack/internal/services"
	"spendtrack/internal/session"
	"spendtrack/internal/state"
	"spendtrack/internal/store"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("spendtrack exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	client := store.NewInstrumentedClient(store.NewGormClient(db.DB), prometheus.DefaultRegisterer)

	sess, err := buildSession(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	accountRepo := repositories.NewAccountRepository(client, logger)
	expenseRepo := repositories.NewExpenseRepository(client, logger)

	accounts := state.NewAccountManager(accountRepo, client, sess, logger, cfg.App.CoalesceWindow)
	expenses := state.NewExpenseManager(expenseRepo, client, sess, logger, cfg.App.CoalesceWindow)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts.Start(ctx)
	defer accounts.Close()
	expenses.Start(ctx)
	defer expenses.Close()

	summary := services.NewSummaryService()

	printSnapshot(logger, accounts, expenses, summary)

	logger.Info("spendtrack running, press ctrl-c to exit")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// buildSession verifies the configured access token when one is present,
// otherwise falls back to an anonymous in-memory session signed in as a
// throwaway local user.
func buildSession(cfg *config.Config, logger *slog.Logger) (session.Session, error) {
	if cfg.Auth.AccessToken != "" {
		sess, err := session.FromAccessToken(cfg.Auth.AccessToken, []byte(cfg.Auth.JWTSecret))
		if err != nil {
			return nil, err
		}
		logger.Info("authenticated session established", "user_id", sess.CurrentUser().ID)
		return sess, nil
	}

	sess := session.NewMemorySession()
	sess.SetUser(&session.User{ID: uuid.New(), Email: "local@spendtrack.dev"})
	logger.Warn("no access token configured, using local anonymous session")
	return sess, nil
}

func printSnapshot(logger *slog.Logger, accounts *state.AccountManager, expenses *state.ExpenseManager, summary services.SummaryServiceInterface) {
	accs := accounts.Accounts()
	exps := expenses.All()

	logger.Info("state loaded",
		"accounts", len(accs),
		"expenses", len(exps),
		"total_balance_usd", summary.TotalBalanceUSD(accs).StringFixed(2))

	for _, cs := range summary.CategoryTotals(exps) {
		logger.Info("category total",
			"category", cs.Category,
			"total", cs.Total.StringFixed(2),
			"count", cs.Count)
	}
}

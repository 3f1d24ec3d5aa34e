package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
)

// RegistryUseCase manages the account registry: seeding balance entries and
// reading balances back out. The posting engine refuses to touch an unseeded
// (identity, account) pair, so seeding is part of deployment configuration.
type RegistryUseCase struct {
	engine   *PostingEngine
	balances BalanceRepository
	postings PostingRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewRegistryUseCase creates a new RegistryUseCase.
func NewRegistryUseCase(engine *PostingEngine, balances BalanceRepository, postings PostingRepository, m *metrics.Metrics, logger zerolog.Logger) *RegistryUseCase {
	return &RegistryUseCase{
		engine:   engine,
		balances: balances,
		postings: postings,
		metrics:  m,
		logger:   logger.With().Str("component", "registry").Logger(),
	}
}

// SeedBalance creates zero-valued balance entries for (identity, account) and
// for the global account. Existing entries are left untouched, so seeding is
// idempotent and can never clobber a live balance.
func (uc *RegistryUseCase) SeedBalance(ctx context.Context, identity string, account domain.Account) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	_, ok, err := uc.balances.Balance(ctx, identity, account)
	if err != nil {
		return err
	}
	if !ok {
		if err := uc.balances.SetBalance(ctx, identity, account, decimal.Zero); err != nil {
			return err
		}
		if uc.metrics != nil {
			uc.metrics.BalancesSeeded.Inc()
		}
	}

	_, ok, err = uc.balances.GlobalBalance(ctx, account)
	if err != nil {
		return err
	}
	if !ok {
		if err := uc.balances.SetGlobalBalance(ctx, account, decimal.Zero); err != nil {
			return err
		}
	}

	uc.logger.Debug().Str("identity", identity).Str("account", account.String()).Msg("balance seeded")

	return nil
}

// SeedEscrowRecipes seeds every chart account the built-in escrow and fee
// recipes post to, for both parties and the custodial identity.
func (uc *RegistryUseCase) SeedEscrowRecipes(ctx context.Context, identities ...string) error {
	recipeAccounts := []domain.Account{
		domain.AccountFunctionalCurrency,
		domain.AccountPrefundingDeposit,
		domain.AccountReceivable,
		domain.AccountPayable,
		domain.AccountSalesRevenue,
		domain.AccountLabourExpense,
		domain.AccountTransactionFees,
		domain.AccountSalesLedger,
		domain.AccountInternalLedger,
		domain.AccountPurchaseLedger,
		domain.AccountSalesControl,
		domain.AccountInternalControl,
		domain.AccountPurchaseControl,
	}

	identities = append(identities, EscrowAccountID)
	for _, identity := range identities {
		for _, account := range recipeAccounts {
			if err := uc.SeedBalance(ctx, identity, account); err != nil {
				return err
			}
		}
	}
	return nil
}

// Balance returns the current balance for (identity, account).
func (uc *RegistryUseCase) Balance(ctx context.Context, identity string, account domain.Account) (decimal.Decimal, error) {
	balance, ok, err := uc.balances.Balance(ctx, identity, account)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return decimal.Decimal{}, domain.ErrBalanceNotSeeded
	}
	return balance, nil
}

// GlobalBalance returns the ledger-wide balance for an account.
func (uc *RegistryUseCase) GlobalBalance(ctx context.Context, account domain.Account) (decimal.Decimal, error) {
	balance, ok, err := uc.balances.GlobalBalance(ctx, account)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return decimal.Decimal{}, domain.ErrGlobalBalanceNotSeeded
	}
	return balance, nil
}

// AccountsByIdentity lists the accounts an identity has ever posted to, most
// recently touched last.
func (uc *RegistryUseCase) AccountsByIdentity(ctx context.Context, identity string) ([]domain.Account, error) {
	return uc.balances.AccountsByIdentity(ctx, identity)
}

// PostingIndexes lists the posting indices recorded for (identity, account).
func (uc *RegistryUseCase) PostingIndexes(ctx context.Context, identity string, account domain.Account) ([]domain.PostingIndex, error) {
	return uc.postings.Indexes(ctx, identity, account)
}

// PostingDetail returns the audit record for one applied leg.
func (uc *RegistryUseCase) PostingDetail(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) (*domain.PostingRecord, error) {
	return uc.postings.Record(ctx, identity, account, index)
}

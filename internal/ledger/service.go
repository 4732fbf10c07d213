// Package ledger implements the mutation service for the CRED market: pool
// creation, swaps, and liquidity changes applied as single atomic transitions
// across wallet balances, token holdings, pool reserves, LP positions, and
// the audit trail.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/amm"
	"github.com/voltlabs/credmarket/internal/logger"
	"github.com/voltlabs/credmarket/internal/metrics"
	"github.com/voltlabs/credmarket/internal/models"
	"github.com/voltlabs/credmarket/internal/store"
)

// Service orchestrates ledger mutations. The store runner is injected so the
// service carries no global state and tests can hand it an in-memory store.
type Service struct {
	runner *store.Runner
	logger zerolog.Logger
}

// NewService builds a ledger service on top of the given transaction runner.
func NewService(runner *store.Runner, logger zerolog.Logger) *Service {
	return &Service{
		runner: runner,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// inTx runs one mutation operation as a single transaction, recording its
// latency and mapping exhausted conflict retries into the error taxonomy.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	err := s.runner.RunInTx(ctx, fn)
	metrics.ObserveLedgerTx(op, time.Since(start).Seconds())
	if errors.Is(err, store.ErrConflict) {
		lg := logger.WithOp(s.logger, op)
		lg.Warn().Err(err).Msg("commit conflicted after retries")
		return newError(KindStoreConflict, "ledger commit conflicted after retries; safe to re-issue")
	}
	return err
}

// parseAmount converts a textual amount and enforces strict positivity before
// any storage read happens.
func parseAmount(value, field string) (decimal.Decimal, error) {
	d, err := amm.Parse(value)
	if err != nil {
		return decimal.Decimal{}, newError(KindInvalidInput, "%s: %s", field, err)
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, newError(KindInvalidInput, "%s must be positive", field)
	}
	return d, nil
}

func getWallet(tx *gorm.DB, walletID uint) (models.Wallet, error) {
	var wallet models.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Wallet{}, newError(KindWalletNotFound, "wallet %d not found", walletID)
		}
		return models.Wallet{}, err
	}
	return wallet, nil
}

func getPool(tx *gorm.DB, poolID uint) (models.LiquidityPool, error) {
	var pool models.LiquidityPool
	if err := tx.Preload("VentureToken").First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LiquidityPool{}, newError(KindPoolNotFound, "pool %d not found", poolID)
		}
		return models.LiquidityPool{}, err
	}
	return pool, nil
}

// getHolding returns the wallet's holding row for a token, or HoldingNotFound.
func getHolding(tx *gorm.DB, walletID, tokenID uint) (models.TokenHolding, error) {
	var holding models.TokenHolding
	err := tx.Where("wallet_id = ? AND token_id = ?", walletID, tokenID).First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TokenHolding{}, newError(KindHoldingNotFound, "wallet %d holds no token %d", walletID, tokenID)
		}
		return models.TokenHolding{}, err
	}
	return holding, nil
}

// creditHolding adds amount to the wallet's holding, creating the row on the
// wallet's first acquisition of the token. Explicit read-then-branch inside
// the surrounding transaction, no store-specific upsert.
func creditHolding(tx *gorm.DB, walletID, tokenID uint, amount decimal.Decimal) error {
	holding, err := getHolding(tx, walletID, tokenID)
	if err != nil {
		if !errors.Is(err, ErrHoldingNotFound) {
			return err
		}
		return tx.Create(&models.TokenHolding{
			WalletID: walletID,
			TokenID:  tokenID,
			Amount:   amount,
		}).Error
	}
	return tx.Model(&models.TokenHolding{}).
		Where("id = ?", holding.ID).
		Update("amount", holding.Amount.Add(amount)).Error
}

func setWalletBalance(tx *gorm.DB, walletID uint, balance decimal.Decimal) error {
	return tx.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("cred_balance", balance).Error
}

package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/amm"
	"github.com/voltlabs/credmarket/internal/logger"
	"github.com/voltlabs/credmarket/internal/metrics"
	"github.com/voltlabs/credmarket/internal/models"
)

// ratioTolerance is the allowed deviation of a deposit from the pool ratio:
// 0.1% of the expected token amount, hard reject beyond it.
var ratioTolerance = decimal.NewFromFloat(0.001)

// LiquidityInput is a ratio-matched deposit of both assets.
type LiquidityInput struct {
	PoolID      uint
	WalletID    uint
	CredAmount  string
	TokenAmount string
}

// AddLiquidityReceipt reports the minted position.
type AddLiquidityReceipt struct {
	PositionID   uint   `json:"positionId"`
	MintedShares string `json:"mintedShares"`
}

// RemoveLiquidityInput burns shares from the wallet's position.
type RemoveLiquidityInput struct {
	PoolID   uint
	WalletID uint
	Shares   string
}

// RemoveLiquidityReceipt reports the released reserve amounts.
type RemoveLiquidityReceipt struct {
	CredOut  string `json:"credOut"`
	TokenOut string `json:"tokenOut"`
}

// AddLiquidity deposits both assets at the pool's current ratio and mints LP
// shares. Deposits deviating more than 0.1% from the ratio are rejected with
// no state change.
func (s *Service) AddLiquidity(ctx context.Context, in LiquidityInput) (AddLiquidityReceipt, error) {
	credAmount, err := parseAmount(in.CredAmount, "credAmount")
	if err != nil {
		metrics.RecordLiquidityEvent("add", "failed")
		return AddLiquidityReceipt{}, err
	}
	tokenAmount, err := parseAmount(in.TokenAmount, "tokenAmount")
	if err != nil {
		metrics.RecordLiquidityEvent("add", "failed")
		return AddLiquidityReceipt{}, err
	}

	var receipt AddLiquidityReceipt
	err = s.inTx(ctx, "add_liquidity", func(tx *gorm.DB) error {
		pool, err := getPool(tx, in.PoolID)
		if err != nil {
			return err
		}
		wallet, err := getWallet(tx, in.WalletID)
		if err != nil {
			return err
		}
		if wallet.CredBalance.LessThan(credAmount) {
			return newError(KindInsufficientFunds,
				"wallet %d holds %s CRED, deposit needs %s", wallet.ID, wallet.CredBalance, credAmount)
		}

		holding, err := getHolding(tx, wallet.ID, pool.VentureTokenID)
		if err != nil {
			return err
		}
		if holding.Amount.LessThan(tokenAmount) {
			return newError(KindInsufficientTokenBalance,
				"wallet %d holds %s tokens, deposit needs %s", wallet.ID, holding.Amount, tokenAmount)
		}

		if pool.CredReserve.IsZero() {
			return newError(KindInvalidPoolState, "pool %d has no CRED reserve", pool.ID)
		}
		expectedToken := credAmount.Mul(pool.TokenReserve).Div(pool.CredReserve)
		tolerance := expectedToken.Mul(ratioTolerance)
		if tokenAmount.Sub(expectedToken).Abs().GreaterThan(tolerance) {
			return newError(KindRatioMismatch,
				"deposit of %s tokens deviates from pool ratio (expected %s ± %s)", tokenAmount, expectedToken, tolerance)
		}

		minted, err := amm.SharesForDeposit(credAmount, tokenAmount, pool.TotalShares, pool.CredReserve, pool.TokenReserve)
		if err != nil {
			return mathError(err)
		}

		if err := setWalletBalance(tx, wallet.ID, wallet.CredBalance.Sub(credAmount)); err != nil {
			return err
		}
		if err := tx.Model(&models.TokenHolding{}).
			Where("id = ?", holding.ID).
			Update("amount", holding.Amount.Sub(tokenAmount)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.LiquidityPool{}).Where("id = ?", pool.ID).Updates(map[string]any{
			"cred_reserve":  pool.CredReserve.Add(credAmount),
			"token_reserve": pool.TokenReserve.Add(tokenAmount),
			"total_shares":  pool.TotalShares.Add(minted),
		}).Error; err != nil {
			return err
		}

		// Create-or-increment as an explicit read-then-branch inside the tx.
		position, err := getPosition(tx, pool.ID, wallet.ID)
		if err != nil {
			if !errors.Is(err, ErrPositionNotFound) {
				return err
			}
			position = models.LiquidityPosition{
				PoolID:   pool.ID,
				WalletID: wallet.ID,
				Shares:   minted,
			}
			if err := tx.Create(&position).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.LiquidityPosition{}).
				Where("id = ?", position.ID).
				Update("shares", position.Shares.Add(minted)).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&models.LiquidityEvent{
			PoolID:     pool.ID,
			WalletID:   wallet.ID,
			Kind:       models.LiquidityEventAdd,
			Shares:     minted,
			CredDelta:  credAmount,
			TokenDelta: tokenAmount,
		}).Error; err != nil {
			return err
		}

		receipt = AddLiquidityReceipt{
			PositionID:   position.ID,
			MintedShares: minted.String(),
		}
		return nil
	})
	if err != nil {
		metrics.RecordLiquidityEvent("add", "failed")
		return AddLiquidityReceipt{}, err
	}

	metrics.RecordLiquidityEvent("add", "success")
	lg := logger.WithPool(logger.WithWallet(s.logger, in.WalletID), in.PoolID)
	lg.Info().
		Str("minted_shares", receipt.MintedShares).
		Msg("liquidity added")
	return receipt, nil
}

// RemoveLiquidity burns shares and releases the pro-rata reserve amounts.
// Burning a position to exactly zero deletes the row.
func (s *Service) RemoveLiquidity(ctx context.Context, in RemoveLiquidityInput) (RemoveLiquidityReceipt, error) {
	shares, err := parseAmount(in.Shares, "shares")
	if err != nil {
		metrics.RecordLiquidityEvent("remove", "failed")
		return RemoveLiquidityReceipt{}, err
	}

	var receipt RemoveLiquidityReceipt
	err = s.inTx(ctx, "remove_liquidity", func(tx *gorm.DB) error {
		pool, err := getPool(tx, in.PoolID)
		if err != nil {
			return err
		}
		wallet, err := getWallet(tx, in.WalletID)
		if err != nil {
			return err
		}

		position, err := getPosition(tx, pool.ID, wallet.ID)
		if err != nil {
			return err
		}
		if position.Shares.LessThan(shares) {
			return newError(KindInsufficientShares,
				"position holds %s shares, burn requested %s", position.Shares, shares)
		}

		credOut, tokenOut, err := amm.WithdrawalForShares(shares, pool.TotalShares, pool.CredReserve, pool.TokenReserve)
		if err != nil {
			return mathError(err)
		}

		remaining := position.Shares.Sub(shares)
		if remaining.IsZero() {
			if err := tx.Unscoped().Delete(&models.LiquidityPosition{}, position.ID).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.LiquidityPosition{}).
				Where("id = ?", position.ID).
				Update("shares", remaining).Error; err != nil {
				return err
			}
		}

		if err := setWalletBalance(tx, wallet.ID, wallet.CredBalance.Add(credOut)); err != nil {
			return err
		}
		if err := creditHolding(tx, wallet.ID, pool.VentureTokenID, tokenOut); err != nil {
			return err
		}
		if err := tx.Model(&models.LiquidityPool{}).Where("id = ?", pool.ID).Updates(map[string]any{
			"cred_reserve":  pool.CredReserve.Sub(credOut),
			"token_reserve": pool.TokenReserve.Sub(tokenOut),
			"total_shares":  pool.TotalShares.Sub(shares),
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.LiquidityEvent{
			PoolID:     pool.ID,
			WalletID:   wallet.ID,
			Kind:       models.LiquidityEventRemove,
			Shares:     shares,
			CredDelta:  credOut,
			TokenDelta: tokenOut,
		}).Error; err != nil {
			return err
		}

		receipt = RemoveLiquidityReceipt{
			CredOut:  credOut.String(),
			TokenOut: tokenOut.String(),
		}
		return nil
	})
	if err != nil {
		metrics.RecordLiquidityEvent("remove", "failed")
		return RemoveLiquidityReceipt{}, err
	}

	metrics.RecordLiquidityEvent("remove", "success")
	lg := logger.WithPool(logger.WithWallet(s.logger, in.WalletID), in.PoolID)
	lg.Info().
		Str("cred_out", receipt.CredOut).
		Str("token_out", receipt.TokenOut).
		Msg("liquidity removed")
	return receipt, nil
}

func getPosition(tx *gorm.DB, poolID, walletID uint) (models.LiquidityPosition, error) {
	var position models.LiquidityPosition
	err := tx.Where("pool_id = ? AND wallet_id = ?", poolID, walletID).First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LiquidityPosition{}, newError(KindPositionNotFound,
				"wallet %d has no liquidity in pool %d", walletID, poolID)
		}
		return models.LiquidityPosition{}, err
	}
	return position, nil
}

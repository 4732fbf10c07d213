package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/amm"
	"github.com/voltlabs/credmarket/internal/logger"
	"github.com/voltlabs/credmarket/internal/metrics"
	"github.com/voltlabs/credmarket/internal/models"
)

const (
	defaultTradePageSize = 50
	maxTradePageSize     = 200
)

// TradeInput identifies one swap request. Amount is a decimal string: CRED in
// for buys, tokens in for sells.
type TradeInput struct {
	PoolID   uint
	WalletID uint
	Amount   string
}

// TradeReceipt reports the settled outcome of one swap, decimals serialized
// as strings.
type TradeReceipt struct {
	TradeID         uint   `json:"tradeId"`
	Side            string `json:"side"`
	CredDelta       string `json:"credDelta"`
	TokenDelta      string `json:"tokenDelta"`
	FeePaid         string `json:"feePaid"`
	PriceImpact     string `json:"priceImpact"`
	SpotPriceBefore string `json:"spotPriceBefore"`
	SpotPriceAfter  string `json:"spotPriceAfter"`
}

// BuyTokens swaps CRED for pool tokens. The outcome is computed against the
// reserve snapshot read inside the transaction, so a conflicting concurrent
// commit forces a retry against fresh reserves rather than settling stale.
func (s *Service) BuyTokens(ctx context.Context, in TradeInput) (TradeReceipt, error) {
	credAmount, err := parseAmount(in.Amount, "credAmount")
	if err != nil {
		metrics.RecordTrade("buy", "failed")
		return TradeReceipt{}, err
	}

	var receipt TradeReceipt
	err = s.inTx(ctx, "buy_tokens", func(tx *gorm.DB) error {
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
				"wallet %d holds %s CRED, trade needs %s", wallet.ID, wallet.CredBalance, credAmount)
		}

		trade, err := amm.ComputeBuyTrade(credAmount, pool.CredReserve, pool.TokenReserve, pool.FeeBasisPoints)
		if err != nil {
			return mathError(err)
		}

		if err := setWalletBalance(tx, wallet.ID, wallet.CredBalance.Sub(credAmount)); err != nil {
			return err
		}
		if err := creditHolding(tx, wallet.ID, pool.VentureTokenID, trade.TokensDelta); err != nil {
			return err
		}
		if err := tx.Model(&models.LiquidityPool{}).Where("id = ?", pool.ID).Updates(map[string]any{
			"cred_reserve":  trade.NewCredReserve,
			"token_reserve": trade.NewTokenReserve,
		}).Error; err != nil {
			return err
		}

		record := models.Trade{
			PoolID:     pool.ID,
			WalletID:   wallet.ID,
			Side:       models.TradeSideBuy,
			CredDelta:  trade.CredDelta,
			TokenDelta: trade.TokensDelta,
			Price:      trade.SpotPriceAfter,
			FeePaid:    trade.FeePaid,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		receipt = tradeReceipt(record.ID, trade, models.TradeSideBuy)
		return nil
	})
	if err != nil {
		metrics.RecordTrade("buy", "failed")
		return TradeReceipt{}, err
	}

	metrics.RecordTrade("buy", "success")
	lg := logger.WithPool(logger.WithWallet(s.logger, in.WalletID), in.PoolID)
	lg.Info().
		Str("cred_delta", receipt.CredDelta).
		Str("token_delta", receipt.TokenDelta).
		Str("fee_paid", receipt.FeePaid).
		Msg("buy settled")
	return receipt, nil
}

// SellTokens swaps pool tokens back into CRED.
func (s *Service) SellTokens(ctx context.Context, in TradeInput) (TradeReceipt, error) {
	tokenAmount, err := parseAmount(in.Amount, "tokenAmount")
	if err != nil {
		metrics.RecordTrade("sell", "failed")
		return TradeReceipt{}, err
	}

	var receipt TradeReceipt
	err = s.inTx(ctx, "sell_tokens", func(tx *gorm.DB) error {
		pool, err := getPool(tx, in.PoolID)
		if err != nil {
			return err
		}
		wallet, err := getWallet(tx, in.WalletID)
		if err != nil {
			return err
		}

		holding, err := getHolding(tx, wallet.ID, pool.VentureTokenID)
		if err != nil {
			return err
		}
		if holding.Amount.LessThan(tokenAmount) {
			return newError(KindInsufficientTokenBalance,
				"wallet %d holds %s tokens, trade needs %s", wallet.ID, holding.Amount, tokenAmount)
		}

		trade, err := amm.ComputeSellTrade(tokenAmount, pool.CredReserve, pool.TokenReserve, pool.FeeBasisPoints)
		if err != nil {
			return mathError(err)
		}

		if err := setWalletBalance(tx, wallet.ID, wallet.CredBalance.Add(trade.CredDelta)); err != nil {
			return err
		}
		if err := tx.Model(&models.TokenHolding{}).
			Where("id = ?", holding.ID).
			Update("amount", holding.Amount.Sub(tokenAmount)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.LiquidityPool{}).Where("id = ?", pool.ID).Updates(map[string]any{
			"cred_reserve":  trade.NewCredReserve,
			"token_reserve": trade.NewTokenReserve,
		}).Error; err != nil {
			return err
		}

		record := models.Trade{
			PoolID:     pool.ID,
			WalletID:   wallet.ID,
			Side:       models.TradeSideSell,
			CredDelta:  trade.CredDelta,
			TokenDelta: trade.TokensDelta,
			Price:      trade.SpotPriceAfter,
			FeePaid:    trade.FeePaid,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		receipt = tradeReceipt(record.ID, trade, models.TradeSideSell)
		return nil
	})
	if err != nil {
		metrics.RecordTrade("sell", "failed")
		return TradeReceipt{}, err
	}

	metrics.RecordTrade("sell", "success")
	lg := logger.WithPool(logger.WithWallet(s.logger, in.WalletID), in.PoolID)
	lg.Info().
		Str("cred_delta", receipt.CredDelta).
		Str("token_delta", receipt.TokenDelta).
		Str("fee_paid", receipt.FeePaid).
		Msg("sell settled")
	return receipt, nil
}

func tradeReceipt(id uint, trade amm.TradeResult, side models.TradeSide) TradeReceipt {
	return TradeReceipt{
		TradeID:         id,
		Side:            string(side),
		CredDelta:       trade.CredDelta.String(),
		TokenDelta:      trade.TokensDelta.String(),
		FeePaid:         trade.FeePaid.String(),
		PriceImpact:     trade.PriceImpact.String(),
		SpotPriceBefore: trade.SpotPriceBefore.String(),
		SpotPriceAfter:  trade.SpotPriceAfter.String(),
	}
}

// ListTrades returns the pool's most recent trades, newest first, joined with
// the acting wallet's display identity. The page size is capped.
func (s *Service) ListTrades(ctx context.Context, poolID uint, limit int) ([]TradeView, error) {
	if limit <= 0 {
		limit = defaultTradePageSize
	}
	if limit > maxTradePageSize {
		limit = maxTradePageSize
	}

	var trades []models.Trade
	err := s.runner.DB().WithContext(ctx).
		Preload("Wallet").
		Where("pool_id = ?", poolID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	views := make([]TradeView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, formatTrade(trade))
	}
	return views, nil
}

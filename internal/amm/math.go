// Package amm implements the constant-product market-maker math engine.
// Every function here is pure: decimal inputs, decimal outputs, no storage.
package amm

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeResult is the deterministic outcome of one swap against a pool.
// TokensDelta and CredDelta are signed from the trading wallet's perspective.
type TradeResult struct {
	TokensDelta     decimal.Decimal
	CredDelta       decimal.Decimal
	FeePaid         decimal.Decimal
	SpotPriceBefore decimal.Decimal
	SpotPriceAfter  decimal.Decimal
	PriceImpact     decimal.Decimal
	NewCredReserve  decimal.Decimal
	NewTokenReserve decimal.Decimal
}

func feeAdjusted(amount decimal.Decimal, feeBps int) (afterFee, feePaid decimal.Decimal, err error) {
	if feeBps < 0 || feeBps >= 10000 {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: fee basis points %d out of range", ErrInvalidInput, feeBps)
	}
	feeFactor := basisPoints.Sub(decimal.NewFromInt(int64(feeBps))).Div(basisPoints)
	afterFee = amount.Mul(feeFactor)
	return afterFee, amount.Sub(afterFee), nil
}

// priceImpact is |spotAfter - spotBefore| / spotBefore, zero whenever a token
// reserve is zero on either side of the trade (guards division by zero).
func priceImpact(oldCred, oldToken, newCred, newToken decimal.Decimal) decimal.Decimal {
	if oldToken.IsZero() || newToken.IsZero() {
		return decimal.Decimal{}
	}
	oldPrice := oldCred.Div(oldToken)
	newPrice := newCred.Div(newToken)
	return newPrice.Sub(oldPrice).Div(oldPrice).Abs()
}

// ComputeBuyTrade prices a CRED-in, tokens-out swap. The fee is taken from the
// input; the full credIn still enters the reserve, so the constant product
// strictly grows for any positive fee.
func ComputeBuyTrade(credIn, credReserve, tokenReserve decimal.Decimal, feeBps int) (TradeResult, error) {
	if credIn.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: cred input %s must be positive", ErrInvalidInput, credIn)
	}
	if credReserve.Sign() <= 0 || tokenReserve.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: pool reserves must be positive", ErrInvalidInput)
	}

	afterFee, feePaid, err := feeAdjusted(credIn, feeBps)
	if err != nil {
		return TradeResult{}, err
	}
	tokensOut := afterFee.Mul(tokenReserve).Div(credReserve.Add(afterFee))
	if tokensOut.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: token output %s", ErrNonPositiveOutput, tokensOut)
	}
	newCredReserve := credReserve.Add(credIn)
	newTokenReserve := tokenReserve.Sub(tokensOut)

	return TradeResult{
		TokensDelta:     tokensOut,
		CredDelta:       credIn.Neg(),
		FeePaid:         feePaid,
		SpotPriceBefore: credReserve.Div(tokenReserve),
		SpotPriceAfter:  newCredReserve.Div(newTokenReserve),
		PriceImpact:     priceImpact(credReserve, tokenReserve, newCredReserve, newTokenReserve),
		NewCredReserve:  newCredReserve,
		NewTokenReserve: newTokenReserve,
	}, nil
}

// ComputeSellTrade prices a tokens-in, CRED-out swap; the mirror image of
// ComputeBuyTrade with the asset roles swapped.
func ComputeSellTrade(tokenIn, credReserve, tokenReserve decimal.Decimal, feeBps int) (TradeResult, error) {
	if tokenIn.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: token input %s must be positive", ErrInvalidInput, tokenIn)
	}
	if credReserve.Sign() <= 0 || tokenReserve.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: pool reserves must be positive", ErrInvalidInput)
	}

	afterFee, feePaid, err := feeAdjusted(tokenIn, feeBps)
	if err != nil {
		return TradeResult{}, err
	}
	credOut := afterFee.Mul(credReserve).Div(tokenReserve.Add(afterFee))
	if credOut.Sign() <= 0 {
		return TradeResult{}, fmt.Errorf("%w: cred output %s", ErrNonPositiveOutput, credOut)
	}
	newCredReserve := credReserve.Sub(credOut)
	newTokenReserve := tokenReserve.Add(tokenIn)

	return TradeResult{
		TokensDelta:     tokenIn.Neg(),
		CredDelta:       credOut,
		FeePaid:         feePaid,
		SpotPriceBefore: credReserve.Div(tokenReserve),
		SpotPriceAfter:  newCredReserve.Div(newTokenReserve),
		PriceImpact:     priceImpact(credReserve, tokenReserve, newCredReserve, newTokenReserve),
		NewCredReserve:  newCredReserve,
		NewTokenReserve: newTokenReserve,
	}, nil
}

// SharesForDeposit computes LP shares minted for a deposit. The first deposit
// bootstraps the share unit as sqrt(cred*token); later deposits mint the
// minimum of what each side supports, which penalizes off-ratio deposits.
func SharesForDeposit(credAmount, tokenAmount, totalShares, credReserve, tokenReserve decimal.Decimal) (decimal.Decimal, error) {
	if credAmount.Sign() <= 0 || tokenAmount.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: deposit amounts must be positive", ErrInvalidInput)
	}

	if totalShares.IsZero() {
		return Sqrt(credAmount.Mul(tokenAmount))
	}

	if credReserve.IsZero() || tokenReserve.IsZero() {
		return decimal.Decimal{}, ErrZeroReserveWithShares
	}

	sharesFromCred := credAmount.Mul(totalShares).Div(credReserve)
	sharesFromToken := tokenAmount.Mul(totalShares).Div(tokenReserve)
	return decimal.Min(sharesFromCred, sharesFromToken), nil
}

// WithdrawalForShares computes the pro-rata reserve amounts released by
// burning sharesToBurn. No fee applies to withdrawals.
func WithdrawalForShares(sharesToBurn, totalShares, credReserve, tokenReserve decimal.Decimal) (credOut, tokenOut decimal.Decimal, err error) {
	if sharesToBurn.Sign() <= 0 {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: shares to burn must be positive", ErrInvalidInput)
	}
	if totalShares.Sign() <= 0 {
		return decimal.Decimal{}, decimal.Decimal{}, ErrNoLiquidity
	}

	shareRatio := sharesToBurn.Div(totalShares)
	return credReserve.Mul(shareRatio), tokenReserve.Mul(shareRatio), nil
}

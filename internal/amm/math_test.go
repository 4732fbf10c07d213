package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return MustParse(value)
}

func TestComputeBuyTradeSeededScenario(t *testing.T) {
	// Pool seeded 50000 CRED / 200000 tokens, 30 bps fee, buy with 1000 CRED.
	result, err := ComputeBuyTrade(d("1000"), d("50000"), d("200000"), 30)
	require.NoError(t, err)

	assert.True(t, result.FeePaid.Equal(d("3")), "feePaid = %s, want 3", result.FeePaid)
	assert.True(t, result.TokensDelta.GreaterThan(d("3900")), "tokensOut = %s", result.TokensDelta)
	assert.True(t, result.TokensDelta.LessThan(d("3920")), "tokensOut = %s", result.TokensDelta)
	assert.True(t, result.NewCredReserve.Equal(d("51000")), "newCredReserve = %s", result.NewCredReserve)
	assert.True(t, result.NewTokenReserve.Equal(d("200000").Sub(result.TokensDelta)))
	assert.True(t, result.CredDelta.Equal(d("-1000")))
	assert.True(t, result.SpotPriceBefore.Equal(d("0.25")))
	assert.True(t, result.SpotPriceAfter.GreaterThan(result.SpotPriceBefore))
	assert.True(t, result.PriceImpact.GreaterThan(decimal.Zero))
}

func TestComputeBuyTradeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name         string
		credIn       string
		credReserve  string
		tokenReserve string
		feeBps       int
	}{
		{"zero input", "0", "50000", "200000", 30},
		{"negative input", "-10", "50000", "200000", 30},
		{"zero cred reserve", "1000", "0", "200000", 30},
		{"zero token reserve", "1000", "50000", "0", 30},
		{"both reserves zero", "1000", "0", "0", 30},
		{"fee out of range", "1000", "50000", "200000", 10000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeBuyTrade(d(tc.credIn), d(tc.credReserve), d(tc.tokenReserve), tc.feeBps)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestComputeSellTradeMirrorsBuy(t *testing.T) {
	result, err := ComputeSellTrade(d("4000"), d("50000"), d("200000"), 30)
	require.NoError(t, err)

	assert.True(t, result.TokensDelta.Equal(d("-4000")))
	assert.True(t, result.CredDelta.Sign() > 0)
	assert.True(t, result.CredDelta.LessThan(d("1000")), "credOut = %s", result.CredDelta)
	assert.True(t, result.NewTokenReserve.Equal(d("204000")))
	assert.True(t, result.NewCredReserve.Equal(d("50000").Sub(result.CredDelta)))
	assert.True(t, result.SpotPriceAfter.LessThan(result.SpotPriceBefore))
}

func TestComputeSellTradeRejectsBadInput(t *testing.T) {
	_, err := ComputeSellTrade(d("0"), d("50000"), d("200000"), 30)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeSellTrade(d("100"), d("0"), d("200000"), 30)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestConstantProductDoesNotDecrease(t *testing.T) {
	cases := []struct {
		credIn       string
		credReserve  string
		tokenReserve string
		feeBps       int
	}{
		{"1", "50000", "200000", 1},
		{"1000", "50000", "200000", 30},
		{"250000", "50000", "200000", 100},
		{"0.0001", "12.5", "98765.4321", 500},
		{"99999999", "3", "7", 1000},
	}

	for _, tc := range cases {
		before := d(tc.credReserve).Mul(d(tc.tokenReserve))

		buy, err := ComputeBuyTrade(d(tc.credIn), d(tc.credReserve), d(tc.tokenReserve), tc.feeBps)
		require.NoError(t, err, "buy %s into %s/%s", tc.credIn, tc.credReserve, tc.tokenReserve)
		after := buy.NewCredReserve.Mul(buy.NewTokenReserve)
		assert.True(t, after.GreaterThanOrEqual(before),
			"product decreased on buy: %s -> %s", before, after)

		sell, err := ComputeSellTrade(d(tc.credIn), d(tc.tokenReserve), d(tc.credReserve), tc.feeBps)
		require.NoError(t, err)
		after = sell.NewCredReserve.Mul(sell.NewTokenReserve)
		assert.True(t, after.GreaterThanOrEqual(d(tc.tokenReserve).Mul(d(tc.credReserve))),
			"product decreased on sell: %s", after)
	}
}

func TestBuyThenSellRoundTripLosesValue(t *testing.T) {
	for _, feeBps := range []int{1, 30, 300, 1000} {
		credIn := d("1000")
		buy, err := ComputeBuyTrade(credIn, d("50000"), d("200000"), feeBps)
		require.NoError(t, err)

		sell, err := ComputeSellTrade(buy.TokensDelta, buy.NewCredReserve, buy.NewTokenReserve, feeBps)
		require.NoError(t, err)

		assert.True(t, sell.CredDelta.LessThan(credIn),
			"fee %d bps: round trip returned %s for %s in", feeBps, sell.CredDelta, credIn)
	}
}

func TestSharesForDepositBootstrap(t *testing.T) {
	// First deposit mints the geometric mean of the two sides.
	shares, err := SharesForDeposit(d("50000"), d("200000"), decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, shares.Equal(d("100000")), "bootstrap shares = %s, want 100000", shares)
}

func TestSharesForDepositProportional(t *testing.T) {
	// Depositing 10% of each reserve mints 10% of outstanding shares.
	shares, err := SharesForDeposit(d("5000"), d("20000"), d("100000"), d("50000"), d("200000"))
	require.NoError(t, err)
	assert.True(t, shares.Equal(d("10000")), "shares = %s, want 10000", shares)
}

func TestSharesForDepositTakesMinimumSide(t *testing.T) {
	// Token side only supports 5% of shares; the surplus CRED mints nothing.
	shares, err := SharesForDeposit(d("5000"), d("10000"), d("100000"), d("50000"), d("200000"))
	require.NoError(t, err)
	assert.True(t, shares.Equal(d("5000")), "shares = %s, want 5000", shares)
}

func TestSharesForDepositErrors(t *testing.T) {
	_, err := SharesForDeposit(d("0"), d("100"), decimal.Zero, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = SharesForDeposit(d("100"), d("-1"), decimal.Zero, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Shares outstanding against a drained reserve is corrupt state.
	_, err = SharesForDeposit(d("100"), d("100"), d("1000"), decimal.Zero, d("200000"))
	require.ErrorIs(t, err, ErrZeroReserveWithShares)
}

func TestWithdrawalForShares(t *testing.T) {
	credOut, tokenOut, err := WithdrawalForShares(d("10000"), d("100000"), d("50000"), d("200000"))
	require.NoError(t, err)
	assert.True(t, credOut.Equal(d("5000")), "credOut = %s", credOut)
	assert.True(t, tokenOut.Equal(d("20000")), "tokenOut = %s", tokenOut)
}

func TestWithdrawalForSharesErrors(t *testing.T) {
	_, _, err := WithdrawalForShares(d("0"), d("100000"), d("50000"), d("200000"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = WithdrawalForShares(d("10"), decimal.Zero, d("50000"), d("200000"))
	require.ErrorIs(t, err, ErrNoLiquidity)
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	credReserve := d("50000")
	tokenReserve := d("200000")
	totalShares := d("100000")

	credAmount := d("1234.5")
	tokenAmount := d("4938")

	minted, err := SharesForDeposit(credAmount, tokenAmount, totalShares, credReserve, tokenReserve)
	require.NoError(t, err)

	credOut, tokenOut, err := WithdrawalForShares(
		minted,
		totalShares.Add(minted),
		credReserve.Add(credAmount),
		tokenReserve.Add(tokenAmount),
	)
	require.NoError(t, err)

	tolerance := d("0.000000000000000000000000000001")
	assert.True(t, credOut.Sub(credAmount).Abs().LessThan(tolerance),
		"cred round trip drifted: in %s, out %s", credAmount, credOut)
	assert.True(t, tokenOut.Sub(tokenAmount).Abs().LessThan(tolerance),
		"token round trip drifted: in %s, out %s", tokenAmount, tokenOut)
}

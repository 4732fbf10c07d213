package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlabs/credmarket/internal/models"
)

func TestBuyTokens(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	creator := mustCreateWallet(t, svc, "treasury", "250000")
	pool := mustSeedPool(t, svc, creator.ID)
	buyer := mustCreateWallet(t, svc, "alice_trader", "10000")

	receipt, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: buyer.ID, Amount: "1000"})
	require.NoError(t, err)

	assert.Equal(t, "BUY", receipt.Side)
	assertDecEqual(t, "-1000", receipt.CredDelta)
	assertDecEqual(t, "3", receipt.FeePaid)

	// 997 effective CRED against 50000/200000 buys just above 3910 tokens.
	tokensOut := dec(t, receipt.TokenDelta)
	assert.True(t, tokensOut.GreaterThan(dec(t, "3900")), "tokensOut %s", tokensOut)
	assert.True(t, tokensOut.LessThan(dec(t, "3920")), "tokensOut %s", tokensOut)

	after, err := svc.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assertDecEqual(t, "51000", after.CredReserve)
	assertDecEqual(t, dec(t, "200000").Sub(tokensOut).String(), after.TokenReserve)

	// Constant product never decreases across a fee-charging swap.
	kBefore := dec(t, "50000").Mul(dec(t, "200000"))
	kAfter := dec(t, after.CredReserve).Mul(dec(t, after.TokenReserve))
	assert.True(t, kAfter.GreaterThanOrEqual(kBefore))

	wallet, err := svc.GetWalletByHandle(ctx, "alice_trader")
	require.NoError(t, err)
	assertDecEqual(t, "9000", wallet.CredBalance)

	var holding models.TokenHolding
	require.NoError(t, db.Where("wallet_id = ?", buyer.ID).First(&holding).Error)
	assert.True(t, holding.Amount.Equal(tokensOut))

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: buyer.ID, Amount: "999999"})
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("pool not found", func(t *testing.T) {
		_, err := svc.BuyTokens(ctx, TradeInput{PoolID: 9999, WalletID: buyer.ID, Amount: "10"})
		require.ErrorIs(t, err, ErrPoolNotFound)
	})

	t.Run("wallet not found", func(t *testing.T) {
		_, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: 9999, Amount: "10"})
		require.ErrorIs(t, err, ErrWalletNotFound)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		for _, amount := range []string{"0", "-5", "", "abc"} {
			_, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: buyer.ID, Amount: amount})
			require.ErrorIs(t, err, ErrInvalidInput, "amount %q", amount)
		}
	})
}

func TestSellTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := mustCreateWallet(t, svc, "treasury", "250000")
	pool := mustSeedPool(t, svc, creator.ID)
	trader := mustCreateWallet(t, svc, "alice_trader", "10000")

	bought, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: trader.ID, Amount: "1000"})
	require.NoError(t, err)

	receipt, err := svc.SellTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: trader.ID, Amount: bought.TokenDelta})
	require.NoError(t, err)

	assert.Equal(t, "SELL", receipt.Side)
	assertDecEqual(t, dec(t, bought.TokenDelta).Neg().String(), receipt.TokenDelta)

	// Round-tripping through two fee-charging swaps always loses CRED.
	credBack := dec(t, receipt.CredDelta)
	assert.True(t, credBack.IsPositive())
	assert.True(t, credBack.LessThan(dec(t, "1000")), "credBack %s", credBack)

	wallet, err := svc.GetWalletByHandle(ctx, "alice_trader")
	require.NoError(t, err)
	assertDecEqual(t, dec(t, "9000").Add(credBack).String(), wallet.CredBalance)

	t.Run("no holding", func(t *testing.T) {
		stranger := mustCreateWallet(t, svc, "bob_holder", "500")
		_, err := svc.SellTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: stranger.ID, Amount: "1"})
		require.ErrorIs(t, err, ErrHoldingNotFound)
	})

	t.Run("insufficient token balance", func(t *testing.T) {
		// The trader sold everything above; any further sale overdraws.
		_, err := svc.SellTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: trader.ID, Amount: "1"})
		require.ErrorIs(t, err, ErrInsufficientTokenBalance)
	})
}

func TestListTrades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := mustCreateWallet(t, svc, "treasury", "250000")
	pool := mustSeedPool(t, svc, creator.ID)
	trader := mustCreateWallet(t, svc, "alice_trader", "10000")

	for _, amount := range []string{"100", "200", "300"} {
		_, err := svc.BuyTokens(ctx, TradeInput{PoolID: pool.ID, WalletID: trader.ID, Amount: amount})
		require.NoError(t, err)
	}

	trades, err := svc.ListTrades(ctx, pool.ID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// Newest first, with the acting wallet's identity joined in.
	assertDecEqual(t, "-300", trades[0].CredDelta)
	assertDecEqual(t, "-200", trades[1].CredDelta)
	assertDecEqual(t, "-100", trades[2].CredDelta)
	assert.Equal(t, "alice_trader", derefHandle(trades[0].Wallet.Handle))
	assert.Equal(t, trader.ID, trades[0].Wallet.ID)

	t.Run("respects limit", func(t *testing.T) {
		trades, err := svc.ListTrades(ctx, pool.ID, 2)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assertDecEqual(t, "-300", trades[0].CredDelta)
	})

	t.Run("caps oversized limit", func(t *testing.T) {
		trades, err := svc.ListTrades(ctx, pool.ID, 100000)
		require.NoError(t, err)
		require.Len(t, trades, 3)
	})

	t.Run("empty for unknown pool", func(t *testing.T) {
		trades, err := svc.ListTrades(ctx, 9999, 10)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})
}

func derefHandle(handle *string) string {
	if handle == nil {
		return ""
	}
	return *handle
}

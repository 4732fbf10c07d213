package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPools(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := mustCreateWallet(t, svc, "treasury", "500000")

	mustSeedPool(t, svc, creator.ID)
	_, err := svc.CreatePool(ctx, CreatePoolInput{
		Symbol:                "ZETA",
		Name:                  "Zeta Logistics",
		CreatorWalletID:       creator.ID,
		TotalSupply:           "500000",
		InitialCredLiquidity:  "10000",
		InitialTokenLiquidity: "40000",
		FeeBasisPoints:        50,
	})
	require.NoError(t, err)

	pools, err := svc.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)

	// Newest first.
	assert.Equal(t, "ZETA", pools[0].Token.Symbol)
	assert.Equal(t, "NOVA", pools[1].Token.Symbol)
	require.NotNil(t, pools[0].SpotPrice)
	assertDecEqual(t, "0.25", *pools[0].SpotPrice)
}

func TestGetPoolNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetPool(context.Background(), 42)
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestListWallets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := mustCreateWallet(t, svc, "treasury", "500000")
	nova := mustSeedPool(t, svc, creator.ID)
	_, err := svc.CreatePool(ctx, CreatePoolInput{
		Symbol:                "ZETA",
		Name:                  "Zeta Logistics",
		CreatorWalletID:       creator.ID,
		TotalSupply:           "500000",
		InitialCredLiquidity:  "10000",
		InitialTokenLiquidity: "40000",
		FeeBasisPoints:        50,
	})
	require.NoError(t, err)

	trader := mustCreateWallet(t, svc, "alice_trader", "10000")
	bought, err := svc.BuyTokens(ctx, TradeInput{PoolID: nova.ID, WalletID: trader.ID, Amount: "1000"})
	require.NoError(t, err)

	wallets, err := svc.ListWallets(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)

	// Creator: two holdings sorted descending by amount, two positions
	// sorted descending by shares.
	treasury := wallets[0]
	assert.Equal(t, "treasury", derefHandle(treasury.Handle))
	require.Len(t, treasury.Holdings, 2)
	assert.Equal(t, "NOVA", treasury.Holdings[0].Symbol)
	assertDecEqual(t, "800000", treasury.Holdings[0].Amount)
	assert.Equal(t, "ZETA", treasury.Holdings[1].Symbol)
	assertDecEqual(t, "460000", treasury.Holdings[1].Amount)
	require.Len(t, treasury.Positions, 2)
	assert.Equal(t, "NOVA", treasury.Positions[0].PoolSymbol)
	assert.Equal(t, "ZETA", treasury.Positions[1].PoolSymbol)
	assertDecEqual(t, "20000", treasury.Positions[1].Shares)

	alice := wallets[1]
	require.Len(t, alice.Holdings, 1)
	assertDecEqual(t, bought.TokenDelta, alice.Holdings[0].Amount)
	assert.Empty(t, alice.Positions)

	t.Run("zeroed holdings are hidden", func(t *testing.T) {
		_, err := svc.SellTokens(ctx, TradeInput{PoolID: nova.ID, WalletID: trader.ID, Amount: bought.TokenDelta})
		require.NoError(t, err)

		wallets, err := svc.ListWallets(ctx)
		require.NoError(t, err)
		assert.Empty(t, wallets[1].Holdings)
	})
}

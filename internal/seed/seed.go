// Package seed bootstraps a demo market: a fixed set of wallets, one or more
// seeded pools, and initial buy allocations. Re-running is safe; existing
// wallets and pools are left alone.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/voltlabs/credmarket/internal/ledger"
	"github.com/voltlabs/credmarket/internal/models"
)

// WalletSpec describes one bootstrap wallet.
type WalletSpec struct {
	Handle       string
	DisplayName  string
	Type         models.WalletType
	StartingCred string
}

// PoolSpec describes one seeded pool.
type PoolSpec struct {
	Symbol         string
	Name           string
	Description    string
	CreatorHandle  string
	TotalSupply    string
	InitialCred    string
	InitialToken   string
	FeeBasisPoints int
}

// AllocationSpec buys into a seeded pool on behalf of a wallet.
type AllocationSpec struct {
	WalletHandle string
	PoolSymbol   string
	CredAmount   string
}

// Plan is a full bootstrap: wallets first, then pools, then allocations.
type Plan struct {
	Wallets     []WalletSpec
	Pools       []PoolSpec
	Allocations []AllocationSpec
}

// DefaultPlan is the demo market used by the credmarket binary.
func DefaultPlan() Plan {
	return Plan{
		Wallets: []WalletSpec{
			{Handle: "treasury", DisplayName: "Market Treasury", Type: models.WalletTypeSystem, StartingCred: "250000"},
			{Handle: "alice_trader", DisplayName: "Alice", Type: models.WalletTypePlayer, StartingCred: "50000"},
			{Handle: "bob_holder", DisplayName: "Bob", Type: models.WalletTypePlayer, StartingCred: "10000"},
			{Handle: "mara_bot", DisplayName: "Mara", Type: models.WalletTypeCharacter, StartingCred: "35000"},
		},
		Pools: []PoolSpec{
			{
				Symbol:         "NOVA",
				Name:           "Nova Industries",
				Description:    "Flagship demo token seeded by the treasury.",
				CreatorHandle:  "treasury",
				TotalSupply:    "1000000",
				InitialCred:    "50000",
				InitialToken:   "200000",
				FeeBasisPoints: 30,
			},
		},
		Allocations: []AllocationSpec{
			{WalletHandle: "alice_trader", PoolSymbol: "NOVA", CredAmount: "7500"},
			{WalletHandle: "mara_bot", PoolSymbol: "NOVA", CredAmount: "3500"},
		},
	}
}

// Run applies the plan against the ledger service.
func Run(ctx context.Context, svc *ledger.Service, plan Plan, logger zerolog.Logger) error {
	log := logger.With().Str("component", "seed").Logger()

	wallets := map[string]ledger.WalletView{}
	for _, spec := range plan.Wallets {
		wallet, err := ensureWallet(ctx, svc, spec)
		if err != nil {
			return fmt.Errorf("ensure wallet %s: %w", spec.Handle, err)
		}
		wallets[spec.Handle] = wallet
		log.Info().Str("handle", spec.Handle).Str("cred", wallet.CredBalance).Msg("wallet ready")
	}

	pools := map[string]ledger.PoolView{}
	for _, spec := range plan.Pools {
		pool, created, err := ensurePool(ctx, svc, spec, wallets)
		if err != nil {
			return fmt.Errorf("ensure pool %s: %w", spec.Symbol, err)
		}
		pools[spec.Symbol] = pool
		if created {
			log.Info().Str("symbol", spec.Symbol).Msg("pool seeded")
		} else {
			log.Info().Str("symbol", spec.Symbol).Msg("pool already exists, skipping")
		}

		// Allocations only run against pools this pass created, so re-seeding
		// never re-buys.
		if !created {
			continue
		}
		for _, alloc := range plan.Allocations {
			if alloc.PoolSymbol != spec.Symbol {
				continue
			}
			wallet, ok := wallets[alloc.WalletHandle]
			if !ok {
				return fmt.Errorf("allocation references unknown wallet %s", alloc.WalletHandle)
			}
			if _, err := svc.BuyTokens(ctx, ledger.TradeInput{
				PoolID:   pool.ID,
				WalletID: wallet.ID,
				Amount:   alloc.CredAmount,
			}); err != nil {
				return fmt.Errorf("allocate %s CRED of %s to %s: %w", alloc.CredAmount, spec.Symbol, alloc.WalletHandle, err)
			}
			log.Info().
				Str("handle", alloc.WalletHandle).
				Str("symbol", spec.Symbol).
				Str("cred", alloc.CredAmount).
				Msg("allocation bought")
		}
	}

	return nil
}

func ensureWallet(ctx context.Context, svc *ledger.Service, spec WalletSpec) (ledger.WalletView, error) {
	existing, err := svc.GetWalletByHandle(ctx, spec.Handle)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		return ledger.WalletView{}, err
	}
	return svc.CreateWallet(ctx, ledger.CreateWalletInput{
		DisplayName:        spec.DisplayName,
		Handle:             spec.Handle,
		Type:               spec.Type,
		InitialCredBalance: spec.StartingCred,
	})
}

func ensurePool(ctx context.Context, svc *ledger.Service, spec PoolSpec, wallets map[string]ledger.WalletView) (ledger.PoolView, bool, error) {
	existing, err := svc.GetPoolBySymbol(ctx, spec.Symbol)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ledger.ErrPoolNotFound) {
		return ledger.PoolView{}, false, err
	}

	creator, ok := wallets[spec.CreatorHandle]
	if !ok {
		return ledger.PoolView{}, false, fmt.Errorf("pool %s references unknown creator %s", spec.Symbol, spec.CreatorHandle)
	}

	pool, err := svc.CreatePool(ctx, ledger.CreatePoolInput{
		Symbol:                spec.Symbol,
		Name:                  spec.Name,
		Description:           spec.Description,
		CreatorWalletID:       creator.ID,
		TotalSupply:           spec.TotalSupply,
		InitialCredLiquidity:  spec.InitialCred,
		InitialTokenLiquidity: spec.InitialToken,
		FeeBasisPoints:        spec.FeeBasisPoints,
	})
	if err != nil {
		return ledger.PoolView{}, false, err
	}
	return pool, true, nil
}

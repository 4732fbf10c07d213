package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/amm"
	"github.com/voltlabs/credmarket/internal/models"
)

// CreateWalletInput registers a new actor. InitialCredBalance is a decimal
// string and may be zero.
type CreateWalletInput struct {
	DisplayName        string
	Handle             string
	Type               models.WalletType
	InitialCredBalance string
}

// WalletView projects a wallet with its non-zero holdings and positions,
// both sorted descending.
type WalletView struct {
	ID          uint             `json:"id"`
	DisplayName string           `json:"displayName"`
	Handle      *string          `json:"handle"`
	Type        string           `json:"type"`
	CredBalance string           `json:"credBalance"`
	Holdings    []HoldingView    `json:"tokenHoldings"`
	Positions   []LPPositionView `json:"liquidityPositions"`
}

// HoldingView projects one token holding.
type HoldingView struct {
	TokenID uint   `json:"tokenId"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
}

// LPPositionView projects one liquidity position.
type LPPositionView struct {
	PoolID     uint   `json:"poolId"`
	PoolSymbol string `json:"poolSymbol"`
	Shares     string `json:"shares"`
}

// CreateWallet registers a wallet. The initial balance is the only CRED a
// wallet ever receives outside of ledger operations and funding.
func (s *Service) CreateWallet(ctx context.Context, in CreateWalletInput) (WalletView, error) {
	if strings.TrimSpace(in.DisplayName) == "" {
		return WalletView{}, newError(KindInvalidInput, "displayName is required")
	}

	balance, err := amm.Parse(in.InitialCredBalance)
	if err != nil {
		return WalletView{}, newError(KindInvalidInput, "initialCredBalance: %s", err)
	}
	if balance.IsNegative() {
		return WalletView{}, newError(KindInvalidInput, "initialCredBalance cannot be negative")
	}

	walletType := in.Type
	if walletType == "" {
		walletType = models.WalletTypePlayer
	}

	wallet := models.Wallet{
		DisplayName: strings.TrimSpace(in.DisplayName),
		Type:        walletType,
		CredBalance: balance,
	}
	if handle := strings.TrimSpace(in.Handle); handle != "" {
		wallet.Handle = &handle
	}

	var view WalletView
	err = s.inTx(ctx, "create_wallet", func(tx *gorm.DB) error {
		if err := tx.Create(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && wallet.Handle != nil {
				return newError(KindInvalidInput, "handle %s is already taken", *wallet.Handle)
			}
			return err
		}
		view = formatWallet(wallet)
		return nil
	})
	if err != nil {
		return WalletView{}, err
	}

	s.logger.Info().Uint("wallet_id", wallet.ID).Str("display_name", wallet.DisplayName).Msg("wallet created")
	return view, nil
}

// FundWallet credits CRED to a wallet outside of trading, used by bootstrap
// and operator top-ups. Amount must be positive.
func (s *Service) FundWallet(ctx context.Context, walletID uint, amount string) (WalletView, error) {
	credit, err := parseAmount(amount, "amount")
	if err != nil {
		return WalletView{}, err
	}

	var view WalletView
	err = s.inTx(ctx, "fund_wallet", func(tx *gorm.DB) error {
		wallet, err := getWallet(tx, walletID)
		if err != nil {
			return err
		}
		newBalance := wallet.CredBalance.Add(credit)
		if err := setWalletBalance(tx, wallet.ID, newBalance); err != nil {
			return err
		}
		wallet.CredBalance = newBalance
		view = formatWallet(wallet)
		return nil
	})
	if err != nil {
		return WalletView{}, err
	}
	return view, nil
}

// GetWalletByHandle resolves a wallet by its unique handle.
func (s *Service) GetWalletByHandle(ctx context.Context, handle string) (WalletView, error) {
	var wallet models.Wallet
	err := s.runner.DB().WithContext(ctx).Where("handle = ?", handle).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WalletView{}, newError(KindWalletNotFound, "no wallet with handle %s", handle)
		}
		return WalletView{}, err
	}
	return formatWallet(wallet), nil
}

// ListWallets projects every wallet, oldest first, with non-zero holdings and
// positions sorted descending by amount and shares.
func (s *Service) ListWallets(ctx context.Context) ([]WalletView, error) {
	var wallets []models.Wallet
	err := s.runner.DB().WithContext(ctx).
		Preload("Holdings.Token").
		Preload("Positions.Pool.VentureToken").
		Order("created_at ASC").
		Order("id ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}

	views := make([]WalletView, 0, len(wallets))
	for _, wallet := range wallets {
		view := formatWallet(wallet)

		for _, holding := range wallet.Holdings {
			if holding.Amount.Sign() <= 0 {
				continue
			}
			view.Holdings = append(view.Holdings, HoldingView{
				TokenID: holding.TokenID,
				Symbol:  holding.Token.Symbol,
				Name:    holding.Token.Name,
				Amount:  holding.Amount.String(),
			})
		}
		// Decimal ordering happens here rather than in SQL so the store never
		// compares serialized decimals.
		sort.SliceStable(view.Holdings, func(i, j int) bool {
			a := amm.MustParse(view.Holdings[i].Amount)
			b := amm.MustParse(view.Holdings[j].Amount)
			return a.GreaterThan(b)
		})

		for _, position := range wallet.Positions {
			if position.Shares.Sign() <= 0 {
				continue
			}
			view.Positions = append(view.Positions, LPPositionView{
				PoolID:     position.PoolID,
				PoolSymbol: position.Pool.VentureToken.Symbol,
				Shares:     position.Shares.String(),
			})
		}
		sort.SliceStable(view.Positions, func(i, j int) bool {
			a := amm.MustParse(view.Positions[i].Shares)
			b := amm.MustParse(view.Positions[j].Shares)
			return a.GreaterThan(b)
		})

		views = append(views, view)
	}
	return views, nil
}

func formatWallet(wallet models.Wallet) WalletView {
	return WalletView{
		ID:          wallet.ID,
		DisplayName: wallet.DisplayName,
		Handle:      wallet.Handle,
		Type:        string(wallet.Type),
		CredBalance: wallet.CredBalance.String(),
	}
}

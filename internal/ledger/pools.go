package ledger

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/amm"
	"github.com/voltlabs/credmarket/internal/metrics"
	"github.com/voltlabs/credmarket/internal/models"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// CreatePoolInput seeds a new venture token and its pool in one transition.
// Amounts are decimal strings.
type CreatePoolInput struct {
	Symbol                string
	Name                  string
	Description           string
	CreatorWalletID       uint
	TotalSupply           string
	InitialCredLiquidity  string
	InitialTokenLiquidity string
	FeeBasisPoints        int
}

// CreatePool mints a venture token, grants the creator its full supply, seeds
// the pool with the initial reserves, and opens the creator's LP position.
// The whole effect commits atomically or not at all.
func (s *Service) CreatePool(ctx context.Context, in CreatePoolInput) (PoolView, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if !symbolPattern.MatchString(symbol) {
		return PoolView{}, newError(KindInvalidInput, "symbol must be 2-8 alphanumeric characters")
	}
	if n := len(strings.TrimSpace(in.Name)); n < 3 || n > 80 {
		return PoolView{}, newError(KindInvalidInput, "name must be 3-80 characters")
	}
	if len(in.Description) > 280 {
		return PoolView{}, newError(KindInvalidInput, "description must be at most 280 characters")
	}
	if in.FeeBasisPoints < 1 || in.FeeBasisPoints > 1000 {
		return PoolView{}, newError(KindInvalidInput, "fee basis points must be between 1 and 1000")
	}

	totalSupply, err := parseAmount(in.TotalSupply, "totalSupply")
	if err != nil {
		return PoolView{}, err
	}
	credLiquidity, err := parseAmount(in.InitialCredLiquidity, "initialCredLiquidity")
	if err != nil {
		return PoolView{}, err
	}
	tokenLiquidity, err := parseAmount(in.InitialTokenLiquidity, "initialTokenLiquidity")
	if err != nil {
		return PoolView{}, err
	}
	if tokenLiquidity.GreaterThan(totalSupply) {
		return PoolView{}, newError(KindInvalidInput, "initial token liquidity cannot exceed total supply")
	}

	// Bootstrap path: sqrt(cred*token) defines the share unit.
	shares, err := amm.SharesForDeposit(credLiquidity, tokenLiquidity, decimal.Zero, decimal.Zero, decimal.Zero)
	if err != nil {
		return PoolView{}, mathError(err)
	}

	var view PoolView
	err = s.inTx(ctx, "create_pool", func(tx *gorm.DB) error {
		wallet, err := getWallet(tx, in.CreatorWalletID)
		if err != nil {
			return err
		}
		if wallet.CredBalance.LessThan(credLiquidity) {
			return newError(KindInsufficientFunds,
				"wallet %d holds %s CRED, needs %s to seed liquidity", wallet.ID, wallet.CredBalance, credLiquidity)
		}

		token := models.VentureToken{
			Symbol:            symbol,
			Name:              strings.TrimSpace(in.Name),
			Description:       in.Description,
			TotalSupply:       totalSupply,
			CirculatingSupply: totalSupply,
			CreatorWalletID:   wallet.ID,
		}
		if err := tx.Create(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(KindInvalidInput, "symbol %s is already taken", symbol)
			}
			return err
		}

		// Creator starts with the full supply, then seeds the pool from it.
		if err := tx.Create(&models.TokenHolding{
			WalletID: wallet.ID,
			TokenID:  token.ID,
			Amount:   totalSupply.Sub(tokenLiquidity),
		}).Error; err != nil {
			return err
		}

		pool := models.LiquidityPool{
			VentureTokenID: token.ID,
			CredReserve:    credLiquidity,
			TokenReserve:   tokenLiquidity,
			TotalShares:    shares,
			FeeBasisPoints: in.FeeBasisPoints,
		}
		if err := tx.Create(&pool).Error; err != nil {
			return err
		}

		if err := setWalletBalance(tx, wallet.ID, wallet.CredBalance.Sub(credLiquidity)); err != nil {
			return err
		}

		if err := tx.Create(&models.LiquidityPosition{
			PoolID:   pool.ID,
			WalletID: wallet.ID,
			Shares:   shares,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.LiquidityEvent{
			PoolID:     pool.ID,
			WalletID:   wallet.ID,
			Kind:       models.LiquidityEventAdd,
			Shares:     shares,
			CredDelta:  credLiquidity,
			TokenDelta: tokenLiquidity,
		}).Error; err != nil {
			return err
		}

		pool.VentureToken = token
		view = formatPool(pool)
		return nil
	})
	if err != nil {
		return PoolView{}, err
	}

	metrics.RecordPoolCreated()
	s.logger.Info().
		Str("symbol", symbol).
		Uint("creator_wallet_id", in.CreatorWalletID).
		Str("shares", shares.String()).
		Msg("pool created")
	return view, nil
}

package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/models"
)

// PoolView is the read projection of a pool and its token. All decimals are
// serialized as strings; SpotPrice is nil while the token reserve is zero.
type PoolView struct {
	ID             uint      `json:"id"`
	FeeBasisPoints int       `json:"feeBasisPoints"`
	CredReserve    string    `json:"credReserve"`
	TokenReserve   string    `json:"tokenReserve"`
	TotalShares    string    `json:"totalShares"`
	SpotPrice      *string   `json:"spotPrice"`
	Token          TokenView `json:"ventureToken"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TokenView projects a venture token.
type TokenView struct {
	ID                uint   `json:"id"`
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	TotalSupply       string `json:"totalSupply"`
	CirculatingSupply string `json:"circulatingSupply"`
}

// TradeView projects one audit-trail trade with the actor's display identity.
type TradeView struct {
	ID         uint        `json:"id"`
	Side       string      `json:"side"`
	CredDelta  string      `json:"credDelta"`
	TokenDelta string      `json:"tokenDelta"`
	Price      string      `json:"price"`
	FeePaid    string      `json:"feePaid"`
	CreatedAt  time.Time   `json:"createdAt"`
	Wallet     WalletIdent `json:"wallet"`
}

// WalletIdent is the display identity of a trading wallet.
type WalletIdent struct {
	ID          uint    `json:"id"`
	DisplayName string  `json:"displayName"`
	Handle      *string `json:"handle"`
}

func formatPool(pool models.LiquidityPool) PoolView {
	var spotPrice *string
	if !pool.TokenReserve.IsZero() {
		price := pool.CredReserve.Div(pool.TokenReserve).String()
		spotPrice = &price
	}

	return PoolView{
		ID:             pool.ID,
		FeeBasisPoints: pool.FeeBasisPoints,
		CredReserve:    pool.CredReserve.String(),
		TokenReserve:   pool.TokenReserve.String(),
		TotalShares:    pool.TotalShares.String(),
		SpotPrice:      spotPrice,
		Token: TokenView{
			ID:                pool.VentureToken.ID,
			Symbol:            pool.VentureToken.Symbol,
			Name:              pool.VentureToken.Name,
			Description:       pool.VentureToken.Description,
			TotalSupply:       pool.VentureToken.TotalSupply.String(),
			CirculatingSupply: pool.VentureToken.CirculatingSupply.String(),
		},
		UpdatedAt: pool.UpdatedAt,
	}
}

func formatTrade(trade models.Trade) TradeView {
	return TradeView{
		ID:         trade.ID,
		Side:       string(trade.Side),
		CredDelta:  trade.CredDelta.String(),
		TokenDelta: trade.TokenDelta.String(),
		Price:      trade.Price.String(),
		FeePaid:    trade.FeePaid.String(),
		CreatedAt:  trade.CreatedAt,
		Wallet: WalletIdent{
			ID:          trade.Wallet.ID,
			DisplayName: trade.Wallet.DisplayName,
			Handle:      trade.Wallet.Handle,
		},
	}
}

// ListPools projects every pool, newest first.
func (s *Service) ListPools(ctx context.Context) ([]PoolView, error) {
	var pools []models.LiquidityPool
	err := s.runner.DB().WithContext(ctx).
		Preload("VentureToken").
		Order("created_at DESC").
		Order("id DESC").
		Find(&pools).Error
	if err != nil {
		return nil, err
	}

	views := make([]PoolView, 0, len(pools))
	for _, pool := range pools {
		views = append(views, formatPool(pool))
	}
	return views, nil
}

// GetPool projects a single pool by id.
func (s *Service) GetPool(ctx context.Context, poolID uint) (PoolView, error) {
	pool, err := getPool(s.runner.DB().WithContext(ctx), poolID)
	if err != nil {
		return PoolView{}, err
	}
	return formatPool(pool), nil
}

// GetPoolBySymbol projects the pool trading the given token symbol. Used by
// the seed pipeline to keep bootstrap idempotent.
func (s *Service) GetPoolBySymbol(ctx context.Context, symbol string) (PoolView, error) {
	var token models.VentureToken
	err := s.runner.DB().WithContext(ctx).Where("symbol = ?", symbol).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PoolView{}, newError(KindPoolNotFound, "no pool for symbol %s", symbol)
		}
		return PoolView{}, err
	}

	var pool models.LiquidityPool
	err = s.runner.DB().WithContext(ctx).
		Preload("VentureToken").
		Where("venture_token_id = ?", token.ID).
		First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PoolView{}, newError(KindPoolNotFound, "no pool for symbol %s", symbol)
		}
		return PoolView{}, err
	}
	return formatPool(pool), nil
}

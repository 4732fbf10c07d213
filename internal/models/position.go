package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TokenHolding is a wallet's balance of one venture token. Created lazily on
// first acquisition; the amount may fall to zero without the row being removed.
type TokenHolding struct {
	gorm.Model
	WalletID uint            `gorm:"uniqueIndex:idx_holdings_wallet_token;not null"`
	TokenID  uint            `gorm:"uniqueIndex:idx_holdings_wallet_token;not null"`
	Token    VentureToken    `gorm:"foreignKey:TokenID"`
	Amount   decimal.Decimal `gorm:"type:numeric;not null"`
}

// LiquidityPosition is a wallet's LP share claim on one pool. The row exists
// only while shares are strictly positive; burning to zero removes it.
type LiquidityPosition struct {
	gorm.Model
	PoolID   uint            `gorm:"uniqueIndex:idx_positions_pool_wallet;not null"`
	WalletID uint            `gorm:"uniqueIndex:idx_positions_pool_wallet;not null"`
	Pool     LiquidityPool   `gorm:"foreignKey:PoolID"`
	Shares   decimal.Decimal `gorm:"type:numeric;not null"`
}

package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeSide is the direction of a swap from the wallet's point of view.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// LiquidityEventKind distinguishes deposits from withdrawals.
type LiquidityEventKind string

const (
	LiquidityEventAdd    LiquidityEventKind = "ADD"
	LiquidityEventRemove LiquidityEventKind = "REMOVE"
)

// Trade is the append-only audit record of one swap. CredDelta and TokenDelta
// are signed from the wallet's perspective; Price is the spot price after the
// trade settled.
type Trade struct {
	gorm.Model
	PoolID     uint            `gorm:"index;not null"`
	WalletID   uint            `gorm:"index;not null"`
	Wallet     Wallet          `gorm:"foreignKey:WalletID"`
	Side       TradeSide       `gorm:"size:4;not null"`
	CredDelta  decimal.Decimal `gorm:"type:numeric;not null"`
	TokenDelta decimal.Decimal `gorm:"type:numeric;not null"`
	Price      decimal.Decimal `gorm:"type:numeric;not null"`
	FeePaid    decimal.Decimal `gorm:"type:numeric;not null"`
}

// LiquidityEvent is the append-only audit record of one add or remove.
type LiquidityEvent struct {
	gorm.Model
	PoolID     uint               `gorm:"index;not null"`
	WalletID   uint               `gorm:"index;not null"`
	Kind       LiquidityEventKind `gorm:"size:8;not null"`
	Shares     decimal.Decimal    `gorm:"type:numeric;not null"`
	CredDelta  decimal.Decimal    `gorm:"type:numeric;not null"`
	TokenDelta decimal.Decimal    `gorm:"type:numeric;not null"`
}

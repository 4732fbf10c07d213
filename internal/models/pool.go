package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LiquidityPool holds the constant-product reserves for one venture token
// traded against CRED. Reserves and TotalShares are zero only simultaneously
// (an un-seeded or fully drained pool); otherwise both are strictly positive.
type LiquidityPool struct {
	gorm.Model
	VentureTokenID uint            `gorm:"uniqueIndex;not null"`
	VentureToken   VentureToken    `gorm:"foreignKey:VentureTokenID"`
	CredReserve    decimal.Decimal `gorm:"type:numeric;not null"`
	TokenReserve   decimal.Decimal `gorm:"type:numeric;not null"`
	TotalShares    decimal.Decimal `gorm:"type:numeric;not null"`
	FeeBasisPoints int             `gorm:"not null"`

	// Relationships
	Positions []LiquidityPosition `gorm:"foreignKey:PoolID"`
	Trades    []Trade             `gorm:"foreignKey:PoolID"`
}

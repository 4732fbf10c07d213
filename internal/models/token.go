package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentureToken is the traded asset. One token maps to exactly one pool;
// both are created together. TotalSupply is immutable after creation.
type VentureToken struct {
	gorm.Model
	Symbol            string          `gorm:"size:8;uniqueIndex;not null"`
	Name              string          `gorm:"size:80;not null"`
	Description       string          `gorm:"size:280"`
	TotalSupply       decimal.Decimal `gorm:"type:numeric;not null"`
	CirculatingSupply decimal.Decimal `gorm:"type:numeric;not null"`
	CreatorWalletID   uint            `gorm:"index;not null"`
}

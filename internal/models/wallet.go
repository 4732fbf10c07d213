package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletType categorizes the actor behind a wallet.
type WalletType string

const (
	WalletTypePlayer    WalletType = "PLAYER"
	WalletTypeCharacter WalletType = "CHARACTER"
	WalletTypeSystem    WalletType = "SYSTEM"
)

// Wallet is an actor holding a CRED balance. Balances only change through
// ledger operations; wallets are never deleted.
type Wallet struct {
	gorm.Model
	DisplayName string          `gorm:"size:80;not null"`
	Handle      *string         `gorm:"size:64;uniqueIndex"`
	Type        WalletType      `gorm:"size:16;not null;default:PLAYER"`
	CredBalance decimal.Decimal `gorm:"type:numeric;not null"`

	// Relationships
	Holdings  []TokenHolding      `gorm:"foreignKey:WalletID"`
	Positions []LiquidityPosition `gorm:"foreignKey:WalletID"`
}

package models

import (
	"time"
)

// EscrowWalletID is the primary key of the platform escrow wallet singleton.
const EscrowWalletID uint = 1

// Wallet holds a user's balance. One per user, created lazily.
type Wallet struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   Money     `gorm:"type:numeric(12,2);not null;default:0;check:chk_wallets_balance,balance >= 0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EscrowWallet is the platform-owned pool holding funds of active contracts.
type EscrowWallet struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Balance   Money     `gorm:"type:numeric(12,2);not null;default:0;check:chk_escrow_wallets_balance,balance >= 0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

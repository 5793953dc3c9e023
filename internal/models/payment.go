package models

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentRecord tracks one movement of funds from a user wallet into escrow.
// Append-only; immutable once COMPLETED.
type PaymentRecord struct {
	ID                  uint          `gorm:"primarykey" json:"id"`
	Reference           string        `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	EscrowTransactionID uint          `gorm:"index;not null" json:"escrow_transaction_id"`
	UserWalletID        uint          `gorm:"index;not null" json:"user_wallet_id"`
	EscrowWalletID      uint          `gorm:"not null" json:"escrow_wallet_id"`
	Amount              Money         `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status              PaymentStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
}

// IngestPaymentRequest is the webhook payload for moving funds into escrow.
type IngestPaymentRequest struct {
	TransactionID uint        `json:"transaction_id"`
	UserID        uint        `json:"user_id"`
	Amount        AmountInput `json:"amount"`
}

// AmountInput is an amount sent either as a JSON string or as a bare number.
// It is kept verbatim so parsing errors surface as amount errors, not as
// malformed bodies.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
	default:
		*a = AmountInput(data)
	}
	return nil
}

// IngestPaymentResult is returned after a successful ingestion.
type IngestPaymentResult struct {
	PaymentTransactionID    uint              `json:"payment_transaction_id"`
	EscrowTransactionStatus TransactionStatus `json:"escrow_transaction_status"`
	UserWalletBalance       Money             `json:"user_wallet_balance"`
	EscrowWalletBalance     Money             `json:"escrow_wallet_balance"`
}

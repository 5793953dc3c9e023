package models

import "time"

type TransactionStatus string

const (
	StatusPendingFunding  TransactionStatus = "PENDING_FUNDING"
	StatusAwaitingPayment TransactionStatus = "AWAITING_PAYMENT"
	StatusInEscrow        TransactionStatus = "IN_ESCROW"
	StatusWorkInProgress  TransactionStatus = "WORK_IN_PROGRESS"
	StatusCompleted       TransactionStatus = "COMPLETED"
	StatusDisputed        TransactionStatus = "DISPUTED"
	StatusClosed          TransactionStatus = "CLOSED"
)

// Fundable reports whether funds may be moved into escrow for this status.
func (s TransactionStatus) Fundable() bool {
	return s == StatusPendingFunding || s == StatusAwaitingPayment
}

// Funded reports whether the contract holds escrowed funds and work may proceed.
func (s TransactionStatus) Funded() bool {
	return s == StatusInEscrow || s == StatusWorkInProgress
}

// Reviewable reports whether parties may leave reviews.
func (s TransactionStatus) Reviewable() bool {
	return s == StatusCompleted || s == StatusClosed
}

type MilestoneStatus string

const (
	MilestonePending           MilestoneStatus = "PENDING"
	MilestoneAwaitingReview    MilestoneStatus = "AWAITING_REVIEW"
	MilestoneRevisionRequested MilestoneStatus = "REVISION_REQUESTED"
	MilestoneCompleted         MilestoneStatus = "COMPLETED"
	MilestoneDisputed          MilestoneStatus = "DISPUTED"
)

// EscrowTransaction is a milestone-based work contract between a buyer and a seller.
type EscrowTransaction struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	Title      string            `gorm:"size:255;not null" json:"title"`
	TotalValue Money             `gorm:"type:numeric(12,2);not null" json:"total_value"`
	BuyerID    *uint             `gorm:"index" json:"buyer_id"`
	SellerID   *uint             `gorm:"index" json:"seller_id"`
	Status     TransactionStatus `gorm:"size:20;not null;default:'PENDING_FUNDING';index" json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Milestones []Milestone       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"milestones,omitempty"`
}

func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}

func (t *EscrowTransaction) IsBuyer(userID uint) bool {
	return t.BuyerID != nil && *t.BuyerID == userID
}

func (t *EscrowTransaction) IsSeller(userID uint) bool {
	return t.SellerID != nil && *t.SellerID == userID
}

func (t *EscrowTransaction) IsParty(userID uint) bool {
	return t.IsBuyer(userID) || t.IsSeller(userID)
}

// Milestone is a payable sub-unit of an EscrowTransaction.
type Milestone struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	TransactionID     uint            `gorm:"index;not null" json:"transaction_id"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Description       string          `gorm:"type:text" json:"description"`
	Value             Money           `gorm:"type:numeric(12,2);not null" json:"value"`
	Status            MilestoneStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	SubmissionDetails string          `gorm:"type:text" json:"submission_details"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Disputable reports whether a dispute may still be raised on the milestone.
func (m *Milestone) Disputable() bool {
	return m.Status != MilestoneCompleted && m.Status != MilestoneDisputed
}

// Submittable reports whether the seller may submit work for the milestone.
func (m *Milestone) Submittable() bool {
	return m.Status == MilestonePending || m.Status == MilestoneRevisionRequested
}

// PartyRole selects which side of a transaction a listing is for.
type PartyRole string

const (
	RoleBuyer  PartyRole = "buyer"
	RoleSeller PartyRole = "seller"
)

// CreateTransactionRequest is the buyer's input for a new contract.
type CreateTransactionRequest struct {
	Title      string                   `json:"title" validate:"required,max=255"`
	SellerID   uint                     `json:"seller_id" validate:"required"`
	Milestones []CreateMilestoneRequest `json:"milestones" validate:"required,min=1,dive"`
}

type CreateMilestoneRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Value       Money  `json:"value"`
}

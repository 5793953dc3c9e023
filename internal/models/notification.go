package models

import "time"

type NotificationType string

const (
	NotificationTransactionAccepted  NotificationType = "TRANSACTION_ACCEPTED"
	NotificationEscrowFunded         NotificationType = "ESCROW_FUNDED"
	NotificationWorkSubmitted        NotificationType = "WORK_SUBMITTED"
	NotificationMilestoneApproved    NotificationType = "MILESTONE_APPROVED"
	NotificationRevisionRequested    NotificationType = "REVISION_REQUESTED"
	NotificationTransactionCompleted NotificationType = "TRANSACTION_COMPLETED"
	NotificationMilestoneDisputed    NotificationType = "MILESTONE_DISPUTED"
)

// Notification is an in-app message for a user, produced from dispatched
// outbox events.
type Notification struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	RecipientID   uint             `gorm:"not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	Type          NotificationType `gorm:"size:30;not null" json:"notification_type"`
	Message       string           `gorm:"type:text;not null" json:"message"`
	TransactionID *uint            `gorm:"index" json:"transaction_id,omitempty"`
	MilestoneID   *uint            `json:"milestone_id,omitempty"`
	EventID       string           `gorm:"size:36;index" json:"-"`
	IsRead        bool             `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}

package notification

import (
	"fmt"

	"escrow/internal/models"
)

// BuildNotifications maps an event to the in-app notifications of its
// recipients. Parties whose accounts no longer exist are skipped.
func BuildNotifications(ev *models.OutboxEvent) []models.Notification {
	p := ev.Payload
	if p.Transaction == nil {
		return nil
	}
	title := p.Transaction.Title
	var milestoneTitle string
	var milestoneID *uint
	if p.Milestone != nil {
		milestoneTitle = p.Milestone.Title
		id := p.Milestone.ID
		milestoneID = &id
	}

	var out []models.Notification
	add := func(user *models.User, typ models.NotificationType, msg string) {
		if user == nil {
			return
		}
		txnID := p.Transaction.ID
		out = append(out, models.Notification{
			RecipientID:   user.ID,
			Type:          typ,
			Message:       msg,
			TransactionID: &txnID,
			MilestoneID:   milestoneID,
			EventID:       ev.EventID,
		})
	}

	switch ev.Type {
	case models.EventTransactionFunded:
		add(p.Seller, models.NotificationEscrowFunded,
			fmt.Sprintf("The buyer funded %q. Funds are held in escrow and work can start.", title))
	case models.EventTransactionAccepted:
		add(p.Buyer, models.NotificationTransactionAccepted,
			fmt.Sprintf("The seller accepted %q and is waiting for payment.", title))
	case models.EventWorkSubmitted:
		add(p.Buyer, models.NotificationWorkSubmitted,
			fmt.Sprintf("Work was submitted for milestone %q of %q.", milestoneTitle, title))
	case models.EventMilestoneApproved:
		value := ""
		if p.Milestone != nil {
			value = p.Milestone.Value.String()
		}
		add(p.Seller, models.NotificationMilestoneApproved,
			fmt.Sprintf("Milestone %q was approved and %s was released to your wallet.", milestoneTitle, value))
	case models.EventRevisionRequested:
		add(p.Seller, models.NotificationRevisionRequested,
			fmt.Sprintf("The buyer requested a revision of milestone %q.", milestoneTitle))
	case models.EventTransactionCompleted:
		msg := fmt.Sprintf("All milestones of %q are complete. You can now leave a review.", title)
		add(p.Buyer, models.NotificationTransactionCompleted, msg)
		add(p.Seller, models.NotificationTransactionCompleted, msg)
	case models.EventMilestoneDisputed:
		msg := fmt.Sprintf("Milestone %q of %q is disputed and awaits mediation.", milestoneTitle, title)
		add(p.Buyer, models.NotificationMilestoneDisputed, msg)
		add(p.Seller, models.NotificationMilestoneDisputed, msg)
	}
	return out
}

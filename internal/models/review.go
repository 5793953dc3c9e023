package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one party's post-completion rating of a transaction. At most one
// per (transaction, reviewer).
type Review struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TransactionID uint      `gorm:"not null;uniqueIndex:idx_reviews_transaction_reviewer" json:"transaction_id"`
	ReviewerID    *uint     `gorm:"uniqueIndex:idx_reviews_transaction_reviewer" json:"reviewer_id"`
	Rating        int       `gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	Comment       string    `gorm:"type:text" json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

type LeaveReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

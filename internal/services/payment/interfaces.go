package payment

import (
	"context"

	"escrow/internal/models"
)

// Service ingests externally confirmed payments into escrow.
type Service interface {
	Ingest(ctx context.Context, req models.IngestPaymentRequest) (*models.IngestPaymentResult, error)
}

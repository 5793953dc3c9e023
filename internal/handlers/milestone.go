package handlers

import (
	"context"

	"escrow/internal/models"
	"escrow/internal/services/transaction"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type MilestoneHandler struct {
	transactionService transaction.Service
}

func NewMilestoneHandler(transactionService transaction.Service) *MilestoneHandler {
	return &MilestoneHandler{transactionService: transactionService}
}

type submitWorkRequest struct {
	SubmissionDetails string `json:"submission_details" validate:"max=10000"`
}

func (h *MilestoneHandler) Submit(c *fiber.Ctx) error {
	var req submitWorkRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return utils.Error(c, err)
		}
	}
	return h.act(c, func(ctx context.Context, id, userID uint) (*models.Milestone, error) {
		return h.transactionService.Submit(ctx, id, userID, req.SubmissionDetails)
	})
}

func (h *MilestoneHandler) Approve(c *fiber.Ctx) error {
	return h.act(c, h.transactionService.Approve)
}

func (h *MilestoneHandler) RequestRevision(c *fiber.Ctx) error {
	return h.act(c, h.transactionService.RequestRevision)
}

func (h *MilestoneHandler) Dispute(c *fiber.Ctx) error {
	return h.act(c, h.transactionService.Dispute)
}

func (h *MilestoneHandler) act(c *fiber.Ctx, fn func(ctx context.Context, milestoneID, actorID uint) (*models.Milestone, error)) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	m, err := fn(c.UserContext(), id, userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, m)
}

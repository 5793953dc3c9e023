package handlers

import (
	"escrow/internal/models"
	"escrow/internal/services/review"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	reviewService review.Service
}

func NewReviewHandler(reviewService review.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) LeaveReview(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	var req models.LeaveReviewRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	rv, err := h.reviewService.LeaveReview(c.UserContext(), id, userID, req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, rv)
}

func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	reviews, err := h.reviewService.ListReviews(c.UserContext(), id, userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, reviews)
}

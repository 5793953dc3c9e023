package handlers

import (
	"escrow/internal/services/notification"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	notificationPageLimit    = 20
	notificationMaxPageLimit = 100
)

type NotificationHandler struct {
	notificationService notification.Service
}

func NewNotificationHandler(notificationService notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	p := utils.GetPagination(c, notificationPageLimit, notificationMaxPageLimit)
	notes, total, err := h.notificationService.List(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return utils.Error(c, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(notes, p))
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	count, err := h.notificationService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"unread_count": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	n, err := h.notificationService.MarkRead(c.UserContext(), id, userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, n)
}

// MarkAllRead is idempotent; a repeat call reports 0 updated.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	updated, err := h.notificationService.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"updated": updated})
}

package handlers

import (
	"escrow/internal/models"
	"escrow/internal/services/transaction"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	transactionService transaction.Service
}

func NewTransactionHandler(transactionService transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	var req models.CreateTransactionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	txn, err := h.transactionService.Create(c.UserContext(), userID, req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, txn)
}

// List returns the caller's transactions, optionally filtered by ?role=.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	p := utils.GetPagination(c, transaction.DefaultPageLimit, transaction.MaxPageLimit)
	role := models.PartyRole(c.Query("role"))

	txns, total, err := h.transactionService.List(c.UserContext(), userID, role, p.Limit, p.Offset)
	if err != nil {
		return utils.Error(c, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(txns, p))
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	return h.read(c, func(id, userID uint) (interface{}, error) {
		return h.transactionService.Get(c.UserContext(), id, userID)
	})
}

func (h *TransactionHandler) ListMilestones(c *fiber.Ctx) error {
	return h.read(c, func(id, userID uint) (interface{}, error) {
		return h.transactionService.ListMilestones(c.UserContext(), id, userID)
	})
}

func (h *TransactionHandler) ListPayments(c *fiber.Ctx) error {
	return h.read(c, func(id, userID uint) (interface{}, error) {
		return h.transactionService.ListPayments(c.UserContext(), id, userID)
	})
}

func (h *TransactionHandler) Fund(c *fiber.Ctx) error {
	return h.read(c, func(id, userID uint) (interface{}, error) {
		return h.transactionService.Fund(c.UserContext(), id, userID)
	})
}

func (h *TransactionHandler) Accept(c *fiber.Ctx) error {
	return h.read(c, func(id, userID uint) (interface{}, error) {
		return h.transactionService.Accept(c.UserContext(), id, userID)
	})
}

// read resolves the caller and :id, then renders fn's result.
func (h *TransactionHandler) read(c *fiber.Ctx, fn func(id, userID uint) (interface{}, error)) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	out, err := fn(id, userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, out)
}

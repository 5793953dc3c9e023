package handlers

import (
	"escrow/internal/services/wallet"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetWallet returns the caller's own wallet.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, err := actingUser(c)
	if err != nil {
		return utils.Error(c, err)
	}

	w, err := h.walletService.GetWallet(c.UserContext(), userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

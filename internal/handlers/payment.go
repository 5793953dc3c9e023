package handlers

import (
	"encoding/json"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
	"escrow/internal/services/payment"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72/webhook"
)

// SignatureHeader carries the HMAC of the webhook body in Stripe's
// "t=<unix>,v1=<hex>" format.
const SignatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	paymentService payment.Service
	signingSecret  string
	log            *logrus.Logger
}

// NewPaymentHandler builds the ingestion webhook. An empty signingSecret
// disables signature verification.
func NewPaymentHandler(paymentService payment.Service, signingSecret string, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		signingSecret:  signingSecret,
		log:            log,
	}
}

// IngestPayment moves funds for a confirmed payment into escrow.
func (h *PaymentHandler) IngestPayment(c *fiber.Ctx) error {
	body := c.Body()

	if h.signingSecret != "" {
		if err := webhook.ValidatePayload(body, c.Get(SignatureHeader), h.signingSecret); err != nil {
			h.log.WithError(err).WithField("ip", c.IP()).Warn("rejected webhook with bad signature")
			return utils.Error(c, apperrors.ErrInvalidSignature)
		}
	}

	var req models.IngestPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return utils.Error(c, apperrors.ErrValidationFailed.WithMessage("invalid request body"))
	}

	result, err := h.paymentService.Ingest(c.UserContext(), req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, result)
}

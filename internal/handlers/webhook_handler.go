package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/config"
	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/services"
)

// chargeFailedEvent is the only payment event the engine acts on; a
// failed charge expires the member's subscription.
const chargeFailedEvent = "CHARGE_FAILED"

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	cfg                 *config.Config
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		cfg:                 cfg,
	}
}

// HandlePayment receives billing outcomes from the payment provider,
// authenticated by a shared secret compared in constant time.
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	if h.cfg.WebhookSecret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.cfg.WebhookSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.PaymentWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	event := webhook.Event
	if event.Type != chargeFailedEvent {
		slog.Info("payment webhook ignored", "event_type", event.Type)
		return c.JSON(fiber.Map{"received": true})
	}

	subUUID, err := uuid.Parse(event.SubscriptionUUID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription uuid",
		})
	}

	if _, err := h.subscriptionService.MarkExpired(c.Context(), subUUID); err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		slog.Error("webhook processing failed", "event_type", event.Type, "subscription_uuid", event.SubscriptionUUID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("payment webhook processed", "event_type", event.Type, "subscription_uuid", event.SubscriptionUUID)
	return c.JSON(fiber.Map{"received": true})
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/middleware"
	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/services"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	subs, err := h.subscriptionService.ByUser(c.Context(), userUUID)
	if err != nil {
		return subscriptionError(c, err)
	}

	resp := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		resp = append(resp, subscriptionResponse(&subs[i]))
	}
	return c.JSON(resp)
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	subUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid subscription uuid")
	}

	sub, err := h.subscriptionService.Cancel(c.Context(), subUUID, userUUID)
	if err != nil {
		return subscriptionError(c, err)
	}

	return c.JSON(subscriptionResponse(sub))
}

func subscriptionResponse(s *models.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		UUID:       s.UUID,
		UserUUID:   s.UserUUID,
		PlanUUID:   s.PlanUUID,
		InviteUUID: s.InviteUUID,
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
	}
}

func subscriptionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrSubscriptionNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrNotSubscriptionParty):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrSubscriptionNotActive),
		errors.Is(err, models.ErrStatusTerminal):
		status, message = fiber.StatusUnprocessableEntity, err.Error()
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

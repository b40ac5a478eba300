package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/planshare/planshare-backend/internal/access"
	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/middleware"
	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/services"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) Create(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.CreatePlan(c.Context(), userUUID, req.Name, req.Amount, req.FeeBasisPoints, req.PaymentDay)
	if err != nil {
		return planError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(planResponse(plan))
}

func (h *PlanHandler) List(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	plans, err := h.planService.PlansByOwner(c.Context(), userUUID)
	if err != nil {
		return planError(c, err)
	}

	resp := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, planResponse(&plans[i]))
	}
	return c.JSON(resp)
}

func (h *PlanHandler) Get(c *fiber.Ctx) error {
	plan, _, err := h.subscribedPlan(c)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(planResponse(plan))
}

func (h *PlanHandler) Update(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	planUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid plan uuid")
	}

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.UpdatePlan(c.Context(), planUUID, userUUID, req.Name, req.Amount, req.PaymentDay)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(planResponse(plan))
}

// CreateInvite is owner-only; the engine itself does not gate invite
// creation, so the check lives here.
func (h *PlanHandler) CreateInvite(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	planUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid plan uuid")
	}

	plan, err := h.planService.GetPlan(c.Context(), planUUID)
	if err != nil {
		return planError(c, err)
	}
	if plan.OwnerUUID != userUUID {
		return planError(c, services.ErrNotPlanOwner)
	}

	var req dto.CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ExpiresAt.IsZero() {
		req.ExpiresAt = time.Now().AddDate(0, 0, 7)
	}

	invite, err := h.planService.CreateInvite(c.Context(), planUUID, req.ExpiresAt)
	if err != nil {
		return planError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(inviteResponse(invite))
}

func (h *PlanHandler) ListInvites(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	planUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid plan uuid")
	}

	plan, err := h.planService.GetPlan(c.Context(), planUUID)
	if err != nil {
		return planError(c, err)
	}
	if plan.OwnerUUID != userUUID {
		return planError(c, services.ErrNotPlanOwner)
	}

	invites, err := h.planService.Invites(c.Context(), planUUID)
	if err != nil {
		return planError(c, err)
	}

	resp := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, inviteResponse(&invites[i]))
	}
	return c.JSON(resp)
}

func (h *PlanHandler) CancelInvite(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	inviteUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid invite uuid")
	}

	invite, err := h.planService.CancelInvite(c.Context(), inviteUUID, userUUID)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(inviteResponse(invite))
}

func (h *PlanHandler) Subscribe(c *fiber.Ctx) error {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return unauthorized(c)
	}

	planUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return badRequest(c, "Invalid plan uuid")
	}

	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sub, err := h.planService.SubscribeUser(c.Context(), planUUID, userUUID, req.InviteShortID)
	if err != nil {
		return planError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubscriptionResponse{
		UUID:       sub.UUID,
		UserUUID:   sub.UserUUID,
		PlanUUID:   sub.PlanUUID,
		InviteUUID: sub.InviteUUID,
		Status:     string(sub.Status),
		CreatedAt:  sub.CreatedAt,
	})
}

// Members lists active members. Emails are a restricted field: admins
// see all of them, everyone else sees their own and null for the rest.
func (h *PlanHandler) Members(c *fiber.Ctx) error {
	plan, viewerUUID, err := h.subscribedPlan(c)
	if err != nil {
		return planError(c, err)
	}

	members, err := h.planService.Members(c.Context(), plan.UUID)
	if err != nil {
		return planError(c, err)
	}

	viewerLevel := access.LevelForRole(middleware.CurrentRole(c))
	resp := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		level := viewerLevel
		if m.UUID == viewerUUID {
			level = access.LevelAdmin
		}
		resp = append(resp, dto.MemberResponse{
			UUID:  m.UUID,
			Email: access.Redact(m.Email, access.LevelAdmin, level),
			Owner: m.UUID == plan.OwnerUUID,
		})
	}
	return c.JSON(resp)
}

func (h *PlanHandler) PaymentQuote(c *fiber.Ctx) error {
	plan, _, err := h.subscribedPlan(c)
	if err != nil {
		return planError(c, err)
	}

	quote, err := h.planService.Quote(c.Context(), plan.UUID, time.Now())
	if err != nil {
		return planError(c, err)
	}
	return c.JSON(quote)
}

// subscribedPlan loads the plan from the :uuid param and verifies the
// caller is an active member or the owner.
func (h *PlanHandler) subscribedPlan(c *fiber.Ctx) (*models.Plan, uuid.UUID, error) {
	userUUID, err := middleware.CurrentUserUUID(c)
	if err != nil {
		return nil, uuid.Nil, errUnauthorized
	}

	planUUID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return nil, uuid.Nil, errBadPlanUUID
	}

	plan, err := h.planService.GetPlan(c.Context(), planUUID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	subscribed, err := h.planService.IsSubscribed(c.Context(), planUUID, userUUID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !subscribed {
		return nil, uuid.Nil, errNotMember
	}
	return plan, userUUID, nil
}

var (
	errUnauthorized = errors.New("unauthorized")
	errBadPlanUUID  = errors.New("invalid plan uuid")
	errNotMember    = errors.New("you are not a member of this plan")
)

func planResponse(p *models.Plan) dto.PlanResponse {
	return dto.PlanResponse{
		UUID:            p.UUID,
		Name:            p.Name,
		Amount:          p.Amount,
		FeeBasisPoints:  p.FeeBasisPoints,
		PaymentDay:      p.PaymentDay,
		OwnerUUID:       p.OwnerUUID,
		NextPaymentDate: p.NextPaymentDate(time.Now()),
		CreatedAt:       p.CreatedAt,
	}
}

func inviteResponse(i *models.Invite) dto.InviteResponse {
	return dto.InviteResponse{
		UUID:      i.UUID,
		ShortID:   i.ShortID,
		PlanUUID:  i.PlanUUID,
		Cancelled: i.Cancelled,
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

// planError maps service sentinels onto HTTP statuses; anything not in
// the taxonomy is a storage failure and stays a 500.
func planError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, errUnauthorized):
		status, message = fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, errBadPlanUUID):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, errNotMember), errors.Is(err, services.ErrNotPlanOwner):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrPlanNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrOwnerCannotSubscribe),
		errors.Is(err, services.ErrInviteAlreadyUsed),
		errors.Is(err, services.ErrInviteExpiredOrCancelled),
		errors.Is(err, services.ErrAlreadySubscribed),
		errors.Is(err, services.ErrSubscriptionNotActive),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidPaymentDay),
		errors.Is(err, models.ErrInvalidFee):
		status, message = fiber.StatusUnprocessableEntity, err.Error()
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

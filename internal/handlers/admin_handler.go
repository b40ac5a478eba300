package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/models"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// ListLogs returns recent error records, newest first. Supports
// ?level= and ?limit= (capped at 500).
func (h *AdminHandler) ListLogs(c *fiber.Ctx) error {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return badRequest(c, "Invalid limit")
		}
		limit = min(parsed, 500)
	}

	query := h.db.WithContext(c.Context()).
		Order("timestamp DESC").
		Limit(limit)
	if level := c.Query("level"); level != "" {
		query = query.Where("level = ?", level)
	}

	var logs []models.SystemLog
	if err := query.Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to query logs",
		})
	}

	return c.JSON(logs)
}

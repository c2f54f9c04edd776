// handlers/cause.go
package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"tote-sponsor-system/middleware"
	"tote-sponsor-system/models"
	"tote-sponsor-system/services"
	"tote-sponsor-system/utils"
)

type CauseHandler struct {
	Causes *services.CauseService
}

type createCauseRequest struct {
	Title           string          `json:"title" validate:"required,max=100"`
	Description     string          `json:"description" validate:"required"`
	Qty             int             `json:"qty" validate:"required,gte=1,lte=1000000"`
	SingleItemPrice decimal.Decimal `json:"singleItemPrice"`
	Category        string          `json:"category" validate:"omitempty,max=64"`
	ImpactLevel     string          `json:"impactLevel" validate:"omitempty,max=64"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// listResponse pairs a page of causes with its pagination block.
type listResponse struct {
	Causes     []services.CauseView `json:"causes"`
	Pagination utils.PageInfo       `json:"pagination"`
}

func (h *CauseHandler) Create(c *fiber.Ctx) error {
	var req createCauseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	cause, err := h.Causes.CreateCause(c.UserContext(), middleware.CurrentIdentity(c).UserID, services.CreateCauseInput{
		Title:           req.Title,
		Description:     req.Description,
		Quantity:        req.Qty,
		SingleItemPrice: req.SingleItemPrice,
		Category:        req.Category,
		ImpactLevel:     req.ImpactLevel,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "cause created successfully, it will be reviewed by an admin", services.NewCauseView(cause, nil))
}

// ListApproved serves both the public listing and the sponsor browse view.
func (h *CauseHandler) ListApproved(c *fiber.Ctx) error {
	filter := services.CauseFilter{
		Category:    strings.TrimSpace(c.Query("category")),
		ImpactLevel: strings.TrimSpace(c.Query("impact")),
	}
	causes, info, err := h.Causes.ListApproved(c.UserContext(), filter, utils.ParsePagination(c))
	if err != nil {
		return err
	}

	message := "approved causes retrieved successfully"
	if len(causes) == 0 {
		message = "no causes found matching the criteria"
	}
	return respond(c, fiber.StatusOK, message, listResponse{Causes: causes, Pagination: info})
}

func (h *CauseHandler) ListByUser(c *fiber.Ctx) error {
	causes, err := h.Causes.ListByCreator(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	if len(causes) == 0 {
		return respond(c, fiber.StatusOK, "no causes found for this user", causes)
	}
	return respond(c, fiber.StatusOK, "user causes retrieved successfully", causes)
}

func (h *CauseHandler) Share(c *fiber.Ctx) error {
	share, err := h.Causes.Share(c.UserContext(), c.Params("causeId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "share link and qr code generated", share)
}

func (h *CauseHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	status := models.CauseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	cause, err := h.Causes.UpdateStatus(c.UserContext(), c.Params("causeId"), status)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "cause status updated", services.NewCauseView(cause, nil))
}

// handlers/sponsor.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/middleware"
	"tote-sponsor-system/services"
)

type SponsorHandler struct {
	Sponsorships *services.SponsorshipService
}

type sponsorRequest struct {
	BagCount int    `json:"bagCount" validate:"required,gte=1,lte=1000000"`
	Message  string `json:"message" validate:"max=500"`
	Branding string `json:"branding" validate:"max=200"`
}

func (h *SponsorHandler) Sponsor(c *fiber.Ctx) error {
	var req sponsorRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pool, err := h.Sponsorships.CreatePool(c.UserContext(), services.CreatePoolInput{
		CauseID:   c.Params("causeId"),
		SponsorID: middleware.CurrentIdentity(c).UserID,
		Capacity:  req.BagCount,
		Message:   req.Message,
		Branding:  req.Branding,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "sponsorship created successfully", pool)
}

func (h *SponsorHandler) Tracking(c *fiber.Ctx) error {
	report, err := h.Sponsorships.SponsorTracking(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "sponsorship tracking retrieved successfully", report)
}

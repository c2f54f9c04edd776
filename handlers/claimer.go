// handlers/claimer.go
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/middleware"
	"tote-sponsor-system/models"
	"tote-sponsor-system/services"
)

type ClaimerHandler struct {
	Verification *services.VerificationService
	Claims       *services.ClaimService
	Causes       *services.CauseService
	Limiter      *middleware.RateLimiter
	// ExposeCodes returns the one-time code in the response; development only.
	ExposeCodes bool
}

// verifyUserRequest carries either a new challenge (identifier, identifierType)
// or an answer to an existing one (sessionId, code).
type verifyUserRequest struct {
	Identifier     string `json:"identifier" validate:"omitempty,max=32"`
	IdentifierType string `json:"identifierType" validate:"omitempty,oneof=phone aadhaar"`
	SessionID      string `json:"sessionId" validate:"omitempty,uuid"`
	Code           string `json:"code" validate:"omitempty,len=6,numeric"`
}

type challengeResponse struct {
	SessionID      string                `json:"sessionId"`
	IdentifierType models.IdentifierKind `json:"identifierType"`
	ExpiresAt      time.Time             `json:"expiresAt"`
	DemoCode       string                `json:"demoCode,omitempty"`
}

type verifiedResponse struct {
	SessionID string    `json:"sessionId"`
	Verified  bool      `json:"verified"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type claimBagRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

var errVerifyInput = apperrors.NewValidationError("provide identifier and identifierType to request a code, or sessionId and code to verify")

func (h *ClaimerHandler) VerifyUser(c *fiber.Ctx) error {
	var req verifyUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	userID := middleware.CurrentIdentity(c).UserID

	switch {
	case req.SessionID != "" && req.Code != "":
		session, err := h.Verification.SubmitCode(c.UserContext(), userID, req.SessionID, req.Code)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, "verification successful", verifiedResponse{
			SessionID: session.ID,
			Verified:  session.Verified,
			ExpiresAt: session.ExpiresAt,
		})

	case req.Identifier != "":
		kind := models.IdentifierKind(strings.ToLower(req.IdentifierType))
		if kind == "" {
			kind = models.IdentifierPhone
		}
		if h.Limiter != nil && !h.Limiter.Allow(userID) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(h.Limiter.RetryAfterSeconds()))
			return apperrors.NewTooManyRequestsError("too many verification requests, please wait before trying again")
		}

		session, code, err := h.Verification.RequestChallenge(c.UserContext(), userID, kind, req.Identifier)
		if err != nil {
			return err
		}
		resp := challengeResponse{
			SessionID:      session.ID,
			IdentifierType: session.IdentifierKind,
			ExpiresAt:      session.ExpiresAt,
		}
		if h.ExposeCodes {
			resp.DemoCode = code
		}
		return respond(c, fiber.StatusCreated, "verification code sent", resp)
	}

	return errVerifyInput
}

func (h *ClaimerHandler) ClaimBag(c *fiber.Ctx) error {
	var req claimBagRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	userID := middleware.CurrentIdentity(c).UserID

	claimant, err := h.Verification.ResolveClaimant(c.UserContext(), userID, req.SessionID)
	if err != nil {
		return err
	}

	result, err := h.Claims.Allocate(c.UserContext(), c.Params("causeId"), claimant)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "bag claimed successfully", result)
}

func (h *ClaimerHandler) CauseInfo(c *fiber.Ctx) error {
	info, err := h.Causes.Info(c.UserContext(), c.Params("causeId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "cause information retrieved successfully", info)
}

// handlers/auth.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/middleware"
	"tote-sponsor-system/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	MobNumber string `json:"mobNumber" validate:"omitempty,min=10,max=15"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required"`
}

type loginRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	MobNumber string `json:"mobNumber"`
	Password  string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.Auth.Register(c.UserContext(), services.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		MobNumber: req.MobNumber,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "user registered successfully", res)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.Auth.Login(c.UserContext(), services.LoginInput{
		Email:     req.Email,
		MobNumber: req.MobNumber,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "login successful", res)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		return middleware.ErrUnauthenticated
	}
	user, err := h.Auth.Me(c.UserContext(), id.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "user profile retrieved successfully", user)
}

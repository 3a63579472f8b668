package handlers

import (
	"errors"

	"taskboard/internal/service"
	"taskboard/pkg/logger"
	"taskboard/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,allowedtld"`
	Password       string `json:"password" validate:"required,strongpassword"`
	Name           string `json:"name" validate:"omitempty,max=100"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio" validate:"omitempty,max=500"`
	DeviceToken    string `json:"deviceToken"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register membuat user baru dan langsung mengembalikan token sesi.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), service.Registration{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
		DeviceToken:    req.DeviceToken,
	})
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
		return fail(c, fiber.StatusConflict, "Email already exists")
	case errors.Is(err, storage.ErrInvalidImage):
		return fail(c, fiber.StatusBadRequest, "Invalid profile picture")
	case err != nil:
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return failInternal(c, "Error creating user", err)
	}

	return respond(c, fiber.StatusCreated, "User created successfully", res)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		logger.ErrorLogger.Error("Error during login", zap.Error(err))
		return failInternal(c, "Error during login", err)
	}

	return respond(c, fiber.StatusOK, "Login success", res)
}

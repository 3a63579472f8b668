package handlers

import (
	"context"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AuthService interface {
	Register(ctx context.Context, r service.Registration) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

type TaskService interface {
	Create(ctx context.Context, ownerID string, task *models.Task) error
	ListByUser(ctx context.Context, ownerID string) ([]models.Task, error)
	ListCompleted(ctx context.Context, ownerID string) ([]models.Task, error)
	ListDueSoon(ctx context.Context, ownerID string) ([]models.Task, error)
	ListByTitles(ctx context.Context, ownerID string, titles []string) ([]models.Task, error)
	ListSorted(ctx context.Context, ownerID string, dir repository.SortDirection) ([]models.Task, error)
	Page(ctx context.Context, q repository.PageQuery) (*models.TaskPage, error)
	Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Task, error)
}

type AccountService interface {
	UpdateUserAndAddTask(ctx context.Context, userID string, upd service.AccountUpdate) (*models.Task, error)
}

type ProfileService interface {
	SetPicture(ctx context.Context, userID, payload string) (*models.User, error)
}

// Handler serves the v1 REST API.
type Handler struct {
	auth     AuthService
	tasks    TaskService
	accounts AccountService
	profiles ProfileService
	validate *validator.Validate
}

func New(auth AuthService, tasks TaskService, accounts AccountService, profiles ProfileService, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validation.New()
	}
	return &Handler{auth: auth, tasks: tasks, accounts: accounts, profiles: profiles, validate: validate}
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": true,
		"status":  status,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	})
}

// failInternal attaches the underlying error for diagnostics.
func failInternal(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
		"success": false,
		"status":  fiber.StatusInternalServerError,
	})
}

// bind parses the body into req and validates it. It writes the 400
// response itself and reports false when the request should stop.
func (h *Handler) bind(c *fiber.Ctx, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if errs := validation.Check(h.validate, req); errs != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  errs,
			"success": false,
			"status":  fiber.StatusBadRequest,
		})
	}
	return true, nil
}

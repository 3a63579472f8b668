package handlers

import (
	"time"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/service"
	"taskboard/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// UpdateUserAndAddTaskRequest carries optional profile fields plus the
// task to create. Profile fields left out of the body stay unchanged.
type UpdateUserAndAddTaskRequest struct {
	Email          *string `json:"email" validate:"omitempty,email,allowedtld"`
	Name           *string `json:"name" validate:"omitempty,max=100"`
	ProfilePicture *string `json:"profilePicture"`
	Bio            *string `json:"bio" validate:"omitempty,max=500"`
	DeviceToken    *string `json:"deviceToken"`

	TaskTitle       string `json:"task_title" validate:"required"`
	TaskDescription string `json:"task_description"`
	TaskDueDate     string `json:"task_dueDate" validate:"omitempty,isodate"`
}

func (h *Handler) UpdateUserAndAddTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req UpdateUserAndAddTaskRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	var due *time.Time
	if req.TaskDueDate != "" {
		d, _ := validation.ParseDate(req.TaskDueDate)
		due = &d
	}

	task, err := h.accounts.UpdateUserAndAddTask(c.UserContext(), userID, service.AccountUpdate{
		Profile: models.ProfileUpdate{
			Email:          req.Email,
			Name:           req.Name,
			ProfilePicture: req.ProfilePicture,
			Bio:            req.Bio,
			DeviceToken:    req.DeviceToken,
		},
		Task: service.NewTask{
			Title:       req.TaskTitle,
			Description: req.TaskDescription,
			DueDate:     due,
		},
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update user and add task")
	}

	return respond(c, fiber.StatusCreated, "User updated and task added successfully", task)
}

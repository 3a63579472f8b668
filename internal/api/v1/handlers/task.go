package handlers

import (
	"errors"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
	"taskboard/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	DueDate     string `json:"dueDate" validate:"required,isodate"`
}

// UpdateTaskRequest is a partial update; absent fields are kept.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate" validate:"omitempty,isodate"`
	Completed   *bool   `json:"completed"`
}

func (r UpdateTaskRequest) patch() models.TaskPatch {
	p := models.TaskPatch{Title: r.Title, Description: r.Description, Completed: r.Completed}
	if r.DueDate != nil {
		d, _ := validation.ParseDate(*r.DueDate)
		p.DueDate = &d
	}
	return p
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req CreateTaskRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	due, _ := validation.ParseDate(req.DueDate)

	task := &models.Task{Title: req.Title, Description: req.Description, DueDate: &due}
	err := h.tasks.Create(c.UserContext(), userID, task)
	if errors.Is(err, repository.ErrDuplicate) {
		return fail(c, fiber.StatusConflict, "Task with this title already exists")
	}
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return failInternal(c, "Error creating task", err)
	}

	logger.AuditLogger.Info("Task created successfully", zap.String("task_id", task.ID), zap.String("user_id", userID))
	return respond(c, fiber.StatusCreated, "Task created successfully", task)
}

func (h *Handler) GetTasksByUser(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListByUser(c.UserContext(), middleware.UserID(c))
	return h.list(c, tasks, err)
}

func (h *Handler) GetCompletedTasksByUser(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListCompleted(c.UserContext(), middleware.UserID(c))
	return h.list(c, tasks, err)
}

func (h *Handler) GetTasksDueInNext7Days(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListDueSoon(c.UserContext(), middleware.UserID(c))
	return h.list(c, tasks, err)
}

// GetSpecificTitleTasks expects a JSON array of titles as the body.
func (h *Handler) GetSpecificTitleTasks(c *fiber.Ctx) error {
	var titles []string
	if err := c.BodyParser(&titles); err != nil {
		return fail(c, fiber.StatusBadRequest, "Body must be an array of titles")
	}
	if err := h.validate.Var(titles, "dive,required"); err != nil {
		return fail(c, fiber.StatusBadRequest, "Titles must not be empty")
	}

	tasks, err := h.tasks.ListByTitles(c.UserContext(), middleware.UserID(c), titles)
	return h.list(c, tasks, err)
}

// GetTasksBySorting sorts by due date; any sortBy other than "ascending"
// means descending.
func (h *Handler) GetTasksBySorting(c *fiber.Ctx) error {
	dir := repository.ParseSortDirection(c.Query("sortBy"))
	tasks, err := h.tasks.ListSorted(c.UserContext(), middleware.UserID(c), dir)
	return h.list(c, tasks, err)
}

func (h *Handler) GetTasksWithPagination(c *fiber.Ctx) error {
	page := c.QueryInt("page", repository.DefaultPage)
	limit := c.QueryInt("limit", repository.DefaultPageSize)
	if page < 1 || limit < 1 {
		return fail(c, fiber.StatusBadRequest, "page and limit must be positive integers")
	}

	result, err := h.tasks.Page(c.UserContext(), repository.PageQuery{
		OwnerID: middleware.UserID(c),
		Page:    page,
		Size:    limit,
	})
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks page", zap.Error(err))
		return failInternal(c, "Error fetching tasks", err)
	}

	return c.JSON(fiber.Map{
		"message":    "Tasks fetched successfully",
		"success":    true,
		"status":     fiber.StatusOK,
		"data":       result.Data,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	taskID := c.Params("taskId")

	var req UpdateTaskRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	task, err := h.tasks.Update(c.UserContext(), userID, taskID, req.patch())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Task not found")
	case errors.Is(err, repository.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "Task with this title already exists")
	case err != nil:
		logger.ErrorLogger.Error("Error updating task", zap.String("task_id", taskID), zap.Error(err))
		return failInternal(c, "Error updating task", err)
	}

	logger.AuditLogger.Info("Task updated successfully", zap.String("task_id", taskID), zap.String("user_id", userID))
	return respond(c, fiber.StatusOK, "Task updated successfully", task)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	taskID := c.Params("taskId")

	task, err := h.tasks.Delete(c.UserContext(), userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Task not found")
	}
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.String("task_id", taskID), zap.Error(err))
		return failInternal(c, "Error deleting task", err)
	}

	logger.AuditLogger.Info("Task deleted successfully", zap.String("task_id", taskID), zap.String("user_id", userID))
	return respond(c, fiber.StatusOK, "Task deleted successfully", task)
}

func (h *Handler) list(c *fiber.Ctx, tasks []models.Task, err error) error {
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.String("url", c.OriginalURL()), zap.Error(err))
		return failInternal(c, "Error fetching tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return respond(c, fiber.StatusOK, "Tasks fetched successfully", tasks)
}

package v1

import (
	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *handlers.Handler, sessions middleware.SessionVerifier) {
	api := app.Group("/api/v1")
	auth := middleware.UseToken(sessions)

	// User
	userRoutes := api.Group("/users")
	userRoutes.Post("/register", h.Register)
	userRoutes.Post("/login", h.Login)
	userRoutes.Put("/update-user-and-add-task", auth, h.UpdateUserAndAddTask)
	userRoutes.Post("/upload-profile-picture", auth, h.UploadProfilePicture)

	// Task
	taskRoutes := api.Group("/tasks", auth)
	taskRoutes.Post("/create-task", h.CreateTask)
	taskRoutes.Get("/get-tasks-by-user", h.GetTasksByUser)
	taskRoutes.Put("/update-tasks/:taskId", h.UpdateTask)
	taskRoutes.Delete("/delete-tasks/:taskId", h.DeleteTask)
	taskRoutes.Get("/get-completed-tasks-by-user", h.GetCompletedTasksByUser)
	taskRoutes.Get("/get-tasks-by-user-due-in-next-7-days", h.GetTasksDueInNext7Days)
	taskRoutes.Post("/get-specific-title-tasks-by-user", h.GetSpecificTitleTasks)
	taskRoutes.Get("/get-tasks-by-user-by-sorting", h.GetTasksBySorting)
	taskRoutes.Get("/get-tasks-by-user-pagination", h.GetTasksWithPagination)
}

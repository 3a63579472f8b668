package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
	"taskboard/pkg/notify"

	"go.uber.org/zap"
)

var ErrUpdateFailed = errors.New("update failed")

// Notifier delivers push notifications; failures are only logged.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) error
}

type NewTask struct {
	Title       string
	Description string
	DueDate     *time.Time
}

type AccountUpdate struct {
	Profile models.ProfileUpdate
	Task    NewTask
}

// Accounts coordinates the profile update + task insert unit of work.
type Accounts struct {
	db            *sql.DB
	users         *repository.UserRepository
	tasks         *repository.TaskRepository
	uploader      Uploader
	notifier      Notifier
	notifyTimeout time.Duration

	pending sync.WaitGroup
}

func NewAccounts(db *sql.DB, users *repository.UserRepository, tasks *repository.TaskRepository,
	uploader Uploader, notifier Notifier, notifyTimeout time.Duration) *Accounts {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Accounts{
		db:            db,
		users:         users,
		tasks:         tasks,
		uploader:      uploader,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
	}
}

// UpdateUserAndAddTask uploads the picture (if any), then updates the
// profile and inserts the task in one transaction. After commit the user is
// re-read and, when a device token is present, notified in the background.
// Every failure is logged and reported to the caller as the bare
// ErrUpdateFailed, so a response never tells which write failed.
func (a *Accounts) UpdateUserAndAddTask(ctx context.Context, userID string, upd AccountUpdate) (*models.Task, error) {
	profile := upd.Profile
	if profile.ProfilePicture != nil && *profile.ProfilePicture != "" {
		url, err := a.uploader.Upload(ctx, *profile.ProfilePicture)
		if err != nil {
			logger.ErrorLogger.Error("Profile picture upload failed", zap.String("user_id", userID), zap.Error(err))
			return nil, ErrUpdateFailed
		}
		profile.ProfilePicture = &url
	}

	task := &models.Task{
		UserID:      &userID,
		Title:       upd.Task.Title,
		Description: upd.Task.Description,
		DueDate:     upd.Task.DueDate,
	}
	err := repository.WithTx(ctx, a.db, func(ctx context.Context, tx repository.DBTX) error {
		if err := a.users.WithTx(tx).UpdateProfile(ctx, userID, profile); err != nil {
			return err
		}
		return a.tasks.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		logger.ErrorLogger.Error("Update user and add task aborted", zap.String("user_id", userID), zap.Error(err))
		return nil, ErrUpdateFailed
	}
	logger.AuditLogger.Info("User updated and task added",
		zap.String("user_id", userID), zap.String("task_id", task.ID))

	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		logger.ErrorLogger.Error("Re-reading user after commit failed", zap.String("user_id", userID), zap.Error(err))
		return task, nil
	}
	if user.DeviceToken != "" {
		a.dispatch(notify.Message{
			Title: "Task Updated",
			Body:  "A task has been updated: " + task.Title,
			Token: user.DeviceToken,
		}, userID)
	}
	return task, nil
}

func (a *Accounts) dispatch(msg notify.Message, userID string) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.notifyTimeout)
		defer cancel()

		if err := a.notifier.Notify(ctx, msg); err != nil {
			logger.ErrorLogger.Error("Error sending notification", zap.String("user_id", userID), zap.Error(err))
			return
		}
		logger.SystemLogger.Info("Notification sent", zap.String("user_id", userID))
	}()
}

// Wait blocks until in-flight notifications finish.
func (a *Accounts) Wait() {
	a.pending.Wait()
}

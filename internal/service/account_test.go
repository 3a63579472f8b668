package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "password", "name", "profile_picture", "bio", "device_token", "user_type", "created_at", "updated_at"}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) messages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.sent...)
}

func newAccounts(t *testing.T) (*Accounts, sqlmock.Sqlmock, *fakeUploader, *fakeNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	up := &fakeUploader{}
	notifier := &fakeNotifier{}
	accounts := NewAccounts(db,
		repository.NewUserRepository(db, nil),
		repository.NewTaskRepository(db),
		up, notifier, time.Second)
	return accounts, mock, up, notifier
}

func strPtr(s string) *string { return &s }

func TestUpdateUserAndAddTaskCommitsAndNotifies(t *testing.T) {
	accounts, mock, up, notifier := newAccounts(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", nil, nil, "https://cdn.example.com/pic", "new bio", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(sqlmock.AnyArg(), "u1", "T1", "desc", nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", "hash", "", "", "new bio", "fcm-token", "USER", now, now))

	task, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{
		Profile: profile("pic", "new bio"),
		Task:    NewTask{Title: "T1", Description: "desc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", task.Title)
	assert.Equal(t, 1, up.calls)

	accounts.Wait()
	sent := notifier.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Task Updated", sent[0].Title)
	assert.Equal(t, "A task has been updated: T1", sent[0].Body)
	assert.Equal(t, "fcm-token", sent[0].Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func profile(picture, bio string) models.ProfileUpdate {
	var p models.ProfileUpdate
	if picture != "" {
		p.ProfilePicture = strPtr(picture)
	}
	if bio != "" {
		p.Bio = strPtr(bio)
	}
	return p
}

func TestUpdateUserAndAddTaskRollsBackOnInsertFailure(t *testing.T) {
	accounts, mock, _, notifier := newAccounts(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO tasks`).WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{
		Profile: profile("", "changed"),
		Task:    NewTask{Title: "T1"},
	})
	assert.ErrorIs(t, err, ErrUpdateFailed)

	accounts.Wait()
	assert.Empty(t, notifier.messages())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserAndAddTaskHidesFailingStep(t *testing.T) {
	accounts, mock, _, _ := newAccounts(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	email := "taken@example.com"
	_, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{
		Profile: models.ProfileUpdate{Email: &email},
		Task:    NewTask{Title: "T1"},
	})
	require.Error(t, err)
	assert.Equal(t, "update failed", err.Error())
	assert.NotContains(t, err.Error(), "users_email_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserAndAddTaskUnknownUser(t *testing.T) {
	accounts, mock, _, _ := newAccounts(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := accounts.UpdateUserAndAddTask(context.Background(), "ghost", AccountUpdate{Task: NewTask{Title: "T1"}})
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserAndAddTaskUploadFailureWritesNothing(t *testing.T) {
	accounts, mock, up, _ := newAccounts(t)
	up.err = errors.New("cdn down")

	_, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{
		Profile: profile("pic", ""),
		Task:    NewTask{Title: "T1"},
	})
	assert.Equal(t, ErrUpdateFailed, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserAndAddTaskWithoutDeviceToken(t *testing.T) {
	accounts, mock, _, notifier := newAccounts(t)
	notifier.err = errors.New("unused")
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", "hash", "", "", "", "", "USER", now, now))

	_, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{Task: NewTask{Title: "T1"}})
	require.NoError(t, err)
	accounts.Wait()
	assert.Empty(t, notifier.messages())
}

func TestUpdateUserAndAddTaskReReadFailureStillSucceeds(t *testing.T) {
	accounts, mock, _, notifier := newAccounts(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WillReturnError(sql.ErrConnDone)

	task, err := accounts.UpdateUserAndAddTask(context.Background(), "u1", AccountUpdate{Task: NewTask{Title: "T1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	accounts.Wait()
	assert.Empty(t, notifier.messages())
}

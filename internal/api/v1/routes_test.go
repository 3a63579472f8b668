package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/repository/repotest"
	"taskboard/internal/service"
	"taskboard/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, payload string) (string, error) {
	if payload == "data:text/plain;base64,????" {
		return "", fmt.Errorf("decode: %w", storage.ErrInvalidImage)
	}
	return fmt.Sprintf("https://cdn.example.com/%d", len(payload)), nil
}

type stubAccounts struct {
	err  error
	got  service.AccountUpdate
	user string
}

func (s *stubAccounts) UpdateUserAndAddTask(_ context.Context, userID string, upd service.AccountUpdate) (*models.Task, error) {
	s.user, s.got = userID, upd
	if s.err != nil {
		return nil, s.err
	}
	return &models.Task{ID: "t-new", UserID: &userID, Title: upd.Task.Title}, nil
}

type testEnv struct {
	app      *fiber.App
	tasks    *repotest.TaskStore
	accounts *stubAccounts
}

// createTestApp menyusun aplikasi Fiber dengan store in-memory.
func createTestApp(t *testing.T) *testEnv {
	t.Helper()
	users := repotest.NewUserStore()
	tasks := repotest.NewTaskStore()
	tokens := service.NewTokenManager("test-secret", time.Hour)
	accounts := &stubAccounts{}

	h := handlers.New(
		service.NewAuth(users, tokens, stubUploader{}),
		service.NewTasks(tasks, time.UTC),
		accounts,
		service.NewProfiles(users, stubUploader{}),
		nil,
	)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.HandleError})
	app.Use(middleware.ErrorHandler())
	RegisterRoutes(app, h, service.NewSessions(tokens, users))
	return &testEnv{app: app, tasks: tasks, accounts: accounts}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// registerUser mendaftarkan user unik dan mengembalikan token-nya.
func (e *testEnv) registerUser(t *testing.T) string {
	t.Helper()
	email := fmt.Sprintf("user_%d@example.com", time.Now().UnixNano())
	status, body := e.do(t, "POST", "/api/v1/users/register", "", map[string]string{
		"email":    email,
		"password": "Passw0rd!",
		"name":     "Tester",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["data"].(map[string]any)["token"].(string)
}

func (e *testEnv) createTask(t *testing.T, token, title, due string) string {
	t.Helper()
	status, body := e.do(t, "POST", "/api/v1/tasks/create-task", token, map[string]string{
		"title":       title,
		"description": "desc",
		"dueDate":     due,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["data"].(map[string]any)["id"].(string)
}

func TestRegister(t *testing.T) {
	env := createTestApp(t)
	path := "/api/v1/users/register"
	valid := map[string]string{"email": "ann@example.com", "password": "Passw0rd!", "deviceToken": "fcm"}

	status, body := env.do(t, "POST", path, "", valid)
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, "USER", user["userType"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "deviceToken")

	status, _ = env.do(t, "POST", path, "", valid)
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, "POST", path, "", map[string]string{
		"email": "pic@example.com", "password": "Passw0rd!", "profilePicture": "data:text/plain;base64,????",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid profile picture", body["message"])

	status, body = env.do(t, "POST", path, "", map[string]string{"email": "bob@example.org", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, body["errors"], 2)
}

func TestLogin(t *testing.T) {
	env := createTestApp(t)
	env.do(t, "POST", "/api/v1/users/register", "", map[string]string{"email": "ann@example.com", "password": "Passw0rd!"})

	status, body := env.do(t, "POST", "/api/v1/users/login", "", map[string]string{"email": "ann@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["token"].(string)

	status, _ = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "POST", "/api/v1/users/login", "", map[string]string{"email": "ann@example.com", "password": "Wr0ngpass!"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "POST", "/api/v1/users/login", "", map[string]string{"email": "nobody@example.com", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTaskRoutesRequireToken(t *testing.T) {
	env := createTestApp(t)

	status, _ := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateTaskThenList(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(time.DateOnly)

	env.createTask(t, token, "T1", tomorrow)

	status, body := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	task := list[0].(map[string]any)
	assert.Equal(t, "T1", task["title"])
	assert.Equal(t, false, task["completed"])
}

func TestCreateTaskValidationAndDuplicate(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)

	status, _ := env.do(t, "POST", "/api/v1/tasks/create-task", token, map[string]string{
		"title": "T1", "description": "d", "dueDate": "next week",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	env.createTask(t, token, "T1", "2030-01-01")
	status, _ = env.do(t, "POST", "/api/v1/tasks/create-task", token, map[string]string{
		"title": "T1", "description": "d", "dueDate": "2030-01-02",
	})
	assert.Equal(t, http.StatusConflict, status)

	// Titles are unique per user, so another user may reuse it.
	other := env.registerUser(t)
	env.createTask(t, other, "T1", "2030-01-01")
}

func TestOwnershipIsolation(t *testing.T) {
	env := createTestApp(t)
	alice := env.registerUser(t)
	bob := env.registerUser(t)
	id := env.createTask(t, alice, "secret", "2030-01-01")

	status, _ := env.do(t, "PUT", "/api/v1/tasks/update-tasks/"+id, bob, map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, "DELETE", "/api/v1/tasks/delete-tasks/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestUpdateAndDeleteTask(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	id := env.createTask(t, token, "T1", "2030-01-01")

	status, body := env.do(t, "PUT", "/api/v1/tasks/update-tasks/"+id, token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, status)
	updated := body["data"].(map[string]any)
	assert.Equal(t, true, updated["completed"])
	assert.Equal(t, "T1", updated["title"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-completed-tasks-by-user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = env.do(t, "DELETE", "/api/v1/tasks/delete-tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["data"].(map[string]any)["id"])

	status, _ = env.do(t, "DELETE", "/api/v1/tasks/delete-tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDueSoonAndTitles(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	env.createTask(t, token, "soon", time.Now().UTC().Format(time.RFC3339))
	env.createTask(t, token, "later", time.Now().AddDate(0, 1, 0).Format(time.DateOnly))

	status, body := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-due-in-next-7-days", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["data"], 1)
	assert.Equal(t, "soon", body["data"].([]any)[0].(map[string]any)["title"])

	status, body = env.do(t, "POST", "/api/v1/tasks/get-specific-title-tasks-by-user", token, []string{"later", "missing"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = env.do(t, "POST", "/api/v1/tasks/get-specific-title-tasks-by-user", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSortingAndPagination(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	for i := 1; i <= 12; i++ {
		env.createTask(t, token, fmt.Sprintf("task %02d", i), fmt.Sprintf("2030-01-%02d", i))
	}

	status, body := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-by-sorting?sortBy=ascending", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].([]any)
	assert.Equal(t, "task 01", list[0].(map[string]any)["title"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-by-sorting", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "task 12", body["data"].([]any)[0].(map[string]any)["title"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-by-sorting?sortBy=sideways", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "task 12", body["data"].([]any)[0].(map[string]any)["title"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-pagination?page=2&limit=5", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 5)
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 5, body["limit"])
	assert.EqualValues(t, 3, body["totalPages"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-pagination?page=9&limit=5", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-pagination", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 10, body["limit"])

	status, _ = env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user-pagination?page=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStoreFaultIs500(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	env.tasks.Err = errors.New("connection reset")

	status, body := env.do(t, "GET", "/api/v1/tasks/get-tasks-by-user", token, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "connection reset", body["error"])
}

func TestUpdateUserAndAddTask(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)
	path := "/api/v1/users/update-user-and-add-task"

	status, body := env.do(t, "PUT", path, token, map[string]string{
		"bio":              "hello",
		"task_title":       "From bundle",
		"task_dueDate":     "2030-01-01",
		"task_description": "d",
	})
	require.Equal(t, http.StatusCreated, status, body)
	require.NotNil(t, env.accounts.got.Profile.Bio)
	assert.Equal(t, "hello", *env.accounts.got.Profile.Bio)
	assert.Nil(t, env.accounts.got.Profile.Email)
	assert.Equal(t, "From bundle", env.accounts.got.Task.Title)
	require.NotNil(t, env.accounts.got.Task.DueDate)

	status, _ = env.do(t, "PUT", path, token, map[string]string{"bio": "no task"})
	assert.Equal(t, http.StatusBadRequest, status)

	env.accounts.err = fmt.Errorf("%w: insert task: duplicate key tasks_user_title_key", service.ErrUpdateFailed)
	status, body = env.do(t, "PUT", path, token, map[string]string{"task_title": "x"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to update user and add task", body["message"])
	assert.NotContains(t, body, "error")
}

func TestUploadProfilePicture(t *testing.T) {
	env := createTestApp(t)
	token := env.registerUser(t)

	upload := func(filename, contentType string) int {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, _ = part.Write([]byte("fake image bytes"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest("POST", "/api/v1/users/upload-profile-picture", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("token", token)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, upload("me.png", "image/png"))
	assert.Equal(t, http.StatusBadRequest, upload("me.pdf", "application/pdf"))
	assert.Equal(t, http.StatusBadRequest, upload("me.png", "text/plain"))
}

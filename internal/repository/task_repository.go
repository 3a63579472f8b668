package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// TaskStore is the task query engine.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	FindOne(ctx context.Context, id, ownerID string) (*models.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	ListSorted(ctx context.Context, filter TaskFilter, dir SortDirection) ([]models.Task, error)
	Paginate(ctx context.Context, q PageQuery) (*models.TaskPage, error)
	Update(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id, ownerID string) (*models.Task, error)
}

type PageQuery struct {
	OwnerID string
	Page    int
	Size    int
	Order   PageOrder
}

// normalize applies the default page (1) and size (10).
func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	return q
}

// TotalPages is ceil(total/size).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *TaskRepository) WithTx(tx DBTX) *TaskRepository {
	return &TaskRepository{db: tx}
}

const taskColumns = `id, user_id, title, COALESCE(description, ''), due_date, completed, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, due_date, completed)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING created_at, updated_at`,
		task.ID, task.UserID, task.Title, task.Description, task.DueDate, task.Completed,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", mapError(err))
	}
	return nil
}

func (r *TaskRepository) FindOne(ctx context.Context, id, ownerID string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	return r.query(ctx, filter, insertionOrder)
}

func (r *TaskRepository) ListSorted(ctx context.Context, filter TaskFilter, dir SortDirection) ([]models.Task, error) {
	return r.query(ctx, filter, dueOrder(dir))
}

func (r *TaskRepository) query(ctx context.Context, filter TaskFilter, order string) ([]models.Task, error) {
	where, args := filter.where()
	rows, err := r.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks"+where+" ORDER BY "+order, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Paginate reads the total count and one page slice in a single statement,
// so both figures come from the same snapshot. A page past the end yields
// an empty slice with the real totalPages.
func (r *TaskRepository) Paginate(ctx context.Context, q PageQuery) (*models.TaskPage, error) {
	q = q.normalize()
	query := `
		SELECT c.total, t.id, t.user_id, t.title, t.description, t.due_date, t.completed, t.created_at, t.updated_at
		FROM (SELECT COUNT(*) AS total FROM tasks WHERE user_id = $1) c
		LEFT JOIN LATERAL (
			SELECT id, user_id, title, COALESCE(description, '') AS description, due_date, completed, created_at, updated_at
			FROM tasks
			WHERE user_id = $1
			ORDER BY ` + q.Order.clause() + `
			LIMIT $2 OFFSET $3
		) t ON TRUE`

	rows, err := r.db.QueryContext(ctx, query, q.OwnerID, q.Size, (q.Page-1)*q.Size)
	if err != nil {
		return nil, fmt.Errorf("paginate tasks: %w", err)
	}
	defer rows.Close()

	page := &models.TaskPage{Data: []models.Task{}, Page: q.Page, Limit: q.Size}
	for rows.Next() {
		var (
			total       int
			id, title   sql.NullString
			description sql.NullString
			completed   sql.NullBool
			createdAt   sql.NullTime
			updatedAt   sql.NullTime
			task        models.Task
		)
		if err := rows.Scan(&total, &id, &task.UserID, &title, &description, &task.DueDate,
			&completed, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task page: %w", err)
		}
		page.Total = total
		if !id.Valid {
			// LEFT JOIN produced no slice rows.
			continue
		}
		task.ID = id.String
		task.Title = title.String
		task.Description = description.String
		task.Completed = completed.Bool
		task.CreatedAt = createdAt.Time
		task.UpdatedAt = updatedAt.Time
		page.Data = append(page.Data, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task page: %w", err)
	}

	page.TotalPages = TotalPages(page.Total, q.Size)
	return page, nil
}

// Update applies patch to a task owned by ownerID. A row deleted since the
// caller's ownership check yields ErrNotFound.
func (r *TaskRepository) Update(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = COALESCE($3, title),
			description = COALESCE($4, description),
			due_date = COALESCE($5, due_date),
			completed = COALESCE($6, completed),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, ownerID, patch.Title, patch.Description, patch.DueDate, patch.Completed,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", mapError(err))
	}
	return task, nil
}

// Delete removes the task and returns the deleted row.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2 RETURNING "+taskColumns, id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", mapError(err))
	}
	return task, nil
}

func scanTask(row interface{ Scan(dest ...any) error }) (*models.Task, error) {
	var (
		task models.Task
		due  *time.Time
	)
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &due,
		&task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.DueDate = due
	return &task, nil
}

package service

import (
	"context"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/repository"
)

// dueWindowEnd keeps the 599 ms cut-off existing clients were built against.
const dueWindowEnd = 599 * time.Millisecond

// DueWindow returns [today 00:00:00.000, today+7d 23:59:59.599] in loc.
func DueWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	last := from.AddDate(0, 0, 7)
	to := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, int(dueWindowEnd), loc)
	return from, to
}

// Tasks implements the per-user task queries and ownership-checked writes.
type Tasks struct {
	store repository.TaskStore
	loc   *time.Location
	now   func() time.Time
}

func NewTasks(store repository.TaskStore, loc *time.Location) *Tasks {
	return &Tasks{store: store, loc: loc, now: time.Now}
}

func (s *Tasks) Create(ctx context.Context, ownerID string, task *models.Task) error {
	task.UserID = &ownerID
	return s.store.Create(ctx, task)
}

func (s *Tasks) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	return s.store.FindOne(ctx, id, ownerID)
}

func (s *Tasks) ListByUser(ctx context.Context, ownerID string) ([]models.Task, error) {
	return s.store.List(ctx, repository.TaskFilter{OwnerID: ownerID})
}

func (s *Tasks) ListCompleted(ctx context.Context, ownerID string) ([]models.Task, error) {
	done := true
	return s.store.List(ctx, repository.TaskFilter{OwnerID: ownerID, Completed: &done})
}

func (s *Tasks) ListDueSoon(ctx context.Context, ownerID string) ([]models.Task, error) {
	from, to := DueWindow(s.now(), s.loc)
	return s.store.List(ctx, repository.TaskFilter{OwnerID: ownerID, DueFrom: &from, DueTo: &to})
}

func (s *Tasks) ListByTitles(ctx context.Context, ownerID string, titles []string) ([]models.Task, error) {
	if titles == nil {
		titles = []string{}
	}
	return s.store.List(ctx, repository.TaskFilter{OwnerID: ownerID, Titles: titles})
}

func (s *Tasks) ListSorted(ctx context.Context, ownerID string, dir repository.SortDirection) ([]models.Task, error) {
	return s.store.ListSorted(ctx, repository.TaskFilter{OwnerID: ownerID}, dir)
}

func (s *Tasks) Page(ctx context.Context, q repository.PageQuery) (*models.TaskPage, error) {
	return s.store.Paginate(ctx, q)
}

// Update confirms ownership before patching. A row deleted between the two
// steps surfaces as repository.ErrNotFound from the store.
func (s *Tasks) Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	if _, err := s.store.FindOne(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, ownerID, patch)
}

func (s *Tasks) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if _, err := s.store.FindOne(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.store.Delete(ctx, id, ownerID)
}

// Package repotest provides in-memory stores with the same semantics as the
// Postgres repositories, for handler and service tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/repository"

	"github.com/google/uuid"
)

type TaskStore struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]*entry

	// Err, when set, is returned by every call.
	Err error
}

type entry struct {
	task models.Task
	seq  int
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[string]*entry{}}
}

func (s *TaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, e := range s.tasks {
		if e.task.Title == task.Title && sameOwner(e.task.UserID, task.UserID) {
			return repository.ErrDuplicate
		}
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now()
	task.CreatedAt, task.UpdatedAt = now, now
	s.seq++
	s.tasks[task.ID] = &entry{task: *task, seq: s.seq}
	return nil
}

func (s *TaskStore) FindOne(_ context.Context, id, ownerID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.tasks[id]
	if !ok || !e.task.OwnedBy(ownerID) {
		return nil, repository.ErrNotFound
	}
	t := e.task
	return &t, nil
}

func (s *TaskStore) List(_ context.Context, f repository.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.match(f), nil
}

func (s *TaskStore) ListSorted(_ context.Context, f repository.TaskFilter, dir repository.SortDirection) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.match(f)
	sortByDue(out, dir)
	return out, nil
}

func (s *TaskStore) Paginate(_ context.Context, q repository.PageQuery) (*models.TaskPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if q.Page < 1 {
		q.Page = repository.DefaultPage
	}
	if q.Size < 1 {
		q.Size = repository.DefaultPageSize
	}
	all := s.match(repository.TaskFilter{OwnerID: q.OwnerID})
	if q.Order == repository.OrderDueDesc {
		sortByDue(all, repository.SortDescending)
	}

	page := &models.TaskPage{Data: []models.Task{}, Page: q.Page, Limit: q.Size, Total: len(all)}
	page.TotalPages = repository.TotalPages(len(all), q.Size)
	start := (q.Page - 1) * q.Size
	if start < len(all) {
		end := start + q.Size
		if end > len(all) {
			end = len(all)
		}
		page.Data = append(page.Data, all[start:end]...)
	}
	return page, nil
}

func (s *TaskStore) Update(_ context.Context, id, ownerID string, p models.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.tasks[id]
	if !ok || !e.task.OwnedBy(ownerID) {
		return nil, repository.ErrNotFound
	}
	if p.Title != nil {
		e.task.Title = *p.Title
	}
	if p.Description != nil {
		e.task.Description = *p.Description
	}
	if p.DueDate != nil {
		d := *p.DueDate
		e.task.DueDate = &d
	}
	if p.Completed != nil {
		e.task.Completed = *p.Completed
	}
	e.task.UpdatedAt = time.Now()
	t := e.task
	return &t, nil
}

func (s *TaskStore) Delete(_ context.Context, id, ownerID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.tasks[id]
	if !ok || !e.task.OwnedBy(ownerID) {
		return nil, repository.ErrNotFound
	}
	delete(s.tasks, id)
	t := e.task
	return &t, nil
}

// match returns filtered tasks in insertion order.
func (s *TaskStore) match(f repository.TaskFilter) []models.Task {
	entries := make([]*entry, 0, len(s.tasks))
	for _, e := range s.tasks {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	var titles map[string]bool
	if f.Titles != nil {
		titles = map[string]bool{}
		for _, t := range f.Titles {
			titles[t] = true
		}
	}

	out := []models.Task{}
	for _, e := range entries {
		t := e.task
		if f.OwnerID != "" && !t.OwnedBy(f.OwnerID) {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
			continue
		}
		if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
			continue
		}
		if titles != nil && !titles[t.Title] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortByDue(tasks []models.Task, dir repository.SortDirection) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case dir == repository.SortAscending:
			return a.Before(*b)
		default:
			return a.After(*b)
		}
	})
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type UserStore struct {
	mu    sync.Mutex
	users map[string]models.User

	// Err, when set, is returned by every call.
	Err error
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]models.User{}}
}

func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Kind == "" {
		u.Kind = models.AccountKindUser
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.Email, upd.Email)
	set(&u.Name, upd.Name)
	set(&u.ProfilePicture, upd.ProfilePicture)
	set(&u.Bio, upd.Bio)
	set(&u.DeviceToken, upd.DeviceToken)
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

// Put stores u as-is, bypassing uniqueness checks.
func (s *UserStore) Put(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

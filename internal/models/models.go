package models

import (
	"time"
)

// AccountKind membatasi jenis akun. Saat ini hanya ada satu nilai.
type AccountKind string

const AccountKindUser AccountKind = "USER"

type User struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	Password       string      `json:"-"`
	Name           string      `json:"name,omitempty"`
	ProfilePicture string      `json:"profilePicture,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	DeviceToken    string      `json:"-"`
	Kind           AccountKind `json:"userType"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ProfileUpdate holds optional profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	Email          *string
	Name           *string
	ProfilePicture *string
	Bio            *string
	DeviceToken    *string
}

type Task struct {
	ID          string     `json:"id"`
	UserID      *string    `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// OwnedBy reports whether the task belongs to userID.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && t.UserID != nil && *t.UserID == userID
}

// TaskPatch is a partial task update; nil fields are kept.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
}

type TaskPage struct {
	Data       []Task `json:"data"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"-"`
}

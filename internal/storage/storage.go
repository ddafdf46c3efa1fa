package storage

import (
	"context"
	"errors"

	"github.com/adanyl0v/tasklist/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrTransient marks failures the caller may retry as a whole,
	// e.g. a lost connection or an expired deadline.
	ErrTransient = errors.New("storage temporarily unavailable")
)

type TaskStore interface {
	// CreateTask assigns the ID and timestamps of the task and inserts it
	// under task.OwnerID.
	CreateTask(ctx context.Context, task *models.Task) error

	// GetTasks returns the owner's tasks matching the query. The result
	// is never nil on success.
	GetTasks(ctx context.Context, query models.TaskQuery) ([]*models.Task, error)

	// GetTask returns ErrNotFound if the owner has no task with that ID.
	GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error)

	// UpdateTask applies the non-nil fields of the update in a single
	// statement and returns the resulting task. It returns ErrNotFound if
	// the owner has no task with that ID.
	UpdateTask(ctx context.Context, ownerID, taskID string, update models.TaskUpdate) (*models.Task, error)

	// DeleteTask returns ErrNotFound if nothing was deleted.
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	// ReorderTasks sets the order of every listed task owned by ownerID
	// within one transaction. IDs the owner does not have are skipped.
	ReorderTasks(ctx context.Context, ownerID string, items []models.ReorderItem) error
}

type UserStore interface {
	// CreateUser returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Store interface {
	TaskStore
	UserStore

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error
	Close() error
}

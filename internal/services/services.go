package services

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/tasklist/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTransient          = errors.New("temporarily unavailable")
)

type AuthService interface {
	// Register creates a user with the given name, email and password
	// and issues an access token for it.
	//
	// It returns a *ValidationError if any field is invalid and
	// ErrUserAlreadyExists if the email is taken.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login authenticates the user by email and password.
	//
	// It returns ErrInvalidCredentials both when the email is unknown
	// and when the password does not match.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// GetUser returns ErrUserNotFound if the user no longer exists.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// VerifyToken checks the signature, issuer and expiry of the token
	// and returns the user ID it was issued for, or ErrInvalidToken.
	VerifyToken(token string) (string, error)
}

type TaskService interface {
	// CreateTask validates the params and stores a new task owned by
	// ownerID. Every violated field is reported in one *ValidationError.
	CreateTask(ctx context.Context, ownerID string, params CreateTaskParams) (*models.Task, error)

	// GetTasks returns the owner's tasks matching the filter and sort
	// parameters. Invalid parameters yield a *ValidationError.
	GetTasks(ctx context.Context, ownerID string, params TaskQueryParams) ([]*models.Task, error)

	// UpdateTask applies the supplied fields all at once or not at all.
	// It returns ErrTaskNotFound if ownerID has no task with that ID.
	UpdateTask(ctx context.Context, ownerID, taskID string, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask returns ErrTaskNotFound if ownerID has no task with
	// that ID, including when it was already deleted.
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	// ReorderTasks applies the batch atomically. Tasks not owned by
	// ownerID are skipped. Storage failures yield ErrTransient and leave
	// every task untouched.
	ReorderTasks(ctx context.Context, ownerID string, items []models.ReorderItem) error
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User                 *models.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type CreateTaskParams struct {
	Title       string
	Description *string
	Completed   *bool
	Priority    *string
	Category    *string
	DueDate     *string
	Order       *int64
}

// UpdateTaskParams holds the mutable fields of a task. Nil fields are
// left unchanged; ClearDueDate removes the due date.
type UpdateTaskParams struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *string
	Category     *string
	DueDate      *string
	ClearDueDate bool
	Order        *int64
}

// TaskQueryParams are the raw list parameters. Empty values impose no
// constraint.
type TaskQueryParams struct {
	Completed string
	Category  string
	Priority  string
	SortBy    string
}

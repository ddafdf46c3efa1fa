package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasklist/internal/models"
	"github.com/adanyl0v/tasklist/internal/storage"
)

const maxTitleLength = 255

type taskServiceImpl struct {
	logger         zerolog.Logger
	store          storage.TaskStore
	reorderTimeout time.Duration
}

func NewTaskService(
	logger zerolog.Logger,
	store storage.TaskStore,
	reorderTimeout time.Duration,
) TaskService {
	return &taskServiceImpl{
		logger:         logger,
		store:          store,
		reorderTimeout: reorderTimeout,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, ownerID string, params CreateTaskParams) (*models.Task, error) {
	verr := &ValidationError{}
	task := newTask(verr, ownerID, params)

	if verr.HasErrors() {
		s.logger.Debug().
			Str("user_id", ownerID).
			Err(verr).
			Msg("rejected task")
		return nil, verr
	}

	err := s.store.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Msg("failed to insert task")
		return nil, s.storageError(err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", ownerID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, ownerID string, params TaskQueryParams) ([]*models.Task, error) {
	query, err := BuildTaskQuery(ownerID, params)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("user_id", ownerID).
			Msg("rejected task query")
		return nil, err
	}

	tasks, err := s.store.GetTasks(ctx, query)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Msg("failed to select tasks")
		return nil, s.storageError(err)
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", ownerID).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, ownerID, taskID string, params UpdateTaskParams) (*models.Task, error) {
	verr := &ValidationError{}
	update := newTaskUpdate(verr, params)

	if verr.HasErrors() {
		s.logger.Debug().
			Err(verr).
			Str("task_id", taskID).
			Msg("rejected task update")
		return nil, verr
	}

	task, err := s.store.UpdateTask(ctx, ownerID, taskID, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("task_id", taskID).
				Str("user_id", ownerID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task")
		return nil, s.storageError(err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", ownerID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	err := s.store.DeleteTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("task_id", taskID).
				Str("user_id", ownerID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return s.storageError(err)
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", ownerID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) ReorderTasks(ctx context.Context, ownerID string, items []models.ReorderItem) error {
	verr := &ValidationError{}
	ValidateReorderItems(verr, items)
	if verr.HasErrors() {
		return verr
	}
	if len(items) == 0 {
		s.logger.Debug().
			Str("user_id", ownerID).
			Msg("empty reorder batch")
		return nil
	}

	if s.reorderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reorderTimeout)
		defer cancel()
	}

	err := s.store.ReorderTasks(ctx, ownerID, items)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Int("count", len(items)).
			Msg("failed to reorder tasks")
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	s.logger.Info().
		Str("user_id", ownerID).
		Int("count", len(items)).
		Msg("reordered tasks")
	return nil
}

func (s *taskServiceImpl) storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrTaskNotFound
	case errors.Is(err, storage.ErrTransient):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

// ValidateCreateTask adds every violation of params to verr.
func ValidateCreateTask(verr *ValidationError, params CreateTaskParams) {
	newTask(verr, "", params)
}

// ValidateUpdateTask adds every violation of params to verr.
func ValidateUpdateTask(verr *ValidationError, params UpdateTaskParams) {
	newTaskUpdate(verr, params)
}

// ValidateReorderItems reports every item without an ID as tasks[i].id.
func ValidateReorderItems(verr *ValidationError, items []models.ReorderItem) {
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			verr.Add(fmt.Sprintf("tasks[%d].id", i), "is required")
		}
	}
}

func newTask(verr *ValidationError, ownerID string, params CreateTaskParams) *models.Task {
	task := &models.Task{
		OwnerID:  ownerID,
		Priority: models.DefaultPriority,
		Category: models.DefaultCategory,
	}

	task.Title = validateTitle(verr, params.Title)
	if params.Description != nil {
		task.Description = strings.TrimSpace(*params.Description)
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	if params.Priority != nil {
		if p, ok := validatePriority(verr, *params.Priority); ok {
			task.Priority = p
		}
	}
	if params.Category != nil {
		if c, ok := validateCategory(verr, *params.Category); ok {
			task.Category = c
		}
	}
	if params.DueDate != nil {
		if d, ok := validateDueDate(verr, *params.DueDate); ok {
			task.DueDate = &d
		}
	}
	if params.Order != nil {
		task.Order = *params.Order
	}
	return task
}

func newTaskUpdate(verr *ValidationError, params UpdateTaskParams) models.TaskUpdate {
	var update models.TaskUpdate
	if params.Title != nil {
		title := validateTitle(verr, *params.Title)
		update.Title = &title
	}
	if params.Description != nil {
		description := strings.TrimSpace(*params.Description)
		update.Description = &description
	}
	update.Completed = params.Completed
	if params.Priority != nil {
		if p, ok := validatePriority(verr, *params.Priority); ok {
			update.Priority = &p
		}
	}
	if params.Category != nil {
		if c, ok := validateCategory(verr, *params.Category); ok {
			update.Category = &c
		}
	}
	if params.ClearDueDate {
		update.ClearDueDate = true
	} else if params.DueDate != nil {
		if d, ok := validateDueDate(verr, *params.DueDate); ok {
			update.DueDate = &d
		}
	}
	update.Order = params.Order
	return update
}

func validateTitle(verr *ValidationError, title string) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		verr.Add("title", "must not be empty")
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return title
}

func validatePriority(verr *ValidationError, s string) (models.Priority, bool) {
	p, err := models.ParsePriority(s)
	if err != nil {
		verr.Add("priority", fmt.Sprintf("must be one of %s", joinPriorities()))
		return "", false
	}
	return p, true
}

func validateCategory(verr *ValidationError, s string) (models.Category, bool) {
	c, err := models.ParseCategory(s)
	if err != nil {
		verr.Add("category", fmt.Sprintf("must be one of %s", joinCategories()))
		return "", false
	}
	return c, true
}

func validateDueDate(verr *ValidationError, s string) (time.Time, bool) {
	d, err := models.ParseDate(s)
	if err != nil {
		verr.Add("dueDate", "must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return d, true
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/tasklist/internal/models"
	"github.com/adanyl0v/tasklist/internal/storage"
)

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task     models.Task
		priority string
		category string
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&category,
		&task.DueDate,
		&task.Order,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Priority = models.Priority(priority)
	task.Category = models.Category(category)
	return &task, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate task uuid: %w", err)
	}
	now := time.Now().Truncate(time.Microsecond)
	task.ID = taskUUID.String()
	task.CreatedAt = now
	task.UpdatedAt = now

	query, args := storage.InsertTaskQuery(dialect, task)
	_, err = s.pgPool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", classify(err))
	}
	return nil
}

func (s *Store) GetTasks(ctx context.Context, q models.TaskQuery) ([]*models.Task, error) {
	query, args, err := storage.SelectTasksQuery(dialect, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", classify(err))
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", classify(err))
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM tasks
WHERE id = $1 AND
      user_id = $2
`, storage.TaskColumns)
	task, err := scanTask(s.pgPool.QueryRow(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	query, args := storage.UpdateTaskQuery(dialect, ownerID, taskID, update, time.Now())
	task, err := scanTask(s.pgPool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND
      user_id = $2
`
	tag, err := s.pgPool.Exec(ctx, deleteTaskQuery, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ReorderTasks(ctx context.Context, ownerID string, items []models.ReorderItem) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := storage.ReorderTaskQuery(dialect)
	now := dialect.Time(time.Now())

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.Order, now, item.ID, ownerID)
	}

	results := tx.SendBatch(ctx, batch)
	for _, item := range items {
		_, err = results.Exec()
		if err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to update order of task %s: %w", item.ID, classify(err))
		}
	}
	err = results.Close()
	if err != nil {
		return fmt.Errorf("failed to close batch: %w", classify(err))
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adanyl0v/tasklist/internal/models"
	"github.com/adanyl0v/tasklist/internal/storage"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		task      models.Task
		priority  string
		category  string
		dueDate   sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&category,
		&dueDate,
		&task.Order,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = models.Priority(priority)
	task.Category = models.Category(category)
	if dueDate.Valid {
		t, err := time.Parse(time.DateOnly, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored due date %q: %w", dueDate.String, err)
		}
		task.DueDate = &t
	}
	task.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	task.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate task uuid: %w", err)
	}
	now := time.Now().UTC()
	task.ID = taskUUID.String()
	task.CreatedAt = now
	task.UpdatedAt = now

	query, args := storage.InsertTaskQuery(dialect, task)
	_, err = s.db.ExecContext(ctx, query, args...)
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

	rows, err := s.db.QueryContext(ctx, query, args...)
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
WHERE id = ? AND
      user_id = ?
`, storage.TaskColumns)
	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	query, args := storage.UpdateTaskQuery(dialect, ownerID, taskID, update, time.Now().UTC())
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = ? AND
      user_id = ?
`
	result, err := s.db.ExecContext(ctx, deleteTaskQuery, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", classify(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ReorderTasks(ctx context.Context, ownerID string, items []models.ReorderItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, storage.ReorderTaskQuery(dialect))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", classify(err))
	}
	defer stmt.Close()

	now := dialect.Time(time.Now())
	for _, item := range items {
		_, err = stmt.ExecContext(ctx, item.Order, now, item.ID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to update order of task %s: %w", item.ID, classify(err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

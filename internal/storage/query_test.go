package storage

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasklist/internal/models"
)

var testDialect = Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Time:        func(t time.Time) any { return t },
	Date:        func(t time.Time) any { return t.Format(time.DateOnly) },
}

func TestSelectTasksQuery_OwnerScoped(t *testing.T) {
	query, args, err := SelectTasksQuery(testDialect, models.TaskQuery{OwnerID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE user_id = $1")
	assert.Contains(t, query, "ORDER BY sort_order ASC, id ASC")
	assert.Equal(t, []any{"u1"}, args)
}

func TestSelectTasksQuery_RequiresOwner(t *testing.T) {
	_, _, err := SelectTasksQuery(testDialect, models.TaskQuery{})
	assert.Error(t, err)
}

func TestSelectTasksQuery_Filters(t *testing.T) {
	completed := true
	category := models.CategoryWork
	priority := models.PriorityHigh

	query, args, err := SelectTasksQuery(testDialect, models.TaskQuery{
		OwnerID:   "u1",
		Completed: &completed,
		Category:  &category,
		Priority:  &priority,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "user_id = $1 AND completed = $2 AND category = $3 AND priority = $4")
	assert.Equal(t, []any{"u1", true, "Work", "High"}, args)
}

func TestSelectTasksQuery_Sort(t *testing.T) {
	tests := []struct {
		name string
		sort models.TaskSort
		want string
	}{
		{
			name: "title ascending",
			sort: models.TaskSort{Field: models.SortByTitle, Direction: models.SortAsc},
			want: "ORDER BY title ASC, id ASC",
		},
		{
			name: "empty direction means ascending",
			sort: models.TaskSort{Field: models.SortByOrder},
			want: "ORDER BY sort_order ASC, id ASC",
		},
		{
			name: "priority follows declared rank",
			sort: models.TaskSort{Field: models.SortByPriority, Direction: models.SortDesc},
			want: "ORDER BY CASE priority WHEN 'Low' THEN 1 WHEN 'Medium' THEN 2 WHEN 'High' THEN 3 ELSE 0 END DESC, id ASC",
		},
		{
			name: "category follows declared rank",
			sort: models.TaskSort{Field: models.SortByCategory, Direction: models.SortAsc},
			want: "ORDER BY CASE category WHEN 'Work' THEN 1 WHEN 'Personal' THEN 2 WHEN 'Learning' THEN 3 ELSE 0 END ASC, id ASC",
		},
		{
			name: "due date keeps missing dates last",
			sort: models.TaskSort{Field: models.SortByDueDate, Direction: models.SortDesc},
			want: "ORDER BY due_date IS NULL ASC, due_date DESC, id ASC",
		},
		{
			name: "created at",
			sort: models.TaskSort{Field: models.SortByCreatedAt, Direction: models.SortDesc},
			want: "ORDER BY created_at DESC, id ASC",
		},
		{
			name: "updated at",
			sort: models.TaskSort{Field: models.SortByUpdatedAt, Direction: models.SortAsc},
			want: "ORDER BY updated_at ASC, id ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sort := tt.sort
			query, _, err := SelectTasksQuery(testDialect, models.TaskQuery{OwnerID: "u1", Sort: &sort})
			require.NoError(t, err)
			assert.Contains(t, query, tt.want)
		})
	}
}

func TestSelectTasksQuery_RankMatchesModels(t *testing.T) {
	query, _, err := SelectTasksQuery(testDialect, models.TaskQuery{
		OwnerID: "u1",
		Sort:    &models.TaskSort{Field: models.SortByPriority, Direction: models.SortAsc},
	})
	require.NoError(t, err)
	for _, p := range models.Priorities {
		assert.Contains(t, query, fmt.Sprintf("WHEN '%s' THEN %d", p, p.Rank()))
	}

	query, _, err = SelectTasksQuery(testDialect, models.TaskQuery{
		OwnerID: "u1",
		Sort:    &models.TaskSort{Field: models.SortByCategory, Direction: models.SortAsc},
	})
	require.NoError(t, err)
	for _, c := range models.Categories {
		assert.Contains(t, query, fmt.Sprintf("WHEN '%s' THEN %d", c, c.Rank()))
	}
}

func TestSelectTasksQuery_RejectsUnknownSort(t *testing.T) {
	_, _, err := SelectTasksQuery(testDialect, models.TaskQuery{
		OwnerID: "u1",
		Sort:    &models.TaskSort{Field: "owner; DROP TABLE tasks", Direction: models.SortAsc},
	})
	assert.Error(t, err)

	_, _, err = SelectTasksQuery(testDialect, models.TaskQuery{
		OwnerID: "u1",
		Sort:    &models.TaskSort{Field: models.SortByTitle, Direction: "sideways"},
	})
	assert.Error(t, err)
}

func TestUpdateTaskQuery_OnlySuppliedFields(t *testing.T) {
	title := "new title"
	order := int64(4)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	query, args := UpdateTaskQuery(testDialect, "u1", "t1", models.TaskUpdate{
		Title: &title,
		Order: &order,
	}, now)

	assert.Contains(t, query, "title = $1")
	assert.Contains(t, query, "sort_order = $2")
	assert.Contains(t, query, "updated_at = $3")
	assert.Contains(t, query, "WHERE id = $4 AND\n      user_id = $5")
	assert.NotContains(t, query, "description =")
	assert.NotContains(t, query, "due_date =")
	assert.Equal(t, []any{"new title", int64(4), now, "t1", "u1"}, args)
}

func TestUpdateTaskQuery_ClearDueDate(t *testing.T) {
	query, args := UpdateTaskQuery(testDialect, "u1", "t1", models.TaskUpdate{ClearDueDate: true}, time.Now())

	assert.Contains(t, query, "due_date = NULL")
	assert.Len(t, args, 3)
}

func TestInsertTaskQuery(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	task := &models.Task{
		ID:       "t1",
		OwnerID:  "u1",
		Title:    "title",
		Priority: models.PriorityLow,
		Category: models.CategoryLearning,
		DueDate:  &due,
		Order:    3,
	}

	query, args := InsertTaskQuery(testDialect, task)
	assert.Contains(t, query, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)")
	require.Len(t, args, 11)
	assert.Equal(t, "Low", args[5])
	assert.Equal(t, "Learning", args[6])
	assert.Equal(t, "2026-05-01", args[7])
	assert.Equal(t, int64(3), args[8])
}

func TestReorderTaskQuery(t *testing.T) {
	query := ReorderTaskQuery(testDialect)
	assert.Contains(t, query, "SET sort_order = $1")
	assert.Contains(t, query, "WHERE id = $3 AND\n      user_id = $4")
}

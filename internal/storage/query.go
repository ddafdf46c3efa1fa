package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/adanyl0v/tasklist/internal/models"
)

// TaskColumns is the column list every task query selects, in scan order.
const TaskColumns = `id,
       user_id,
       title,
       description,
       completed,
       priority,
       category,
       due_date,
       sort_order,
       created_at,
       updated_at`

// Dialect describes how a SQL backend binds parameters and encodes values.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	Time        func(t time.Time) any
	Date        func(t time.Time) any
}

type queryBuilder struct {
	dialect Dialect
	args    []any
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *queryBuilder) date(t *time.Time) string {
	if t == nil {
		return b.bind(nil)
	}
	return b.bind(b.dialect.Date(*t))
}

// SelectTasksQuery renders an owner-scoped SELECT for the query. Only
// whitelisted column expressions are interpolated; every value is bound.
func SelectTasksQuery(d Dialect, q models.TaskQuery) (string, []any, error) {
	if q.OwnerID == "" {
		return "", nil, fmt.Errorf("owner id is required")
	}

	b := &queryBuilder{dialect: d}
	where := []string{"user_id = " + b.bind(q.OwnerID)}
	if q.Completed != nil {
		where = append(where, "completed = "+b.bind(*q.Completed))
	}
	if q.Category != nil {
		where = append(where, "category = "+b.bind(string(*q.Category)))
	}
	if q.Priority != nil {
		where = append(where, "priority = "+b.bind(string(*q.Priority)))
	}

	orderBy, err := orderByClause(q.Sort)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM tasks
WHERE %s
ORDER BY %s
`, TaskColumns, strings.Join(where, " AND "), orderBy)
	return query, b.args, nil
}

func orderByClause(sort *models.TaskSort) (string, error) {
	if sort == nil {
		return "sort_order ASC, id ASC", nil
	}

	var direction string
	switch sort.Direction {
	case models.SortAsc, "":
		direction = "ASC"
	case models.SortDesc:
		direction = "DESC"
	default:
		return "", fmt.Errorf("unsupported sort direction %q", sort.Direction)
	}

	var expr string
	switch sort.Field {
	case models.SortByTitle:
		expr = "title"
	case models.SortByPriority:
		expr = rankExpr("priority", priorityRanks())
	case models.SortByCategory:
		expr = rankExpr("category", categoryRanks())
	case models.SortByDueDate:
		// Tasks without a due date go last in both directions.
		return fmt.Sprintf("due_date IS NULL ASC, due_date %s, id ASC", direction), nil
	case models.SortByOrder:
		expr = "sort_order"
	case models.SortByCreatedAt:
		expr = "created_at"
	case models.SortByUpdatedAt:
		expr = "updated_at"
	default:
		return "", fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	return fmt.Sprintf("%s %s, id ASC", expr, direction), nil
}

type rankedValue struct {
	value string
	rank  int
}

// rankExpr maps an enumeration column onto its declared rank so that
// sorting follows the enumeration order instead of the text order.
func rankExpr(column string, values []rankedValue) string {
	var sb strings.Builder
	sb.WriteString("CASE ")
	sb.WriteString(column)
	for _, v := range values {
		fmt.Fprintf(&sb, " WHEN '%s' THEN %d", v.value, v.rank)
	}
	sb.WriteString(" ELSE 0 END")
	return sb.String()
}

func priorityRanks() []rankedValue {
	ranks := make([]rankedValue, len(models.Priorities))
	for i, p := range models.Priorities {
		ranks[i] = rankedValue{value: string(p), rank: p.Rank()}
	}
	return ranks
}

func categoryRanks() []rankedValue {
	ranks := make([]rankedValue, len(models.Categories))
	for i, c := range models.Categories {
		ranks[i] = rankedValue{value: string(c), rank: c.Rank()}
	}
	return ranks
}

// InsertTaskQuery renders the INSERT for a task whose ID and timestamps
// are already assigned.
func InsertTaskQuery(d Dialect, task *models.Task) (string, []any) {
	b := &queryBuilder{dialect: d}
	query := fmt.Sprintf(`
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   completed,
                   priority,
                   category,
                   due_date,
                   sort_order,
                   created_at,
                   updated_at)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
`,
		b.bind(task.ID),
		b.bind(task.OwnerID),
		b.bind(task.Title),
		b.bind(task.Description),
		b.bind(task.Completed),
		b.bind(string(task.Priority)),
		b.bind(string(task.Category)),
		b.date(task.DueDate),
		b.bind(task.Order),
		b.bind(d.Time(task.CreatedAt)),
		b.bind(d.Time(task.UpdatedAt)),
	)
	return query, b.args
}

// UpdateTaskQuery renders a single UPDATE ... RETURNING statement that
// changes only the supplied fields of one owned task.
func UpdateTaskQuery(d Dialect, ownerID, taskID string, u models.TaskUpdate, now time.Time) (string, []any) {
	b := &queryBuilder{dialect: d}

	var set []string
	if u.Title != nil {
		set = append(set, "title = "+b.bind(*u.Title))
	}
	if u.Description != nil {
		set = append(set, "description = "+b.bind(*u.Description))
	}
	if u.Completed != nil {
		set = append(set, "completed = "+b.bind(*u.Completed))
	}
	if u.Priority != nil {
		set = append(set, "priority = "+b.bind(string(*u.Priority)))
	}
	if u.Category != nil {
		set = append(set, "category = "+b.bind(string(*u.Category)))
	}
	if u.ClearDueDate {
		set = append(set, "due_date = NULL")
	} else if u.DueDate != nil {
		set = append(set, "due_date = "+b.date(u.DueDate))
	}
	if u.Order != nil {
		set = append(set, "sort_order = "+b.bind(*u.Order))
	}
	set = append(set, "updated_at = "+b.bind(d.Time(now)))

	query := fmt.Sprintf(`
UPDATE tasks
SET %s
WHERE id = %s AND
      user_id = %s
RETURNING %s
`, strings.Join(set, ",\n    "), b.bind(taskID), b.bind(ownerID), TaskColumns)
	return query, b.args
}

// ReorderTaskQuery renders the per-item statement of a reorder batch. Its
// parameters are, in order: sort order, updated at, task ID, owner ID.
func ReorderTaskQuery(d Dialect) string {
	return fmt.Sprintf(`
UPDATE tasks
SET sort_order = %s,
    updated_at = %s
WHERE id = %s AND
      user_id = %s
`, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
}

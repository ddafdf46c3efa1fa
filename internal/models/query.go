package models

type SortField string

const (
	SortByTitle     SortField = "title"
	SortByPriority  SortField = "priority"
	SortByCategory  SortField = "category"
	SortByDueDate   SortField = "dueDate"
	SortByOrder     SortField = "order"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// SortFields lists every field a task list can be sorted by.
var SortFields = []SortField{
	SortByTitle,
	SortByPriority,
	SortByCategory,
	SortByDueDate,
	SortByOrder,
	SortByCreatedAt,
	SortByUpdatedAt,
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type TaskSort struct {
	Field     SortField
	Direction SortDirection
}

// TaskQuery is a validated retrieval plan over one owner's tasks.
// Nil filters impose no constraint. A nil Sort selects the manual ordering.
type TaskQuery struct {
	OwnerID   string
	Completed *bool
	Category  *Category
	Priority  *Priority
	Sort      *TaskSort
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a task due date.
const DateLayout = time.DateOnly

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the valid priorities in ascending rank.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Rank returns the 1-based position of p in Priorities, 0 if p is unknown.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryLearning Category = "Learning"
)

// Categories lists the valid categories in declaration order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryLearning}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Rank returns the 1-based position of c in Categories, 0 if c is unknown.
func (c Category) Rank() int {
	for i, v := range Categories {
		if v == c {
			return i + 1
		}
	}
	return 0
}

const (
	DefaultPriority = PriorityMedium
	DefaultCategory = CategoryPersonal
)

type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	Category    Category
	DueDate     *time.Time
	Order       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate holds the mutable task fields. A nil field is left unchanged.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *Priority
	Category     *Category
	DueDate      *time.Time
	ClearDueDate bool
	Order        *int64
}

type ReorderItem struct {
	ID    string
	Order int64
}

// ParseDate accepts either a calendar date or an RFC 3339 timestamp and
// returns midnight UTC of the resulting day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adanyl0v/tasklist/internal/models"
)

// BuildTaskQuery turns raw list parameters into an owner-scoped retrieval
// plan. Every invalid parameter is reported in one *ValidationError.
func BuildTaskQuery(ownerID string, params TaskQueryParams) (models.TaskQuery, error) {
	query := models.TaskQuery{OwnerID: ownerID}
	verr := &ValidationError{}

	if params.Completed != "" {
		completed, err := strconv.ParseBool(params.Completed)
		if err != nil {
			verr.Add("completed", "must be true or false")
		} else {
			query.Completed = &completed
		}
	}

	if params.Category != "" {
		category, err := models.ParseCategory(params.Category)
		if err != nil {
			verr.Add("category", fmt.Sprintf("must be one of %s", joinCategories()))
		} else {
			query.Category = &category
		}
	}

	if params.Priority != "" {
		priority, err := models.ParsePriority(params.Priority)
		if err != nil {
			verr.Add("priority", fmt.Sprintf("must be one of %s", joinPriorities()))
		} else {
			query.Priority = &priority
		}
	}

	if params.SortBy != "" {
		sort, err := parseSortBy(params.SortBy)
		if err != nil {
			verr.Add("sortBy", err.Error())
		} else {
			query.Sort = sort
		}
	}

	if verr.HasErrors() {
		return models.TaskQuery{}, verr
	}
	return query, nil
}

// parseSortBy parses "field[:direction]". The direction defaults to asc.
func parseSortBy(s string) (*models.TaskSort, error) {
	field, direction, hasDirection := strings.Cut(s, ":")

	sort := &models.TaskSort{Direction: models.SortAsc}
	for _, f := range models.SortFields {
		if string(f) == field {
			sort.Field = f
			break
		}
	}
	if sort.Field == "" {
		names := make([]string, len(models.SortFields))
		for i, f := range models.SortFields {
			names[i] = string(f)
		}
		return nil, fmt.Errorf("unsupported sort field %q, must be one of %s", field, strings.Join(names, ", "))
	}

	if hasDirection {
		switch models.SortDirection(direction) {
		case models.SortAsc:
		case models.SortDesc:
			sort.Direction = models.SortDesc
		default:
			return nil, fmt.Errorf("unsupported sort direction %q, must be asc or desc", direction)
		}
	}
	return sort, nil
}

func joinPriorities() string {
	names := make([]string, len(models.Priorities))
	for i, p := range models.Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func joinCategories() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

package models

import (
	"time"
)

// SortOrder controls date ordering of an expense sequence.
type SortOrder string

const (
	SortDesc SortOrder = "desc" // most recent first (default)
	SortAsc  SortOrder = "asc"
)

// IsValid reports whether the sort order is one of the known values.
func (o SortOrder) IsValid() bool {
	return o == SortDesc || o == SortAsc
}

// ExpenseFilters contains filtering options for the derived expense view.
// A nil date bound means unbounded on that side; an empty category list means
// no category filtering. Date bounds are inclusive.
type ExpenseFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Categories []string
	SortOrder  SortOrder
}

// Matches reports whether the expense passes the date-range and category
// membership tests.
func (f ExpenseFilters) Matches(e Expense) bool {
	if f.StartDate != nil && e.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.Date.After(*f.EndDate) {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if e.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

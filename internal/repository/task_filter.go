package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// TaskFilter is a fixed-shape conjunction of task predicates. Zero values
// mean "no constraint", except Titles: a non-nil empty slice matches nothing.
type TaskFilter struct {
	OwnerID   string
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
	Titles    []string
}

func (f TaskFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(format string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if f.OwnerID != "" {
		add("user_id = $%d", f.OwnerID)
	}
	if f.Completed != nil {
		add("completed = $%d", *f.Completed)
	}
	if f.DueFrom != nil {
		add("due_date >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		add("due_date <= $%d", *f.DueTo)
	}
	if f.Titles != nil {
		add("title = ANY($%d)", pq.Array(f.Titles))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// ParseSortDirection defaults to descending for anything but "ascending".
func ParseSortDirection(s string) SortDirection {
	if SortDirection(s) == SortAscending {
		return SortAscending
	}
	return SortDescending
}

// PageOrder selects the ordering used for paginated reads.
type PageOrder int

const (
	// OrderInsertion keeps creation order.
	OrderInsertion PageOrder = iota
	// OrderDueDesc puts the latest due date first.
	OrderDueDesc
)

const insertionOrder = "created_at ASC, id ASC"

// dueOrder sorts by due date; tasks without a due date always come last.
func dueOrder(dir SortDirection) string {
	if dir == SortAscending {
		return "due_date ASC NULLS LAST, " + insertionOrder
	}
	return "due_date DESC NULLS LAST, " + insertionOrder
}

func (o PageOrder) clause() string {
	if o == OrderDueDesc {
		return dueOrder(SortDescending)
	}
	return insertionOrder
}

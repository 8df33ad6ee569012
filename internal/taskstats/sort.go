package taskstats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/rezkam/taskdeck/internal/domain"
)

// SortKey names the task field to sort by.
type SortKey string

const (
	SortByDeadline    SortKey = "deadline"
	SortByCreatedAt   SortKey = "created_at"
	SortByUpdatedAt   SortKey = "updated_at"
	SortByTitle       SortKey = "title"
	SortByDescription SortKey = "description"
	SortByPriority    SortKey = "priority"
	SortByStatus      SortKey = "status"
	SortByID          SortKey = "id"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Defaults used by list views.
const (
	DefaultSortKey   = SortByDeadline
	DefaultSortOrder = Asc
)

var sortKeys = []SortKey{
	SortByDeadline, SortByCreatedAt, SortByUpdatedAt, SortByTitle,
	SortByDescription, SortByPriority, SortByStatus, SortByID,
}

// ParseSortKey validates a user-supplied sort key. Empty input yields DefaultSortKey.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSortKey, nil
	}
	key := SortKey(strings.ToLower(s))
	if !slices.Contains(sortKeys, key) {
		return "", fmt.Errorf("unsupported sort key %q", s)
	}
	return key, nil
}

// ParseSortOrder validates a user-supplied direction. Empty input yields DefaultSortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "":
		return DefaultSortOrder, nil
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("unsupported sort order %q (want asc or desc)", s)
	}
}

// SortTasks returns a stably sorted copy of tasks.
//
// Timestamp keys compare as instants, priority and status by their declared
// rank, and the remaining keys as strings. Values that cannot be compared
// (unparseable timestamps, unknown enum values) go last in both directions,
// the same way SQL orders NULLs. Tasks with equal keys keep their input
// order. An unknown key returns an unsorted copy; any order other than Desc
// sorts ascending.
func SortTasks(tasks []domain.Task, key SortKey, order SortOrder) []domain.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []domain.Task{}
	}

	compare := comparatorFor(key)
	if compare == nil {
		return out
	}

	desc := order == Desc
	slices.SortStableFunc(out, func(a, b domain.Task) int {
		c, ok := compare(&a, &b)
		if !ok {
			// At least one side is missing; missing values sort last regardless of direction.
			return c
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

// comparison returns (result, true) when both values are present, or a
// "missing last" result and false when either is missing.
type comparison func(a, b *domain.Task) (int, bool)

func comparatorFor(key SortKey) comparison {
	switch key {
	case SortByDeadline:
		return byTimestamp(func(t *domain.Task) domain.Timestamp { return t.Deadline })
	case SortByCreatedAt:
		return byTimestamp(func(t *domain.Task) domain.Timestamp { return t.CreatedAt })
	case SortByUpdatedAt:
		return byTimestamp(func(t *domain.Task) domain.Timestamp { return t.UpdatedAt })
	case SortByPriority:
		return byRank(func(t *domain.Task) int { return t.Priority.Rank() })
	case SortByStatus:
		return byRank(func(t *domain.Task) int { return t.Status.Rank() })
	case SortByTitle:
		return byString(func(t *domain.Task) string { return t.Title })
	case SortByDescription:
		return byString(func(t *domain.Task) string { return t.Description })
	case SortByID:
		return byString(func(t *domain.Task) string { return t.ID.String() })
	default:
		return nil
	}
}

func byTimestamp(get func(*domain.Task) domain.Timestamp) comparison {
	return func(a, b *domain.Task) (int, bool) {
		ta, tb := get(a), get(b)
		if c, missing := missingLast(ta.Valid(), tb.Valid()); missing {
			return c, false
		}
		return ta.Time().Compare(tb.Time()), true
	}
}

func byRank(get func(*domain.Task) int) comparison {
	return func(a, b *domain.Task) (int, bool) {
		ra, rb := get(a), get(b)
		if c, missing := missingLast(ra >= 0, rb >= 0); missing {
			return c, false
		}
		return cmp.Compare(ra, rb), true
	}
}

func byString(get func(*domain.Task) string) comparison {
	return func(a, b *domain.Task) (int, bool) {
		return cmp.Compare(get(a), get(b)), true
	}
}

// missingLast orders present values before missing ones.
// The second result is true when at least one side is missing.
func missingLast(aOK, bOK bool) (int, bool) {
	switch {
	case aOK && bOK:
		return 0, false
	case aOK:
		return -1, true
	case bOK:
		return 1, true
	default:
		return 0, true
	}
}

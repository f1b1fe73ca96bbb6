package services

import (
	"fmt"
	"slices"
	"strings"

	"civicsync-issues/models"
)

// SortKey orders query results.
type SortKey string

const (
	SortLatest            SortKey = "Latest"
	SortOldest            SortKey = "Oldest"
	SortHighPriorityFirst SortKey = "HighPriorityFirst"
	SortLowPriorityFirst  SortKey = "LowPriorityFirst"
)

// FilterAll is the sentinel that disables a category or priority filter.
const FilterAll = "All"

// ParseSortKey accepts the canonical names as well as the spaced, dashed and
// lower-case spellings clients send ("High Priority First", "high-priority-first").
// An empty value means SortLatest.
func ParseSortKey(s string) (SortKey, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "", "latest", "newest":
		return SortLatest, nil
	case "oldest":
		return SortOldest, nil
	case "highpriorityfirst":
		return SortHighPriorityFirst, nil
	case "lowpriorityfirst":
		return SortLowPriorityFirst, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// IssueQuery is the explicit filter and sort selection applied to a snapshot.
type IssueQuery struct {
	Search   string
	Category string
	Priority string
	Sort     SortKey
}

// isAll reports whether a filter value selects everything: empty, "all", or
// the "All Categories" / "All Priority" labels used by the web client.
func isAll(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "all" || strings.HasPrefix(v, "all ")
}

// Matches reports whether rec passes the search and filters of q.
func (q IssueQuery) Matches(rec *models.IssueRecord) bool {
	if needle := strings.ToLower(strings.TrimSpace(q.Search)); needle != "" {
		if !strings.Contains(strings.ToLower(rec.Title), needle) &&
			!strings.Contains(strings.ToLower(rec.Description), needle) {
			return false
		}
	}
	if !isAll(q.Category) && rec.Category != q.Category {
		return false
	}
	if !isAll(q.Priority) && string(rec.Priority) != q.Priority {
		return false
	}
	return true
}

// Apply filters and sorts records. The input slice is not modified and equal
// elements keep their input order, so the result depends only on the arguments.
//
// A record without a known priority weighs 0 and sorts below "low"; a zero
// CreatedAt sorts as the oldest record.
func (q IssueQuery) Apply(records []models.IssueRecord) []models.IssueRecord {
	out := make([]models.IssueRecord, 0, len(records))
	for i := range records {
		if q.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}

	if cmp := q.compare(); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func (q IssueQuery) compare() func(a, b models.IssueRecord) int {
	switch q.Sort {
	case SortOldest:
		return func(a, b models.IssueRecord) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortHighPriorityFirst:
		return func(a, b models.IssueRecord) int { return b.Priority.Weight() - a.Priority.Weight() }
	case SortLowPriorityFirst:
		return func(a, b models.IssueRecord) int { return a.Priority.Weight() - b.Priority.Weight() }
	case SortLatest, "":
		return func(a, b models.IssueRecord) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
	return nil
}

// WithCoordinates keeps only the records that can be placed on a map.
func WithCoordinates(records []models.IssueRecord) []models.IssueRecord {
	out := make([]models.IssueRecord, 0, len(records))
	for _, rec := range records {
		if rec.HasCoordinates() {
			out = append(out, rec)
		}
	}
	return out
}

package tracker

import (
	"sort"
	"strings"
	"time"
)

// FilterOptions narrows a history listing. Zero values mean "no filter".
type FilterOptions struct {
	Project       string
	ActivityTypes []ActivityType
	DateFrom      time.Time
	DateTo        time.Time
	Keyword       string
}

// Filter applies opts to entries and returns the matching subset.
func Filter(entries []Summary, opts FilterOptions) []Summary {
	out := entries

	if opts.Project != "" {
		term := strings.ToLower(opts.Project)
		out = keep(out, func(s Summary) bool {
			return s.Project != "" && strings.Contains(strings.ToLower(s.Project), term)
		})
	}

	if len(opts.ActivityTypes) > 0 {
		valid := map[ActivityType]bool{}
		for _, a := range opts.ActivityTypes {
			if a.Valid() {
				valid[a] = true
			}
		}
		if len(valid) > 0 {
			out = keep(out, func(s Summary) bool { return valid[s.ActivityType] })
		}
	}

	if !opts.DateFrom.IsZero() {
		out = keep(out, func(s Summary) bool { return !s.CreatedAt.Before(opts.DateFrom) })
	}
	if !opts.DateTo.IsZero() {
		out = keep(out, func(s Summary) bool { return !s.CreatedAt.After(opts.DateTo) })
	}

	if opts.Keyword != "" {
		term := strings.ToLower(opts.Keyword)
		out = keep(out, func(s Summary) bool { return matchesKeyword(s, term) })
	}

	return out
}

func keep(entries []Summary, pred func(Summary) bool) []Summary {
	out := make([]Summary, 0, len(entries))
	for _, s := range entries {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

func matchesKeyword(s Summary, term string) bool {
	if strings.Contains(strings.ToLower(s.Context), term) ||
		strings.Contains(strings.ToLower(s.Project), term) ||
		strings.Contains(strings.ToLower(s.InputExcerpt), term) {
		return true
	}
	for _, task := range s.GeneratedTasks {
		if strings.Contains(strings.ToLower(task), term) {
			return true
		}
	}
	for _, task := range s.OverlookedTasks {
		if strings.Contains(strings.ToLower(task), term) {
			return true
		}
	}
	return false
}

// ProjectSummary counts entries per project, broken down by activity
// type plus a "total" bucket. Entries without a project count under
// "Uncategorized".
func ProjectSummary(entries []Summary) map[string]map[string]int {
	out := map[string]map[string]int{}
	for _, s := range entries {
		project := s.Project
		if project == "" {
			project = "Uncategorized"
		}
		if out[project] == nil {
			out[project] = map[string]int{}
		}
		out[project][string(s.ActivityType)]++
		out[project]["total"]++
	}
	return out
}

// ActivitySummary counts entries per activity type.
func ActivitySummary(entries []Summary) map[string]int {
	out := map[string]int{}
	for _, s := range entries {
		out[string(s.ActivityType)]++
	}
	return out
}

// Projects returns the sorted distinct projects seen in entries.
func Projects(entries []Summary) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range entries {
		if s.Project != "" && !seen[s.Project] {
			seen[s.Project] = true
			out = append(out, s.Project)
		}
	}
	sort.Strings(out)
	return out
}

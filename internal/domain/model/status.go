package model

import "strings"

// ClosedStatuses is the set of workflow status names considered terminal.
// The set is tracker-workflow-specific configuration, not fixed logic;
// membership checks are case-insensitive and ignore surrounding whitespace.
type ClosedStatuses map[string]struct{}

// NewClosedStatuses builds a set from the given status names.
func NewClosedStatuses(names []string) ClosedStatuses {
	set := make(ClosedStatuses, len(names))
	for _, name := range names {
		key := normalizeStatus(name)
		if key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the given status name is in the closed set.
func (c ClosedStatuses) Contains(name string) bool {
	_, ok := c[normalizeStatus(name)]
	return ok
}

func normalizeStatus(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package application

import (
	"time"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// Detector evaluates issue snapshots against the two violation rules. It
// performs no I/O: for a fixed snapshot and a fixed "today" the result is
// fully deterministic.
type Detector struct {
	closed model.ClosedStatuses
}

// NewDetector creates a detector with the given closed-status set.
func NewDetector(closed model.ClosedStatuses) *Detector {
	return &Detector{closed: closed}
}

// Detect returns zero, one, or two violation events for an issue. The two
// rules are independent and may both fire.
func (d *Detector) Detect(issue model.IssueSnapshot, today time.Time) []model.ViolationEvent {
	day := midnight(today)

	var events []model.ViolationEvent
	if ev, ok := d.timeExceeded(issue, day); ok {
		events = append(events, ev)
	}
	if ev, ok := d.deadlineOverdue(issue, day); ok {
		events = append(events, ev)
	}
	return events
}

// timeExceeded flags an issue whose logged time exceeds its original
// estimate, unless the issue was closed more than a day ago. Issues without
// an estimate are never flagged; there is no plan to compare against.
func (d *Detector) timeExceeded(issue model.IssueSnapshot, day time.Time) (model.ViolationEvent, bool) {
	if issue.EstimateSeconds == 0 {
		return model.ViolationEvent{}, false
	}
	if issue.SpentSeconds <= issue.EstimateSeconds {
		return model.ViolationEvent{}, false
	}
	if d.closed.Contains(issue.Status) && !d.closedRecently(issue, day) {
		// Old closed issues stay silent; only issues closed within the
		// last day are still actionable.
		return model.ViolationEvent{}, false
	}

	return model.ViolationEvent{
		IssueKey:      issue.Key,
		ProjectKey:    issue.ProjectKey,
		Kind:          model.ViolationTimeExceeded,
		Summary:       issue.Summary,
		Assignee:      issue.Assignee,
		AssigneeName:  issue.AssigneeName,
		EstimateHours: issue.EstimateHours(),
		SpentHours:    issue.SpentHours(),
		ExcessHours:   issue.SpentHours() - issue.EstimateHours(),
		Day:           day,
	}, true
}

// deadlineOverdue flags an open issue whose due date is today or earlier.
func (d *Detector) deadlineOverdue(issue model.IssueSnapshot, day time.Time) (model.ViolationEvent, bool) {
	if issue.DueDate == nil {
		return model.ViolationEvent{}, false
	}
	// The tracker delivers due dates as midnight in its own zone. Comparing
	// that instant against local midnight would push "due today" into
	// tomorrow for any zone east of the tracker's, so compare calendar days
	// by rebuilding the due date in day's location.
	dueDay := time.Date(issue.DueDate.Year(), issue.DueDate.Month(), issue.DueDate.Day(), 0, 0, 0, 0, day.Location())
	if dueDay.After(day) {
		return model.ViolationEvent{}, false
	}
	if d.closed.Contains(issue.Status) {
		return model.ViolationEvent{}, false
	}

	due := *issue.DueDate
	return model.ViolationEvent{
		IssueKey:     issue.Key,
		ProjectKey:   issue.ProjectKey,
		Kind:         model.ViolationDeadlineOverdue,
		Summary:      issue.Summary,
		Assignee:     issue.Assignee,
		AssigneeName: issue.AssigneeName,
		DueDate:      &due,
		Day:          day,
	}, true
}

// closedRecently reports whether the issue's most recent transition into a
// closed status happened on or after yesterday midnight.
func (d *Detector) closedRecently(issue model.IssueSnapshot, day time.Time) bool {
	yesterday := day.AddDate(0, 0, -1)

	var latest time.Time
	for _, change := range issue.StatusHistory {
		if d.closed.Contains(change.ToStatus) && change.At.After(latest) {
			latest = change.At
		}
	}
	if latest.IsZero() {
		return false
	}
	return !latest.Before(yesterday)
}

// midnight truncates a timestamp to the start of its calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

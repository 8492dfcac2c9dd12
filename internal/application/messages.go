package application

import (
	"fmt"
	"strings"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// channelSummaryLimit keeps channel messages scannable; personal messages
// carry the full summary.
const channelSummaryLimit = 50

// channelMessage renders the alert text posted into the subscribed channel.
func channelMessage(jiraBaseURL string, ev model.ViolationEvent) string {
	link := issueLink(jiraBaseURL, ev.IssueKey)
	assignee := ev.AssigneeName
	if assignee == "" {
		assignee = "Unassigned"
	}

	switch ev.Kind {
	case model.ViolationTimeExceeded:
		return fmt.Sprintf(`:rotating_light: **Time budget exceeded**

:clipboard: **Issue:** %s - %s
:bust_in_silhouette: **Assignee:** %s
:stopwatch: **Planned:** %.1fh
:chart_with_upwards_trend: **Logged:** %.1fh
:exclamation: **Over by:** %.1fh

Needs the project lead's attention.`,
			link, truncate(ev.Summary, channelSummaryLimit), assignee,
			ev.EstimateHours, ev.SpentHours, ev.ExcessHours)

	case model.ViolationDeadlineOverdue:
		return fmt.Sprintf(`:alarm_clock: **Deadline missed**

:clipboard: **Issue:** %s - %s
:bust_in_silhouette: **Assignee:** %s
:date: **Was due:** %s
:exclamation: **Status:** overdue

The issue needs immediate attention.`,
			link, truncate(ev.Summary, channelSummaryLimit), assignee, dueDateText(ev))
	}
	return ""
}

// personalMessage renders the direct-message variant sent to the assignee.
func personalMessage(jiraBaseURL string, ev model.ViolationEvent) string {
	link := issueLink(jiraBaseURL, ev.IssueKey)

	switch ev.Kind {
	case model.ViolationTimeExceeded:
		return fmt.Sprintf(`:rotating_light: **Time budget exceeded on your issue**

:clipboard: **Issue:** %s - %s
:stopwatch: **Planned:** %.1fh
:chart_with_upwards_trend: **Logged:** %.1fh
:exclamation: **Over by:** %.1fh

Please get in touch with your project lead to discuss the overrun.`,
			link, ev.Summary, ev.EstimateHours, ev.SpentHours, ev.ExcessHours)

	case model.ViolationDeadlineOverdue:
		return fmt.Sprintf(`:alarm_clock: **Deadline missed on your issue**

:clipboard: **Issue:** %s - %s
:date: **Was due:** %s

Please update the issue status or get in touch with your project lead.`,
			link, ev.Summary, dueDateText(ev))
	}
	return ""
}

// payloadSummary is the short description stored in the notification ledger.
func payloadSummary(ev model.ViolationEvent) string {
	switch ev.Kind {
	case model.ViolationTimeExceeded:
		return fmt.Sprintf("%s over estimate by %.1fh", ev.IssueKey, ev.ExcessHours)
	case model.ViolationDeadlineOverdue:
		return fmt.Sprintf("%s overdue since %s", ev.IssueKey, dueDateText(ev))
	}
	return ev.IssueKey
}

func issueLink(jiraBaseURL, issueKey string) string {
	return fmt.Sprintf("[%s](%s/browse/%s)", issueKey, strings.TrimRight(jiraBaseURL, "/"), issueKey)
}

func dueDateText(ev model.ViolationEvent) string {
	if ev.DueDate == nil {
		return "unknown"
	}
	return ev.DueDate.Format("02.01.2006")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

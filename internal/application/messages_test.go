package application

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

func TestChannelMessage_TimeExceeded(t *testing.T) {
	ev := model.ViolationEvent{
		IssueKey:      "PROJ-1",
		Kind:          model.ViolationTimeExceeded,
		Summary:       "Rework the import pipeline",
		AssigneeName:  "Dev Developer",
		EstimateHours: 8,
		SpentHours:    10.5,
		ExcessHours:   2.5,
	}

	msg := channelMessage("https://jira.example.com", ev)

	assert.Contains(t, msg, "[PROJ-1](https://jira.example.com/browse/PROJ-1)")
	assert.Contains(t, msg, "Dev Developer")
	assert.Contains(t, msg, "8.0h")
	assert.Contains(t, msg, "10.5h")
	assert.Contains(t, msg, "2.5h")
}

func TestChannelMessage_DeadlineOverdue(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	ev := model.ViolationEvent{
		IssueKey: "PROJ-2",
		Kind:     model.ViolationDeadlineOverdue,
		Summary:  "Ship release notes",
		DueDate:  &due,
	}

	msg := channelMessage("https://jira.example.com/", ev)

	assert.Contains(t, msg, "10.03.2025")
	assert.Contains(t, msg, "Unassigned")
	// Trailing base URL slash must not produce a double slash in the link.
	assert.Contains(t, msg, "https://jira.example.com/browse/PROJ-2")
	assert.NotContains(t, msg, "com//browse")
}

func TestChannelMessage_TruncatesLongSummary(t *testing.T) {
	ev := model.ViolationEvent{
		IssueKey:      "PROJ-3",
		Kind:          model.ViolationTimeExceeded,
		Summary:       strings.Repeat("я", 120),
		EstimateHours: 1,
		SpentHours:    2,
		ExcessHours:   1,
	}

	msg := channelMessage("https://jira.example.com", ev)

	assert.Contains(t, msg, strings.Repeat("я", channelSummaryLimit)+"...")
	assert.NotContains(t, msg, strings.Repeat("я", channelSummaryLimit+1))
}

func TestPersonalMessage_KeepsFullSummary(t *testing.T) {
	long := strings.Repeat("x", 120)
	ev := model.ViolationEvent{
		IssueKey:      "PROJ-4",
		Kind:          model.ViolationTimeExceeded,
		Summary:       long,
		EstimateHours: 1,
		SpentHours:    2,
		ExcessHours:   1,
	}

	msg := personalMessage("https://jira.example.com", ev)

	assert.Contains(t, msg, long)
}

func TestPayloadSummary(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	over := model.ViolationEvent{IssueKey: "PROJ-5", Kind: model.ViolationTimeExceeded, ExcessHours: 2.5}
	assert.Equal(t, "PROJ-5 over estimate by 2.5h", payloadSummary(over))

	overdue := model.ViolationEvent{IssueKey: "PROJ-6", Kind: model.ViolationDeadlineOverdue, DueDate: &due}
	assert.Equal(t, "PROJ-6 overdue since 10.03.2025", payloadSummary(overdue))
}

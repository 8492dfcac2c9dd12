package model

import "time"

// StatusChange records one transition in an issue's workflow history.
type StatusChange struct {
	ToStatus string
	At       time.Time
}

// IssueSnapshot is the immutable view of a single issue as fetched from the
// tracker. A snapshot is superseded by the next fetch, never merged.
type IssueSnapshot struct {
	Key              string
	ProjectKey       string
	Summary          string
	Status           string
	Assignee         string // assignee identity (email); empty when unassigned
	AssigneeName     string
	DueDate          *time.Time // calendar date; nil when unset
	EstimateSeconds  int
	SpentSeconds     int
	RemainingSeconds int
	StatusHistory    []StatusChange // chronological order
}

// EstimateHours returns the original estimate in hours.
func (s IssueSnapshot) EstimateHours() float64 {
	return float64(s.EstimateSeconds) / 3600
}

// SpentHours returns the logged time in hours.
func (s IssueSnapshot) SpentHours() float64 {
	return float64(s.SpentSeconds) / 3600
}

// RemainingHours returns the remaining estimate in hours.
func (s IssueSnapshot) RemainingHours() float64 {
	return float64(s.RemainingSeconds) / 3600
}

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultClosedStatuses covers the common terminal statuses of Jira's
// default workflows. Override with JIRAWATCH_CLOSED_STATUSES when a
// workflow uses custom names.
var defaultClosedStatuses = []string{"Done", "Closed", "Resolved", "Cancelled", "Rejected"}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	JiraURL              string
	MattermostURL        string
	MattermostToken      string
	EncryptionPassphrase string
	DBPath               string
	SaltPath             string
	SweepInterval        time.Duration
	RequestTimeout       time.Duration
	MaxResults           int
	PoolCapacity         int
	SweepParallelism     int
	ClosedStatuses       []string
}

// Load reads configuration from environment variables and returns a
// validated Config. Required: JIRAWATCH_JIRA_URL, JIRAWATCH_MATTERMOST_URL,
// JIRAWATCH_MATTERMOST_TOKEN, JIRAWATCH_ENCRYPTION_PASSPHRASE. Optional
// variables with defaults: JIRAWATCH_DB_PATH (jirawatch.db),
// JIRAWATCH_SALT_PATH (.jirawatch_salt), JIRAWATCH_SWEEP_INTERVAL (24h),
// JIRAWATCH_REQUEST_TIMEOUT (30s), JIRAWATCH_MAX_RESULTS (200),
// JIRAWATCH_POOL_CAPACITY (50), JIRAWATCH_SWEEP_PARALLELISM (4),
// JIRAWATCH_CLOSED_STATUSES (comma-separated status names).
func Load() (*Config, error) {
	jiraURL, err := requireEnv("JIRAWATCH_JIRA_URL")
	if err != nil {
		return nil, err
	}
	mattermostURL, err := requireEnv("JIRAWATCH_MATTERMOST_URL")
	if err != nil {
		return nil, err
	}
	mattermostToken, err := requireEnv("JIRAWATCH_MATTERMOST_TOKEN")
	if err != nil {
		return nil, err
	}
	passphrase, err := requireEnv("JIRAWATCH_ENCRYPTION_PASSPHRASE")
	if err != nil {
		return nil, err
	}

	dbPath := "jirawatch.db"
	if v, ok := os.LookupEnv("JIRAWATCH_DB_PATH"); ok {
		dbPath = v
	}

	saltPath := ".jirawatch_salt"
	if v, ok := os.LookupEnv("JIRAWATCH_SALT_PATH"); ok {
		saltPath = v
	}

	sweepInterval, err := durationEnv("JIRAWATCH_SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := durationEnv("JIRAWATCH_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	maxResults, err := intEnv("JIRAWATCH_MAX_RESULTS", 200)
	if err != nil {
		return nil, err
	}
	poolCapacity, err := intEnv("JIRAWATCH_POOL_CAPACITY", 50)
	if err != nil {
		return nil, err
	}
	parallelism, err := intEnv("JIRAWATCH_SWEEP_PARALLELISM", 4)
	if err != nil {
		return nil, err
	}

	closedStatuses := defaultClosedStatuses
	if v, ok := os.LookupEnv("JIRAWATCH_CLOSED_STATUSES"); ok && v != "" {
		var names []string
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("JIRAWATCH_CLOSED_STATUSES %q contains no status names", v)
		}
		closedStatuses = names
	}

	return &Config{
		JiraURL:              strings.TrimRight(jiraURL, "/"),
		MattermostURL:        strings.TrimRight(mattermostURL, "/"),
		MattermostToken:      mattermostToken,
		EncryptionPassphrase: passphrase,
		DBPath:               dbPath,
		SaltPath:             saltPath,
		SweepInterval:        sweepInterval,
		RequestTimeout:       requestTimeout,
		MaxResults:           maxResults,
		PoolCapacity:         poolCapacity,
		SweepParallelism:     parallelism,
		ClosedStatuses:       closedStatuses,
	}, nil
}

func requireEnv(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}

func intEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}

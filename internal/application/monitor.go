package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// MonitorService orchestrates the monitoring sweep: for every active
// subscription it acquires a session, fetches the issue snapshot, runs the
// detector, and dispatches any violation the ledger has not yet seen today.
type MonitorService struct {
	pool        *ConnectionPool
	detector    *Detector
	subs        driven.SubscriptionStore
	ledger      driven.LedgerStore
	issueCache  driven.IssueCacheStore
	sink        driven.NotificationSink
	jiraBaseURL string
	maxResults  int
	parallelism int
	interval    time.Duration
	logger      *slog.Logger

	// now is the clock used for "today"; overridable in tests.
	now func() time.Time
}

// NewMonitorService creates a monitor with all required dependencies.
// parallelism bounds how many projects are checked concurrently; 1 means
// strictly sequential.
func NewMonitorService(
	pool *ConnectionPool,
	detector *Detector,
	subs driven.SubscriptionStore,
	ledger driven.LedgerStore,
	issueCache driven.IssueCacheStore,
	sink driven.NotificationSink,
	jiraBaseURL string,
	maxResults int,
	parallelism int,
	interval time.Duration,
) *MonitorService {
	if parallelism < 1 {
		parallelism = 1
	}
	return &MonitorService{
		pool:        pool,
		detector:    detector,
		subs:        subs,
		ledger:      ledger,
		issueCache:  issueCache,
		sink:        sink,
		jiraBaseURL: jiraBaseURL,
		maxResults:  maxResults,
		parallelism: parallelism,
		interval:    interval,
		logger:      slog.Default(),
		now:         time.Now,
	}
}

// Start runs an immediate sweep, then sweeps on the configured interval
// until the context is canceled. The decision of cadence is configuration;
// Start only executes it.
func (s *MonitorService) Start(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("initial sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("monitor service stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep checks all active subscriptions. Per-project failures are recovered
// locally: they are logged and the sweep continues with the remaining
// subscriptions. An interrupted sweep is safe to rerun; the ledger keeps
// already-notified violations silent.
func (s *MonitorService) Sweep(ctx context.Context) error {
	start := time.Now()
	log := s.logger.With("run_id", uuid.NewString())

	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active subscriptions: %w", err)
	}
	if len(subs) == 0 {
		log.Info("no active subscriptions")
		return nil
	}

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for _, sub := range subs {
		if gctx.Err() != nil {
			break // interrupted between projects; remaining ones wait for the next run
		}
		sub := sub
		g.Go(func() error {
			if _, err := s.checkSubscription(gctx, log, sub, true); err != nil {
				log.Error("project check failed", "project", sub.ProjectKey, "channel", sub.ChannelID, "error", err)
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("sweep complete",
		"subscriptions", len(subs),
		"failures", failures.Load(),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return ctx.Err()
}

// CheckProject runs an on-demand check of one subscribed project for a
// channel and returns a short human-readable result. It shares the pool,
// detector, and ledger with the scheduled sweep, so it never causes
// duplicate notifications.
func (s *MonitorService) CheckProject(ctx context.Context, projectKey, channelID string) (string, error) {
	subs, err := s.subs.GetByChannel(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("list channel subscriptions: %w", err)
	}

	for _, sub := range subs {
		if sub.ProjectKey == projectKey && sub.Active {
			problems, err := s.checkSubscription(ctx, s.logger, sub, true)
			if err != nil {
				return "", err
			}
			if problems == 0 {
				return "no problems found", nil
			}
			return fmt.Sprintf("problems found: %d", problems), nil
		}
	}

	return "", fmt.Errorf("project %s is not subscribed in this channel", projectKey)
}

// TestConnection drops any cached session for the identity, forces a fresh
// authentication, and reports what the identity can see.
func (s *MonitorService) TestConnection(ctx context.Context, identity string) (string, error) {
	s.pool.Invalidate(identity)

	session, err := s.pool.Acquire(ctx, identity)
	if err != nil {
		return "", err
	}

	who, err := session.WhoAmI(ctx)
	if err != nil {
		return "", err
	}

	projects, err := session.Projects(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("connected as %s, %d projects visible", who, len(projects)), nil
}

// checkSubscription fetches and evaluates one project. It returns the
// number of violations found in the snapshot (notified or not).
func (s *MonitorService) checkSubscription(ctx context.Context, log *slog.Logger, sub model.Subscription, dispatch bool) (int, error) {
	session, err := s.pool.Acquire(ctx, sub.OwnerIdentity)
	if err != nil {
		return 0, fmt.Errorf("acquire session for %s: %w", sub.OwnerIdentity, err)
	}

	issues, err := session.Issues(ctx, sub.ProjectKey, s.maxResults)
	if err != nil {
		if errors.Is(err, driven.ErrProjectNotFound) || errors.Is(err, driven.ErrAccessDenied) {
			// Non-fatal for the sweep: skip this project, keep the rest.
			log.Warn("project skipped", "project", sub.ProjectKey, "reason", err)
			return 0, nil
		}
		return 0, fmt.Errorf("fetch issues for %s: %w", sub.ProjectKey, err)
	}

	today := s.now()
	problems := 0
	notified := 0

	for _, issue := range issues {
		for _, ev := range s.detector.Detect(issue, today) {
			problems++
			if dispatch && s.dispatch(ctx, log, sub, ev) {
				notified++
			}
		}
		s.cacheIssue(ctx, log, issue)
	}

	log.Info("project checked",
		"project", sub.ProjectKey,
		"issues", len(issues),
		"violations", problems,
		"notified", notified,
	)

	return problems, nil
}

// dispatch records the violation in the ledger and, when the record landed,
// sends the channel message plus a direct message to the assignee. The
// record is written immediately before sending: a crash in between can lose
// one alert, but a retry can never double-send — redelivery is judged worse
// than an occasional missed alert, so a post-record send failure is logged
// and dropped. Returns true when a notification was attempted.
func (s *MonitorService) dispatch(ctx context.Context, log *slog.Logger, sub model.Subscription, ev model.ViolationEvent) bool {
	recorded, err := s.ledger.TryRecord(ctx, model.NotificationRecord{
		IssueKey:       ev.IssueKey,
		Kind:           ev.Kind,
		Day:            ev.Day,
		ProjectKey:     sub.ProjectKey,
		ChannelID:      sub.ChannelID,
		PayloadSummary: payloadSummary(ev),
	})
	if err != nil {
		log.Error("ledger write failed", "issue", ev.IssueKey, "kind", ev.Kind, "error", err)
		return false
	}
	if !recorded {
		// Already notified today for this issue and kind.
		return false
	}

	if err := s.sink.SendToChannel(ctx, sub.ChannelID, channelMessage(s.jiraBaseURL, ev)); err != nil {
		log.Error("channel notification failed", "issue", ev.IssueKey, "kind", ev.Kind, "error", err)
	}
	if ev.Assignee != "" {
		if err := s.sink.SendToIdentity(ctx, ev.Assignee, personalMessage(s.jiraBaseURL, ev)); err != nil {
			log.Error("personal notification failed", "issue", ev.IssueKey, "assignee", ev.Assignee, "error", err)
		}
	}

	log.Info("violation notified", "issue", ev.IssueKey, "kind", ev.Kind)
	return true
}

// cacheIssue refreshes the display-only snapshot cache. Failures are logged
// and ignored; the cache never affects detection or dedup.
func (s *MonitorService) cacheIssue(ctx context.Context, log *slog.Logger, issue model.IssueSnapshot) {
	err := s.issueCache.Upsert(ctx, model.CachedIssue{
		IssueKey:       issue.Key,
		ProjectKey:     issue.ProjectKey,
		Summary:        issue.Summary,
		Assignee:       issue.Assignee,
		AssigneeName:   issue.AssigneeName,
		Status:         issue.Status,
		DueDate:        issue.DueDate,
		EstimateHours:  issue.EstimateHours(),
		SpentHours:     issue.SpentHours(),
		RemainingHours: issue.RemainingHours(),
	})
	if err != nil {
		log.Error("issue cache update failed", "issue", issue.Key, "error", err)
	}
}

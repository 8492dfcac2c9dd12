// Package application contains use-case orchestration services.
package application

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akulikov/jirawatch/internal/domain/port/driven"
	"github.com/akulikov/jirawatch/internal/vault"
)

const (
	// DefaultPoolCapacity is the default number of cached sessions.
	DefaultPoolCapacity = 50

	// lockoutThreshold is the number of consecutive authentication
	// failures after which an identity is locked.
	lockoutThreshold = 5
)

// ConnectionPool maps identities to live, authenticated tracker sessions.
// It owns the lockout state: repeated credential rejections lock the
// identity, and a locked identity is refused before any network call.
type ConnectionPool struct {
	factory  driven.TrackerSessionFactory
	creds    driven.CredentialStore
	vault    *vault.Vault
	sink     driven.NotificationSink
	capacity int
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string]*poolEntry
	order   *list.List // front = most recently used
	locks   map[string]*identityLock
}

type poolEntry struct {
	session    driven.TrackerSession
	lastAccess time.Time
	elem       *list.Element // value is the identity string
}

// identityLock serializes Acquire per identity. refs counts holders and
// waiters so the map entry can be dropped once the last one releases;
// without the count the map would grow by one mutex per identity ever seen.
type identityLock struct {
	mu   sync.Mutex
	refs int
}

// NewConnectionPool creates a pool with the given capacity; capacity <= 0
// falls back to DefaultPoolCapacity.
func NewConnectionPool(
	factory driven.TrackerSessionFactory,
	creds driven.CredentialStore,
	v *vault.Vault,
	sink driven.NotificationSink,
	capacity int,
) *ConnectionPool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	return &ConnectionPool{
		factory:  factory,
		creds:    creds,
		vault:    v,
		sink:     sink,
		capacity: capacity,
		logger:   slog.Default(),
		entries:  make(map[string]*poolEntry),
		order:    list.New(),
		locks:    make(map[string]*identityLock),
	}
}

// Acquire returns an authenticated session for the identity. It returns
// driven.ErrNoCredentials when nothing is stored, driven.ErrLocked when the
// identity is locked, a driven.AuthError when the probe is rejected, and a
// driven.TransientError for network trouble. Per-identity state updates are
// serialized; different identities proceed concurrently.
func (p *ConnectionPool) Acquire(ctx context.Context, identity string) (driven.TrackerSession, error) {
	lock := p.lockIdentity(identity)
	defer p.unlockIdentity(identity, lock)

	cred, err := p.creds.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", driven.ErrNoCredentials, identity)
	}
	if cred.Locked {
		// Locked identities never cost a network round trip, and a cached
		// session must not outlive the lock.
		p.evict(identity)
		return nil, fmt.Errorf("%w: %s", driven.ErrLocked, identity)
	}

	if session := p.cached(identity); session != nil {
		return session, nil
	}

	secret, err := p.vault.Decrypt(cred.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("credential for %s unreadable: %w", identity, err)
	}

	session, err := p.factory.Open(ctx, cred.JiraUsername, secret)
	if err != nil {
		return nil, fmt.Errorf("open session for %s: %w", identity, err)
	}

	who, err := session.WhoAmI(ctx)
	if err != nil {
		if driven.IsAuth(err) {
			p.recordFailure(ctx, identity, err)
		}
		return nil, err
	}

	if err := p.creds.RecordAuthSuccess(ctx, identity); err != nil {
		p.logger.Error("reset failure counter failed", "identity", identity, "error", err)
	}

	p.insert(identity, session)
	p.logger.Info("tracker session established", "identity", identity, "account", who)

	return session, nil
}

// UpdateCredential encrypts and stores a new secret for the identity. The
// store resets the failure counter and clears the lock; any cached session
// for the old credential is dropped.
func (p *ConnectionPool) UpdateCredential(ctx context.Context, identity, jiraUsername, secret string) error {
	ciphertext, err := p.vault.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt credential for %s: %w", identity, err)
	}

	if err := p.creds.Set(ctx, identity, jiraUsername, ciphertext); err != nil {
		return err
	}

	p.Invalidate(identity)
	p.logger.Info("credential updated", "identity", identity)
	return nil
}

// Invalidate drops the cached session for an identity, forcing the next
// Acquire to re-authenticate.
func (p *ConnectionPool) Invalidate(identity string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictLocked(identity)
}

// Size returns the number of cached sessions.
func (p *ConnectionPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// recordFailure counts an authentication failure and, on the transition to
// locked, sends the one-time lockout notice. This is the only place the
// core pushes a message outside the monitoring loop.
func (p *ConnectionPool) recordFailure(ctx context.Context, identity string, authErr error) {
	count, locked, err := p.creds.RecordAuthFailure(ctx, identity, authErr.Error(), lockoutThreshold)
	if err != nil {
		p.logger.Error("record auth failure failed", "identity", identity, "error", err)
		return
	}

	p.logger.Warn("authentication failure counted",
		"identity", identity,
		"consecutive_failures", count,
		"locked", locked,
	)

	if locked && count == lockoutThreshold {
		p.evict(identity)
		notice := fmt.Sprintf(
			"Your Jira credentials were rejected %d times in a row and have been locked. "+
				"Update your password to re-enable monitoring for your projects.",
			lockoutThreshold,
		)
		if sendErr := p.sink.SendToIdentity(ctx, identity, notice); sendErr != nil {
			p.logger.Error("lockout notice delivery failed", "identity", identity, "error", sendErr)
		}
	}
}

// lockIdentity takes the per-identity mutex, registering as a holder first
// so a concurrent release cannot drop the entry out from under a waiter.
func (p *ConnectionPool) lockIdentity(identity string) *identityLock {
	p.mu.Lock()
	lock, ok := p.locks[identity]
	if !ok {
		lock = &identityLock{}
		p.locks[identity] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// unlockIdentity releases the per-identity mutex and prunes the map entry
// when no other goroutine holds or waits on it.
func (p *ConnectionPool) unlockIdentity(identity string, lock *identityLock) {
	lock.mu.Unlock()

	p.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.locks, identity)
	}
	p.mu.Unlock()
}

// cached returns the session for identity and marks it most recently used.
func (p *ConnectionPool) cached(identity string) driven.TrackerSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[identity]
	if !ok {
		return nil
	}
	entry.lastAccess = time.Now()
	p.order.MoveToFront(entry.elem)
	return entry.session
}

// insert caches a session, evicting the least recently used entry when the
// pool is at capacity.
func (p *ConnectionPool) insert(identity string, session driven.TrackerSession) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.entries[identity]; ok {
		entry.session = session
		entry.lastAccess = time.Now()
		p.order.MoveToFront(entry.elem)
		return
	}

	if len(p.entries) >= p.capacity {
		if oldest := p.order.Back(); oldest != nil {
			evicted := oldest.Value.(string)
			p.evictLocked(evicted)
			p.logger.Debug("evicted least recently used session", "identity", evicted)
		}
	}

	p.entries[identity] = &poolEntry{
		session:    session,
		lastAccess: time.Now(),
		elem:       p.order.PushFront(identity),
	}
}

func (p *ConnectionPool) evict(identity string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictLocked(identity)
}

// evictLocked removes an entry; callers hold p.mu.
func (p *ConnectionPool) evictLocked(identity string) {
	if entry, ok := p.entries[identity]; ok {
		p.order.Remove(entry.elem)
		delete(p.entries, identity)
	}
}

// IsFatalCredentialError reports whether the acquire error means the
// identity cannot recover without operator action (missing, locked, or
// undecryptable credentials).
func IsFatalCredentialError(err error) bool {
	return errors.Is(err, driven.ErrNoCredentials) ||
		errors.Is(err, driven.ErrLocked) ||
		errors.Is(err, vault.ErrDecryption)
}

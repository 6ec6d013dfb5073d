package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/internal/runtime"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Factory builds a fresh engine at the entry state, over a source private to that engine.
type Factory func() *runtime.Engine

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store   ports.SessionStore
	factory Factory

	mu    sync.Mutex            // Global lock for the maps below
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*runtime.Engine

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager persisting snapshots to store.
func NewManager(store ports.SessionStore, factory Factory, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		factory: factory,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*runtime.Engine),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start opens a conversation and returns its snapshot and opening prompt.
// An empty sessionID gets a generated UUID. Starting an existing session resumes it.
func (m *Manager) Start(ctx context.Context, sessionID string) (*domain.Session, string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var (
		snap  *domain.Session
		reply string
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, err := m.engine(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			engine = m.fresh()
			if err := m.store.Save(ctx, engine.Snapshot(sessionID)); err != nil {
				return fmt.Errorf("failed to initialize session: %w", err)
			}
			m.cache(sessionID, engine)
			m.logger.Info("session started", "session_id", sessionID)
		} else if err != nil {
			return err
		}

		snap = engine.Snapshot(sessionID)
		reply, err = engine.Message()
		return err
	})
	return snap, reply, err
}

// Message renders the current prompt of a session.
func (m *Manager) Message(ctx context.Context, sessionID string) (string, error) {
	var reply string
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, err := m.engine(ctx, sessionID)
		if err != nil {
			return err
		}
		reply, err = engine.Message()
		return err
	})
	return reply, err
}

// Send runs one turn of a session and persists the resulting snapshot.
// The snapshot is saved even when the turn fails, since captures survive failed turns.
func (m *Manager) Send(ctx context.Context, sessionID, text string) (string, error) {
	var reply string
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, err := m.engine(ctx, sessionID)
		if err != nil {
			return err
		}

		reply, err = engine.Send(ctx, text)
		if saveErr := m.store.Save(ctx, engine.Snapshot(sessionID)); saveErr != nil {
			return errors.Join(err, fmt.Errorf("failed to save session: %w", saveErr))
		}
		return err
	})
	return reply, err
}

// Load retrieves the stored snapshot of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sess, err
}

// Delete drops the live engine and removes the snapshot from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.Evict(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Live reports how many sessions currently hold an engine.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Evict drops the cached engine of a session. The next turn resumes from the store.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, sessionID)
}

// Reset drops every cached engine, e.g. after the definition was reloaded.
func (m *Manager) Reset(factory Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if factory != nil {
		m.factory = factory
	}
	m.live = make(map[string]*runtime.Engine)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// engine returns the live engine of a session, resuming it from the store on a miss.
// Callers hold the session lock.
func (m *Manager) engine(ctx context.Context, sessionID string) (*runtime.Engine, error) {
	m.mu.Lock()
	engine, ok := m.live[sessionID]
	m.mu.Unlock()
	if ok {
		return engine, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	engine = m.fresh()
	if err := engine.Restore(snap); err != nil {
		if !errors.Is(err, domain.ErrUnknownState) {
			return nil, err
		}
		// The definition changed under the snapshot: start the conversation over.
		m.logger.Warn("Snapshot incompatible with definition, starting over",
			"session_id", sessionID,
			"level", snap.Level,
			"err", err,
		)
		engine = m.fresh()
		if err := m.store.Save(ctx, engine.Snapshot(sessionID)); err != nil {
			return nil, fmt.Errorf("failed to reset session: %w", err)
		}
		m.cache(sessionID, engine)
		return engine, nil
	}
	m.cache(sessionID, engine)
	m.logger.Debug("session resumed", "session_id", sessionID, "level", snap.Level)
	return engine, nil
}

func (m *Manager) fresh() *runtime.Engine {
	m.mu.Lock()
	factory := m.factory
	m.mu.Unlock()
	return factory()
}

func (m *Manager) cache(sessionID string, engine *runtime.Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[sessionID] = engine
}

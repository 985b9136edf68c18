package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"aichef/models"
	"aichef/notify"
	"aichef/pending"
	"aichef/recipes"
)

const DefaultIdle = 30 * time.Minute

// rememberFor bounds how long the user of an evicted session is kept so a
// returning browser is not greeted as a fresh sign-in.
const rememberFor = 24 * time.Hour

// Deps are shared by every session a Registry creates.
type Deps struct {
	Store recipes.Store
	// PendingStore returns the relay storage for a session. Nil means in-memory.
	PendingStore func(sessionID string) pending.Store
	Notify       notify.Options
	Publisher    Publisher
	Logger       *zap.Logger
	Idle         time.Duration
}

type lastUser struct {
	id      string
	evicted time.Time
}

// Registry owns the live sessions, creating them on first use and closing
// them once idle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// users maps evicted session ids to their last signed-in user.
	users    map[string]lastUser
	deps     Deps
	log      *zap.Logger
	closed   bool
}

var _ notify.Sessions = (*Registry)(nil)

func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.PendingStore == nil {
		deps.PendingStore = func(string) pending.Store { return pending.NewMemoryStore() }
	}
	if deps.Idle <= 0 {
		deps.Idle = DefaultIdle
	}
	return &Registry{
		sessions: make(map[string]*Session),
		users:    make(map[string]lastUser),
		deps:     deps,
		log:      deps.Logger,
	}
}

// Get returns the session for id, creating it if needed.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(time.Now())
		return s
	}
	s := newSession(id, r.deps.Store, r.deps.PendingStore(id), r.deps.Notify, r.deps.Publisher, r.log)
	if u, ok := r.users[id]; ok {
		s.tracker.Seed(u.id)
		delete(r.users, id)
	}
	if r.closed {
		// still usable for the in-flight request, but never tracked
		return s
	}
	r.sessions[id] = s
	r.log.Debug("session created", zap.String("session", id))
	return s
}

func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Notifications(id string) []models.Notification {
	if s, ok := r.Lookup(id); ok {
		return s.Notifications()
	}
	return []models.Notification{}
}

func (r *Registry) Dismiss(id string, notificationID int64) {
	if s, ok := r.Lookup(id); ok {
		s.Dismiss(notificationID)
	}
}

// Sweep closes sessions not seen since now minus the idle timeout and
// returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.deps.Idle)
	var evicted []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
			if user := s.tracker.User(); user != "" {
				r.users[id] = lastUser{id: user, evicted: now}
			}
		}
	}
	for id, u := range r.users {
		if now.Sub(u.evicted) > rememberFor {
			delete(r.users, id)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		r.log.Debug("session evicted", zap.String("session", s.ID))
	}
	return len(evicted)
}

// Run sweeps on interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.log.Info("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.closed = true
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

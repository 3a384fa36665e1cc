// Package session holds the process-wide signed-in state of a client.
//
// A Store starts from whatever session was persisted, then follows the
// identity client's auth notifications on a background goroutine. Shortly
// before the access token expires it asks for a refresh; the refreshed
// session arrives through the same notification stream. Close stops the
// goroutine and drops the subscription.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// Provider is the part of the identity client the store depends on.
type Provider interface {
	OnAuthStateChange() *identity.Subscription
	RefreshSession(ctx context.Context, refreshToken string) identity.Result
}

// Watcher is called, in order, for every change the store applies.
type Watcher func(event identity.Event, s *models.Session)

const DefaultRefreshMargin = time.Minute

type Store struct {
	provider Provider
	margin   time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	current  *models.Session
	watchers map[int]Watcher
	nextID   int

	sub    *identity.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStore(provider Provider) *Store {
	return &Store{
		provider: provider,
		margin:   DefaultRefreshMargin,
		now:      time.Now,
		watchers: make(map[int]Watcher),
	}
}

// Current returns a copy of the active session, or nil when signed out.
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Watch registers fn and returns the function that removes it.
func (s *Store) Watch(fn Watcher) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Start subscribes to the provider and launches the listener. initial may be
// nil; it is announced to watchers as INITIAL_SESSION.
func (s *Store) Start(ctx context.Context, initial *models.Session) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.sub = s.provider.OnAuthStateChange()

	if initial != nil && initial.Expired(s.now()) && initial.RefreshToken == "" {
		initial = nil
	}
	s.apply(identity.EventInitialSession, initial)

	go s.listen(ctx)
}

// Close stops the listener and unsubscribes. Notifications already queued
// are applied first, so a sign-in that returned before Close is not lost.
// The last session stays readable.
func (s *Store) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.sub.Unsubscribe()
	for n := range s.sub.C {
		s.apply(n.Event, n.Session)
	}
	s.cancel = nil
}

func (s *Store) listen(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	s.arm(timer)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-s.sub.C:
			if !ok {
				return
			}
			s.apply(n.Event, n.Session)
			s.arm(timer)
		case <-timer.C:
			s.refresh(ctx)
		}
	}
}

// arm schedules the next refresh for margin before expiry.
func (s *Store) arm(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}

	cur := s.Current()
	if cur == nil || cur.RefreshToken == "" || cur.Expiry().IsZero() {
		return
	}
	wait := cur.Expiry().Sub(s.now()) - s.margin
	if wait < 0 {
		wait = 0
	}
	timer.Reset(wait)
}

func (s *Store) refresh(ctx context.Context) {
	cur := s.Current()
	if cur == nil {
		return
	}

	res := s.provider.RefreshSession(ctx, cur.RefreshToken)
	if res.Success || ctx.Err() != nil {
		// The new session comes back as a TOKEN_REFRESHED notification.
		return
	}

	logs.WithFields(logrus.Fields{"error": res.Error}).Warn("Session refresh failed, signing out locally")
	s.apply(identity.EventSignedOut, nil)
}

func (s *Store) apply(event identity.Event, next *models.Session) {
	s.mu.Lock()
	if next != nil {
		cp := *next
		s.current = &cp
	} else {
		s.current = nil
	}
	watchers := make([]Watcher, 0, len(s.watchers))
	ids := make([]int, 0, len(s.watchers))
	for id := range s.watchers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		watchers = append(watchers, s.watchers[id])
	}
	s.mu.Unlock()

	snapshot := s.Current()
	for _, w := range watchers {
		w(event, snapshot)
	}
}

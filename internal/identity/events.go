package identity

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Notification reports a session change. Session is nil after sign-out.
type Notification struct {
	Event   Event
	Session *models.Session
}

const subscriptionBuffer = 16

// Subscription delivers auth state changes on C until Unsubscribe is called.
type Subscription struct {
	C <-chan Notification

	ch     chan Notification
	client *Client
	once   sync.Once
}

// OnAuthStateChange registers a new listener for session changes.
func (c *Client) OnAuthStateChange() *Subscription {
	ch := make(chan Notification, subscriptionBuffer)
	sub := &Subscription{C: ch, ch: ch, client: c}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	return sub
}

// Unsubscribe stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.subs, s)
		close(s.ch)
		s.client.mu.Unlock()
	})
}

func (c *Client) publish(event Event, session *models.Session) {
	var snapshot *models.Session
	if session != nil {
		cp := *session
		snapshot = &cp
	}
	n := Notification{Event: event, Session: snapshot}

	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		select {
		case sub.ch <- n:
		default:
			logs.WithFields(logrus.Fields{"event": string(event)}).Warn("Auth listener is not keeping up, notification dropped")
		}
	}
}

// Package session caches the identity check of the console user.
//
// There is one identity per console, so the check is deduplicated under a single key
// with a longer window than other requests. Any failure of the check reads as
// "not authenticated"; callers never see an error from this package.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/api/types/auth"
	"github.com/opst/podconsole/pkg/logger"
	"github.com/opst/podconsole/pkg/promise"
	"github.com/opst/podconsole/pkg/reqcache"
)

// DefaultWindow is the freshness window of the identity check.
const DefaultWindow = 30 * time.Second

const sessionKey = "session"

// Authenticator is the remote side of the session.
type Authenticator interface {
	// SessionRequest returns the request of the identity check.
	SessionRequest() reqcache.Fetch

	// Logout ends the session on the server.
	Logout(ctx context.Context) error
}

// State is the session as the UI sees it.
type State struct {
	// nil until the first check is settled.
	Authenticated *bool  `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	IsAdmin       bool   `json:"isAdmin,omitempty"`
	Loading       bool   `json:"loading"`
}

type Cache struct {
	ctx      context.Context
	auth     Authenticator
	requests *reqcache.Cache
	log      *log.Logger

	mu    sync.Mutex
	state State

	// generation bumps on Refresh and Logout. Checks started before are not applied.
	generation uint64
}

type config struct {
	window time.Duration
	clock  clockwork.Clock
	log    *log.Logger
}

type Option func(*config) *config

func WithWindow(d time.Duration) Option {
	return func(c *config) *config {
		c.window = d
		return c
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *config) *config {
		c.clock = clock
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

func New(ctx context.Context, authenticator Authenticator, options ...Option) *Cache {
	conf := &config{
		window: DefaultWindow,
		clock:  clockwork.NewRealClock(),
		log:    logger.Null(),
	}
	for _, o := range options {
		conf = o(conf)
	}

	return &Cache{
		ctx:  ctx,
		auth: authenticator,
		requests: reqcache.New(
			ctx,
			reqcache.WithWindow(conf.window),
			reqcache.WithClock(conf.clock),
			reqcache.WithLogger(conf.log),
		),
		log: conf.log,
	}
}

// Check returns the session, or nil when the user is not authenticated
// or the check failed.
//
// ctx bounds only the wait. The check goes on and updates State when settled.
func (s *Cache) Check(ctx context.Context) *auth.Session {
	rec, err := s.start().Await(ctx)
	if err != nil {
		return nil
	}
	return rec
}

// Refresh drops the cached check and checks again.
//
// Use it after login, so that the new identity is seen right away.
func (s *Cache) Refresh(ctx context.Context) *auth.Session {
	s.mu.Lock()
	s.generation += 1
	s.requests.Invalidate(sessionKey)
	s.state.Loading = true
	s.mu.Unlock()

	return s.Check(ctx)
}

// Logout ends the session.
//
// Whatever the server says, the local session is dropped and becomes "not authenticated".
func (s *Cache) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warnf("logout request failed (session is dropped anyway): %s", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation += 1
	s.requests.Invalidate(sessionKey)
	s.state = State{Authenticated: ptr(false)}
}

// State returns the latest session state.
func (s *Cache) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Cache) start() *promise.Promise[*auth.Session] {
	s.mu.Lock()
	gen := s.generation
	s.state.Loading = true
	s.mu.Unlock()

	check := reqcache.Acquire[auth.Session](s.requests, sessionKey, s.auth.SessionRequest())
	if check.Settled() {
		sess, err := check.Await(s.ctx)
		return promise.Resolved(s.apply(gen, sess, err), nil)
	}

	return promise.Go(s.ctx, func(ctx context.Context) (*auth.Session, error) {
		sess, err := check.Await(ctx)
		return s.apply(gen, sess, err), nil
	})
}

func (s *Cache) apply(gen uint64, sess auth.Session, err error) *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return s.record()
	}

	if err != nil {
		s.log.Debugf("session check failed, treated as unauthenticated: %s", err)
		s.state = State{Authenticated: ptr(false)}
		return nil
	}

	s.state = State{
		Authenticated: ptr(sess.Authenticated),
		Username:      sess.Username,
		IsAdmin:       sess.IsAdmin,
	}
	return s.record()
}

// record converts the state into a session. Callers hold s.mu.
func (s *Cache) record() *auth.Session {
	if s.state.Authenticated == nil || !*s.state.Authenticated {
		return nil
	}
	return &auth.Session{
		Authenticated: true,
		Username:      s.state.Username,
		IsAdmin:       s.state.IsAdmin,
	}
}

func ptr[T any](v T) *T {
	return &v
}

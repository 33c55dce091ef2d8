package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/tokenstore"
)

// State is the session lifecycle position.
type State int

// Session states
const (
	Uninitialized State = iota
	Checking
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Authenticator is the backend side of the session.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Logout(ctx context.Context) error
	Authenticate(ctx context.Context, token string) (string, error)
}

// TokenCarrier attaches the session token to outgoing calls.
type TokenCarrier interface {
	SetToken(token string)
	ClearToken()
}

// Session owns the authentication flag and principal. Create one per
// process and pass it to whatever needs it.
type Session struct {
	auth    Authenticator
	store   tokenstore.Store
	carrier TokenCarrier
	logger  *slog.Logger

	initOnce sync.Once

	mu        sync.RWMutex
	state     State
	principal string
}

// New creates a Session in the Uninitialized state. carrier may be nil.
func New(auth Authenticator, store tokenstore.Store, carrier TokenCarrier, logger *slog.Logger) *Session {
	return &Session{
		auth:    auth,
		store:   store,
		carrier: carrier,
		logger:  logger.With("component", "session"),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.State() == Authenticated
}

// Loading reports whether Init has not yet completed.
func (s *Session) Loading() bool {
	st := s.State()
	return st == Uninitialized || st == Checking
}

// Principal returns the logged-in username, or "".
func (s *Session) Principal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// Init validates a persisted token. It runs once per Session; later
// calls return immediately with the settled state. Any failure discards
// the token and leaves the session Anonymous.
func (s *Session) Init(ctx context.Context) State {
	s.initOnce.Do(func() {
		s.set(Checking, "")

		token, err := s.store.Get(ctx, TokenKey)
		if err != nil {
			if !tokenstore.IsNotFound(err) {
				s.logger.Warn("could not read persisted token", "error", err)
			}
			s.set(Anonymous, "")
			return
		}

		if s.carrier != nil {
			s.carrier.SetToken(token)
		}

		principal, err := s.auth.Authenticate(ctx, token)
		if err != nil {
			s.logger.Info("persisted token rejected", "error", err)
			s.discard(ctx)
			s.set(Anonymous, "")
			return
		}

		s.set(Authenticated, principal)
	})
	return s.State()
}

// Login authenticates with credentials. On success the token is persisted
// and the session becomes Authenticated. On failure nothing changes.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) error {
	const op = "session.login"

	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return domain.Internal(err, op, "Could not save the session. Please try again.")
	}
	if s.carrier != nil {
		s.carrier.SetToken(token)
	}

	principal := creds.Username
	if principal == "" {
		principal = domain.DefaultPrincipal
	}
	s.set(Authenticated, principal)
	s.logger.Info("logged in", "principal", principal)
	return nil
}

// Logout tells the backend and always ends the local session, even when
// the backend cannot be reached.
func (s *Session) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn("server logout failed", "error", err)
	}
	s.discard(ctx)
	s.set(Anonymous, "")
}

func (s *Session) discard(ctx context.Context) {
	if err := s.store.Delete(ctx, TokenKey); err != nil {
		s.logger.Warn("could not remove persisted token", "error", err)
	}
	if s.carrier != nil {
		s.carrier.ClearToken()
	}
}

func (s *Session) set(state State, principal string) {
	s.mu.Lock()
	s.state = state
	s.principal = principal
	s.mu.Unlock()

	metrics.SessionTransition(state.String())
}

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidInput wraps local validation failures of credentials or
// registration data. Such requests never reach the server.
var ErrInvalidInput = errors.New("invalid input")

// Credentials are the login form fields.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Name     string
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Seller   bool
}

// API is the remote side of authentication.
type API interface {
	Login(ctx context.Context, c Credentials) (Session, error)
	Register(ctx context.Context, r Registration) (string, error)
	Logout(ctx context.Context) error
	Deactivate(ctx context.Context, userID string) error
}

// Service signs users in and out and keeps the session store current.
type Service struct {
	api      API
	store    Store
	validate *validator.Validate
	now      func() time.Time

	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

// NewService creates an auth Service.
func NewService(api API, store Store) *Service {
	return &Service{
		api:      api,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// OnSignOut registers fn to run whenever the session ends, after the store
// has been cleared.
func (s *Service) OnSignOut(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Current returns the stored session, failing with apierr.ErrAuthMissing when
// there is none.
func (s *Service) Current(ctx context.Context) (Session, error) {
	return Require(ctx, s.store, s.now())
}

// Login authenticates against the server and stores the returned session.
func (s *Service) Login(ctx context.Context, c Credentials) (Session, error) {
	if err := s.validate.Struct(c); err != nil {
		return Session{}, errors.Wrap(ErrInvalidInput, err.Error())
	}

	sess, err := s.api.Login(ctx, c)
	if err != nil {
		return Session{}, errors.Wrap(err, "login")
	}
	if !sess.Authenticated() {
		return Session{}, errors.New("login: server returned no access token")
	}
	if err := s.store.Set(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "store session")
	}

	zctx.From(ctx).Info("Signed in",
		zap.String("user_id", sess.UserID),
		zap.Bool("seller", sess.Seller),
	)
	return sess, nil
}

// Register creates an account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, r Registration) (string, error) {
	if err := s.validate.Struct(r); err != nil {
		return "", errors.Wrap(ErrInvalidInput, err.Error())
	}

	msg, err := s.api.Register(ctx, r)
	if err != nil {
		return "", errors.Wrap(err, "register")
	}
	if msg == "" {
		msg = "Registro realizado com sucesso!"
	}
	return msg, nil
}

// Logout notifies the server and ends the local session. A server failure is
// logged and ignored: the local session is cleared regardless.
func (s *Service) Logout(ctx context.Context) error {
	lg := zctx.From(ctx)

	if _, err := s.Current(ctx); err == nil {
		if err := s.api.Logout(ctx); err != nil {
			lg.Warn("Server logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return s.end(ctx)
}

// Deactivate deletes the account on the server. The local session is cleared
// whether or not the server call succeeded; the server error, if any, is
// returned.
func (s *Service) Deactivate(ctx context.Context) error {
	sess, err := s.Current(ctx)
	if err != nil {
		return err
	}

	apiErr := s.api.Deactivate(ctx, sess.UserID)
	if err := s.end(ctx); err != nil {
		return err
	}
	if apiErr != nil {
		return errors.Wrap(apiErr, "deactivate")
	}
	return nil
}

func (s *Service) end(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear session")
	}

	s.mu.Lock()
	hooks := make([]func(context.Context), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
	return nil
}

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/binder"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/session"
)

// Login outcomes reported to LoginObserver.
const (
	OutcomeSuccess            = "success"
	OutcomeUnknownUser        = "unknown_user"
	OutcomeIntegrity          = "integrity_error"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnavailable        = "unavailable"
	OutcomeError              = "error"
)

// Authenticator checks credentials against the tenant that owns the user.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*auth.Principal, error)
}

// LoginObserver counts login attempts by outcome.
type LoginObserver interface {
	Login(outcome string)
}

type LoginService struct {
	authenticator Authenticator
	sessionMgr    *session.Manager
	observer      LoginObserver
	logger        *slog.Logger
	errorHandler  handler.ErrorHandler
	throttle      []func(http.Handler) http.Handler
}

// Option configures account services.
type Option func(*options)

type options struct {
	observer     LoginObserver
	logger       *slog.Logger
	errorHandler handler.ErrorHandler
	throttle     []func(http.Handler) http.Handler
}

// WithObserver reports login outcomes to o.
func WithObserver(o LoginObserver) Option {
	return func(opts *options) { opts.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

// WithErrorHandler overrides the JSON error handler built from MapError.
func WithErrorHandler(h handler.ErrorHandler) Option {
	return func(opts *options) {
		if h != nil {
			opts.errorHandler = h
		}
	}
}

// WithLoginMiddleware wraps POST /login only, e.g. with a rate limiter.
func WithLoginMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(opts *options) { opts.throttle = append(opts.throttle, mw...) }
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	if o.errorHandler == nil {
		o.errorHandler = handler.NewErrorHandler(o.logger, MapError)
	}
	return o
}

func NewLoginService(authenticator Authenticator, sessionMgr *session.Manager, opts ...Option) *LoginService {
	o := newOptions(opts)
	return &LoginService{
		authenticator: authenticator,
		sessionMgr:    sessionMgr,
		observer:      o.observer,
		logger:        o.logger,
		errorHandler:  o.errorHandler,
		throttle:      o.throttle,
	}
}

func (s *LoginService) Handle() http.Handler {
	r := chi.NewRouter()

	r.With(s.throttle...).Post("/login", handler.Wrap(s.login,
		handler.WithBinders[LoginRequest](binder.BindJSON()),
		handler.WithErrorHandler[LoginRequest](s.errorHandler),
	))
	r.Post("/logout", handler.Wrap(s.logout,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))

	return r
}

// LoginRequest is the JSON body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) validate() handler.ValidationError {
	verr := handler.NewValidationError()
	if strings.TrimSpace(r.Username) == "" {
		verr.Add("username", "is required")
	}
	if r.Password == "" {
		verr.Add("password", "is required")
	}
	return verr
}

// LoginResponse carries the new session token for API clients. Browser
// clients also receive it as a cookie.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

// UserView is the public form of a principal.
type UserView struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities,omitempty"`
	TenantID    string   `json:"tenant_id"`
}

func newUserView(p *auth.Principal) UserView {
	return UserView{
		ID:          p.UserID,
		Username:    p.Username,
		Role:        p.Role,
		Authorities: p.Authorities,
		TenantID:    p.TenantID,
	}
}

func (s *LoginService) login(ctx handler.Context, req LoginRequest) handler.Response {
	if verr := req.validate(); !verr.IsEmpty() {
		return handler.Error(verr)
	}
	username := strings.TrimSpace(req.Username)

	p, err := s.authenticator.Authenticate(ctx, username, req.Password)
	s.observe(err)
	if err != nil {
		return handler.Error(err)
	}

	encoded, err := auth.EncodePrincipal(p)
	if err != nil {
		return handler.Error(err)
	}
	sess, err := s.sessionMgr.Authenticate(ctx, ctx.ResponseWriter(), ctx.Request(), p.Username,
		map[string]any{auth.SessionKey: encoded})
	if err != nil {
		return handler.Error(fmt.Errorf("start session: %w", err))
	}

	s.logger.InfoContext(ctx, "user logged in",
		logger.Component("account"),
		logger.Username(p.Username),
		logger.TenantID(p.TenantID),
		logger.Role(p.Role),
	)

	return handler.JSON(LoginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      newUserView(p),
	})
}

// logout ends the current session. With ?all=true every session of the
// user is ended.
func (s *LoginService) logout(ctx handler.Context, _ struct{}) handler.Response {
	if ctx.Request().URL.Query().Get("all") == "true" {
		if username, ok := session.UsernameFromContext(ctx); ok {
			if err := s.sessionMgr.DestroyAll(ctx, username); err != nil {
				return handler.Error(fmt.Errorf("destroy sessions of %s: %w", username, err))
			}
			s.logger.InfoContext(ctx, "all sessions ended", logger.Username(username))
		}
	}
	if err := s.sessionMgr.Destroy(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		return handler.Error(fmt.Errorf("destroy session: %w", err))
	}
	return handler.Empty()
}

func (s *LoginService) observe(err error) {
	if s.observer == nil {
		return
	}
	s.observer.Login(loginOutcome(err))
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, auth.ErrIntegrity):
		return OutcomeIntegrity
	case errors.Is(err, auth.ErrTenantNotFound):
		return OutcomeUnknownUser
	case errors.Is(err, auth.ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, dbrouter.ErrPoolUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// UserFinder loads users of the tenant bound in ctx.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*auth.Principal, error)
}

// TargetReporter reports which pool a call with ctx would use.
type TargetReporter interface {
	Tenant(ctx context.Context) dbrouter.Target
}

// ProfileService serves GET /me: who the caller is, who they act as and
// where their queries go.
type ProfileService struct {
	users        UserFinder
	targets      TargetReporter
	logger       *slog.Logger
	errorHandler handler.ErrorHandler
}

func NewProfileService(users UserFinder, targets TargetReporter, opts ...Option) *ProfileService {
	o := newOptions(opts)
	return &ProfileService{
		users:        users,
		targets:      targets,
		logger:       o.logger,
		errorHandler: o.errorHandler,
	}
}

func (s *ProfileService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequirePrincipal(s.httpError))
	r.Get("/", handler.Wrap(s.me, handler.WithErrorHandler[struct{}](s.errorHandler)))
	return r
}

// PoolView describes the pool selected for the request.
type PoolView struct {
	TenantID string `json:"tenant_id,omitempty"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
	Driver   string `json:"driver,omitempty"`
}

// ProfileResponse is the body of GET /me.
type ProfileResponse struct {
	User            UserView  `json:"user"`
	TenantID        string    `json:"tenant_id,omitempty"`
	EffectiveUserID int64     `json:"effective_user_id"`
	Impersonating   *UserView `json:"impersonating,omitempty"`
	Pool            PoolView  `json:"pool"`
}

func (s *ProfileService) me(ctx handler.Context, _ struct{}) handler.Response {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return handler.Error(auth.ErrUnauthorized)
	}

	target := s.targets.Tenant(ctx)
	tenantID, _ := tenant.IDFromContext(ctx)
	resp := ProfileResponse{
		User:            newUserView(p),
		TenantID:        tenantID,
		EffectiveUserID: impersonation.EffectiveUserID(ctx, p),
		Pool: PoolView{
			TenantID: target.TenantID,
			Fallback: target.Fallback,
			Reason:   target.Reason,
			Driver:   target.Driver,
		},
	}

	if targetID, active := impersonation.Active(ctx, p); active {
		u, err := s.users.FindByID(ctx, targetID)
		if err != nil {
			return handler.Error(fmt.Errorf("load impersonated user %d: %w", targetID, err))
		}
		view := newUserView(u)
		resp.Impersonating = &view
		s.logger.InfoContext(ctx, "impersonation in effect",
			logger.Component("account"),
			logger.Username(p.Username),
			logger.ImpersonatedUserID(targetID),
		)
	}

	return handler.JSON(resp)
}

func (s *ProfileService) httpError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler(handler.NewContext(w, r), err)
}

package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

const (
	// MaxIDLength keeps identifiers usable as pool keys, label values and DNS labels.
	MaxIDLength = 63

	// DefaultHeader is the request header carrying an explicit tenant.
	DefaultHeader = "X-Tenant-ID"

	// DefaultQueryParam is the request parameter carrying a tenant.
	DefaultQueryParam = "tenantId"
)

// Strategy names reported to observers.
const (
	StrategyHeader  = "header"
	StrategyParam   = "param"
	StrategySession = "session"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// IsValidID reports whether id is acceptable as a tenant identifier.
func IsValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	return idPattern.MatchString(id)
}

// Resolver extracts a tenant identifier from an HTTP request.
// It returns an empty string when the request carries no tenant.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// HeaderResolver reads the tenant from a request header.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver, defaulting to X-Tenant-ID.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &HeaderResolver{HeaderName: headerName}
}

// Resolve extracts the tenant from the header.
func (r *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return validated(req.Header.Get(r.HeaderName), "header")
}

// QueryResolver reads the tenant from a request parameter: the URL query
// first, then an urlencoded form body.
type QueryResolver struct {
	Param string
}

// NewQueryResolver creates a parameter resolver, defaulting to tenantId.
func NewQueryResolver(param string) *QueryResolver {
	if param == "" {
		param = DefaultQueryParam
	}
	return &QueryResolver{Param: param}
}

// Resolve extracts the tenant from the request parameters.
func (r *QueryResolver) Resolve(req *http.Request) (string, error) {
	value := req.URL.Query().Get(r.Param)
	if value == "" && isFormRequest(req) {
		value = req.PostFormValue(r.Param)
	}
	return validated(value, "parameter")
}

func isFormRequest(req *http.Request) bool {
	if req.Method != http.MethodPost && req.Method != http.MethodPut && req.Method != http.MethodPatch {
		return false
	}
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func validated(value, source string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if !IsValidID(value) {
		return "", fmt.Errorf("%w: %s value %q", ErrInvalidIdentifier, source, value)
	}
	return value, nil
}

// UsernameFunc returns the authenticated username held by the request's session.
// It returns an empty string for anonymous requests.
type UsernameFunc func(r *http.Request) (string, error)

// DirectoryLookup maps a login name to its home tenant.
type DirectoryLookup interface {
	TenantForUser(ctx context.Context, username string) (string, error)
}

// SessionResolver derives the tenant from the session's authenticated user.
type SessionResolver struct {
	Username  UsernameFunc
	Directory DirectoryLookup
}

// NewSessionResolver creates a session-derived resolver.
func NewSessionResolver(username UsernameFunc, dir DirectoryLookup) *SessionResolver {
	return &SessionResolver{Username: username, Directory: dir}
}

// Resolve looks up the session user's home tenant in the directory.
func (r *SessionResolver) Resolve(req *http.Request) (string, error) {
	if r.Username == nil || r.Directory == nil {
		return "", errors.New("session resolver: not configured")
	}

	username, err := r.Username(req)
	if err != nil {
		return "", fmt.Errorf("session resolver: %w", err)
	}
	if username == "" {
		return "", nil
	}

	id, err := r.Directory.TenantForUser(req.Context(), username)
	if err != nil {
		return "", fmt.Errorf("session resolver: %w", err)
	}
	return validated(id, "directory")
}

// Observer receives resolution outcomes, typically a metrics recorder.
type Observer interface {
	TenantResolved(strategy string)
	TenantResolutionFailed(strategy string)
}

// Strategy is one named step of a ChainResolver.
// Errors of a lenient strategy are recorded and skipped; errors of a strict
// strategy stop the chain.
type Strategy struct {
	Name     string
	Resolver Resolver
	Lenient  bool
}

// ChainResolver tries strategies in a fixed priority order and returns the
// first non-empty tenant.
type ChainResolver struct {
	Strategies []Strategy
	Observer   Observer
	Logger     *slog.Logger
}

// NewChainResolver creates a chain from strategies in priority order.
func NewChainResolver(strategies ...Strategy) *ChainResolver {
	return &ChainResolver{
		Strategies: strategies,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// NewDefaultChain builds the standard header → parameter → session chain.
func NewDefaultChain(cfg Config, username UsernameFunc, dir DirectoryLookup) *ChainResolver {
	return NewChainResolver(
		Strategy{Name: StrategyHeader, Resolver: NewHeaderResolver(cfg.Header)},
		Strategy{Name: StrategyParam, Resolver: NewQueryResolver(cfg.QueryParam)},
		Strategy{Name: StrategySession, Resolver: NewSessionResolver(username, dir), Lenient: true},
	)
}

// Resolve implements Resolver.
func (c *ChainResolver) Resolve(r *http.Request) (string, error) {
	id, _, err := c.ResolveStrategy(r)
	return id, err
}

// ResolveStrategy returns the tenant along with the name of the strategy that produced it.
func (c *ChainResolver) ResolveStrategy(r *http.Request) (string, string, error) {
	for _, s := range c.Strategies {
		id, err := s.Resolver.Resolve(r)
		if err != nil {
			c.failed(s.Name)
			if s.Lenient {
				if c.Logger != nil {
					c.Logger.DebugContext(r.Context(), "tenant strategy skipped",
						slog.String("strategy", s.Name), logger.Error(err))
				}
				continue
			}
			return "", s.Name, err
		}
		if id != "" {
			if c.Observer != nil {
				c.Observer.TenantResolved(s.Name)
			}
			return id, s.Name, nil
		}
	}
	return "", "", nil
}

func (c *ChainResolver) failed(strategy string) {
	if c.Observer != nil {
		c.Observer.TenantResolutionFailed(strategy)
	}
}

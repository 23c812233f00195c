package session

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Transport moves the session token between client and server.
type Transport interface {
	GetToken(r *http.Request) (string, error)
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error
	ClearToken(w http.ResponseWriter) error
}

// BearerTransport reads "Bearer <token>" from a request header. Browsers use
// the cookie; API clients take the token from the login response body.
type BearerTransport struct {
	Header string
}

func (t BearerTransport) GetToken(r *http.Request) (string, error) {
	token, ok := strings.CutPrefix(r.Header.Get(t.Header), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrSessionNotFound
	}
	return strings.TrimSpace(token), nil
}

func (t BearerTransport) SetToken(w http.ResponseWriter, token string, _ time.Duration) error {
	w.Header().Set(t.Header, "Bearer "+token)
	return nil
}

func (t BearerTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.Header)
	return nil
}

// CookieTransport keeps the token in an HttpOnly cookie.
type CookieTransport struct {
	Name   string
	Secure bool
}

func (t CookieTransport) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(t.Name)
	if err != nil || c.Value == "" {
		return "", ErrSessionNotFound
	}
	return c.Value, nil
}

func (t CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	http.SetCookie(w, t.cookie(token, int(ttl.Seconds())))
	return nil
}

func (t CookieTransport) ClearToken(w http.ResponseWriter) error {
	http.SetCookie(w, t.cookie("", -1))
	return nil
}

func (t CookieTransport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     t.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Transports reads the token from the first transport that carries one and
// writes it through all of them.
type Transports []Transport

func (ts Transports) GetToken(r *http.Request) (string, error) {
	for _, t := range ts {
		if token, err := t.GetToken(r); err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrSessionNotFound
}

func (ts Transports) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	var errs []error
	for _, t := range ts {
		errs = append(errs, t.SetToken(w, token, ttl))
	}
	return errors.Join(errs...)
}

func (ts Transports) ClearToken(w http.ResponseWriter) error {
	var errs []error
	for _, t := range ts {
		errs = append(errs, t.ClearToken(w))
	}
	return errors.Join(errs...)
}

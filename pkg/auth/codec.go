package auth

import (
	"encoding/json"
	"errors"
)

// SessionKey is the session data key holding the encoded principal.
const SessionKey = "principal"

// storedPrincipal is the session form of a Principal. It never carries the password.
type storedPrincipal struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities,omitempty"`
	TenantID    string   `json:"tenant_id"`
}

// EncodePrincipal serializes p for session storage without its password hash.
func EncodePrincipal(p *Principal) (string, error) {
	if p == nil || p.Username == "" {
		return "", ErrInvalidPrincipal
	}
	raw, err := json.Marshal(storedPrincipal{
		UserID:      p.UserID,
		Username:    p.Username,
		Role:        p.Role,
		Authorities: p.Authorities,
		TenantID:    p.TenantID,
	})
	if err != nil {
		return "", errors.Join(ErrInvalidPrincipal, err)
	}
	return string(raw), nil
}

// DecodePrincipal restores a principal from session storage. The password
// hash is set to ErasedPassword.
func DecodePrincipal(encoded string) (*Principal, error) {
	var sp storedPrincipal
	if err := json.Unmarshal([]byte(encoded), &sp); err != nil {
		return nil, errors.Join(ErrInvalidPrincipal, err)
	}
	if sp.Username == "" {
		return nil, ErrInvalidPrincipal
	}
	return &Principal{
		UserID:       sp.UserID,
		Username:     sp.Username,
		PasswordHash: ErasedPassword,
		Role:         sp.Role,
		Authorities:  sp.Authorities,
		TenantID:     sp.TenantID,
	}, nil
}

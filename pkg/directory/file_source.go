package directory

import (
	"context"
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileSource lists tenant datasources from a YAML file instead of the
// tenant_datasources table. The file is read on every call, so a registry
// reload picks up edits.
//
//	tenants:
//	  - tenant_id: acme
//	    driver: pgx
//	    url: postgres://acme-db:5432/acme
//	    max_open_conns: 20
//	    conn_max_lifetime: 30m
//	  - tenant_id: beta
//	    driver: mysql
//	    url: tcp(beta-db:3306)/beta
//	    active: false
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by the YAML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type fileTenant struct {
	TenantID        string        `yaml:"tenant_id"`
	URL             string        `yaml:"url"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Driver          string        `yaml:"driver"`
	Active          *bool         `yaml:"active"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ValidationQuery string        `yaml:"validation_query"`
}

// ActiveTenants returns the active entries in file order. Entries without
// an active key are active.
func (s *FileSource) ActiveTenants(ctx context.Context) ([]TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrSourceFile, err)
	}

	var doc struct {
		Tenants []fileTenant `yaml:"tenants"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrSourceFile, err)
	}

	out := make([]TenantConfig, 0, len(doc.Tenants))
	for _, t := range doc.Tenants {
		if t.Active != nil && !*t.Active {
			continue
		}
		out = append(out, TenantConfig{
			TenantID:        t.TenantID,
			URL:             os.ExpandEnv(t.URL),
			Username:        t.Username,
			Password:        os.ExpandEnv(t.Password),
			Driver:          t.Driver,
			Active:          true,
			MaxOpenConns:    t.MaxOpenConns,
			MaxIdleConns:    t.MaxIdleConns,
			ConnMaxLifetime: t.ConnMaxLifetime,
			ConnMaxIdleTime: t.ConnMaxIdleTime,
			ConnectTimeout:  t.ConnectTimeout,
			ValidationQuery: t.ValidationQuery,
		})
	}
	return out, nil
}

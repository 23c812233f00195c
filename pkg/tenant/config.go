package tenant

// Config holds the request inputs the tenant middleware reads.
type Config struct {
	Header     string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`   // Header is the explicit tenant header (priority 1).
	QueryParam string `env:"TENANT_QUERY_PARAM" envDefault:"tenantId"` // QueryParam is the tenant request parameter (priority 2).
}

// DefaultConfig returns the default tenant configuration.
func DefaultConfig() Config {
	return Config{
		Header:     DefaultHeader,
		QueryParam: DefaultQueryParam,
	}
}

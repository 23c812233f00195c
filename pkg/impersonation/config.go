package impersonation

// DefaultHeader names the target user for a super admin acting as someone else.
const DefaultHeader = "X-Impersonate-User"

// Config holds impersonation middleware settings.
type Config struct {
	Header string `env:"IMPERSONATION_HEADER" envDefault:"X-Impersonate-User"`
}

// DefaultConfig returns the default impersonation configuration.
func DefaultConfig() Config {
	return Config{Header: DefaultHeader}
}

package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/papermem/internal/provider"
	"github.com/matsen/papermem/internal/resolver"
)

// ChainConfig selects and configures the providers of a resolver chain.
type ChainConfig struct {
	Keys         []string // Provider keys in query order
	S2APIKey     string
	ContactEmail string
	Timeout      time.Duration

	// ClientOptions are applied to every provider after the above.
	ClientOptions []provider.ClientOption
}

// BuildChain creates the providers named by cfg.Keys. Unpaywall is left out
// when no contact email is configured, since it rejects anonymous requests.
func BuildChain(cfg ChainConfig, logger zerolog.Logger) ([]resolver.Provider, error) {
	var chain []resolver.Provider
	for _, key := range cfg.Keys {
		canonical, _ := provider.Canonical(key)
		if canonical == "unpaywall" && cfg.ContactEmail == "" {
			logger.Warn().Str("provider", provider.UnpaywallName).Msg("skipping provider: contact_email not configured")
			continue
		}

		var opts []provider.ClientOption
		if cfg.Timeout > 0 {
			opts = append(opts, provider.WithTimeout(cfg.Timeout))
		}
		if cfg.ContactEmail != "" {
			opts = append(opts, provider.WithMailto(cfg.ContactEmail))
		}
		if canonical == "semanticscholar" && cfg.S2APIKey != "" {
			opts = append(opts, provider.WithAPIKey(cfg.S2APIKey))
		}
		opts = append(opts, cfg.ClientOptions...)

		q, err := provider.New(key, opts...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, resolver.FromQuerier(q))
	}
	return chain, nil
}

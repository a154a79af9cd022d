package carrier

import "errors"

const (
	// KvikkProductionAPIURL is the production API endpoint
	KvikkProductionAPIURL = "https://api.kvikk.hu"

	defaultTimeoutSeconds = 30
)

var ErrKvikkConfigInvalidBaseURL = errors.New("kvikk: api base url is required")

// KvikkConfig holds configuration for the Kvikk carrier API
type KvikkConfig struct {
	// APIBaseURL is the scheme and host; endpoint paths are appended to it
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// NewKvikkConfig creates a configuration pointing at production
func NewKvikkConfig() *KvikkConfig {
	return &KvikkConfig{
		APIBaseURL:     KvikkProductionAPIURL,
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Validate fills defaults and validates the configuration
func (c *KvikkConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrKvikkConfigInvalidBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

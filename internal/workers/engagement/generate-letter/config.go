// internal/workers/engagement/generate-letter/config.go
package generateletter

import "time"

type Config struct {
	PublishEvents bool
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}

// internal/workers/engagement/send-letter/config.go
package sendletter

import "time"

type Config struct {
	PublishEvents bool
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PublishEvents: true,
		Timeout:       30 * time.Second,
	}
}

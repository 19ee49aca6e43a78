// internal/workers/engagement/resolve-vendor/config.go
package resolvevendor

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

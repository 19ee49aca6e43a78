// internal/workers/engagement/compute-delivery-date/config.go
package computedeliverydate

import "time"

type Config struct {
	Timezone string
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timezone: "America/Los_Angeles",
		Timeout:  10 * time.Second,
	}
}

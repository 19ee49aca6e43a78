// internal/workers/engagement/select-template/config.go
package selecttemplate

import "time"

type Config struct {
	TemplateDir string
	// RequireTemplate throws TEMPLATE_NOT_FOUND instead of completing with
	// exists=false.
	RequireTemplate bool
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		TemplateDir: "templates",
		Timeout:     10 * time.Second,
	}
}

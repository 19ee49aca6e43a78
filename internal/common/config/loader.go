// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (if present), merges the
// config.{APP_ENVIRONMENT} overlay and applies environment overrides such as
// LETTERS_TEMPLATE_DIR.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers the keys AutomaticEnv must know about to override
// them during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "engagement-letters")
	v.SetDefault("app.environment", "development")

	v.SetDefault("letters.template_dir", "templates")
	v.SetDefault("letters.output_dir", "output")
	v.SetDefault("letters.json_dir", ".")
	v.SetDefault("letters.timezone", "America/Los_Angeles")
	v.SetDefault("letters.autofill", true)
	v.SetDefault("letters.save_json", false)
	v.SetDefault("letters.sec_fee", "600")

	v.SetDefault("vendors.source", VendorSourceCSV)
	v.SetDefault("vendors.path", "vendors.csv")
	v.SetDefault("vendors.sql.driver", "sqlite")
	v.SetDefault("vendors.sql.table", "vendors")
	v.SetDefault("vendors.elasticsearch.index", "vendors")
	v.SetDefault("vendors.elasticsearch.size", 1000)
	v.SetDefault("vendors.cache.enabled", false)
	v.SetDefault("vendors.cache.key", "engagement-letters:vendors")
	v.SetDefault("vendors.cache.ttl", 300)

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.sqlite.path", "")

	v.SetDefault("notifications.aws.region", "")
	v.SetDefault("notifications.ses.enabled", false)
	v.SetDefault("notifications.ses.from_email", "")
	v.SetDefault("notifications.sns.enabled", false)
	v.SetDefault("notifications.sns.topic_arn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("tracing.enabled", false)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working directory
// to the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials that are conventionally supplied
// under their own names rather than the config key path.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if val := os.Getenv("AWS_REGION"); val != "" && cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = val
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Letters.TemplateDir == "" {
		cfg.Letters.TemplateDir = "templates"
	}
	if cfg.Letters.OutputDir == "" {
		cfg.Letters.OutputDir = "output"
	}
	if cfg.Letters.JSONDir == "" {
		cfg.Letters.JSONDir = "."
	}
	if cfg.Letters.Timezone == "" {
		cfg.Letters.Timezone = "America/Los_Angeles"
	}
	if cfg.Letters.SecFee == "" {
		cfg.Letters.SecFee = "600"
	}

	if cfg.Vendors.Source == "" {
		cfg.Vendors.Source = VendorSourceCSV
	}
	cfg.Vendors.Source = strings.ToLower(cfg.Vendors.Source)
	if cfg.Vendors.SQL.Table == "" {
		cfg.Vendors.SQL.Table = "vendors"
	}
	if cfg.Vendors.Elasticsearch.Size == 0 {
		cfg.Vendors.Elasticsearch.Size = 1000
	}
	if cfg.Vendors.Cache.TTL == 0 {
		cfg.Vendors.Cache.TTL = 300
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-west-2"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "engagement-letters"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// Validate checks the settings of whichever external services are in use. A
// CLI run against a local CSV dataset needs none of them.
func Validate(cfg *Config) error {
	switch cfg.Vendors.Source {
	case VendorSourceCSV, VendorSourceXLSX:
		if cfg.Vendors.Path == "" {
			return fmt.Errorf("vendors.path is required for source %q", cfg.Vendors.Source)
		}
	case VendorSourceSQL:
		switch cfg.Vendors.SQL.Driver {
		case "postgres":
			if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
				return fmt.Errorf("database.postgres.host and database are required for the postgres vendor source")
			}
		case "sqlite":
			if cfg.Database.SQLite.Path == "" && cfg.Vendors.Path == "" {
				return fmt.Errorf("database.sqlite.path is required for the sqlite vendor source")
			}
		default:
			return fmt.Errorf("vendors.sql.driver must be postgres or sqlite, got %q", cfg.Vendors.SQL.Driver)
		}
	case VendorSourceElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch vendor source")
		}
	default:
		return fmt.Errorf("unknown vendors.source %q", cfg.Vendors.Source)
	}

	if cfg.Vendors.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when vendors.cache is enabled")
	}
	if cfg.Notifications.SES.Enabled && cfg.Notifications.SES.FromEmail == "" {
		return fmt.Errorf("notifications.ses.from_email is required when ses is enabled")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: letters-test
letters:
  template_dir: ./tpl
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "letters-test", cfg.App.Name)
	assert.Equal(t, "./tpl", cfg.Letters.TemplateDir)
	assert.Equal(t, "output", cfg.Letters.OutputDir)
	assert.Equal(t, "600", cfg.Letters.SecFee)
	assert.Equal(t, "America/Los_Angeles", cfg.Letters.Timezone)
	assert.True(t, cfg.Letters.Autofill)
	assert.Equal(t, VendorSourceCSV, cfg.Vendors.Source)
	assert.Equal(t, 300, cfg.Vendors.Cache.TTL)
	assert.Equal(t, "us-west-2", cfg.Notifications.AWS.Region)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("LETTERS_OUTPUT_DIR", "/tmp/letters-out")
	t.Setenv("LETTER_OWNER", "ops")
	path := writeConfig(t, `
app:
  name: ${LETTER_OWNER}-letters
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/letters-out", cfg.Letters.OutputDir)
	assert.Equal(t, "ops-letters", cfg.App.Name)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	path := writeConfig(t, `
workers:
  generate-letter:
    enabled: true
  send-letter:
    enabled: false
    max_jobs_active: 2
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	gen := GetWorkerConfig(cfg, "generate-letter")
	assert.Equal(t, 5, gen.MaxJobsActive)
	assert.Equal(t, 30000, gen.Timeout)
	assert.Equal(t, 3, gen.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "send-letter"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "send-letter").MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "resolve-vendor"))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Vendors.Path = "vendors.csv"
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "csv default is valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Vendors.Source = "ftp" },
			wantErr: "unknown vendors.source",
		},
		{
			name: "postgres source needs host",
			mutate: func(c *Config) {
				c.Vendors.Source = VendorSourceSQL
				c.Vendors.SQL.Driver = "postgres"
			},
			wantErr: "database.postgres.host",
		},
		{
			name: "elasticsearch source needs url",
			mutate: func(c *Config) {
				c.Vendors.Source = VendorSourceElasticsearch
			},
			wantErr: "database.elasticsearch",
		},
		{
			name:    "cache needs redis",
			mutate:  func(c *Config) { c.Vendors.Cache.Enabled = true },
			wantErr: "database.redis.address",
		},
		{
			name:    "ses needs sender",
			mutate:  func(c *Config) { c.Notifications.SES.Enabled = true },
			wantErr: "from_email",
		},
		{
			name:    "sns needs topic",
			mutate:  func(c *Config) { c.Notifications.SNS.Enabled = true },
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "letters", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=letters sslmode=disable", p.GetDSN())
}

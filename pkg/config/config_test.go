package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d9i2r2t1/hh-parser/pkg/util/env"
)

const sampleConfig = `
parser:
  area: 1
  search_period: 1
  search_text: data engineer
  search_regex: data|дата

postgres:
  host: localhost
  port: 5432
  user: hh
  password: from-file
  name: hh_parser

email:
  server: smtp.example.com
  port: 465
  login: reports@example.com
  password: report-secret
  ssl: true
  email_from: reports@example.com
  email_to:
    - team@example.com
  email_subject: hh.ru report

service_mail:
  server: smtp.example.com
  port: 465
  login: alerts@example.com
  password: alert-secret
  ssl: true
  email_from: alerts@example.com
  email_to:
    - oncall@example.com

schedule: "0 9 * * *"
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "data_engineer.yml", sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data_engineer.yml", cfg.FileName)
	assert.Equal(t, 1, cfg.Parser.Area)
	assert.Equal(t, "data engineer", cfg.Parser.SearchText)
	assert.Equal(t, "hh_parser", cfg.Postgres.Name)
	assert.Equal(t, "from-file", cfg.Postgres.Password)
	assert.Equal(t, []string{"team@example.com"}, cfg.Email.EmailTo)
	assert.Equal(t, "0 9 * * *", cfg.Schedule)
	assert.True(t, cfg.ServiceMail.SSL)
}

func TestLoadEnvOverridesPassword(t *testing.T) {
	defer env.RevertEnvVariables(EnvPostgresPassword, EnvSMTPPassword)()
	require.NoError(t, os.Setenv(EnvPostgresPassword, "from-env"))
	require.NoError(t, os.Setenv(EnvSMTPPassword, "smtp-from-env"))

	path := writeConfig(t, t.TempDir(), "data_engineer.yml", sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Postgres.Password)
	assert.Equal(t, "smtp-from-env", cfg.Email.Password)
	assert.Equal(t, "alert-secret", cfg.ServiceMail.Password)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Parser:   Parser{Area: 1, SearchPeriod: 1, SearchText: "go", SearchRegex: "go"},
			Postgres: Postgres{Host: "localhost", User: "hh", Name: "hh_parser"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
	t.Run("empty search text is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Parser.SearchText = ""
		assert.Error(t, cfg.Validate())
	})
	t.Run("broken regex is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Parser.SearchRegex = "(["
		assert.Error(t, cfg.Validate())
	})
	t.Run("non-positive search period is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Parser.SearchPeriod = 0
		assert.Error(t, cfg.Validate())
	})
	t.Run("missing database name is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Postgres.Name = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "b_query.yml", sampleConfig)
	writeConfig(t, dir, "a_query.yaml", sampleConfig)
	writeConfig(t, dir, ExampleFileName, sampleConfig)
	writeConfig(t, dir, "notes.txt", "not a config")

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a_query.yaml"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b_query.yml"), paths[1])
}

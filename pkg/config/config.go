// Package config loads the per-query job configurations.
//
// Every monitored search query gets its own YAML file in the configs
// directory (cfgs/ by default). A single service run processes each of
// them independently.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/d9i2r2t1/hh-parser/pkg/util/env"
)

// ExampleFileName is shipped alongside real configs and is never runnable.
const ExampleFileName = "cfg_example.yml"

// Env vars that override secrets from the YAML files, so real credentials
// can stay out of the mounted configs directory.
const (
	EnvPostgresPassword    = "HH_PG_PASSWORD"
	EnvSMTPPassword        = "HH_SMTP_PASSWORD"
	EnvServiceSMTPPassword = "HH_SERVICE_SMTP_PASSWORD"
)

type Config struct {
	Parser      Parser   `json:"parser"`
	Postgres    Postgres `json:"postgres"`
	Email       Email    `json:"email"`
	ServiceMail Email    `json:"service_mail"`
	// Schedule is a cron expression used by the serve command. Optional.
	Schedule string `json:"schedule,omitempty"`

	// FileName is the base name of the file this config was loaded from.
	FileName string `json:"-"`
}

// Parser holds the hh.ru search parameters.
type Parser struct {
	// Area is the hh.ru region identifier (1 is Moscow).
	Area int `json:"area"`
	// SearchPeriod limits the search to vacancies published within the last N days.
	SearchPeriod int `json:"search_period"`
	// SearchText is the search query.
	SearchText string `json:"search_text"`
	// SearchRegex confirms vacancy titles: titles not matching it are dropped.
	SearchRegex string `json:"search_regex"`
}

type Postgres struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type Email struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	Login        string   `json:"login"`
	Password     string   `json:"password"`
	SSL          bool     `json:"ssl"`
	EmailFrom    string   `json:"email_from"`
	EmailTo      []string `json:"email_to"`
	EmailSubject string   `json:"email_subject,omitempty"`
}

// Load reads and validates a single job configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	cfg.FileName = filepath.Base(path)
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Discover lists runnable config files in dir, skipping the shipped example.
// The result is sorted for deterministic run order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configs directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == ExampleFileName {
			continue
		}
		if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (c *Config) applyEnvOverrides() {
	c.Postgres.Password = env.ReadOrDefault(EnvPostgresPassword, c.Postgres.Password)
	c.Email.Password = env.ReadOrDefault(EnvSMTPPassword, c.Email.Password)
	c.ServiceMail.Password = env.ReadOrDefault(EnvServiceSMTPPassword, c.ServiceMail.Password)
}

func (c *Config) Validate() error {
	if c.Parser.SearchText == "" {
		return errors.New("parser.search_text must not be empty")
	}
	if c.Parser.SearchRegex == "" {
		return errors.New("parser.search_regex must not be empty")
	}
	if _, err := regexp.Compile(`(?i)` + c.Parser.SearchRegex); err != nil {
		return errors.Wrap(err, "parser.search_regex does not compile")
	}
	if c.Parser.Area <= 0 {
		return errors.New("parser.area must be positive")
	}
	if c.Parser.SearchPeriod <= 0 {
		return errors.New("parser.search_period must be positive")
	}
	if c.Postgres.Host == "" {
		return errors.New("postgres.host must not be empty")
	}
	if c.Postgres.User == "" {
		return errors.New("postgres.user must not be empty")
	}
	if c.Postgres.Name == "" {
		return errors.New("postgres.name must not be empty")
	}
	return nil
}

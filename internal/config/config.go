// Package config loads tool settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// candidates are probed in order when no config path is given.
var candidates = []string{"config_ndo.yaml", "config.yaml"}

type Config struct {
	GitLabURL   string `yaml:"gitlab_url"`
	APIURL      string `yaml:"gitlab_api_url"`
	ProjectID   string `yaml:"gitlab_project_id"`
	Token       string `yaml:"gitlab_token"`
	SSLVerify   bool   `yaml:"ssl_verify"`
	BypassProxy bool   `yaml:"bypass_proxy"`
	Environment string `yaml:"environment"`
	ReportDir   string `yaml:"report_dir"`

	Resolution ResolutionConfig `yaml:"conflict_resolution"`
	Workspaces []string         `yaml:"workspaces"`
}

type ResolutionConfig struct {
	Strategy    string   `yaml:"strategy"`
	IgnoreFiles []string `yaml:"ignore_files"`
}

// Default returns the settings used when a key is absent from the file.
// Network defaults are permissive: TLS verification off, proxies bypassed.
func Default() *Config {
	return &Config{
		GitLabURL:   "https://gitlab.com",
		SSLVerify:   false,
		BypassProxy: true,
		Environment: "Terraform",
		ReportDir:   ".",
		Resolution: ResolutionConfig{
			Strategy: "theirs",
		},
	}
}

// Load reads the config file at path. An empty path probes the default
// candidate files in the working directory; a missing candidate falls back
// to defaults, a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		for _, cand := range candidates {
			if _, err := os.Stat(cand); err == nil {
				path = cand
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.APIURL == "" {
		cfg.APIURL = strings.TrimRight(cfg.GitLabURL, "/") + "/api/v4"
	}

	cfg.Resolution.Strategy = strings.ToLower(cfg.Resolution.Strategy)
	switch cfg.Resolution.Strategy {
	case "ours", "theirs":
	default:
		return nil, fmt.Errorf("invalid conflict_resolution.strategy %q (want ours or theirs)", cfg.Resolution.Strategy)
	}

	return cfg, nil
}

// applyEnv layers environment overrides on top of the file values.
// CORP_NETWORK marks hosts behind TLS-intercepting proxies, where
// certificate verification cannot succeed.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GITLAB_URL"); v != "" {
		cfg.GitLabURL = v
	}
	if v := os.Getenv("GITLAB_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("GITLAB_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
	if strings.EqualFold(os.Getenv("CORP_NETWORK"), "true") {
		cfg.SSLVerify = false
	}
}

// ResolveToken picks the API token by precedence: the CI job token, then
// the private token, then the generic token variable, then the config file
// value. The returned source names where the token came from for logging.
func (c *Config) ResolveToken() (token, source string) {
	for _, env := range []string{"CI_JOB_TOKEN", "GITLAB_PRIVATE_TOKEN", "GITLAB_TOKEN"} {
		if v := os.Getenv(env); v != "" {
			return v, env
		}
	}
	if c.Token != "" {
		return c.Token, "config file"
	}
	return "", ""
}

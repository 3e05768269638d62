package cli

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/substrate-tools/psvm/pkg/errors"
)

// defaultCacheTTL bounds how long cached version listings are served
// without hitting the network.
const defaultCacheTTL = 24 * time.Hour

// Config carries the tunables shared by all commands. Values are layered:
// built-in defaults, then the optional config file, then the environment.
// Flags are parsed by cobra and applied by the commands themselves.
type Config struct {
	// GitServer overrides the raw content host, e.g. for a mirror.
	GitServer string

	// GithubToken authenticates API listings. Anonymous requests work but
	// are rate-limited.
	GithubToken string

	// CacheTTL is the version-list cache lifetime. Zero disables expiry.
	CacheTTL time.Duration
}

// fileConfig is the on-disk shape. Durations are written as strings in Go
// duration syntax ("24h", "30m").
type fileConfig struct {
	GitServer   string `yaml:"git_server"`
	GithubToken string `yaml:"github_token"`
	CacheTTL    string `yaml:"cache_ttl"`
}

// LoadConfig builds the effective configuration from the optional config
// file at ~/.config/psvm/config.yaml and the environment. A missing file is
// not an error; a malformed one is.
func LoadConfig() (Config, error) {
	cfg := Config{CacheTTL: defaultCacheTTL}

	if path, err := configPath(); err == nil {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("PSVM_GIT_SERVER"); v != "" {
		cfg.GitServer = v
	}
	if v := os.Getenv("PSVM_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeMalformedInput, err, "parse PSVM_CACHE_TTL")
		}
		cfg.CacheTTL = ttl
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedInput, err, "parse config %s", path)
	}
	if fc.GitServer != "" {
		cfg.GitServer = fc.GitServer
	}
	if fc.GithubToken != "" {
		cfg.GithubToken = fc.GithubToken
	}
	if fc.CacheTTL != "" {
		ttl, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMalformedInput, err, "parse cache_ttl in %s", path)
		}
		cfg.CacheTTL = ttl
	}
	return nil
}

func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.yaml"), nil
}

// Package config loads the deploy configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// IndexModeDirect is the only pointer strategy currently defined: the
// active pointer is a symlink straight at the revision's entry file. The
// field is an enum to leave room for future strategies.
const IndexModeDirect = "direct"

// DefaultManifestSize is the number of revisions kept remotely when no
// limit is configured.
const DefaultManifestSize = 10

// Config holds the full tool configuration.
type Config struct {
	RemoteDir    string `yaml:"remote_dir"`
	RemoteRoot   string `yaml:"remote_root"`
	ManifestSize int    `yaml:"manifest_size"`
	IndexMode    string `yaml:"index_mode"`

	BuildDir  string `yaml:"build_dir"`
	EntryFile string `yaml:"entry_file"`

	// PostActivate is an optional remote command run after a successful
	// activation (cache purge, webserver reload). Its failure is reported
	// but does not undo the activation.
	PostActivate string `yaml:"post_activate"`

	SSH SSHConfig `yaml:"ssh"`
	Log LogConfig `yaml:"log"`

	HistoryDB string `yaml:"history_db"`
}

// SSHConfig holds the transport credentials; consumed only by the transport.
type SSHConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	KeyFile  string        `yaml:"key_file"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, applies DEPLOY_* environment overrides,
// fills defaults and validates. A missing file is not an error so a config
// built purely from the environment works.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.defaults()

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.RemoteDir = getEnv("DEPLOY_REMOTE_DIR", c.RemoteDir)
	c.RemoteRoot = getEnv("DEPLOY_REMOTE_ROOT", c.RemoteRoot)
	c.ManifestSize = getEnvInt("DEPLOY_MANIFEST_SIZE", c.ManifestSize)
	c.IndexMode = getEnv("DEPLOY_INDEX_MODE", c.IndexMode)
	c.BuildDir = getEnv("DEPLOY_BUILD_DIR", c.BuildDir)
	c.EntryFile = getEnv("DEPLOY_ENTRY_FILE", c.EntryFile)
	c.PostActivate = getEnv("DEPLOY_POST_ACTIVATE", c.PostActivate)
	c.HistoryDB = getEnv("DEPLOY_HISTORY_DB", c.HistoryDB)

	c.SSH.Host = getEnv("DEPLOY_SSH_HOST", c.SSH.Host)
	c.SSH.Port = getEnvInt("DEPLOY_SSH_PORT", c.SSH.Port)
	c.SSH.User = getEnv("DEPLOY_SSH_USER", c.SSH.User)
	c.SSH.KeyFile = getEnv("DEPLOY_SSH_KEY_FILE", c.SSH.KeyFile)
	c.SSH.Password = getEnv("DEPLOY_SSH_PASSWORD", c.SSH.Password)

	c.Log.Level = getEnv("DEPLOY_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DEPLOY_LOG_FORMAT", c.Log.Format)
}

func (c *Config) defaults() {
	if c.ManifestSize == 0 {
		c.ManifestSize = DefaultManifestSize
	}
	if c.IndexMode == "" {
		c.IndexMode = IndexModeDirect
	}
	if c.RemoteRoot == "" {
		c.RemoteRoot = c.RemoteDir
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	if c.EntryFile == "" {
		c.EntryFile = c.BuildDir + "/index.html"
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = 22
	}
	if c.SSH.Timeout == 0 {
		c.SSH.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = ".deploy-history.db"
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.RemoteDir == "" {
		return fmt.Errorf("remote_dir is required")
	}
	if c.ManifestSize < 1 {
		return fmt.Errorf("manifest_size must be at least 1, got %d", c.ManifestSize)
	}
	if c.IndexMode != IndexModeDirect {
		return fmt.Errorf("unknown index_mode: %q", c.IndexMode)
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("invalid ssh port: %d", c.SSH.Port)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

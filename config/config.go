package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	LogFile     string                  `toml:"log_file"`
	LogLevel    string                  `toml:"log_level"`
	DownloadDir string                  `toml:"download_dir"`
	StaleTTL    Duration                `toml:"stale_ttl"`
	Servers     map[string]ServerConfig `toml:"servers"`
}

// ServerConfig holds connection details for one LMS course.
type ServerConfig struct {
	BaseURL            string                       `toml:"base_url"`
	CourseID           string                       `toml:"course_id"`
	APIToken           string                       `toml:"api_token"`
	SessionID          string                       `toml:"session_id"`
	CSRFToken          string                       `toml:"csrf_token"`
	InsecureSkipVerify bool                         `toml:"insecure_skip_verify"`
	Timeout            Duration                     `toml:"timeout"`
	RequestsPerSecond  float64                      `toml:"requests_per_second"`
	Sections           []string                     `toml:"sections"`
	Endpoints          map[string]map[string]string `toml:"endpoints"`
	SSH                *SSHConfig                   `toml:"ssh"`
}

// SSHConfig holds optional SSH tunnel details for reaching a private LMS host.
type SSHConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	Username           string `toml:"username"`
	PrivateKeyPath     string `toml:"private_key_path"`
	HostKeyFingerprint string `toml:"host_key_fingerprint"`
}

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

const (
	defaultTimeout   = 30 * time.Second
	defaultStaleTTL  = 30 * time.Second
	defaultLogLevel  = "info"
	defaultSSHPort   = 22
	defaultRateLimit = 5
)

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "instructor-tui", "config.toml")
}

// DefaultLogPath returns the log file used when log_file is not set.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(dir, "instructor-tui", "instructor-tui.log")
}

// LoadFrom reads and parses the config file at the given path.
// Defaults are applied and every server profile is validated.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("config has no servers defined")
	}

	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogPath()
	}
	cfg.LogFile = expandPath(cfg.LogFile)
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "."
	}
	cfg.DownloadDir = expandPath(cfg.DownloadDir)
	if cfg.StaleTTL.Duration == 0 {
		cfg.StaleTTL.Duration = defaultStaleTTL
	}

	for name, server := range cfg.Servers {
		if err := server.validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		server.BaseURL = strings.TrimRight(server.BaseURL, "/")
		if server.Timeout.Duration == 0 {
			server.Timeout.Duration = defaultTimeout
		}
		if server.RequestsPerSecond == 0 {
			server.RequestsPerSecond = defaultRateLimit
		}
		if server.SSH != nil {
			if server.SSH.Port == 0 {
				server.SSH.Port = defaultSSHPort
			}
			if server.SSH.Username == "" {
				server.SSH.Username = os.Getenv("USER")
			}
			server.SSH.PrivateKeyPath = expandPath(server.SSH.PrivateKeyPath)
		}
		cfg.Servers[name] = server
	}
	return &cfg, nil
}

func (s ServerConfig) validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", s.BaseURL)
	}
	if s.CourseID == "" {
		return fmt.Errorf("course_id is required")
	}
	if s.APIToken == "" && s.SessionID == "" {
		return fmt.Errorf("one of api_token or session_id is required")
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}

// expandPath expands ~ to $HOME and then expands all environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = "$HOME" + path[1:]
	}
	return os.ExpandEnv(path)
}

// ServerNames returns the sorted list of server profile names.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the server profile to use. An empty name is only allowed
// when exactly one profile is configured.
func (c *Config) Resolve(name string) (string, ServerConfig, error) {
	if name == "" {
		names := c.ServerNames()
		if len(names) != 1 {
			return "", ServerConfig{}, fmt.Errorf("multiple servers configured, use --server (available: %s)", strings.Join(names, ", "))
		}
		name = names[0]
	}
	server, ok := c.Servers[name]
	if !ok {
		return "", ServerConfig{}, fmt.Errorf("server %q not found in config", name)
	}
	return name, server, nil
}

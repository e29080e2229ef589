package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultAPIBaseURL  = "https://hn.algolia.com/api/v1"
	DefaultHitsPerPage = 100
	DefaultQuery       = "redux"
	DefaultWebHost     = "localhost"
	DefaultWebPort     = "8080"
)

type Config struct {
	APIBaseURL   string    `toml:"api_base_url"`
	HitsPerPage  int       `toml:"hits_per_page"`
	DefaultQuery string    `toml:"default_query"`
	HTTPTimeout  Duration  `toml:"http_timeout"`
	Web          WebConfig `toml:"web"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns a configuration pointing at the public Algolia
// endpoint. A zero HTTPTimeout means requests never time out.
func GetDefaultConfig() *Config {
	return &Config{
		APIBaseURL:   DefaultAPIBaseURL,
		HitsPerPage:  DefaultHitsPerPage,
		DefaultQuery: DefaultQuery,
		Web: WebConfig{
			Host: DefaultWebHost,
			Port: DefaultWebPort,
		},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes TOML data and fills every unset field with its default.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	if c.HitsPerPage == 0 {
		c.HitsPerPage = DefaultHitsPerPage
	}

	if c.DefaultQuery == "" {
		c.DefaultQuery = DefaultQuery
	}

	if c.Web.Host == "" {
		c.Web.Host = DefaultWebHost
	}
	if c.Web.Port == "" {
		c.Web.Port = DefaultWebPort
	}
}

func (c *Config) Validate() error {
	if c.HitsPerPage < 0 {
		return fmt.Errorf("hits_per_page must be positive, got %d", c.HitsPerPage)
	}
	if c.HTTPTimeout.Duration < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample configuration.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template := strings.Replace(configTemplate, `default_query = "redux"`,
		fmt.Sprintf("default_query = %q", c.DefaultQuery), 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// Addr returns the host:port pair the web server binds to.
func (w WebConfig) Addr() string {
	return w.Host + ":" + w.Port
}

// GetConfigDir returns the configuration directory for hnsearch
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hnsearch"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

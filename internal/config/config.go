package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"github.com/Mavwarf/teamsdesk/internal/paths"
)

// UserAgent selects which of the configured user-agent strings the main
// window presents to the remote application.
type UserAgent string

const (
	UserAgentChrome UserAgent = "chrome"
	UserAgentEdge   UserAgent = "edge"
)

const (
	DefaultURL             = "https://teams.microsoft.com/"
	DefaultPartition       = "persist:teams"
	DefaultChromeUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/66.0.3359.139 Safari/537.36"
	DefaultEdgeUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/64.0.3282.140 Safari/537.36 Edge/17.17134"

	StorageFile   = "file"
	StorageSQLite = "sqlite"

	// KeyringService is the OS keyring service holding the firewall password.
	KeyringService = "teamsdesk"
)

// Environment variables consulted after the config file and .env.
const (
	EnvURL              = "TEAMSDESK_URL"
	EnvUserAgent        = "TEAMSDESK_USER_AGENT"
	EnvFirewallUsername = "TEAMSDESK_FIREWALL_USERNAME"
	EnvFirewallPassword = "TEAMSDESK_FIREWALL_PASSWORD"
)

// MQTT holds the optional broker settings used to publish the unread count.
type MQTT struct {
	Broker   string `json:"broker,omitempty"`
	Topic    string `json:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Enabled reports whether an MQTT broker is configured.
func (m MQTT) Enabled() bool { return m.Broker != "" }

// Config is the resolved shell configuration. It is created once at
// startup and passed around by value.
type Config struct {
	URL                string    `json:"url"`
	UserAgent          UserAgent `json:"user_agent"`
	ChromeUserAgent    string    `json:"chrome_user_agent"`
	EdgeUserAgent      string    `json:"edge_user_agent"`
	FirewallUsername   string    `json:"firewall_username,omitempty"`
	FirewallPassword   string    `json:"firewall_password,omitempty"`
	Partition          string    `json:"partition"`
	WindowStateStorage string    `json:"window_state_storage"`
	NotificationSound  string    `json:"notification_sound,omitempty"`
	WebDebug           bool      `json:"web_debug,omitempty"`
	MQTT               MQTT      `json:"mqtt,omitempty"`
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		URL:                DefaultURL,
		UserAgent:          UserAgentChrome,
		ChromeUserAgent:    DefaultChromeUserAgent,
		EdgeUserAgent:      DefaultEdgeUserAgent,
		Partition:          DefaultPartition,
		WindowStateStorage: StorageFile,
	}
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = Defaults()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// SelectedUserAgent returns the user-agent string chosen by UserAgent.
// Anything other than "edge" selects the Chrome string.
func (c Config) SelectedUserAgent() string {
	if c.UserAgent == UserAgentEdge {
		return c.EdgeUserAgent
	}
	return c.ChromeUserAgent
}

// HasFirewallCredentials reports whether proxy challenges can be answered
// without asking the user.
func (c Config) HasFirewallCredentials() bool {
	return c.FirewallUsername != ""
}

// Resolve builds the configuration for the given storage directory. Sources
// are applied in order, later ones winning:
//  1. compiled-in defaults
//  2. <storageDir>/teamsdesk-config.json
//  3. <storageDir>/.env
//  4. the process environment
//
// When a firewall username is set without a password, the password is looked
// up in the OS keyring. The result is validated; any error must abort startup.
func Resolve(storageDir string) (Config, error) {
	return resolve(storageDir, os.LookupEnv, keyringPassword)
}

func resolve(storageDir string, lookupEnv func(string) (string, bool), secret func(user string) (string, error)) (Config, error) {
	cfg, err := readConfig(filepath.Join(storageDir, paths.ConfigFileName))
	if err != nil {
		return Config{}, err
	}

	dotenv, err := readDotenv(filepath.Join(storageDir, paths.EnvFileName))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if v, ok := lookup(EnvURL); ok {
		cfg.URL = v
	}
	if v, ok := lookup(EnvUserAgent); ok {
		cfg.UserAgent = UserAgent(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvFirewallUsername); ok {
		cfg.FirewallUsername = v
	}
	if v, ok := lookup(EnvFirewallPassword); ok {
		cfg.FirewallPassword = v
	}

	cfg.URL = strings.TrimSpace(cfg.URL)
	fillDefaults(&cfg)

	if cfg.FirewallUsername != "" && cfg.FirewallPassword == "" && secret != nil {
		if pw, err := secret(cfg.FirewallUsername); err == nil {
			cfg.FirewallPassword = pw
		}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fillDefaults replaces empty optional fields with their defaults. The URL
// is left alone: an explicitly empty URL is a configuration error.
func fillDefaults(cfg *Config) {
	d := Defaults()
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if cfg.ChromeUserAgent == "" {
		cfg.ChromeUserAgent = d.ChromeUserAgent
	}
	if cfg.EdgeUserAgent == "" {
		cfg.EdgeUserAgent = d.EdgeUserAgent
	}
	if cfg.Partition == "" {
		cfg.Partition = d.Partition
	}
	if cfg.WindowStateStorage == "" {
		cfg.WindowStateStorage = d.WindowStateStorage
	}
	if cfg.MQTT.Enabled() && cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "teamsdesk"
	}
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return env, nil
}

func keyringPassword(user string) (string, error) {
	return keyring.Get(KeyringService, user)
}

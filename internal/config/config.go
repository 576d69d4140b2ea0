// Package config loads the bridge configuration from a YAML file.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hldsbot/hldsbot-go/internal/classifier"
	"github.com/hldsbot/hldsbot-go/internal/destination"
	"github.com/hldsbot/hldsbot-go/internal/dispatch"
	"github.com/hldsbot/hldsbot-go/internal/listener"
	"github.com/hldsbot/hldsbot-go/internal/safefile"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

const (
	// MaxFileSize is the largest accepted configuration file.
	MaxFileSize = 1 * 1024 * 1024

	// TokenEnv overrides telegram.token.
	TokenEnv = "HLDSBOT_TELEGRAM_TOKEN"

	// DefaultGame is the game advertised when server.game is unset.
	DefaultGame = "Half-Life"
)

// Config holds the bridge configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Destinations DestinationsConfig `yaml:"destinations"`
	Routing      RoutingConfig      `yaml:"routing"`
	Server       ServerConfig       `yaml:"server"`
	Listen       ListenConfig       `yaml:"listen"`
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token    string  `yaml:"token"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

// DestinationsConfig holds chat ids. Zero means not configured.
type DestinationsConfig struct {
	Public  int64 `yaml:"public"`
	Private int64 `yaml:"private"`
	Chat    int64 `yaml:"chat"`
}

// RoutingConfig selects which kinds are private and which are dropped.
// A nil list means the default; an empty list means none.
type RoutingConfig struct {
	PrivateEvents  []string `yaml:"private_events"`
	DisabledEvents []string `yaml:"disabled_events"`
}

// ServerConfig describes the game server for /info.
type ServerConfig struct {
	Game string `yaml:"game"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ListenConfig holds the UDP listener address.
type ListenConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig holds the health/metrics server address. Empty disables it.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// Load reads, defaults and validates the configuration at path.
// TokenEnv, if set, overrides the token from the file.
func Load(path string) (*Config, error) {
	data, err := safefile.ReadFile(path, MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses configuration from data. See Load.
func LoadBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Telegram.Token = token
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Routing.PrivateEvents == nil {
		c.Routing.PrivateEvents = kindNames(hldslog.DefaultPrivateKinds())
	}
	if c.Routing.DisabledEvents == nil {
		c.Routing.DisabledEvents = kindNames(hldslog.DefaultDisabledKinds())
	}
	if c.Server.Game == "" {
		c.Server.Game = DefaultGame
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 27015
	}
	if c.Listen.Address == "" {
		c.Listen.Address = listener.DefaultAddress
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks required fields and event names.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ValidationError{Field: "telegram.token", Message: "required (or set " + TokenEnv + ")"}
	}
	d := c.Destinations
	if d.Public == 0 && d.Private == 0 && d.Chat == 0 {
		return &ValidationError{Field: "destinations", Message: "at least one destination is required"}
	}
	if _, err := parseKinds("routing.private_events", c.Routing.PrivateEvents); err != nil {
		return err
	}
	if _, err := parseKinds("routing.disabled_events", c.Routing.DisabledEvents); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: fmt.Sprintf("out of range: %d", c.Server.Port)}
	}
	if _, _, err := net.SplitHostPort(c.Listen.Address); err != nil {
		return &ValidationError{Field: "listen.address", Message: "must be host:port", Cause: err}
	}
	return nil
}

// ClassifierPolicy returns the classifier policy for the configured
// disabled events. The configuration must be valid.
func (c *Config) ClassifierPolicy() classifier.Policy {
	kinds, _ := parseKinds("routing.disabled_events", c.Routing.DisabledEvents)
	return classifier.Policy{DisabledKinds: event.NewSet(kinds...)}
}

// DispatchRouting returns the dispatcher routing for the configured private events.
// The configuration must be valid.
func (c *Config) DispatchRouting() dispatch.Routing {
	kinds, _ := parseKinds("routing.private_events", c.Routing.PrivateEvents)
	return dispatch.Routing{PrivateKinds: event.NewSet(kinds...)}
}

// DestinationSet returns the configured destinations bound to client.
// Destinations with a zero id are left nil.
func (c *Config) DestinationSet(client destination.Client) *destination.Set {
	set := &destination.Set{}
	if id := c.Destinations.Public; id != 0 {
		set.Public = destination.New(id, destination.RolePublic, client)
	}
	if id := c.Destinations.Private; id != 0 {
		set.Private = destination.New(id, destination.RolePrivate, client)
	}
	if id := c.Destinations.Chat; id != 0 {
		set.Chat = destination.New(id, destination.RoleChat, client)
	}
	return set
}

func parseKinds(field string, names []string) ([]event.Kind, error) {
	kinds := make([]event.Kind, 0, len(names))
	for _, name := range names {
		k, err := event.ParseKind(name)
		if err != nil {
			return nil, &ValidationError{Field: field, Message: err.Error(), Cause: err}
		}
		if k == event.Disabled {
			return nil, &ValidationError{Field: field, Message: `"disabled" is not a selectable event`}
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func kindNames(kinds []event.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

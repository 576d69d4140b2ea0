package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldsbot/hldsbot-go/internal/destination"
	"github.com/hldsbot/hldsbot-go/internal/destination/destinationtest"
	"github.com/hldsbot/hldsbot-go/internal/safefile"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

func TestLoad_Valid(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load(filepath.Join("testdata", "valid.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, []int64{1001, 1002}, cfg.Telegram.AdminIDs)
	assert.Equal(t, DestinationsConfig{Public: -1001, Private: -1002, Chat: -1003}, cfg.Destinations)
	assert.Equal(t, ServerConfig{Game: "Counter-Strike", Host: "203.0.113.7", Port: 27016}, cfg.Server)
	assert.Equal(t, "127.0.0.1:27200", cfg.Listen.Address)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, ":9090", cfg.HTTP.Address)

	policy := cfg.ClassifierPolicy()
	assert.Equal(t, []event.Kind{event.Connected}, policy.DisabledKinds.Kinds())

	routing := cfg.DispatchRouting()
	assert.Equal(t, []event.Kind{event.ParseError, event.Say, event.Unknown}, routing.PrivateKinds.Kinds())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load(filepath.Join("testdata", "minimal.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"parse_error", "unknown"}, cfg.Routing.PrivateEvents)
	assert.Equal(t, []string{"connected", "cvars_start", "map_cvar", "cvars_end"}, cfg.Routing.DisabledEvents)
	assert.Equal(t, ServerConfig{Game: DefaultGame, Host: "0.0.0.0", Port: 27015}, cfg.Server)
	assert.Equal(t, "0.0.0.0:27115", cfg.Listen.Address)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
	assert.Empty(t, cfg.HTTP.Address)
}

func TestLoad_EmptyListDisablesNothing(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := LoadBytes([]byte(`
telegram: {token: x}
destinations: {chat: -1}
routing:
  disabled_events: []
`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ClassifierPolicy().DisabledKinds.Len())
	assert.Equal(t, 2, cfg.DispatchRouting().PrivateKinds.Len())
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")

	cfg, err := LoadBytes([]byte("destinations: {public: -1}\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)

	cfg, err = Load(filepath.Join("testdata", "valid.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token, "env wins over file")
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv(TokenEnv, "")

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing token", "destinations: {public: -1}", "telegram.token"},
		{"no destinations", "telegram: {token: x}", "destinations"},
		{"unknown private event", "telegram: {token: x}\ndestinations: {public: -1}\nrouting: {private_events: [frag]}", "routing.private_events"},
		{"unknown disabled event", "telegram: {token: x}\ndestinations: {public: -1}\nrouting: {disabled_events: [kill, nope]}", "routing.disabled_events"},
		{"disabled sentinel", "telegram: {token: x}\ndestinations: {public: -1}\nrouting: {disabled_events: [disabled]}", "routing.disabled_events"},
		{"bad port", "telegram: {token: x}\ndestinations: {public: -1}\nserver: {port: 70000}", "server.port"},
		{"bad listen address", "telegram: {token: x}\ndestinations: {public: -1}\nlisten: {address: nope}", "listen.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.input))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error %v is not a ValidationError", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.True(t, strings.HasPrefix(err.Error(), "config: "+tt.field+": "))
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := LoadBytes([]byte("telegram: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load("/nonexistent/hldsbot.yaml")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "/nonexistent")

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, safefile.ErrNotRegularFile)

	big := filepath.Join(t.TempDir(), "big.yaml")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("#", MaxFileSize+1)), 0o644))
	_, err = Load(big)
	assert.ErrorIs(t, err, safefile.ErrTooLarge)
}

func TestConfig_DestinationSet(t *testing.T) {
	cfg := &Config{Destinations: DestinationsConfig{Public: -1, Chat: -3}}
	set := cfg.DestinationSet(destinationtest.NewClient())

	require.NotNil(t, set.Public)
	assert.Equal(t, int64(-1), set.Public.ID)
	assert.Equal(t, destination.RolePublic, set.Public.Role)
	assert.Nil(t, set.Private)
	require.NotNil(t, set.Chat)
	assert.Equal(t, destination.RoleChat, set.Chat.Role)
	assert.Len(t, set.All(), 2)
}

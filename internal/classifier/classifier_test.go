package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

const ts = "log L 01/01/2024 - 12:00:00: "

func TestClassify(t *testing.T) {
	c := New(Policy{})

	tests := []struct {
		name  string
		input string
		want  event.Event
	}{
		// Map lifecycle
		{
			name:  "loading map",
			input: ts + `Loading map "crossfire"`,
			want:  event.Event{Kind: event.MapLoadingAnnounced, Payload: event.Payload{"map_name": "crossfire"}},
		},
		{
			name:  "started map",
			input: ts + `Started map "stalkyard" (CRC "-1452830329")`,
			want:  event.Event{Kind: event.MapStarted, Payload: event.Payload{"map_name": "stalkyard"}},
		},
		{
			name:  "cvars start",
			input: ts + `Server cvars start`,
			want:  event.Event{Kind: event.CvarsStart, Payload: event.Payload{}},
		},
		{
			name:  "cvars end",
			input: ts + `Server cvars end`,
			want:  event.Event{Kind: event.CvarsEnd, Payload: event.Payload{}},
		},
		{
			name:  "single cvar",
			input: ts + `Server cvar "mp_timelimit" = "30"`,
			want:  event.Event{Kind: event.MapCvar, Payload: event.Payload{}},
		},
		{
			name:  "shutdown",
			input: ts + `Server shutdown`,
			want:  event.Event{Kind: event.Shutdown, Payload: event.Payload{}},
		},

		// Players
		{
			name:  "kill",
			input: ts + `"Alice<1><STEAM_ID><>>" killed "Bob<2><STEAM_ID><>>" with "ak47"`,
			want: event.Event{Kind: event.Kill, Payload: event.Payload{
				"killer": "Alice", "victim": "Bob", "weapon": "ak47",
			}},
		},
		{
			name:  "kill with team and real steam ids",
			input: ts + `"Big Al<3><STEAM_0:1:1234><TERRORIST>" killed "bot<4><BOT><CT>" with "crowbar"`,
			want: event.Event{Kind: event.Kill, Payload: event.Payload{
				"killer": "Big Al", "victim": "bot", "weapon": "crowbar",
			}},
		},
		{
			name:  "suicide",
			input: ts + `"Alice<1><STEAM_0:0:42><>" committed suicide with "worldspawn"`,
			want:  event.Event{Kind: event.Suicide, Payload: event.Payload{"name": "Alice", "reason": "worldspawn"}},
		},
		{
			name:  "entered game",
			input: ts + `"Alice<1><STEAM_0:0:42><>" entered the game`,
			want:  event.Event{Kind: event.EnteredGame, Payload: event.Payload{"name": "Alice"}},
		},
		{
			name:  "connected is passthrough",
			input: ts + `"Alice<1><STEAM_0:0:42><>" connected, address "10.0.0.2:27005"`,
			want:  event.Event{Kind: event.Connected, Payload: event.Payload{}},
		},
		{
			name:  "disconnected",
			input: ts + `"Alice<1><STEAM_0:0:42><>" disconnected`,
			want:  event.Event{Kind: event.Disconnected, Payload: event.Payload{"name": "Alice"}},
		},
		{
			name:  "say keeps message verbatim",
			input: ts + `"Alice<1><STEAM_0:0:42><>" say "gg wp, 100% <3 :)"`,
			want:  event.Event{Kind: event.Say, Payload: event.Payload{"name": "Alice", "message": `"gg wp, 100% <3 :)"`}},
		},

		// Fallbacks
		{
			name:  "unknown",
			input: ts + `Rcon: "rcon 1234 "pass" status" from "10.0.0.1:1234"`,
			want: event.Event{Kind: event.Unknown, Payload: event.Payload{
				"log_line": ts + `Rcon: "rcon 1234 "pass" status" from "10.0.0.1:1234"`,
			}},
		},
		{
			name:  "empty line",
			input: "",
			want:  event.Event{Kind: event.Unknown, Payload: event.Payload{"log_line": ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.input))
		})
	}
}

func TestClassify_ParseError(t *testing.T) {
	c := New(Policy{})

	tests := []struct {
		name     string
		input    string
		wantKind event.Kind
	}{
		{"kill without prefix", `"Alice<1><STEAM_ID><>" killed "Bob<2><STEAM_ID><>" with "ak47"`, event.Kill},
		{"kill without weapon", ts + `"Alice<1><STEAM_ID><>" killed "Bob<2><STEAM_ID><>"`, event.Kill},
		{"say without player token", ts + `Alice say hi`, event.Say},
		{"say_team is not a say line", ts + `"Alice<1><STEAM_0:0:42><>" say_team "rush b"`, event.Say},
		{"loading map unquoted", ts + `Loading map crossfire`, event.MapLoadingAnnounced},
		{"started map without crc", ts + `Started map "crossfire"`, event.MapStarted},
		{"suicide bad timestamp", `log L 1/1/2024 - 12:00:00: "A<1><S><>" committed suicide with "x"`, event.Suicide},
		{"entered without slot", ts + `"Alice<STEAM_0:0:42><>" entered the game`, event.EnteredGame},
		{"disconnected plain", ts + `someone disconnected`, event.Disconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.input)
			require.Equal(t, event.ParseError, got.Kind)
			assert.Equal(t, string(tt.wantKind), got.Payload["event"])
			assert.Equal(t, tt.input, got.Payload["log_line"])
			assert.NotEmpty(t, got.Payload["exception"])
			assert.Len(t, got.Payload, 3)
		})
	}
}

func TestClassify_Disabled(t *testing.T) {
	c := New(Policy{DisabledKinds: event.NewSet(event.Connected, event.CvarsStart, event.MapCvar, event.CvarsEnd, event.Kill)})

	lines := []string{
		ts + `"Alice<1><STEAM_0:0:42><>" connected, address "10.0.0.2:27005"`,
		ts + `Server cvars start`,
		ts + `Server cvar "mp_timelimit" = "30"`,
		ts + `Server cvars end`,
		// Disabled kinds are suppressed before extraction, so a malformed
		// line never becomes a parse error.
		ts + `garbage killed garbage`,
	}
	for _, line := range lines {
		got := c.Classify(line)
		assert.Equal(t, event.Event{Kind: event.Disabled}, got, line)
		assert.Nil(t, got.Payload)
	}
}

func TestClassify_DisabledUnknown(t *testing.T) {
	c := New(Policy{DisabledKinds: event.NewSet(event.Unknown)})
	assert.Equal(t, event.Disabled, c.Classify("nothing to see here").Kind)
}

func TestClassify_FirstRuleWins(t *testing.T) {
	c := New(Policy{})

	// "killed" precedes "say" in rule order, so this chat line is treated as
	// a kill and fails its extraction.
	got := c.Classify(ts + `"Alice<1><STEAM_0:0:42><>" say "he killed me"`)
	assert.Equal(t, event.ParseError, got.Kind)
	assert.Equal(t, "kill", got.Payload["event"])

	// "entered the game" precedes " connected".
	assert.Equal(t, event.EnteredGame, CoarseKind(`"connected<1><S><>" entered the game`))

	// "Server cvars start" precedes "Server cvar".
	assert.Equal(t, event.CvarsStart, CoarseKind(ts+"Server cvars start"))
}

func TestClassify_ChatMentioningConnected(t *testing.T) {
	line := ts + `"Alice<1><STEAM_0:0:42><>" say "i got connected"`

	// " connected" precedes "say", so the chat line is detected as a connect.
	assert.Equal(t, event.Connected, CoarseKind(line))
	assert.Equal(t, event.Event{Kind: event.Connected, Payload: event.Payload{}}, New(Policy{}).Classify(line))

	// With connects disabled the message is suppressed.
	c := New(Policy{DisabledKinds: event.NewSet(event.Connected)})
	assert.Equal(t, event.Event{Kind: event.Disabled}, c.Classify(line))

	// A word that only ends in "connected" stays chat.
	assert.Equal(t, event.Say, CoarseKind(ts+`"Alice<1><STEAM_0:0:42><>" say "reconnected"`))
}

func TestClassify_Idempotent(t *testing.T) {
	c := New(Policy{DisabledKinds: event.NewSet(event.Connected)})
	lines := []string{
		ts + `"Alice<1><STEAM_ID><>>" killed "Bob<2><STEAM_ID><>>" with "ak47"`,
		ts + `"Alice<1><STEAM_0:0:42><>" say "hi"`,
		ts + `Loading map crossfire`,
		"random",
	}
	for _, line := range lines {
		assert.Equal(t, c.Classify(line), c.Classify(line))
	}
}

func TestCoarseKind(t *testing.T) {
	tests := []struct {
		input string
		want  event.Kind
	}{
		{ts + `Server shutdown`, event.Shutdown},
		{ts + `"A<1><S><>" disconnected`, event.Disconnected},
		{ts + `"A<1><S><>" connected, address "1.2.3.4:5"`, event.Connected},
		{ts + `"A<1><S><>" STEAM USERID validated`, event.Unknown},
		{ts + `Kick: "A<1><S><>" was kicked by "Console"`, event.Unknown},
		{"", event.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CoarseKind(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "log L    Alice say hi", Normalize(`log L 01/01/2024 - 12:00:00: "Alice<1>" say "hi!"`))
	assert.Equal(t, "Ünïcödé ok ", Normalize("Ünïcödé ok 42"))
	assert.Equal(t, "ab", Normalize("a\xffb"))
}

func TestExtractError(t *testing.T) {
	err := error(&ExtractError{Kind: event.Kill, Want: 3})
	assert.Equal(t, "invalid kill log line: pattern did not match", err.Error())

	err = &ExtractError{Kind: event.Say, Want: 2, Got: 1}
	assert.Equal(t, "invalid say log line: expected 2 fields, got 1", err.Error())

	var extractErr *ExtractError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, event.Say, extractErr.Kind)
}

func TestClassify_Parallel(t *testing.T) {
	c := New(Policy{DisabledKinds: event.NewSet(event.Connected)})
	line := ts + `"Alice<1><STEAM_ID><>>" killed "Bob<2><STEAM_ID><>>" with "ak47"`
	want := c.Classify(line)

	for i := 0; i < 8; i++ {
		t.Run("worker", func(t *testing.T) {
			t.Parallel()
			for j := 0; j < 100; j++ {
				if got := c.Classify(line); got.Kind != want.Kind || got.Payload["weapon"] != "ak47" {
					t.Errorf("Classify() = %+v, want %+v", got, want)
				}
			}
		})
	}
}

func FuzzClassify(f *testing.F) {
	f.Add(ts + `"Alice<1><STEAM_ID><>>" killed "Bob<2><STEAM_ID><>>" with "ak47"`)
	f.Add(ts + `"Alice<1><STEAM_0:0:42><>" say "hi"`)
	f.Add(ts + `Loading map "crossfire"`)
	f.Add(ts + `Started map "crossfire" (CRC "1")`)
	f.Add("")
	f.Add("\xff\xff\xff\xfflog L")
	f.Add("say killed disconnected")

	c := New(Policy{DisabledKinds: event.NewSet(event.Connected)})
	f.Fuzz(func(t *testing.T, line string) {
		ev := c.Classify(line)
		if ev.Kind == "" {
			t.Fatal("empty kind")
		}
		if ev.Kind == event.Disabled && ev.Payload != nil {
			t.Errorf("disabled event carries payload %v", ev.Payload)
		}
		if ev.Kind == event.ParseError && ev.Payload["log_line"] != line {
			t.Errorf("parse error lost the raw line")
		}
	})
}

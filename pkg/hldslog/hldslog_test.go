package hldslog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

func TestNewClassifier_Defaults(t *testing.T) {
	c := hldslog.NewClassifier()
	for _, line := range []string{
		`log L 01/01/2024 - 12:00:00: "Alice<1><STEAM_0:0:1><>" connected, address "10.0.0.1:27005"`,
		`log L 01/01/2024 - 12:00:00: Server cvars start`,
		`log L 01/01/2024 - 12:00:00: Server cvar "sv_gravity" = "800"`,
		`log L 01/01/2024 - 12:00:00: Server cvars end`,
	} {
		assert.Equal(t, hldslog.Disabled, c.Classify(line).Kind, line)
	}
}

func TestNewClassifier_NilOption(t *testing.T) {
	c := hldslog.NewClassifier(nil, hldslog.WithDisabledKinds(event.Shutdown))
	assert.Equal(t, hldslog.Disabled, c.Classify(`log L 01/01/2024 - 12:00:00: Server shutdown`).Kind)
	assert.Equal(t, event.CvarsEnd, c.Classify(`log L 01/01/2024 - 12:00:00: Server cvars end`).Kind)
}

func TestDefaultKinds(t *testing.T) {
	assert.ElementsMatch(t,
		[]hldslog.Kind{event.Connected, event.CvarsStart, event.MapCvar, event.CvarsEnd},
		hldslog.DefaultDisabledKinds())
	assert.ElementsMatch(t,
		[]hldslog.Kind{event.ParseError, event.Unknown},
		hldslog.DefaultPrivateKinds())

	// Callers get a fresh slice every time.
	kinds := hldslog.DefaultDisabledKinds()
	kinds[0] = event.Kill
	assert.Equal(t, event.Connected, hldslog.DefaultDisabledKinds()[0])
}

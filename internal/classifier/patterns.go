package classifier

import (
	"regexp"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// rule maps a substring of the normalized line to a coarse kind.
type rule struct {
	substr string
	kind   event.Kind
}

// rules are checked in order against the normalized line and the first match
// wins. "Server cvars start" and "Server cvars end" must precede "Server cvar",
// and " connected" must precede "disconnected" (the leading space keeps
// "disconnected" from matching it).
var rules = []rule{
	{"Server shutdown", event.Shutdown},
	{"Loading map", event.MapLoadingAnnounced},
	{"Started map", event.MapStarted},
	{"Server cvars start", event.CvarsStart},
	{"Server cvars end", event.CvarsEnd},
	{"Server cvar", event.MapCvar},
	{"entered the game", event.EnteredGame},
	{" connected", event.Connected},
	{"disconnected", event.Disconnected},
	{"killed", event.Kill},
	{"committed suicide with", event.Suicide},
	{"say", event.Say},
}

// Log line prefix: `log L 01/31/2024 - 23:59:59: `
const prefix = `log L \d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}: `

// Player token: `"Name<slot><STEAM_0:0:123><TEAM>"`. Only the name is captured.
const player = `"(.+?)<\d+><[^>]*><[^"]*>"`

// Compiled extraction patterns. Each capture group is one payload field.
var (
	// Captures: (1) map name
	loadingMapPattern = regexp.MustCompile(prefix + `Loading map "(.+)"`)

	// Matches: `Started map "crossfire" (CRC "-1234")`
	// Captures: (1) map name
	startedMapPattern = regexp.MustCompile(prefix + `Started map "(.+)" \(.+\)`)

	// Captures: (1) name, (2) message as written, quotes included
	sayPattern = regexp.MustCompile(prefix + player + ` say (.+)`)

	// Captures: (1) killer, (2) victim, (3) weapon
	killPattern = regexp.MustCompile(prefix + player + ` killed ` + player + ` with "(.+)"`)

	// Captures: (1) name, (2) reason
	suicidePattern = regexp.MustCompile(prefix + player + ` committed suicide with "(.+)"`)

	// Captures: (1) name
	enteredPattern = regexp.MustCompile(prefix + player + ` entered the game`)

	// Captures: (1) name
	disconnectedPattern = regexp.MustCompile(prefix + player + ` disconnected`)
)

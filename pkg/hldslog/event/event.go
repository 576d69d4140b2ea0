// Package event defines the event types produced by classifying HLDS log lines.
package event

import (
	"fmt"
	"sort"
)

// Kind identifies the type of a classified log line.
type Kind string

// Event kinds.
const (
	// Disabled is a sentinel: the line was classified into a kind the
	// policy suppresses. It is never rendered or routed.
	Disabled            Kind = "disabled"
	ParseError          Kind = "parse_error"
	Unknown             Kind = "unknown"
	MapLoadingAnnounced Kind = "map_loading_announced"
	MapCvar             Kind = "map_cvar"
	CvarsStart          Kind = "cvars_start"
	CvarsEnd            Kind = "cvars_end"
	MapStarted          Kind = "map_started"
	Connected           Kind = "connected"
	SteamValidated      Kind = "steam_validated"
	EnteredGame         Kind = "entered_game"
	Suicide             Kind = "suicide"
	Kill                Kind = "kill"
	Say                 Kind = "say"
	SayTeam             Kind = "say_team"
	Kick                Kind = "kick"
	Disconnected        Kind = "disconnected"
	Shutdown            Kind = "shutdown"
)

// Payload field names.
const (
	FieldMapName = "map_name"
	FieldName    = "name"
	FieldMessage = "message"
	FieldKiller  = "killer"
	FieldVictim  = "victim"
	FieldWeapon  = "weapon"
	FieldReason  = "reason"
	FieldEvent   = "event"
	FieldError   = "exception"
	FieldLogLine = "log_line"
)

var allKinds = []Kind{
	Disabled, ParseError, Unknown, MapLoadingAnnounced, MapCvar, CvarsStart,
	CvarsEnd, MapStarted, Connected, SteamValidated, EnteredGame, Suicide,
	Kill, Say, SayTeam, Kick, Disconnected, Shutdown,
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Payload holds the fields extracted from a log line. Its shape depends on
// the event kind.
type Payload map[string]string

// Event is the result of classifying one log line.
type Event struct {
	Kind    Kind    `json:"kind"`
	Payload Payload `json:"payload,omitempty"`
}

// Set is an immutable set of kinds.
type Set struct {
	m map[Kind]struct{}
}

// NewSet returns a Set containing kinds.
func NewSet(kinds ...Kind) Set {
	m := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return Set{m: m}
}

// Has reports whether k is in the set. The zero Set is empty.
func (s Set) Has(k Kind) bool {
	_, ok := s.m[k]
	return ok
}

// Len returns the number of kinds in the set.
func (s Set) Len() int {
	return len(s.m)
}

// Kinds returns the members sorted by name.
func (s Set) Kinds() []Kind {
	out := make([]Kind, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Package classifier turns raw HLDS log lines into typed events.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// ExtractError reports a line whose coarse kind was detected but whose body
// does not fit the structural pattern of that kind.
type ExtractError struct {
	Kind event.Kind
	Want int // number of fields the kind requires
	Got  int // number of fields the pattern produced (0 if it did not match)
}

func (e *ExtractError) Error() string {
	if e.Got == 0 {
		return fmt.Sprintf("invalid %s log line: pattern did not match", e.Kind)
	}
	return fmt.Sprintf("invalid %s log line: expected %d fields, got %d", e.Kind, e.Want, e.Got)
}

// Policy configures a Classifier. It is read-only once passed to New.
type Policy struct {
	// DisabledKinds are mapped to event.Disabled before any extraction.
	DisabledKinds event.Set
}

// Classifier classifies log lines according to a fixed Policy.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	disabled event.Set
}

// New returns a Classifier for p.
func New(p Policy) *Classifier {
	return &Classifier{disabled: p.DisabledKinds}
}

type extractor func(line string) (event.Payload, error)

var extractors = map[event.Kind]extractor{
	event.MapLoadingAnnounced: fields(event.MapLoadingAnnounced, loadingMapPattern, event.FieldMapName),
	event.MapStarted:          fields(event.MapStarted, startedMapPattern, event.FieldMapName),
	event.Say:                 fields(event.Say, sayPattern, event.FieldName, event.FieldMessage),
	event.Kill:                fields(event.Kill, killPattern, event.FieldKiller, event.FieldVictim, event.FieldWeapon),
	event.Suicide:             fields(event.Suicide, suicidePattern, event.FieldName, event.FieldReason),
	event.EnteredGame:         fields(event.EnteredGame, enteredPattern, event.FieldName),
	event.Disconnected:        fields(event.Disconnected, disconnectedPattern, event.FieldName),
}

// fields returns an extractor assigning the capture groups of re, in order,
// to names. Extraction succeeds only if every field is produced.
func fields(kind event.Kind, re *regexp.Regexp, names ...string) extractor {
	return func(line string) (event.Payload, error) {
		match := re.FindStringSubmatch(line)
		if match == nil {
			return nil, &ExtractError{Kind: kind, Want: len(names)}
		}
		groups := match[1:]
		if len(groups) != len(names) {
			return nil, &ExtractError{Kind: kind, Want: len(names), Got: len(groups)}
		}
		p := make(event.Payload, len(names))
		for i, name := range names {
			p[name] = groups[i]
		}
		return p, nil
	}
}

// Classify returns the event for a raw log line.
//
// Exactly one event is returned for every input:
//   - event.Disabled with a nil payload if the coarse kind is disabled
//   - event.ParseError if the coarse kind has an extractor that failed
//   - event.Unknown with the raw line if no rule matched
//   - otherwise the coarse kind with its extracted payload (possibly empty)
func (c *Classifier) Classify(line string) event.Event {
	kind := CoarseKind(line)

	if c.disabled.Has(kind) {
		return event.Event{Kind: event.Disabled}
	}

	if kind == event.Unknown {
		return event.Event{Kind: event.Unknown, Payload: event.Payload{event.FieldLogLine: line}}
	}

	extract, ok := extractors[kind]
	if !ok {
		return event.Event{Kind: kind, Payload: event.Payload{}}
	}

	payload, err := extract(line)
	if err != nil {
		return event.Event{
			Kind:    event.ParseError,
			Payload: event.Payload{
				event.FieldEvent:   string(kind),
				event.FieldError:   err.Error(),
				event.FieldLogLine: line,
			},
		}
	}
	return event.Event{Kind: kind, Payload: payload}
}

// CoarseKind detects the kind of line from its normalized text alone,
// without extracting any fields.
func CoarseKind(line string) event.Kind {
	plain := Normalize(line)
	for _, r := range rules {
		if strings.Contains(plain, r.substr) {
			return r.kind
		}
	}
	return event.Unknown
}

// letterOrSpace drops every rune that is neither a letter nor whitespace.
var letterOrSpace = runes.Remove(runes.Predicate(func(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsSpace(r)
}))

// Normalize strips everything but letters and whitespace from line.
// The result is only used for kind detection.
func Normalize(line string) string {
	plain, _, err := transform.String(letterOrSpace, line)
	if err != nil {
		return ""
	}
	return plain
}

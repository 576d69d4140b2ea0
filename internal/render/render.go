// Package render turns classified events into notification text.
package render

import (
	"fmt"
	"strings"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// MissingFieldError reports an event whose payload lacks a field its template
// refers to. Extractors guarantee complete payloads, so this is a programming
// error rather than bad input.
type MissingFieldError struct {
	Kind  event.Kind
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("render %s: payload has no %q field", e.Kind, e.Field)
}

// templates maps each announced kind to its text. "{field}" is replaced with
// the payload value of that field.
var templates = map[event.Kind]string{
	event.ParseError:          "🐹☕️ Log parse error! Event {event}, exception {exception}, input {log_line}",
	event.Unknown:             "❓ Unknown event {log_line}",
	event.MapLoadingAnnounced: "🏆 Prepare to win on {map_name}!",
	event.MapStarted:          "🚀 Map update: {map_name} is now live on the server!",
	event.CvarsStart:          "⏳ Server starting...",
	event.CvarsEnd:            "✅ Server started! Let's play!",
	event.EnteredGame:         "✳️ {name} joined to server!",
	event.Suicide:             "💀 {name} committed suicide with {reason}!",
	event.Kill:                "🤕 🔫 🫡\n\n{killer} killed {victim} with {weapon}!",
	event.Say:                 "🗣️ {name} said: {message}",
	event.Disconnected:        "🤧 {name} disconnected!",
	event.Shutdown:            "🔒 Server is shutting down.",
}

// Has reports whether kind has a template.
func Has(kind event.Kind) bool {
	_, ok := templates[kind]
	return ok
}

// Render returns the notification text for ev.
//
// ok is false for kinds that are valid but not announced. err is non-nil only
// if the payload is missing a field the template needs.
func Render(ev event.Event) (text string, ok bool, err error) {
	tmpl, ok := templates[ev.Kind]
	if !ok {
		return "", false, nil
	}

	var sb strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			sb.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			sb.WriteString(tmpl)
			break
		}
		end += open

		field := tmpl[open+1 : end]
		value, found := ev.Payload[field]
		if !found {
			return "", false, &MissingFieldError{Kind: ev.Kind, Field: field}
		}
		sb.WriteString(tmpl[:open])
		sb.WriteString(value)
		tmpl = tmpl[end+1:]
	}
	return sb.String(), true, nil
}

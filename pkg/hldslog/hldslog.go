package hldslog

import (
	"github.com/hldsbot/hldsbot-go/internal/classifier"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// Type aliases for the event package, so most callers need a single import.
type (
	Event   = event.Event
	Kind    = event.Kind
	Payload = event.Payload
)

// Commonly used kinds.
const (
	Disabled     = event.Disabled
	ParseError   = event.ParseError
	Unknown      = event.Unknown
	Connected    = event.Connected
	EnteredGame  = event.EnteredGame
	Kill         = event.Kill
	Say          = event.Say
	Disconnected = event.Disconnected
)

// DefaultDisabledKinds returns the kinds suppressed unless configured otherwise.
func DefaultDisabledKinds() []Kind {
	return []Kind{event.Connected, event.CvarsStart, event.MapCvar, event.CvarsEnd}
}

// DefaultPrivateKinds returns the kinds that are routed to the private
// destination unless configured otherwise.
func DefaultPrivateKinds() []Kind {
	return []Kind{event.ParseError, event.Unknown}
}

// Option configures a Classifier using the functional options pattern.
type Option func(*classifierConfig)

type classifierConfig struct {
	disabled []Kind
}

func defaultClassifierConfig() *classifierConfig {
	return &classifierConfig{disabled: DefaultDisabledKinds()}
}

// WithDisabledKinds replaces the set of disabled kinds.
// Calling it with no kinds disables nothing.
func WithDisabledKinds(kinds ...Kind) Option {
	return func(c *classifierConfig) {
		c.disabled = append([]Kind(nil), kinds...)
	}
}

// Classifier classifies log lines. It is safe for concurrent use.
type Classifier struct {
	c *classifier.Classifier
}

// NewClassifier returns a Classifier. Without options it disables
// DefaultDisabledKinds.
func NewClassifier(opts ...Option) *Classifier {
	cfg := defaultClassifierConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return &Classifier{c: classifier.New(classifier.Policy{
		DisabledKinds: event.NewSet(cfg.disabled...),
	})}
}

// Classify returns the event for line.
func (c *Classifier) Classify(line string) Event {
	return c.c.Classify(line)
}

var defaultClassifier = NewClassifier()

// ParseLine classifies a single log line with the default disabled kinds.
//
// Example:
//
//	ev := hldslog.ParseLine(line)
//	switch ev.Kind {
//	case hldslog.Disabled:
//	    // suppressed by policy
//	case hldslog.ParseError:
//	    log.Printf("bad %s line: %s", ev.Payload["event"], ev.Payload["exception"])
//	}
func ParseLine(line string) Event {
	return defaultClassifier.Classify(line)
}

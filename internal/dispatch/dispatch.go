// Package dispatch drives one log datagram through classification, routing,
// rendering and delivery.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/hldsbot/hldsbot-go/internal/classifier"
	"github.com/hldsbot/hldsbot-go/internal/destination"
	"github.com/hldsbot/hldsbot-go/internal/metrics"
	"github.com/hldsbot/hldsbot-go/internal/render"
	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// Routing decides which destination an event goes to.
type Routing struct {
	// PrivateKinds are sent to the private destination.
	PrivateKinds event.Set
}

// Route returns the destination role for kind. Private kinds win over chat.
func (r Routing) Route(kind event.Kind) destination.Role {
	switch {
	case r.PrivateKinds.Has(kind):
		return destination.RolePrivate
	case kind == event.Say || kind == event.SayTeam:
		return destination.RoleChat
	default:
		return destination.RolePublic
	}
}

// Config holds the dependencies of a Dispatcher.
type Config struct {
	Classifier   *classifier.Classifier
	Routing      Routing
	Destinations *destination.Set

	// Logger is optional; nil discards.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Dispatcher handles inbound datagrams. Handle must be called from a single
// goroutine; sends run concurrently in the background.
type Dispatcher struct {
	classify     func(line string) event.Event
	routing      Routing
	destinations *destination.Set
	log          *slog.Logger
	metrics      *metrics.Metrics

	wg sync.WaitGroup
}

// New returns a Dispatcher. Classifier and Destinations are required.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Classifier == nil {
		return nil, errors.New("dispatch: classifier is required")
	}
	if cfg.Destinations == nil {
		return nil, errors.New("dispatch: destinations are required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		classify:     cfg.Classifier.Classify,
		routing:      cfg.Routing,
		destinations: cfg.Destinations,
		log:          log,
		metrics:      cfg.Metrics,
	}, nil
}

// Decode turns a datagram into a log line. Invalid UTF-8 sequences are
// dropped (this also removes the 0xFF packet header HLDS prepends) and
// trailing NUL, CR and LF bytes are trimmed.
func Decode(payload []byte) string {
	line := strings.ToValidUTF8(string(payload), "")
	return strings.TrimRight(line, "\x00\r\n")
}

// Handle processes one datagram. It never blocks on delivery and never
// panics; internal failures are reported to the private destination.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) {
	d.metrics.DatagramReceived()
	line := Decode(payload)

	defer func() {
		if r := recover(); r != nil {
			d.reportFailure(ctx, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()

	ev := d.classify(line)
	d.metrics.EventClassified(string(ev.Kind))
	if ev.Kind == event.Disabled {
		d.log.Debug("event suppressed", "line", line)
		return
	}

	role := d.routing.Route(ev.Kind)
	text, ok, err := render.Render(ev)
	if err != nil {
		d.reportFailure(ctx, err, debug.Stack())
		return
	}
	if !ok {
		d.log.Debug("event not announced", "kind", ev.Kind)
		return
	}

	d.log.Debug("event dispatched", "kind", ev.Kind, "role", role)
	d.send(ctx, d.destinations.For(role), role, text)
}

// reportFailure logs an internal failure and forwards a diagnostic to the
// private destination.
func (d *Dispatcher) reportFailure(ctx context.Context, err error, stack []byte) {
	d.metrics.DispatchFailed()
	d.log.Error("dispatch failed", "error", err)
	text := fmt.Sprintf("😅🧠 Got inner exception\n%v\n%s", err, stack)
	d.send(ctx, d.destinations.Private, destination.RolePrivate, text)
}

// send delivers text in the background. Missing or unavailable destinations
// are skipped silently; failures are logged and not retried.
func (d *Dispatcher) send(ctx context.Context, dst *destination.Destination, role destination.Role, text string) {
	if dst == nil || !dst.IsAvailable() {
		d.metrics.MessageSent(string(role), metrics.ResultSkipped)
		return
	}

	// Sends outlive the datagram that caused them, including on shutdown.
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := dst.SendMessage(ctx, text); err != nil {
			d.metrics.MessageSent(string(role), metrics.ResultFailed)
			d.log.Warn("send failed", "destination", dst, "unavailable", !dst.IsAvailable(), "error", err)
			return
		}
		d.metrics.MessageSent(string(role), metrics.ResultSent)
	}()
}

// Wait blocks until every send started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Package destination models the outbound chats notifications are sent to.
package destination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrPermanent marks client errors after which a destination cannot be used
// any more (chat deleted, bot removed). Clients wrap it with %w. Any other
// error is treated as transient.
var ErrPermanent = errors.New("destination permanently unavailable")

// ErrNoDestinations is returned when no configured destination can be used.
var ErrNoDestinations = errors.New("no destination is available")

// Role is the audience of a destination.
type Role string

// Destination roles.
const (
	RolePublic  Role = "public"
	RolePrivate Role = "private"
	RoleChat    Role = "chat"
)

// Client is the messaging platform as seen by a destination.
// Implementations must be safe for concurrent use.
type Client interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// CreateInviteLink is a cheap reversible call used as an availability probe.
	CreateInviteLink(ctx context.Context, chatID int64) (string, error)
}

// Destination is one outbound chat together with its liveness flag.
//
// A destination starts available. A permanent failure of a send or probe
// marks it unavailable; only a successful probe makes it available again.
type Destination struct {
	ID   int64
	Role Role

	client      Client
	unavailable atomic.Bool
}

// New returns an available destination.
func New(id int64, role Role, client Client) *Destination {
	return &Destination{ID: id, Role: role, client: client}
}

// String implements fmt.Stringer.
func (d *Destination) String() string {
	return fmt.Sprintf("%s(%d)", d.Role, d.ID)
}

// IsAvailable reports the current liveness flag.
func (d *Destination) IsAvailable() bool {
	return !d.unavailable.Load()
}

// MarkUnavailable flips the destination to unavailable. Idempotent.
func (d *Destination) MarkUnavailable() {
	d.unavailable.Store(true)
}

// SendMessage sends text to the destination. A permanent failure marks the
// destination unavailable before the error is returned.
func (d *Destination) SendMessage(ctx context.Context, text string) error {
	err := d.client.SendMessage(ctx, d.ID, text)
	if err != nil {
		if errors.Is(err, ErrPermanent) {
			d.MarkUnavailable()
		}
		return fmt.Errorf("send to %s: %w", d, err)
	}
	return nil
}

// InviteLink probes the destination by requesting a fresh invite link.
// Success marks the destination available; a permanent failure marks it
// unavailable; a transient failure leaves the flag untouched.
func (d *Destination) InviteLink(ctx context.Context) (string, error) {
	link, err := d.client.CreateInviteLink(ctx, d.ID)
	if err != nil {
		if errors.Is(err, ErrPermanent) {
			d.MarkUnavailable()
		}
		return "", fmt.Errorf("probe %s: %w", d, err)
	}
	d.unavailable.Store(false)
	return link, nil
}

// ProbeAvailability probes the destination and returns the resulting flag.
func (d *Destination) ProbeAvailability(ctx context.Context) bool {
	_, _ = d.InviteLink(ctx)
	return d.IsAvailable()
}

// Set holds the configured destinations. Roles that are not configured are nil.
type Set struct {
	Public  *Destination
	Private *Destination
	Chat    *Destination
}

// For returns the destination for role, or nil.
func (s *Set) For(role Role) *Destination {
	switch role {
	case RolePublic:
		return s.Public
	case RolePrivate:
		return s.Private
	case RoleChat:
		return s.Chat
	default:
		return nil
	}
}

// All returns the configured destinations in public, private, chat order.
func (s *Set) All() []*Destination {
	var out []*Destination
	for _, d := range []*Destination{s.Public, s.Private, s.Chat} {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// AnyAvailable reports whether at least one configured destination is available.
func (s *Set) AnyAvailable() bool {
	for _, d := range s.All() {
		if d.IsAvailable() {
			return true
		}
	}
	return false
}

// CheckAll probes every configured destination and returns how many are
// unusable after the probe. A destination whose probe failed transiently is
// counted as unusable but keeps its availability flag.
func (s *Set) CheckAll(ctx context.Context, log *slog.Logger) int {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	unusable := 0
	for _, d := range s.All() {
		if _, err := d.InviteLink(ctx); err != nil {
			unusable++
			log.Warn("destination unavailable", "role", d.Role, "id", d.ID, "error", err)
			continue
		}
		log.Debug("destination available", "role", d.Role, "id", d.ID)
	}
	return unusable
}

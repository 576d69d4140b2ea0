// Package destinationtest provides an in-memory destination.Client for tests.
package destinationtest

import (
	"context"
	"fmt"
	"sync"
)

// Message is a message recorded by Client.
type Message struct {
	ChatID int64
	Text   string
}

// Client records sent messages and returns configured errors.
type Client struct {
	mu        sync.Mutex
	sent      []Message
	sendErr   map[int64]error
	inviteErr map[int64]error
	probes    map[int64]int

	// Block, if set, is received from before each send returns.
	Block chan struct{}
}

// NewClient returns an empty Client.
func NewClient() *Client {
	return &Client{
		sendErr:   make(map[int64]error),
		inviteErr: make(map[int64]error),
		probes:    make(map[int64]int),
	}
}

// FailSend makes every send to chatID return err. A nil err clears it.
func (c *Client) FailSend(chatID int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr[chatID] = err
}

// FailInvite makes every invite link request for chatID return err.
func (c *Client) FailInvite(chatID int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inviteErr[chatID] = err
}

// SendMessage implements destination.Client.
func (c *Client) SendMessage(_ context.Context, chatID int64, text string) error {
	if c.Block != nil {
		<-c.Block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendErr[chatID]; err != nil {
		return err
	}
	c.sent = append(c.sent, Message{ChatID: chatID, Text: text})
	return nil
}

// CreateInviteLink implements destination.Client.
func (c *Client) CreateInviteLink(_ context.Context, chatID int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[chatID]++
	if err := c.inviteErr[chatID]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://t.me/+invite%d", chatID), nil
}

// Sent returns a copy of the recorded messages.
func (c *Client) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

// SentTo returns the texts sent to chatID.
func (c *Client) SentTo(chatID int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

// Probes returns how many invite links were requested for chatID.
func (c *Client) Probes(chatID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes[chatID]
}

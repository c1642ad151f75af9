package replication

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
)

// Client feeds frames from an authoritative hub into a Replica.
type Client struct {
	url     string
	replica *Replica
}

// NewClient creates a client for the hub at url (ws:// or wss://).
func NewClient(url string, replica *Replica) *Client {
	return &Client{url: url, replica: replica}
}

// Run connects and reads frames until ctx is canceled or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}
	slog.Info("replica connected", "url", c.url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading sync frame: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := c.replica.Receive(data); err != nil {
			slog.Warn("dropping sync frame", "err", err)
		}
	}
}

// Package natsclient manages the NATS connection used by the message
// bridges, with reconnect logging and retrying initial connects.
package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/TTCRadio/gnuradio/config"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pkg/retry"
)

// Client wraps a NATS connection with lifecycle management.
type Client struct {
	urls   string
	logger *slog.Logger

	name          string
	maxReconnects int
	reconnectWait time.Duration
	username      string
	password      string
	token         string
	connectRetry  retry.Config
	drainTimeout  time.Duration

	mu   sync.Mutex
	conn *nats.Conn
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithName sets the client name reported to the server.
func WithName(name string) ClientOption {
	return func(c *Client) { c.name = name }
}

// WithCredentials sets username/password authentication.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithToken sets token authentication.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithMaxReconnects bounds automatic reconnect attempts. Negative means
// unlimited.
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) { c.maxReconnects = n }
}

// WithReconnectWait sets the delay between reconnect attempts.
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.reconnectWait = d
		}
	}
}

// WithConnectRetry overrides the initial-connect retry policy.
func WithConnectRetry(cfg retry.Config) ClientOption {
	return func(c *Client) { c.connectRetry = cfg }
}

// NewClient creates a client for the given server URLs (comma-separated).
func NewClient(urls string, opts ...ClientOption) (*Client, error) {
	if urls == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "Client", "NewClient", "url validation")
	}

	c := &Client{
		urls:          urls,
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		drainTimeout:  30 * time.Second,
		connectRetry: retry.Config{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			AddJitter:    true,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FromConfig creates a client from the runtime configuration.
func FromConfig(cfg config.NATSConfig, opts ...ClientOption) (*Client, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.WrapConstruction(
			fmt.Errorf("no nats urls: %w", errors.ErrInvalidConfig),
			"Client", "FromConfig", "url validation")
	}

	base := []ClientOption{
		WithMaxReconnects(cfg.MaxReconnects),
		WithReconnectWait(cfg.ReconnectWait),
	}
	if cfg.Username != "" {
		base = append(base, WithCredentials(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		base = append(base, WithToken(cfg.Token))
	}
	return NewClient(strings.Join(cfg.URLs, ","), append(base, opts...)...)
}

// Connect establishes the connection, retrying per the connect policy.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "Client", "Connect", "lifecycle check")
	}

	natsOpts := []nats.Option{
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.logger.Info("nats connection closed")
		}),
	}
	if c.name != "" {
		natsOpts = append(natsOpts, nats.Name(c.name))
	}
	if c.username != "" {
		natsOpts = append(natsOpts, nats.UserInfo(c.username, c.password))
	}
	if c.token != "" {
		natsOpts = append(natsOpts, nats.Token(c.token))
	}

	err := retry.Do(ctx, c.connectRetry, func() error {
		conn, err := nats.Connect(c.urls, natsOpts...)
		if err != nil {
			c.logger.Warn("nats connect failed", "error", err)
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return errors.WrapTransient(err, "Client", "Connect", "connection establishment")
	}

	c.logger.Info("nats connected", "url", c.conn.ConnectedUrl())
	return nil
}

// Conn returns the live connection.
func (c *Client) Conn() (*nats.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil, errors.WrapTransient(errors.ErrNotStarted, "Client", "Conn", "connection check")
	}
	return c.conn, nil
}

// Connected reports whether the connection is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains in-flight subscriptions and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}

	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return errors.WrapTransient(err, "Client", "Close", "connection drain")
	}
	return nil
}

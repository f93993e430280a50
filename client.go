// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Config is the Client's startup configuration, covering the flat options
// the core consumes (spec §6 "Configuration") plus the ambient logging/
// recovery knobs girc exposes on its own Config.
type Config struct {
	Server string
	Port   int
	IPType IPType
	UseSSL bool

	BotName  string
	Password string

	Channels []string
	HelpCmd  string

	ReconnectInterval time.Duration
	ServerTimeout     time.Duration

	TLSConfig *tls.Config
	Dialer    Dialer

	// Debug receives the Connection Manager's raw line log. Defaults to
	// io.Discard.
	Debug io.Writer
	// RecoverFunc receives handler-body panics. Defaults to
	// DefaultRecoverHandler.
	RecoverFunc RecoverFunc
}

// isValid enforces spec §6's startup contract: bot_name, server, and port
// are required, or the core refuses to start.
func (conf *Config) isValid() error {
	if conf.Server == "" {
		return &ErrInvalidConfig{Conf: *conf, Field: "server", Reason: "must not be empty"}
	}
	if conf.Port < 1 || conf.Port > 65535 {
		return &ErrInvalidConfig{Conf: *conf, Field: "port", Reason: "must be between 1 and 65535"}
	}
	if conf.BotName == "" {
		return &ErrInvalidConfig{Conf: *conf, Field: "bot_name", Reason: "must not be empty"}
	}
	if !IsValidNick(conf.BotName) {
		return &ErrInvalidConfig{Conf: *conf, Field: "bot_name", Reason: "not an RFC-valid nickname"}
	}
	if conf.ReconnectInterval <= 0 {
		conf.ReconnectInterval = 10 * time.Second
	}
	return nil
}

// Client ties together the Connection Manager, the Module Registry, the
// Channel Supervisor, and the Callback Broker into one running bot core.
// Modeled on girc's Client, generalized from girc's event-callback wiring
// (Caller/CTCP/state) to the Match Engine's declarative dispatch.
type Client struct {
	Config Config

	Conn     *Conn
	Registry *Registry
	Channels *ChannelSupervisor
	Broker   *Broker
	Cmd      *Cmd

	nick          atomic.Value
	serverCreated atomic.Value
	lastWhois     atomic.Value

	initTime time.Time
}

// New validates config and assembles a Client, wiring the Connection
// Manager's inbound callbacks to the Module Registry, Channel Supervisor,
// and Callback Broker. Run has not been called yet.
func New(config Config) (*Client, error) {
	if err := config.isValid(); err != nil {
		return nil, err
	}

	c := &Client{
		Config:   config,
		Registry: NewRegistry(config.RecoverFunc),
		Channels: NewChannelSupervisor(),
		Broker:   NewBroker(),
		initTime: time.Now(),
	}
	c.nick.Store(config.BotName)

	c.Conn = NewConn(ConnConfig{
		Server:            config.Server,
		Port:              config.Port,
		IPType:            config.IPType,
		UseSSL:            config.UseSSL,
		TLSConfig:         config.TLSConfig,
		BotName:           config.BotName,
		Password:          config.Password,
		ReconnectInterval: config.ReconnectInterval,
		ServerTimeout:     config.ServerTimeout,
		Dialer:            config.Dialer,
		Debug:             config.Debug,
	})
	c.Conn.Channels = func() []string { return c.Channels.Names() }
	c.Conn.OnMessage = c.dispatch

	c.Cmd = &Cmd{conn: c.Conn}

	c.Registry.Register(newBuiltinUnit(c))

	return c, nil
}

// GetNick returns the bot's current nickname, tracked across NICK changes
// and nick-collision handling.
func (c *Client) GetNick() string {
	return c.nick.Load().(string)
}

func (c *Client) setNick(nick string) {
	c.nick.Store(nick)
}

// ServerCreatedAt returns the server compile/creation date reported in the
// RPL_CREATED (003) numeric, or the zero time if none has been received yet.
func (c *Client) ServerCreatedAt() time.Time {
	v := c.serverCreated.Load()
	if v == nil {
		return time.Time{}
	}
	return v.(time.Time)
}

func (c *Client) setServerCreatedAt(t time.Time) {
	c.serverCreated.Store(t)
}

// WhoisResult is the outcome of the most recent WHOIS request, populated
// from RPL_WHOISUSER (311) or ERR_NOSUCHNICK (401).
type WhoisResult struct {
	Nick     string
	User     string
	Host     string
	RealName string
	Found    bool
}

// LastWhois returns the result of the most recently answered WHOIS, if any.
func (c *Client) LastWhois() (WhoisResult, bool) {
	v := c.lastWhois.Load()
	if v == nil {
		return WhoisResult{}, false
	}
	return v.(WhoisResult), true
}

func (c *Client) setLastWhois(r WhoisResult) {
	c.lastWhois.Store(r)
}

// Dispatch feeds msg through the same path as an inbound socket line would:
// wrapped in a Context and broadcast to every registered unit. Exposed for
// tests and for replaying recorded traffic; the Connection Manager's
// OnMessage callback is wired to dispatch directly.
func (c *Client) Dispatch(msg *Message) {
	c.dispatch(msg)
}

// dispatch is the Connection Manager's OnMessage callback: it wraps msg in
// a Context and broadcasts it to the Module Registry, per spec §2's
// dataflow ("Connection Manager -> Module Registry (broadcast)").
func (c *Client) dispatch(msg *Message) {
	ctx := &Context{
		Message:  msg,
		cmd:      c.Cmd,
		channels: c.Channels,
		broker:   c.Broker,
		botNick:  c.GetNick,
	}
	c.Registry.Broadcast(ctx)
}

// Use registers unit with the Module Registry, starting its dispatch
// goroutine. If Config.HelpCmd is set and unit has no help command of its
// own, unit's help surface is enabled with Config.HelpCmd as its prefix.
func (c *Client) Use(unit *HandlerUnit) {
	if c.Config.HelpCmd != "" {
		unit.mu.Lock()
		if unit.helpCmd == "" {
			unit.helpCmd = c.Config.HelpCmd
		}
		unit.mu.Unlock()
	}
	c.Registry.Register(unit)
}

// Run connects to the server and serves the connection (including
// reconnects) until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	return c.Conn.Run(ctx)
}

// Quit sends a QUIT with reason and closes the underlying socket.
func (c *Client) Quit(reason string) error {
	if err := c.Conn.Send(&Message{Command: QUIT, Trailing: reason}); err != nil {
		return err
	}
	return c.Conn.Close()
}

// Lifetime returns how long this Client has existed.
func (c *Client) Lifetime() time.Duration {
	return time.Since(c.initTime)
}

// String returns a brief description of the client's state, for logging.
func (c *Client) String() string {
	return fmt.Sprintf("<Client server=%s:%d nick=%q state=%s>", c.Config.Server, c.Config.Port, c.GetNick(), c.Conn.State())
}

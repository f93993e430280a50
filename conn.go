// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Messages are delimited with CR and LF line endings; we split the stream
// on the last byte of that pair. Both are stripped during parsing.
const delim byte = '\n'

var endline = []byte("\r\n")

// IPType selects the address family used to dial the server.
type IPType int

const (
	Inet4 IPType = iota
	Inet6
)

// State is the Connection Manager's lifecycle, broadcast as an internal
// event on every transition (spec §4.2).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistering
	StateOnline
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateOnline:
		return "online"
	default:
		return "disconnected"
	}
}

// Dialer mirrors net.Dialer's Dial signature so callers can substitute
// their own transport (e.g. a SOCKS5 proxy), same idiom as girc's Dialer
// interface.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// ConnConfig carries everything the Connection Manager needs, a subset of
// the top-level Config (spec §6 "Configuration").
type ConnConfig struct {
	Server            string
	Port              int
	IPType            IPType
	UseSSL            bool
	TLSConfig         *tls.Config
	BotName           string
	Password          string
	ReconnectInterval time.Duration
	ServerTimeout     time.Duration // 0 disables the liveness check.
	Dialer            Dialer
	Debug             io.Writer
}

func (c *ConnConfig) addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

func (c *ConnConfig) network() string {
	if c.IPType == Inet6 {
		return "tcp6"
	}
	return "tcp4"
}

// Conn is the Connection Manager: single owner of one TCP/TLS socket to the
// IRC server, responsible for the handshake, the read loop, the liveness
// timeout, reconnection, and serializing all outbound writes. Grounded on
// girc's conn.go/ircConn and Client.Connect, adapted from girc's internal
// ctxgroup + goroutine-per-loop fan-out (execLoop/readLoop/sendLoop/
// pingLoop) to golang.org/x/sync/errgroup, and from girc's NICK-before-USER
// handshake order to the spec's PASS -> USER -> NICK order.
type Conn struct {
	cfg ConnConfig

	// OnMessage is invoked for every successfully parsed inbound message,
	// on the readLoop's goroutine. Wired by Client to Registry.Broadcast.
	OnMessage func(*Message)
	// OnParseError is invoked for every malformed inbound line.
	OnParseError func(error)
	// OnState is invoked on every lifecycle transition.
	OnState func(State)
	// Channels supplies the set of channel names to re-JOIN after the
	// handshake completes (initial connect and every reconnect).
	Channels func() []string

	debug *log.Logger

	mu         sync.Mutex
	sock       net.Conn
	rw         *bufio.ReadWriter
	state      State
	lastActive time.Time
}

// NewConn creates an unconnected Connection Manager.
func NewConn(cfg ConnConfig) *Conn {
	w := cfg.Debug
	if w == nil {
		w = io.Discard
	}
	return &Conn{
		cfg:   cfg,
		debug: log.New(w, "conn: ", log.Ltime),
	}
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.OnState != nil {
		c.OnState(s)
	}
}

// State returns the Connection Manager's current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run dials, registers, and serves the connection until ctx is cancelled,
// reconnecting with a fixed backoff of cfg.ReconnectInterval on any socket
// error or liveness timeout (spec §4.2 "Reconnect"). Returns when ctx is
// cancelled; that is the only case in which it returns nil.
func (c *Conn) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil
		}

		c.debug.Printf("connection lost: %v, reconnecting in %s", err, c.cfg.ReconnectInterval)
		c.setState(StateDisconnected)

		select {
		case <-time.After(c.cfg.ReconnectInterval):
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Conn) runOnce(ctx context.Context) error {
	c.setState(StateConnecting)

	sock, err := c.dial()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sock = sock
	c.rw = bufio.NewReadWriter(bufio.NewReader(sock), bufio.NewWriter(sock))
	c.lastActive = time.Now()
	c.mu.Unlock()
	defer sock.Close()

	c.setState(StateRegistering)
	if err := c.handshake(); err != nil {
		return err
	}
	c.setState(StateOnline)

	for _, name := range c.Channels() {
		_ = c.Send(&Message{Command: JOIN, Trailing: name})
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.readLoop(gctx) })
	if c.cfg.ServerTimeout > 0 {
		group.Go(func() error { return c.livenessLoop(gctx) })
	}

	return group.Wait()
}

func (c *Conn) dial() (net.Conn, error) {
	dialer := c.cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: 10 * time.Second}
	}

	conn, err := dialer.Dial(c.cfg.network(), c.cfg.addr())
	if err != nil {
		return nil, err
	}

	if c.cfg.UseSSL {
		tlsConf := c.cfg.TLSConfig
		if tlsConf == nil {
			tlsConf = &tls.Config{ServerName: c.cfg.Server}
		}
		conn = tls.Client(conn, tlsConf)
	}

	return conn, nil
}

// handshake sends PASS (if configured), USER, then NICK, per spec §4.2 --
// a deliberate divergence from girc's NICK-before-USER order.
func (c *Conn) handshake() error {
	if c.cfg.Password != "" {
		if err := c.Send(&Message{Command: PASS, Args: []string{c.cfg.Password}}); err != nil {
			return err
		}
	}
	if err := c.Send(&Message{Command: USER, Args: []string{c.cfg.BotName, "8", "*"}, Trailing: c.cfg.BotName}); err != nil {
		return err
	}
	return c.Send(&Message{Command: NICK, Args: []string{c.cfg.BotName}})
}

// Send serializes msg and writes it to the socket synchronously: the call
// returns only once the write (and flush) completes, per spec §4.2
// "Outbound path".
func (c *Conn) Send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rw == nil {
		return fmt.Errorf("corebot: not connected")
	}

	if _, err := c.rw.Write(msg.Bytes()); err != nil {
		return err
	}
	if _, err := c.rw.Write(endline); err != nil {
		return err
	}
	return c.rw.Flush()
}

// Close requests the connection close; Run's current iteration will exit
// its loops and, if its context isn't also cancelled, will reconnect.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock == nil {
		return nil
	}
	return c.sock.Close()
}

func (c *Conn) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if c.cfg.ServerTimeout > 0 {
			c.mu.Lock()
			_ = c.sock.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
			c.mu.Unlock()
		}

		line, err := c.rw.ReadString(delim)
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.lastActive = time.Now()
		c.mu.Unlock()

		for _, chunk := range strings.Split(line, "\r\n") {
			if chunk == "" {
				continue
			}
			msg, err := ParseMessage(chunk)
			if err != nil {
				if c.OnParseError != nil {
					c.OnParseError(err)
				}
				continue
			}
			if c.OnMessage != nil {
				c.OnMessage(msg)
			}
		}
	}
}

// livenessLoop enforces spec §4.2's liveness contract: every received chunk
// resets the deadline (handled inline in readLoop via SetReadDeadline); this
// loop additionally guards against a readLoop that is blocked mid-read by
// independently watching lastActive, so a dead socket that never returns
// from Read is still detected.
func (c *Conn) livenessLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ServerTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.mu.Lock()
			idle := time.Since(c.lastActive)
			c.mu.Unlock()
			if idle > c.cfg.ServerTimeout {
				return &TimedOutError{Wrapped: fmt.Errorf("no data for %s", idle)}
			}
		}
	}
}

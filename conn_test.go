// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeDialer struct{ conn net.Conn }

func (d *pipeDialer) Dial(network, address string) (net.Conn, error) {
	return d.conn, nil
}

func TestConnHandshakeOrder(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	conn := NewConn(ConnConfig{
		Server:            "irc.example.org",
		Port:              6667,
		BotName:           "testbot",
		Password:          "hunter2",
		ReconnectInterval: time.Second,
		Dialer:            &pipeDialer{conn: clientSide},
	})
	conn.Channels = func() []string { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	b := bufio.NewReader(serverSide)
	readLine := func() string {
		serverSide.SetReadDeadline(time.Now().Add(time.Second))
		line, err := b.ReadString('\n')
		require.NoError(t, err)
		return line
	}

	pass, err := ParseMessage(readLine())
	require.NoError(t, err)
	assert.Equal(t, PASS, pass.Command)
	assert.Equal(t, []string{"hunter2"}, pass.Args)

	user, err := ParseMessage(readLine())
	require.NoError(t, err)
	assert.Equal(t, USER, user.Command)
	assert.Equal(t, "testbot", user.Trailing)

	nick, err := ParseMessage(readLine())
	require.NoError(t, err)
	assert.Equal(t, NICK, nick.Command)
	assert.Equal(t, []string{"testbot"}, nick.Args)
}

func TestConnDispatchesInboundMessages(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	conn := NewConn(ConnConfig{
		Server:            "irc.example.org",
		Port:              6667,
		BotName:           "testbot",
		ReconnectInterval: time.Second,
		Dialer:            &pipeDialer{conn: clientSide},
	})
	conn.Channels = func() []string { return nil }

	received := make(chan *Message, 1)
	conn.OnMessage = func(m *Message) { received <- m }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	b := bufio.NewReader(serverSide)
	// Drain the handshake (USER, NICK -- no password configured).
	serverSide.SetReadDeadline(time.Now().Add(time.Second))
	b.ReadString('\n')
	serverSide.SetReadDeadline(time.Now().Add(time.Second))
	b.ReadString('\n')

	_, err := serverSide.Write([]byte(":nick!user@host PRIVMSG #chan :hello\r\n"))
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, PRIVMSG, msg.Command)
		assert.Equal(t, "hello", msg.Trailing)
	case <-time.After(time.Second):
		t.Fatal("OnMessage was never called")
	}
}

func TestConnSendIsSynchronous(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	conn := NewConn(ConnConfig{Server: "irc.example.org", Port: 6667, BotName: "testbot"})
	conn.mu.Lock()
	conn.sock = clientSide
	conn.rw = bufio.NewReadWriter(bufio.NewReader(clientSide), bufio.NewWriter(clientSide))
	conn.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- conn.Send(&Message{Command: PRIVMSG, Args: []string{"#chan"}, Trailing: "hi"}) }()

	b := bufio.NewReader(serverSide)
	serverSide.SetReadDeadline(time.Now().Add(time.Second))
	line, err := b.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "PRIVMSG #chan :hi\r\n", line)

	require.NoError(t, <-done)
}

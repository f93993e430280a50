// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIsValidRejectsMissingFields(t *testing.T) {
	_, err := New(Config{Port: 6667, BotName: "bot"})
	require.Error(t, err)
	var confErr *ErrInvalidConfig
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "server", confErr.Field)
}

func TestConfigIsValidRejectsBadPort(t *testing.T) {
	_, err := New(Config{Server: "irc.example.org", Port: 0, BotName: "bot"})
	require.Error(t, err)
}

func TestConfigIsValidRejectsMissingBotName(t *testing.T) {
	_, err := New(Config{Server: "irc.example.org", Port: 6667})
	require.Error(t, err)
}

func TestNewWiresBuiltinUnit(t *testing.T) {
	c, err := New(Config{Server: "irc.example.org", Port: 6667, BotName: "bot"})
	require.NoError(t, err)

	unit, ok := c.Registry.Unit("builtin")
	require.True(t, ok)
	assert.True(t, unit.Loaded())
	assert.Equal(t, "bot", c.GetNick())
}

func TestNewDefaultsReconnectInterval(t *testing.T) {
	c, err := New(Config{Server: "irc.example.org", Port: 6667, BotName: "bot"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.Config.ReconnectInterval)
}

func TestClientDispatchBroadcastsToRegistry(t *testing.T) {
	c, err := New(Config{Server: "irc.example.org", Port: 6667, BotName: "bot"})
	require.NoError(t, err)

	received := make(chan string, 1)
	u := NewUnit("probe")
	u.Handle(PRIVMSG, "*", func(ctx *Context, _ map[string]string) {
		received <- ctx.Message.Trailing
	})
	c.Use(u)

	c.dispatch(&Message{Command: PRIVMSG, Args: []string{"#chan"}, Trailing: "hello"})

	select {
	case text := <-received:
		assert.Equal(t, "hello", text)
	case <-time.After(time.Second):
		t.Fatal("probe unit never received the broadcast message")
	}
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package cmdhandler

import (
	"testing"
	"time"

	"github.com/corebot/corebot"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *corebot.Client {
	t.Helper()
	c, err := corebot.New(corebot.Config{Server: "irc.example.org", Port: 6667, BotName: "bot"})
	require.NoError(t, err)
	return c
}

func TestAddRejectsInvalidName(t *testing.T) {
	ch := New("test", "!")
	err := ch.Add("no spaces", &Command{Fn: func(*Input) {}})
	require.Error(t, err)
}

func TestAddRejectsDuplicate(t *testing.T) {
	ch := New("test", "!")
	require.NoError(t, ch.Add("ping", &Command{Fn: func(*Input) {}}))
	require.Error(t, ch.Add("ping", &Command{Fn: func(*Input) {}}))
}

func TestAddRejectsNilCommand(t *testing.T) {
	ch := New("test", "!")
	require.Error(t, ch.Add("ping", nil))
}

func TestCommandDispatchesOnMatch(t *testing.T) {
	c := newTestClient(t)

	ch := New("test", "!")
	received := make(chan []string, 1)
	require.NoError(t, ch.Add("echo", &Command{
		MinArgs: 1,
		Fn: func(in *Input) { received <- in.Args },
	}))
	c.Use(ch.Unit())

	c.Dispatch(&corebot.Message{
		Command:  corebot.PRIVMSG,
		Args:     []string{"#chan"},
		Trailing: "!echo hi there",
	})

	select {
	case args := <-received:
		require.Equal(t, []string{"hi", "there"}, args)
	case <-time.After(time.Second):
		t.Fatal("echo command never ran")
	}
}

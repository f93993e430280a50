// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSetGetDelUser(t *testing.T) {
	c := newChannel("#c")
	defer c.stop()

	c.SetUser("@alice")
	m, ok := c.GetUser("alice")
	require.True(t, ok)
	assert.Equal(t, ModeOp, m.Mode)

	c.SetUser("bob")
	m, ok = c.GetUser("bob")
	require.True(t, ok)
	assert.Equal(t, ModeNormal, m.Mode)

	c.DelUser("bob")
	_, ok = c.GetUser("bob")
	assert.False(t, ok)
}

func TestChannelMembershipSequence(t *testing.T) {
	// Spec fixture: join #c as "bot", receive
	// "353 bot = #c :@alice +bob carol", PART "alice", NICK bob -> robert.
	// Final membership: {carol: normal, robert: voice}.
	c := newChannel("#c")
	defer c.stop()

	for _, tok := range []string{"@alice", "+bob", "carol"} {
		c.SetUser(tok)
	}

	c.DelUser("alice")
	c.RenameUser("bob", "robert")

	members := c.Members()
	require.Len(t, members, 2)

	carol, ok := members[ToRFC1459("carol")]
	require.True(t, ok)
	assert.Equal(t, ModeNormal, carol.Mode)

	robert, ok := members[ToRFC1459("robert")]
	require.True(t, ok)
	assert.Equal(t, ModeVoice, robert.Mode)
	assert.Equal(t, "robert", robert.Nick)

	_, ok = members[ToRFC1459("alice")]
	assert.False(t, ok)
}

func TestChannelLogMessageAndBuffer(t *testing.T) {
	c := newChannel("#c")
	defer c.stop()

	c.LogMessage(&Message{Command: PRIVMSG, Trailing: "first"})
	c.LogMessage(&Message{Command: PRIVMSG, Trailing: "second"})

	result := c.GetBuffer(func(buf []*Message) interface{} {
		return len(buf)
	})
	assert.Equal(t, 2, result)

	newest := c.GetBuffer(func(buf []*Message) interface{} {
		if len(buf) == 0 {
			return ""
		}
		return buf[0].Trailing
	})
	assert.Equal(t, "second", newest)
}

func TestChannelBufferDropsOldestPastCapacity(t *testing.T) {
	c := newChannel("#c")
	defer c.stop()

	for i := 0; i < channelBufferCap+5; i++ {
		c.LogMessage(&Message{Command: PRIVMSG, Trailing: "m"})
	}

	count := c.GetBuffer(func(buf []*Message) interface{} { return len(buf) })
	assert.Equal(t, channelBufferCap, count)
}

func TestChannelSupervisorGetOrCreate(t *testing.T) {
	s := NewChannelSupervisor()

	a := s.GetOrCreate("#Chan")
	b := s.GetOrCreate("#chan")
	assert.Same(t, a, b)

	_, ok := s.Get("#chan")
	assert.True(t, ok)

	_, ok = s.Get("#other")
	assert.False(t, ok)
}

func TestToRFC1459(t *testing.T) {
	assert.Equal(t, "[]\\~", ToRFC1459("{}|^"))
	assert.Equal(t, "#chan", ToRFC1459("#Chan"))
}

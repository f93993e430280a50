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

func TestBrokerAwaitTimeout(t *testing.T) {
	b := NewBroker()

	start := time.Now()
	msg, captures := b.Await("go", "#c", "alice", 50*time.Millisecond, "")
	elapsed := time.Since(start)

	assert.Nil(t, msg)
	assert.Nil(t, captures)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)

	b.mu.Lock()
	pending := len(b.pending)
	b.mu.Unlock()
	assert.Equal(t, 0, pending, "timed-out callback must be removed")
}

func TestBrokerAwaitDeliversMatch(t *testing.T) {
	b := NewBroker()

	type result struct {
		msg      *Message
		captures map[string]string
	}
	done := make(chan result, 1)

	go func() {
		msg, captures := b.Await("go", "#c", "alice", time.Second, "")
		done <- result{msg, captures}
	}()

	// Give Await a moment to register before delivering.
	time.Sleep(10 * time.Millisecond)

	b.Deliver(&Message{
		Command:  PRIVMSG,
		Args:     []string{"#c"},
		Trailing: "go",
		User:     &Prefix{Nick: "alice"},
	})

	select {
	case r := <-done:
		require.NotNil(t, r.msg)
		assert.Equal(t, "go", r.msg.Trailing)
	case <-time.After(time.Second):
		t.Fatal("Await never resumed")
	}
}

func TestBrokerAwaitIgnoresNonMatchingChannel(t *testing.T) {
	b := NewBroker()

	done := make(chan *Message, 1)
	go func() {
		msg, _ := b.Await("go", "#c", "any", 100*time.Millisecond, "")
		done <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	b.Deliver(&Message{Command: PRIVMSG, Args: []string{"#other"}, Trailing: "go", User: &Prefix{Nick: "alice"}})

	msg := <-done
	assert.Nil(t, msg, "delivery on a different channel must not satisfy the filter")
}

func TestBrokerWhenTriggerScenario(t *testing.T) {
	// Spec scenario: handler awaits trig ("hi") from a specific nick ("alice"),
	// and only that nick's matching message resumes it.
	b := NewBroker()

	done := make(chan *Message, 1)
	go func() {
		msg, _ := b.Await("hi", "#c", "alice", time.Second, "")
		done <- msg
	}()

	time.Sleep(10 * time.Millisecond)

	// A different user saying the trigger phrase must not resume the await.
	b.Deliver(&Message{Command: PRIVMSG, Args: []string{"#c"}, Trailing: "hi", User: &Prefix{Nick: "someoneelse"}})

	select {
	case <-done:
		t.Fatal("await resumed for the wrong nick")
	case <-time.After(50 * time.Millisecond):
	}

	b.Deliver(&Message{Command: PRIVMSG, Args: []string{"#c"}, Trailing: "hi", User: &Prefix{Nick: "alice"}})

	select {
	case msg := <-done:
		require.NotNil(t, msg)
		assert.Equal(t, "alice", msg.User.Nick)
	case <-time.After(time.Second):
		t.Fatal("await never resumed for the matching nick")
	}
}

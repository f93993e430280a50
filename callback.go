// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"sync"
	"time"
)

// pendingCallback is a Pending Callback (spec §3): a suspended handler's
// request, waiting for a PRIVMSG its predicate accepts. Modeled on girc's
// Caller.AddTmp, which pairs a temporary handler with a deadline channel;
// here the "handler" is a predicate and the "deadline channel" is sink.
type pendingCallback struct {
	predicate func(msg *Message) (captures map[string]string, ok bool)
	sink      chan callbackResult
}

type callbackResult struct {
	msg      *Message
	captures map[string]string
}

// Broker is the Callback Broker: it backs the await_resp primitive exposed
// on Context. One Broker is shared process-wide; pending requests are kept
// in registration order and evaluated against every inbound PRIVMSG.
type Broker struct {
	mu      sync.Mutex
	pending []*pendingCallback
}

// NewBroker creates an empty Callback Broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Await registers a predicate built from pattern/chanFilter/nickFilter
// ("any" or "" disables a filter), blocks the calling goroutine until a
// Deliver call satisfies it or timeout elapses, and returns the matched
// message and its captures -- or (nil, nil) on timeout, per spec §4.5
// "Timeout/cancel".
func (b *Broker) Await(pattern, chanFilter, nickFilter string, timeout time.Duration, captureClass string) (*Message, map[string]string) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	pc := &pendingCallback{
		predicate: buildAwaitPredicate(pattern, chanFilter, nickFilter, captureClass),
		sink:      make(chan callbackResult, 1),
	}

	b.mu.Lock()
	b.pending = append(b.pending, pc)
	b.mu.Unlock()

	select {
	case r := <-pc.sink:
		return r.msg, r.captures
	case <-time.After(timeout):
		b.cancel(pc)
		return nil, nil
	}
}

// cancel removes pc from the pending list if it is still there (it may
// have already been consumed by a racing Deliver).
func (b *Broker) cancel(pc *pendingCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.pending {
		if p == pc {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}

// Deliver evaluates msg against every pending predicate in registration
// order; the first match is removed from the list and resumed. A PRIVMSG
// that matches nothing leaves the pending list untouched.
func (b *Broker) Deliver(msg *Message) {
	if msg.Command != PRIVMSG {
		return
	}

	b.mu.Lock()
	var matched *pendingCallback
	var captures map[string]string
	for i, pc := range b.pending {
		if c, ok := pc.predicate(msg); ok {
			matched = pc
			captures = c
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if matched != nil {
		matched.sink <- callbackResult{msg: msg, captures: captures}
	}
}

// buildAwaitPredicate compiles the await_resp pattern/chan/nick arguments
// into the predicate spec §4.5 describes: literal-pattern equality, or (if
// the pattern has placeholders) the same template/regex/match-all grammar
// the Match Engine uses, with channel and nick filters applied on top.
func buildAwaitPredicate(pattern, chanFilter, nickFilter, captureClass string) func(*Message) (map[string]string, bool) {
	kind, re, err := compilePattern(pattern, captureClass)
	if err != nil {
		kind, re = kindLiteral, nil
	}

	return func(msg *Message) (map[string]string, bool) {
		if !filterMatches(chanFilter, firstArg(msg)) {
			return nil, false
		}
		nick := ""
		if msg.User != nil {
			nick = msg.User.Nick
		}
		if !filterMatches(nickFilter, nick) {
			return nil, false
		}

		spec := &MatchSpec{Pattern: pattern, kind: kind, re: re}
		return spec.match(msg.Trailing)
	}
}

func filterMatches(filter, value string) bool {
	return filter == "" || filter == "any" || filter == value
}

func firstArg(msg *Message) string {
	if len(msg.Args) == 0 {
		return ""
	}
	return msg.Args[0]
}

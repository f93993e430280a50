// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"strings"

	cmap "github.com/orcaman/concurrent-map"
)

// MemberMode is a Channel Member's collapsed permission level. Op subsumes
// half-op, op, admin, and owner sigils (spec §3 "Channel Member") -- a
// narrower model than girc's state.go UserPerms, which tracks each of those
// separately.
type MemberMode int

const (
	ModeNormal MemberMode = iota
	ModeVoice
	ModeOp
)

func (m MemberMode) String() string {
	switch m {
	case ModeVoice:
		return "voice"
	case ModeOp:
		return "op"
	default:
		return "normal"
	}
}

// sigilMode maps a NAMES/MODE sigil character to the mode it grants. Voice
// (+) is ModeVoice; owner ~, admin &, half-op % and op @ all collapse to
// ModeOp; any other leading character (no sigil) is ModeNormal.
func sigilMode(sigil byte) MemberMode {
	switch sigil {
	case '+':
		return ModeVoice
	case '@', '%', '&', '~':
		return ModeOp
	default:
		return ModeNormal
	}
}

// Member is a single tracked occupant of a Channel Actor.
type Member struct {
	Nick string
	Mode MemberMode
}

// channelOp is a request sent to a Channel Actor's goroutine. Exactly one
// of the result fields is populated for the op kind in question; resp is
// closed by the actor once the op has been applied and any result copied
// out -- this is the single serialization point spec §5 requires per
// channel, expressed literally as a goroutine loop rather than girc's
// sync.RWMutex-guarded state.channels map.
type channelOp struct {
	kind string // "set", "get", "del", "rename", "log", "buffer", "members"

	nick    string // set/get/del
	oldNick string // rename
	newNick string // rename
	message *Message // log

	bufferFn func([]*Message) interface{} // buffer

	member Member
	found  bool
	result interface{}

	resp chan struct{}
}

const channelBufferCap = 10000

// Channel is the Channel Actor: one goroutine per joined channel, created
// on first JOIN, owning membership and a rolling message buffer. All
// mutation and inspection routes through run() via ops, never direct field
// access, per spec §4.6/§5.
type Channel struct {
	Name string

	ops  chan *channelOp
	done chan struct{}

	members map[string]Member // keyed by RFC1459-folded nick
	buffer  []*Message        // newest-first, capped at channelBufferCap
}

// newChannel starts a Channel Actor's goroutine and returns the handle.
func newChannel(name string) *Channel {
	c := &Channel{
		Name:    name,
		ops:     make(chan *channelOp),
		done:    make(chan struct{}),
		members: make(map[string]Member),
	}
	go c.run()
	return c
}

// stop terminates the actor's goroutine. State already applied is retained
// on the Channel value but no further ops are served.
func (c *Channel) stop() {
	close(c.done)
}

func (c *Channel) run() {
	for {
		select {
		case op := <-c.ops:
			c.apply(op)
			close(op.resp)
		case <-c.done:
			return
		}
	}
}

func (c *Channel) apply(op *channelOp) {
	switch op.kind {
	case "set":
		c.members[ToRFC1459(op.nick)] = op.member
	case "get":
		m, ok := c.members[ToRFC1459(op.nick)]
		op.member, op.found = m, ok
	case "del":
		delete(c.members, ToRFC1459(op.nick))
	case "rename":
		old := ToRFC1459(op.oldNick)
		m, ok := c.members[old]
		if !ok {
			return
		}
		delete(c.members, old)
		m.Nick = op.newNick
		c.members[ToRFC1459(op.newNick)] = m
	case "log":
		c.buffer = append([]*Message{op.message}, c.buffer...)
		if len(c.buffer) > channelBufferCap {
			c.buffer = c.buffer[:channelBufferCap]
		}
	case "buffer":
		op.result = op.bufferFn(c.buffer)
	case "members":
		snap := make(map[string]Member, len(c.members))
		for k, v := range c.members {
			snap[k] = v
		}
		op.result = snap
	}
}

func (c *Channel) send(op *channelOp) *channelOp {
	op.resp = make(chan struct{})
	select {
	case c.ops <- op:
		<-op.resp
	case <-c.done:
	}
	return op
}

// SetUser upserts a member from a NAMES/MODE token that may be prefixed
// with a permission sigil (e.g. "@alice", "+bob", "carol").
func (c *Channel) SetUser(nickWithSigil string) {
	if nickWithSigil == "" {
		return
	}
	mode := sigilMode(nickWithSigil[0])
	nick := nickWithSigil
	if mode != ModeNormal {
		nick = nickWithSigil[1:]
	}
	c.send(&channelOp{kind: "set", nick: nick, member: Member{Nick: nick, Mode: mode}})
}

// GetUser returns the tracked member for nick, if present.
func (c *Channel) GetUser(nick string) (Member, bool) {
	op := c.send(&channelOp{kind: "get", nick: nick})
	return op.member, op.found
}

// DelUser removes nick from the channel's membership, if present.
func (c *Channel) DelUser(nick string) {
	c.send(&channelOp{kind: "del", nick: nick})
}

// RenameUser moves a tracked member from old to new, preserving mode. A
// no-op if old is not currently tracked.
func (c *Channel) RenameUser(old, new string) {
	c.send(&channelOp{kind: "rename", oldNick: old, newNick: new})
}

// LogMessage prepends msg to the channel's rolling buffer, discarding the
// oldest entry past channelBufferCap.
func (c *Channel) LogMessage(msg *Message) {
	c.send(&channelOp{kind: "log", message: msg})
}

// GetBuffer applies fn to a snapshot of the buffer (newest-first) and
// returns its result. fn runs on the actor's own goroutine so it observes
// a consistent snapshot, but must not block or call back into this
// Channel.
func (c *Channel) GetBuffer(fn func([]*Message) interface{}) interface{} {
	return c.send(&channelOp{kind: "buffer", bufferFn: fn}).result
}

// Members returns a snapshot of current membership, keyed by RFC1459-
// folded nick.
func (c *Channel) Members() map[string]Member {
	op := c.send(&channelOp{kind: "members"})
	return op.result.(map[string]Member)
}

// ChannelSupervisor is the process-wide name→Channel Actor table, single-
// writer owned (spec §5 "Shared state"): only the supervisor creates or
// removes entries, though any goroutine may read.
type ChannelSupervisor struct {
	channels cmap.ConcurrentMap // name -> *Channel
}

// NewChannelSupervisor creates an empty supervisor.
func NewChannelSupervisor() *ChannelSupervisor {
	return &ChannelSupervisor{channels: cmap.New()}
}

// GetOrCreate returns the Channel Actor for name, starting a new one (and
// sending nothing -- JOIN itself is the Connection Manager's job) if none
// exists yet.
func (s *ChannelSupervisor) GetOrCreate(name string) *Channel {
	key := ToRFC1459(name)
	if v, ok := s.channels.Get(key); ok {
		return v.(*Channel)
	}
	ch := newChannel(name)
	if !s.channels.SetIfAbsent(key, ch) {
		ch.stop()
	}
	v, _ := s.channels.Get(key)
	return v.(*Channel)
}

// Get looks up the Channel Actor for name without creating one.
func (s *ChannelSupervisor) Get(name string) (*Channel, bool) {
	v, ok := s.channels.Get(ToRFC1459(name))
	if !ok {
		return nil, false
	}
	return v.(*Channel), true
}

// Names returns the names of every channel with a live actor.
func (s *ChannelSupervisor) Names() []string {
	var names []string
	for item := range s.channels.IterBuffered() {
		names = append(names, item.Val.(*Channel).Name)
	}
	return names
}

// ToRFC1459 lower-cases name per RFC 1459 casemapping (ASCII plus the
// {}|^ <-> []\~ swaps), matching girc's ToRFC1459 so channel/nick keys
// compare consistently regardless of server-announced casing.
func ToRFC1459(name string) string {
	b := []byte(strings.ToLower(name))
	for i, c := range b {
		switch c {
		case '{':
			b[i] = '['
		case '}':
			b[i] = ']'
		case '|':
			b[i] = '\\'
		case '^':
			b[i] = '~'
		}
	}
	return string(b)
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"context"
	"time"
)

// Context is passed explicitly to every handler body invocation, carrying
// the message in scope plus everything a handler needs to reply or reach
// other subsystems. This replaces the lexically-captured "message" variable
// a macro-based dispatcher would close over (spec §9 "Reply primitives that
// implicitly reference message").
type Context struct {
	Message *Message
	Unit    *HandlerUnit

	// Ctx is cancelled if this invocation is killed by a uniqueness
	// kill-existing override. Handler bodies with long-running work between
	// suspension points should select on Ctx.Done().
	Ctx context.Context

	cmd      *Cmd
	channels *ChannelSupervisor
	broker   *Broker
	botNick  func() string
}

// Reply sends a PRIVMSG to the originating channel if Message was
// channel-addressed, otherwise back to the originating nick.
func (c *Context) Reply(text string) error {
	return c.cmd.Privmsg(c.Message.ReplyTarget(c.botNick()), text)
}

// ReplyPriv sends a PRIVMSG directly to the originating nick, regardless of
// how Message was addressed.
func (c *Context) ReplyPriv(text string) error {
	if c.Message.User == nil {
		return &ErrInvalidTarget{Target: ""}
	}
	return c.cmd.Privmsg(c.Message.User.Nick, text)
}

// ReplyNotice sends a NOTICE to the same target Reply would use.
func (c *Context) ReplyNotice(text string) error {
	return c.cmd.Notice(c.Message.ReplyTarget(c.botNick()), text)
}

// ReplyPrivNotice sends a NOTICE directly to the originating nick.
func (c *Context) ReplyPrivNotice(text string) error {
	if c.Message.User == nil {
		return &ErrInvalidTarget{Target: ""}
	}
	return c.cmd.Notice(c.Message.User.Nick, text)
}

// Channel looks up the Channel Actor for name, if one exists.
func (c *Context) Channel(name string) (*Channel, bool) {
	return c.channels.Get(name)
}

// AwaitResp suspends the calling (necessarily async) handler body until a
// future PRIVMSG satisfies pattern/chan/nick, or timeout elapses. See
// Broker.Await for the full contract.
func (c *Context) AwaitResp(pattern, chanFilter, nickFilter string, timeout time.Duration, captureClass string) (msg *Message, captures map[string]string) {
	return c.broker.Await(pattern, chanFilter, nickFilter, timeout, captureClass)
}

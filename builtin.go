// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"strings"

	"github.com/araddon/dateparse"
)

// newBuiltinUnit builds the always-loaded system handler unit, per spec
// §4.7's table. Grounded on girc's handleConnect/handleNAMES/handleJOIN/
// handlePART/handleQUIT/handleNICK/handleMODE/nickCollisionHandler, each
// reimplemented here as a MatchSpec rather than a registered Event
// callback.
func newBuiltinUnit(c *Client) *HandlerUnit {
	u := NewUnit("builtin")

	u.Handle(PING, "*", func(ctx *Context, _ map[string]string) {
		_ = c.Cmd.Pong(ctx.Message.Args, ctx.Message.Trailing)
	})

	u.Handle(RPL_WELCOME, "*", func(ctx *Context, _ map[string]string) {
		for _, name := range c.Config.Channels {
			c.Channels.GetOrCreate(name)
		}
		_ = c.Cmd.Join(c.Config.Channels...)
	})

	u.Handle(RPL_NAMREPLY, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if len(msg.Args) < 3 {
			return
		}
		channel := msg.Args[2]
		ch := c.Channels.GetOrCreate(channel)
		for _, tok := range strings.Fields(msg.Trailing) {
			ch.SetUser(tok)
		}
	})

	// RPL_CREATED's trailing text embeds the server's compile date
	// somewhere after a "Mon,"-style weekday token; pull that tail out and
	// hand it to dateparse rather than matching an exact server format.
	u.Handle(RPL_CREATED, "*", func(ctx *Context, _ map[string]string) {
		words := strings.Fields(ctx.Message.Trailing)
		days := []string{"Mon,", "Tue,", "Wed,", "Thu,", "Fri,", "Sat,", "Sun,"}
		found := -1
		for i, word := range words {
			for _, day := range days {
				if word == day {
					found = i
				}
			}
		}
		if found == -1 {
			return
		}
		compiled, err := dateparse.ParseAny(strings.Join(words[found:], " "))
		if err != nil {
			return
		}
		c.setServerCreatedAt(compiled)
	})

	// RPL_WHOISUSER: <client> <nick> <user> <host> * :<realname>
	u.Handle(RPL_WHOISUSER, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if len(msg.Args) < 4 {
			return
		}
		c.setLastWhois(WhoisResult{
			Nick:     msg.Args[1],
			User:     msg.Args[2],
			Host:     msg.Args[3],
			RealName: msg.Trailing,
			Found:    true,
		})
	})

	// ERR_NOSUCHNICK: <client> <nick> :No such nick/channel
	u.Handle(ERR_NOSUCHNICK, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		nick := ""
		if len(msg.Args) >= 2 {
			nick = msg.Args[1]
		}
		c.setLastWhois(WhoisResult{Nick: nick, Found: false})
	})

	u.Handle(ERR_NICKNAMEINUSE, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		offending := c.GetNick()
		if len(msg.Args) >= 2 {
			offending = msg.Args[1]
		}
		retry := offending + "_"
		c.setNick(retry)
		_ = c.Cmd.Nick(retry)
	})

	u.Handle(JOIN, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if msg.User == nil || msg.Trailing == "" {
			return
		}
		ch := c.Channels.GetOrCreate(msg.Trailing)
		ch.SetUser(msg.User.Nick)
	})

	u.Handle(PART, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if msg.User == nil || len(msg.Args) == 0 {
			return
		}
		if ch, ok := c.Channels.Get(msg.Args[0]); ok {
			ch.DelUser(msg.User.Nick)
		}
	})

	u.Handle(QUIT, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if msg.User == nil {
			return
		}
		for _, name := range c.Channels.Names() {
			if ch, ok := c.Channels.Get(name); ok {
				ch.DelUser(msg.User.Nick)
			}
		}
	})

	u.Handle(NICK, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if msg.User == nil {
			return
		}
		old, new := msg.User.Nick, msg.Trailing
		if old == c.GetNick() {
			c.setNick(new)
		}
		for _, name := range c.Channels.Names() {
			if ch, ok := c.Channels.Get(name); ok {
				ch.RenameUser(old, new)
			}
		}
	})

	// MODE only interprets +v/+h/+o; every other mode string (removals,
	// compound strings, lower/upper variants beyond these three) is
	// silently ignored, forward-compat per spec §7/§9 Open Question #2.
	u.Handle(MODE, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		if len(msg.Args) != 3 {
			return
		}
		channel, modeStr, nick := msg.Args[0], msg.Args[1], msg.Args[2]

		var sigil byte
		switch modeStr {
		case "+v":
			sigil = '+'
		case "+h":
			sigil = '%'
		case "+o":
			sigil = '@'
		default:
			return
		}

		if ch, ok := c.Channels.Get(channel); ok {
			ch.SetUser(string(sigil) + nick)
		}
	})

	u.Handle(PRIVMSG, "*", func(ctx *Context, _ map[string]string) {
		msg := ctx.Message
		c.Broker.Deliver(msg)

		if len(msg.Args) == 0 {
			return
		}
		if ch, ok := c.Channels.Get(msg.Args[0]); ok {
			ch.LogMessage(msg)
		}
	}, Async())

	return u
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import "bytes"

// Cmd holds the Outbound Helpers: convenience constructors for the messages
// the core emits, each validating its target before handing the built
// Message to the Connection Manager's synchronous Send.
type Cmd struct {
	conn *Conn
}

// Pass sends the PASS handshake line.
func (cmd *Cmd) Pass(password string) error {
	return cmd.conn.Send(&Message{Command: PASS, Args: []string{password}})
}

// User sends the USER handshake line: USER <bot_name> 8 * :<bot_name>.
func (cmd *Cmd) User(botName string) error {
	return cmd.conn.Send(&Message{
		Command:  USER,
		Args:     []string{botName, "8", "*"},
		Trailing: botName,
	})
}

// Nick changes the connection's nickname.
func (cmd *Cmd) Nick(name string) error {
	if !IsValidNick(name) {
		return &ErrInvalidTarget{Target: name}
	}

	return cmd.conn.Send(&Message{Command: NICK, Args: []string{name}})
}

// Join enters one or more channels, batched onto as few JOIN lines as fit
// under maxLength.
func (cmd *Cmd) Join(channels ...string) error {
	max := maxLength - len(JOIN) - 1

	var buf string
	for i, ch := range channels {
		if !IsValidChannel(ch) {
			return &ErrInvalidTarget{Target: ch}
		}

		if len(buf+","+ch) > max && buf != "" {
			if err := cmd.conn.Send(&Message{Command: JOIN, Args: []string{buf}}); err != nil {
				return err
			}
			buf = ""
		}

		if buf == "" {
			buf = ch
		} else {
			buf += "," + ch
		}

		if i == len(channels)-1 {
			return cmd.conn.Send(&Message{Command: JOIN, Args: []string{buf}})
		}
	}

	return nil
}

// JoinKey enters a single key-protected channel.
func (cmd *Cmd) JoinKey(channel, key string) error {
	if !IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}

	return cmd.conn.Send(&Message{Command: JOIN, Args: []string{channel, key}})
}

// Part leaves channel, with an optional parting message.
func (cmd *Cmd) Part(channel, message string) error {
	if !IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}

	return cmd.conn.Send(&Message{Command: PART, Args: []string{channel}, Trailing: message})
}

// Privmsg sends a PRIVMSG to target (channel or nick).
func (cmd *Cmd) Privmsg(target, message string) error {
	if !IsValidNick(target) && !IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}

	return cmd.conn.Send(&Message{Command: PRIVMSG, Args: []string{target}, Trailing: message})
}

// Notice sends a NOTICE to target (channel or nick).
func (cmd *Cmd) Notice(target, message string) error {
	if !IsValidNick(target) && !IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}

	return cmd.conn.Send(&Message{Command: NOTICE, Args: []string{target}, Trailing: message})
}

// Pong answers a PING with identical args/trailing, per the Built-in
// Protocol Handler's PING rule.
func (cmd *Cmd) Pong(args []string, trailing string) error {
	return cmd.conn.Send(&Message{Command: PONG, Args: args, Trailing: trailing})
}

// Mode sends a MODE change for channel.
func (cmd *Cmd) Mode(channel string, modeArgs ...string) error {
	if !IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}

	return cmd.conn.Send(&Message{Command: MODE, Args: append([]string{channel}, modeArgs...)})
}

// Kick removes nick from channel, with an optional reason.
func (cmd *Cmd) Kick(channel, nick, reason string) error {
	if !IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}
	if !IsValidNick(nick) {
		return &ErrInvalidTarget{Target: nick}
	}

	if reason == "" {
		return cmd.conn.Send(&Message{Command: KICK, Args: []string{channel, nick}})
	}

	return cmd.conn.Send(&Message{Command: KICK, Args: []string{channel, nick}, Trailing: reason})
}

// Whois queries the server for information about nick.
func (cmd *Cmd) Whois(nick string) error {
	if !IsValidNick(nick) {
		return &ErrInvalidTarget{Target: nick}
	}

	return cmd.conn.Send(&Message{Command: WHOIS, Args: []string{nick}})
}

// IsValidChannel reports whether channel is an RFC-compliant channel name.
//
//	channel      =  ( "#" / "+" / ( "!" channelid ) / "&" ) chanstring
//	channelid    =  5( 0x41-0x5A / digit )
func IsValidChannel(channel string) bool {
	if len(channel) <= 1 || len(channel) > 50 {
		return false
	}

	if bytes.IndexByte([]byte{0x21, 0x23, 0x26, 0x2B}, channel[0]) == -1 {
		return false
	}

	if channel[0] == 0x21 {
		if len(channel) < 7 {
			return false
		}
		for i := 1; i < 6; i++ {
			if (channel[i] < 0x30 || channel[i] > 0x39) && (channel[i] < 0x41 || channel[i] > 0x5A) {
				return false
			}
		}
	}

	bad := []byte{0x00, 0x07, 0x0D, 0x0A, 0x20, 0x2C, 0x3A}
	for i := 1; i < len(channel); i++ {
		if bytes.IndexByte(bad, channel[i]) != -1 {
			return false
		}
	}

	return true
}

// IsValidNick reports whether nick is an RFC-compliant nickname. Does not
// enforce a maximum length -- servers disagree on the limit.
//
//	nickname   =  ( letter / special ) *( letter / digit / special / "-" )
func IsValidNick(nick string) bool {
	if len(nick) == 0 {
		return false
	}

	if nick[0] < 0x41 || nick[0] > 0x7D {
		return false
	}

	for i := 1; i < len(nick); i++ {
		if (nick[i] < 0x41 || nick[i] > 0x7D) && (nick[i] < 0x30 || nick[i] > 0x39) && nick[i] != 0x2D {
			return false
		}
	}

	return true
}

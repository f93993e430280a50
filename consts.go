// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

// Command verbs actively handled or emitted per the wire protocol, see
// RFC1459 section 4. Reconstructed from usage across the dispatch engine --
// the upstream constants file this package is modeled on was not available,
// only its call sites were.
const (
	PING    = "PING"
	PONG    = "PONG"
	PRIVMSG = "PRIVMSG"
	NOTICE  = "NOTICE"
	JOIN    = "JOIN"
	PART    = "PART"
	QUIT    = "QUIT"
	NICK    = "NICK"
	MODE    = "MODE"
	KICK    = "KICK"
	WHOIS   = "WHOIS"
	PASS    = "PASS"
	USER    = "USER"
	ERROR   = "ERROR"

	// INITIALIZED and CONNECTED name synthetic, locally-generated commands
	// that never appear on the wire. The Connection Manager does not emit
	// them; it reports lifecycle transitions through Conn.OnState.
	INITIALIZED = "INITIALIZED"
	CONNECTED   = "CONNECTED"
)

// Numeric reply codes, several of which the Built-in Protocol Handler
// consults.
const (
	RPL_WELCOME        = "001"
	RPL_YOURHOST       = "002"
	RPL_CREATED        = "003"
	RPL_MOTDSTART      = "375"
	RPL_MOTD           = "372"
	RPL_ENDOFMOTD      = "376"
	RPL_NAMREPLY       = "353"
	RPL_WHOISUSER      = "311"
	ERR_NICKNAMEINUSE  = "433"
	ERR_NOSUCHNICK     = "401"
)

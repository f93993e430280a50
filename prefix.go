// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"bytes"
	"strings"
)

const (
	prefixTag  byte = 0x3A // ":" -- prefix or last argument
	prefixUser byte = 0x21 // "!" -- username
	prefixHost byte = 0x40 // "@" -- hostname
)

// Prefix identifies the originator of a Message, see RFC1459 section 2.3.1:
// <servername> | <nick> [ '!' <name> ] [ '@' <rdns> ]
//
// For a bare server prefix only Nick is set. For a full user prefix
// nick!name@rdns, all three fields are set.
type Prefix struct {
	// Nick is the nickname, server name, or service name.
	Nick string
	// Name is commonly known as the "ident" or "user".
	Name string
	// RDNS is the hostname or IP address of the user, as presented by the
	// server. Not authoritative -- servers can and do spoof this.
	RDNS string
}

// ParsePrefix takes the raw text between ":" and the following space and
// splits it into a Prefix. Splitting happens on "!" first, then "@", per the
// wire grammar -- never the reverse, since an Ident may itself contain "@".
func ParsePrefix(raw string) *Prefix {
	p := &Prefix{}

	user := strings.IndexByte(raw, prefixUser)
	host := strings.IndexByte(raw, prefixHost)

	switch {
	case user > 0 && host > user:
		p.Nick = raw[:user]
		p.Name = raw[user+1 : host]
		p.RDNS = raw[host+1:]
	case user > 0:
		p.Nick = raw[:user]
		p.Name = raw[user+1:]
	case host > 0:
		p.Nick = raw[:host]
		p.RDNS = raw[host+1:]
	default:
		p.Nick = raw
	}

	return p
}

// Len calculates the length of the string representation of the prefix.
func (p *Prefix) Len() (length int) {
	length = len(p.Nick)
	if len(p.Name) > 0 {
		length = 1 + length + len(p.Name)
	}
	if len(p.RDNS) > 0 {
		length = 1 + length + len(p.RDNS)
	}

	return
}

// Bytes returns a []byte representation of the prefix.
func (p *Prefix) Bytes() []byte {
	buf := new(bytes.Buffer)
	p.writeTo(buf)

	return buf.Bytes()
}

// String returns a string representation of the prefix.
func (p *Prefix) String() string {
	return string(p.Bytes())
}

// IsHostmask returns true if the prefix looks like a full user hostmask
// (nick!name@rdns), as opposed to a bare server or nick prefix.
func (p *Prefix) IsHostmask() bool {
	return len(p.Name) > 0 && len(p.RDNS) > 0
}

// IsServer returns true if this prefix looks like a bare server name --
// i.e. a message originated from the server itself, not a user.
func (p *Prefix) IsServer() bool {
	return len(p.Name) == 0 && len(p.RDNS) == 0
}

func (p *Prefix) writeTo(buf *bytes.Buffer) {
	buf.WriteString(p.Nick)
	if len(p.Name) > 0 {
		buf.WriteByte(prefixUser)
		buf.WriteString(p.Name)
	}
	if len(p.RDNS) > 0 {
		buf.WriteByte(prefixHost)
		buf.WriteString(p.RDNS)
	}
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import "testing"

var testsParsePrefix = []struct {
	name string
	test string
	want *Prefix
}{
	{name: "full", test: "nick!user@hostname.com", want: &Prefix{
		Nick: "nick", Name: "user", RDNS: "hostname.com",
	}},
	{name: "special chars", test: "^[]nick!~user@test.host---name.com", want: &Prefix{
		Nick: "^[]nick", Name: "~user", RDNS: "test.host---name.com",
	}},
	{name: "short", test: "a!b@c", want: &Prefix{Nick: "a", Name: "b", RDNS: "c"}},
	{name: "nick and name only", test: "a!b", want: &Prefix{Nick: "a", Name: "b"}},
	{name: "nick and rdns only", test: "a@b", want: &Prefix{Nick: "a", RDNS: "b"}},
	{name: "bare server/nick", test: "test", want: &Prefix{Nick: "test"}},
}

func TestParsePrefix(t *testing.T) {
	for _, tt := range testsParsePrefix {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrefix(tt.test)
			if *got != *tt.want {
				t.Errorf("ParsePrefix(%q) = %+v, want %+v", tt.test, got, tt.want)
			}
		})
	}
}

func TestPrefixRoundTrip(t *testing.T) {
	for _, tt := range testsParsePrefix {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrefix(tt.test)
			if got.String() != tt.test {
				t.Errorf("String() = %q, want %q", got.String(), tt.test)
			}
		})
	}
}

func TestPrefixIsHostmaskIsServer(t *testing.T) {
	full := ParsePrefix("nick!user@host")
	if !full.IsHostmask() {
		t.Error("expected full prefix to be a hostmask")
	}
	if full.IsServer() {
		t.Error("expected full prefix to not look like a server")
	}

	bare := ParsePrefix("irc.example.net")
	if bare.IsHostmask() {
		t.Error("expected bare prefix to not be a hostmask")
	}
	if !bare.IsServer() {
		t.Error("expected bare prefix to look like a server")
	}
}

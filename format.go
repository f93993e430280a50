// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import "strings"

// color pairs one or more "{alias}" tokens with the mIRC control code they
// expand to.
type color struct {
	aliases []string
	val     string
}

var colors = []*color{
	{aliases: []string{"white"}, val: "\x0300"},
	{aliases: []string{"black"}, val: "\x0301"},
	{aliases: []string{"blue", "navy"}, val: "\x0302"},
	{aliases: []string{"green"}, val: "\x0303"},
	{aliases: []string{"red"}, val: "\x0304"},
	{aliases: []string{"brown", "maroon"}, val: "\x0305"},
	{aliases: []string{"purple"}, val: "\x0306"},
	{aliases: []string{"orange", "olive", "gold"}, val: "\x0307"},
	{aliases: []string{"yellow"}, val: "\x0308"},
	{aliases: []string{"lightgreen", "lime"}, val: "\x0309"},
	{aliases: []string{"teal"}, val: "\x0310"},
	{aliases: []string{"cyan"}, val: "\x0311"},
	{aliases: []string{"lightblue", "royal"}, val: "\x0312"},
	{aliases: []string{"lightpurple", "pink", "fuchsia"}, val: "\x0313"},
	{aliases: []string{"grey", "gray"}, val: "\x0314"},
	{aliases: []string{"lightgrey", "silver"}, val: "\x0315"},
	{aliases: []string{"bold", "b"}, val: "\x02"},
	{aliases: []string{"italic", "i"}, val: "\x1d"},
	{aliases: []string{"reset", "r"}, val: "\x0f"},
	{aliases: []string{"clear", "c"}, val: "\x03"},
	{aliases: []string{"reverse"}, val: "\x16"},
	{aliases: []string{"underline", "ul"}, val: "\x1f"},
}

// Fmt expands "{red}", "{b}", etc. tokens in text into the mIRC control
// codes they represent. Handler bodies may call this on a reply before
// handing it to Context.Reply/ReplyNotice for colored output; the core
// itself never calls this implicitly.
func Fmt(text string) string {
	for _, c := range colors {
		for _, alias := range c.aliases {
			text = strings.ReplaceAll(text, "{"+alias+"}", c.val)
		}
		if !strings.ContainsRune(text, '{') {
			return text
		}
	}
	return text
}

// TrimFmt strips all "{alias}" formatting tokens from text without
// expanding them, see Fmt.
func TrimFmt(text string) string {
	for _, c := range colors {
		for _, alias := range c.aliases {
			text = strings.ReplaceAll(text, "{"+alias+"}", "")
		}
		if !strings.ContainsRune(text, '{') {
			return text
		}
	}
	return text
}

// StripColors removes mIRC control codes (the expanded form Fmt produces)
// from text.
func StripColors(text string) string {
	for _, c := range colors {
		text = strings.ReplaceAll(text, c.val, "")
	}
	return text
}

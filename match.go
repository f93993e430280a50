// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"regexp"
	"strings"
)

// Validator is a named predicate over a Message. A Group may require one or
// more validators to pass before any match inside it is even considered;
// the engine only composes their results with logical AND -- it has no
// opinion on what a validator checks.
type Validator func(*Context) bool

// defaultCaptureClass is the regex class substituted for an untyped :name
// placeholder when a MatchSpec doesn't override it.
const defaultCaptureClass = `[A-Za-z0-9]+`

// overridePolicy controls what happens when a uniqueness key is already in
// use by a running handler body.
type overridePolicy int

const (
	// KillExisting cancels the prior task for the key before starting the new one.
	KillExisting overridePolicy = iota
	// SkipNew leaves the prior task running and drops the new invocation.
	SkipNew
)

// HandlerFunc is the body invoked when a MatchSpec matches. captures holds
// named placeholder values extracted from the pattern, keyed by name.
type HandlerFunc func(ctx *Context, captures map[string]string)

// patternKind distinguishes the four pattern grammars a MatchSpec may compile.
type patternKind int

const (
	kindLiteral patternKind = iota
	kindTemplate
	kindRegex
	kindMatchAll
)

// MatchSpec is one compiled row of a handler unit's match table.
type MatchSpec struct {
	Command        string
	Pattern        string
	kind           patternKind
	re             *regexp.Regexp
	Handler        HandlerFunc
	Validators     []Validator
	Async          bool
	Uniqueness     uniquenessScope
	OverridePolicy overridePolicy
	CaptureClass   string
	Aliases        []string
	Description    string

	// primary points back to the canonical MatchSpec when this one was
	// emitted for an alias pattern; nil on the canonical spec itself.
	primary *MatchSpec
}

// uniquenessScope selects the identity-key shape used by the uniqueness
// tracker, see spec §4.4 "Uniqueness".
type uniquenessScope int

const (
	// UniquenessNone disables the uniqueness tracker for this spec.
	UniquenessNone uniquenessScope = iota
	// UniquenessPerChannel keys on the canonical pattern + channel.
	UniquenessPerChannel
	// UniquenessPerChannelPerNick keys on the canonical pattern + channel + nick.
	UniquenessPerChannelPerNick
)

// templateToken describes one space-separated token of a parameterized
// template pattern.
type templateToken struct {
	literal     string
	placeholder string
	class       string
	greedy      bool
}

var templatePlaceholder = regexp.MustCompile(`^(:|~)([A-Za-z_][A-Za-z0-9_]*)(?:\(((?:[^()]|\([^()]*\))*)\))?$`)

// compilePattern compiles one of the four pattern grammars named in spec
// §4.4. A template compiles to an anchored *regexp.Regexp and a "re:"
// pattern to its expression as written (not anchored); literal and
// match-all patterns return a nil regexp. captureClass is substituted for
// any untyped ":name" placeholder.
func compilePattern(pattern string, captureClass string) (kind patternKind, re *regexp.Regexp, err error) {
	if captureClass == "" {
		captureClass = defaultCaptureClass
	}

	switch {
	case pattern == "*":
		return kindMatchAll, nil, nil
	case strings.HasPrefix(pattern, "re:"):
		expr := strings.TrimPrefix(pattern, "re:")
		re, err = regexp.Compile(expr)
		return kindRegex, re, err
	}

	fields := strings.Fields(pattern)
	hasPlaceholder := false
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		if m := templatePlaceholder.FindStringSubmatch(f); m != nil {
			hasPlaceholder = true
			sigil, name, class := m[1], m[2], m[3]

			switch {
			case sigil == "~":
				parts = append(parts, `(?P<`+name+`>.+)`)
			case class != "":
				parts = append(parts, `(?P<`+name+`>`+class+`)`)
			default:
				parts = append(parts, `(?P<`+name+`>`+captureClass+`)`)
			}
			continue
		}

		parts = append(parts, regexp.QuoteMeta(f))
	}

	if !hasPlaceholder {
		return kindLiteral, nil, nil
	}

	expr := "^" + strings.Join(parts, ` `) + "$"
	re, err = regexp.Compile(expr)
	return kindTemplate, re, err
}

// match evaluates the spec's pattern against trailing, returning captured
// placeholder values (nil map, but ok=true, for a literal/match-all hit).
func (s *MatchSpec) match(trailing string) (captures map[string]string, ok bool) {
	switch s.kind {
	case kindMatchAll:
		return nil, true
	case kindLiteral:
		return nil, trailing == s.Pattern
	case kindTemplate, kindRegex:
		groups := s.re.FindStringSubmatch(trailing)
		if groups == nil {
			return nil, false
		}

		names := s.re.SubexpNames()
		if len(names) <= 1 {
			return map[string]string{}, true
		}

		captures = make(map[string]string, len(names)-1)
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			captures[name] = groups[i]
		}
		return captures, true
	}

	return nil, false
}

// renderDoc renders a pattern for the help surface: ":x" becomes "<x>" and
// "~x" becomes "<x...>", per spec §4.4 "Help surface".
func renderDoc(pattern string) string {
	fields := strings.Fields(pattern)
	for i, f := range fields {
		if m := templatePlaceholder.FindStringSubmatch(f); m != nil {
			if m[1] == "~" {
				fields[i] = "<" + m[2] + "...>"
			} else {
				fields[i] = "<" + m[2] + ">"
			}
		}
	}
	return strings.Join(fields, " ")
}

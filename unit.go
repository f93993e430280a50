// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
)

// lifecycleState is a Handler Unit's residency in the Module Registry.
type lifecycleState int

const (
	stateLoaded lifecycleState = iota
	stateUnloaded
)

// HandlerUnit is a user-declared bundle of match specifications and
// supporting state, registered with the Module Registry. Units are built
// with NewUnit and the Handle/Enforce builder methods, modeled on girc's
// Caller.Add/AddBg/AddTmp registration idiom applied to a per-unit table
// instead of a single global map.
type HandlerUnit struct {
	Name string

	mu      sync.RWMutex
	groups  map[string][]*MatchSpec // keyed by upper-cased command
	state   lifecycleState
	helpCmd string

	// uniqueness maps a uniqueness key to the uniquenessHolder of the
	// handler body currently holding it, see spec §4.4 "Uniqueness".
	uniqueness cmap.ConcurrentMap
}

// uniquenessHolder identifies one invocation's claim on a uniqueness key.
// Pointer identity (not the wrapped CancelFunc value, which isn't
// comparable) is what lets a finishing invocation tell whether it still
// owns the slot or whether a later kill-existing invocation has already
// taken it over.
type uniquenessHolder struct {
	cancel context.CancelFunc
}

// NewUnit creates a new, loaded Handler Unit.
func NewUnit(name string) *HandlerUnit {
	return &HandlerUnit{
		Name:       name,
		groups:     make(map[string][]*MatchSpec),
		uniqueness: cmap.New(),
	}
}

// HelpCommand configures the prefix that triggers this unit's synthesized
// help surface (spec §4.4 "Help surface"). Passing "" disables it.
func (u *HandlerUnit) HelpCommand(prefix string) *HandlerUnit {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.helpCmd = prefix
	return u
}

// Scope is a nested validator scope produced by Enforce. Scopes compose:
// a match declared through a nested scope runs only when every enclosing
// predicate returns true, modeled on Travis-Britz-irc's route.Use(...)
// middleware-wrapping idiom, generalized from handler-wrapping to
// guard-predicate composition.
type Scope struct {
	unit       *HandlerUnit
	validators []Validator
}

// Enforce opens a validator scope requiring every one of preds to pass
// before any match declared inside (directly, or via further nested
// Enforce calls) is even considered.
func (u *HandlerUnit) Enforce(preds ...Validator) *Scope {
	return &Scope{unit: u, validators: append([]Validator{}, preds...)}
}

// Enforce nests a further validator scope inside s.
func (s *Scope) Enforce(preds ...Validator) *Scope {
	return &Scope{unit: s.unit, validators: append(append([]Validator{}, s.validators...), preds...)}
}

// MatchOption configures optional properties of a MatchSpec at declaration
// time -- async dispatch, uniqueness, aliases, capture class, description.
type MatchOption func(*MatchSpec)

// Async marks the match specification to dispatch its handler body on a
// new goroutine; evaluation of subsequent specs proceeds immediately.
func Async() MatchOption { return func(s *MatchSpec) { s.Async = true } }

// Unique declares a uniqueness scope and override policy for the match.
func Unique(scope uniquenessScope, policy overridePolicy) MatchOption {
	return func(s *MatchSpec) {
		s.Uniqueness = scope
		s.OverridePolicy = policy
	}
}

// Aliases declares alternate patterns that invoke the same handler body.
// The help system treats the declared pattern as canonical.
func Aliases(patterns ...string) MatchOption {
	return func(s *MatchSpec) { s.Aliases = append(s.Aliases, patterns...) }
}

// CaptureClass overrides the regex class substituted for untyped ":name"
// placeholders in this match's pattern (default `[A-Za-z0-9]+`).
func CaptureClass(class string) MatchOption {
	return func(s *MatchSpec) { s.CaptureClass = class }
}

// Describe attaches a help-surface description to the match.
func Describe(doc string) MatchOption {
	return func(s *MatchSpec) { s.Description = doc }
}

// Handle declares a match specification for the given command, nested
// inside s's validator scope. One MatchSpec is emitted per alias pattern
// (including the primary), every one pointing at the same handler body.
func (s *Scope) Handle(command, pattern string, fn HandlerFunc, opts ...MatchOption) *HandlerUnit {
	u := s.unit
	command = strings.ToUpper(command)

	spec := &MatchSpec{
		Command:      command,
		Pattern:      pattern,
		Handler:      fn,
		Validators:   append([]Validator{}, s.validators...),
		CaptureClass: defaultCaptureClass,
	}
	for _, opt := range opts {
		opt(spec)
	}

	kind, re, err := compilePattern(pattern, spec.CaptureClass)
	if err != nil {
		panic(fmt.Sprintf("corebot: unit %q: invalid pattern %q: %v", u.Name, pattern, err))
	}
	spec.kind = kind
	spec.re = re

	u.mu.Lock()
	u.groups[command] = append(u.groups[command], spec)
	u.mu.Unlock()

	for _, alt := range spec.Aliases {
		aliasKind, aliasRe, err := compilePattern(alt, spec.CaptureClass)
		if err != nil {
			panic(fmt.Sprintf("corebot: unit %q: invalid alias pattern %q: %v", u.Name, alt, err))
		}

		aliasSpec := &MatchSpec{
			Command:        command,
			Pattern:        alt,
			kind:           aliasKind,
			re:             aliasRe,
			Handler:        fn,
			Validators:     spec.Validators,
			Async:          spec.Async,
			Uniqueness:     spec.Uniqueness,
			OverridePolicy: spec.OverridePolicy,
			CaptureClass:   spec.CaptureClass,
			primary:        spec,
		}

		u.mu.Lock()
		u.groups[command] = append(u.groups[command], aliasSpec)
		u.mu.Unlock()
	}

	return u
}

// Handle declares a top-level match specification (no enclosing validator
// scope). Equivalent to u.Enforce().Handle(...).
func (u *HandlerUnit) Handle(command, pattern string, fn HandlerFunc, opts ...MatchOption) *HandlerUnit {
	return u.Enforce().Handle(command, pattern, fn, opts...)
}

// Unload removes the unit from the broadcast set without destroying its
// state -- Load reverses this.
func (u *HandlerUnit) Unload() {
	u.mu.Lock()
	u.state = stateUnloaded
	u.mu.Unlock()
}

// Load marks the unit loaded again.
func (u *HandlerUnit) Load() {
	u.mu.Lock()
	u.state = stateLoaded
	u.mu.Unlock()
}

// Loaded reports whether the unit is currently in the broadcast set.
func (u *HandlerUnit) Loaded() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state == stateLoaded
}

// dispatch runs the Match Engine's evaluation order (spec §4.4) for msg
// against this unit's table.
func (u *HandlerUnit) dispatch(shared *Context) {
	u.mu.RLock()
	table := u.groups[shared.Message.Command]
	helpCmd := u.helpCmd
	u.mu.RUnlock()

	// The Registry broadcasts one Context to every unit's dispatch
	// goroutine concurrently -- copy it so stamping Unit here can't race
	// with another unit's copy of the same call.
	owned := *shared
	owned.Unit = u
	ctx := &owned

	if ctx.Message.Command == PRIVMSG && helpCmd != "" {
		if u.dispatchHelp(ctx, helpCmd) {
			return
		}
	}

	for _, spec := range table {
		u.evaluate(ctx, spec)
	}
}

func (u *HandlerUnit) evaluate(ctx *Context, spec *MatchSpec) {
	for _, v := range spec.Validators {
		if !v(ctx) {
			return
		}
	}

	captures, ok := spec.match(ctx.Message.Trailing)
	if !ok {
		return
	}

	canonical := spec
	if spec.primary != nil {
		canonical = spec.primary
	}

	run := func() {
		if spec.Uniqueness == UniquenessNone {
			spec.Handler(ctx, captures)
			return
		}

		key := u.uniquenessKey(canonical, ctx.Message)
		cctx, cancel := context.WithCancel(context.Background())
		holder := &uniquenessHolder{cancel: cancel}

		if existing, ok := u.uniqueness.Get(key); ok {
			if spec.OverridePolicy == SkipNew {
				cancel()
				return
			}
			existing.(*uniquenessHolder).cancel()
		}
		u.uniqueness.Set(key, holder)
		defer func() {
			// Only clear the slot if it's still ours -- a racing
			// kill-existing invocation may have already overwritten it with
			// its own holder, in which case that invocation owns the key now
			// and must be the one to clear it, not us.
			u.uniqueness.RemoveCb(key, func(_ string, v interface{}, exists bool) bool {
				return exists && v.(*uniquenessHolder) == holder
			})
			cancel()
		}()

		scoped := *ctx
		scoped.Ctx = cctx
		spec.Handler(&scoped, captures)
	}

	if spec.Async {
		go run()
		return
	}

	run()
}

func (u *HandlerUnit) uniquenessKey(spec *MatchSpec, msg *Message) string {
	channel := msg.Args
	chanName := ""
	if len(channel) > 0 {
		chanName = channel[0]
	}

	switch spec.Uniqueness {
	case UniquenessPerChannelPerNick:
		nick := ""
		if msg.User != nil {
			nick = msg.User.Nick
		}
		return spec.Pattern + "\x00" + chanName + "\x00" + nick
	default:
		return spec.Pattern + "\x00" + chanName
	}
}

// dispatchHelp synthesizes the two help-command match specifications
// described in spec §4.4 "Help surface": bare help-command lists canonical
// commands, help-command + search term emits that command's rendered doc.
func (u *HandlerUnit) dispatchHelp(ctx *Context, helpCmd string) bool {
	trailing := ctx.Message.Trailing
	if trailing != helpCmd && !strings.HasPrefix(trailing, helpCmd+" ") {
		return false
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	if trailing == helpCmd {
		var names []string
		for _, specs := range u.groups {
			for _, s := range specs {
				if s.primary == nil {
					names = append(names, s.Pattern)
				}
			}
		}
		_ = ctx.Reply(strings.Join(names, ", "))
		return true
	}

	term := strings.TrimPrefix(trailing, helpCmd+" ")
	for _, specs := range u.groups {
		for _, s := range specs {
			if s.primary != nil {
				continue
			}
			// Exact-match on the primary pattern's first token, resolving
			// the spec's ambiguity between exact-match and prefix-match.
			if strings.Fields(s.Pattern)[0] == term {
				doc := renderDoc(s.Pattern)
				if s.Description != "" {
					doc += " -- " + s.Description
				}
				_ = ctx.Reply(doc)
				return true
			}
		}
	}

	return true
}

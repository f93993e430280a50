// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

// Package cmdhandler is a thin convenience layer over corebot's Match
// Engine for bots that want a classic "!command arg1 arg2" router with a
// shared help prefix, declared from a table of commands instead of one
// Handle call per command.
package cmdhandler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/corebot/corebot"
)

// Input carries the parsed invocation handed to a Command's Fn.
type Input struct {
	Ctx  *corebot.Context
	Args []string
}

// Command is one entry in a CmdHandler's table.
type Command struct {
	Help    string
	MinArgs int
	Fn      func(*Input)
}

// CmdHandler accumulates Commands and builds a single corebot.HandlerUnit
// that dispatches PRIVMSG lines of the form "<prefix><name> <args...>".
type CmdHandler struct {
	prefix string
	unit   *corebot.HandlerUnit

	cmds map[string]*Command
}

var validName = regexp.MustCompile(`^[a-zA-Z0-9-_]{1,20}$`)

// New creates a CmdHandler whose commands are triggered by "<prefix><name>".
// unitName names the corebot.HandlerUnit it builds.
func New(unitName, prefix string) *CmdHandler {
	return &CmdHandler{
		prefix: prefix,
		unit:   corebot.NewUnit(unitName),
		cmds:   make(map[string]*Command),
	}
}

// Add registers cmd under name, wiring it onto the underlying HandlerUnit as
// a template match ("<prefix>name ~rest"), plus a match on the bare literal
// "<prefix>name" when the command's MinArgs is 0.
func (ch *CmdHandler) Add(name string, cmd *Command) error {
	if cmd == nil {
		return errors.New("cmdhandler: nil command")
	}

	name = strings.ToLower(name)
	if !validName.MatchString(name) {
		return fmt.Errorf("cmdhandler: invalid command name: %q (req: %q)", name, validName.String())
	}
	if _, ok := ch.cmds[name]; ok {
		return fmt.Errorf("cmdhandler: command already registered: %s", name)
	}
	if cmd.MinArgs < 0 {
		cmd.MinArgs = 0
	}
	ch.cmds[name] = cmd

	literal := ch.prefix + name
	pattern := literal + " ~rest"
	opts := []corebot.MatchOption{}
	if cmd.Help != "" {
		opts = append(opts, corebot.Describe(cmd.Help))
	}

	handler := func(ctx *corebot.Context, captures map[string]string) {
		args := parseArgs(captures["rest"])
		if len(args) < cmd.MinArgs {
			_ = ctx.Reply(corebot.Fmt(fmt.Sprintf("not enough arguments for {b}%s{b}", name)))
			return
		}
		cmd.Fn(&Input{Ctx: ctx, Args: args})
	}

	ch.unit.Handle(corebot.PRIVMSG, pattern, handler, opts...)
	if cmd.MinArgs == 0 {
		ch.unit.Handle(corebot.PRIVMSG, literal, func(ctx *corebot.Context, _ map[string]string) {
			cmd.Fn(&Input{Ctx: ctx, Args: nil})
		}, opts...)
	}

	return nil
}

func parseArgs(rest string) []string {
	if rest == "" {
		return nil
	}
	return strings.Fields(rest)
}

// Unit returns the built HandlerUnit, ready to pass to Client.Use. The help
// surface (bare "<prefix>help" and "<prefix>help <command>") is provided by
// HandlerUnit.HelpCommand directly -- callers wanting it should call
// ch.Unit().HelpCommand(prefix + "help").
func (ch *CmdHandler) Unit() *corebot.HandlerUnit {
	return ch.unit
}

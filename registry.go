// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"fmt"
	"log"
	"runtime/debug"

	cmap "github.com/orcaman/concurrent-map"
)

// HandlerError is returned to Config.RecoverFunc when a handler body panics.
// The unit is isolated from the fault -- it keeps processing future
// messages -- per spec §7 "Handler body fault".
type HandlerError struct {
	Unit    string
	Message *Message
	Panic   interface{}
	Stack   []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("panic in unit %q handling %s: %v", e.Unit, e.Message.Command, e.Panic)
}

// RecoverFunc receives a HandlerError and decides what, if anything, to do
// with it (log, alert, ignore).
type RecoverFunc func(*HandlerError)

// DefaultRecoverHandler logs the panic and stack trace to the standard
// logger, matching girc's DefaultRecoverHandler.
func DefaultRecoverHandler(err *HandlerError) {
	log.Printf("%s\n%s", err.Error(), string(err.Stack))
}

// registeredUnit pairs a HandlerUnit with its own dedicated dispatch
// goroutine, fed by a buffered channel. This gives Broadcast per-unit FIFO
// delivery (spec §4.3/§5) without fanning a fresh goroutine out per message
// per unit, which would not preserve ordering.
type registeredUnit struct {
	unit *HandlerUnit
	ch   chan *Context
	done chan struct{}
}

// Registry is the Module Registry: it maintains the process-wide set of
// loaded handler units and fans inbound messages out to each of them.
type Registry struct {
	units       cmap.ConcurrentMap // name -> *registeredUnit
	recoverFunc RecoverFunc
}

// NewRegistry creates an empty Module Registry. recover is called (on its
// own goroutine) whenever a handler body panics; pass nil to use
// DefaultRecoverHandler.
func NewRegistry(recover RecoverFunc) *Registry {
	if recover == nil {
		recover = DefaultRecoverHandler
	}
	return &Registry{units: cmap.New(), recoverFunc: recover}
}

// Register adds unit to the broadcast set, starting its dispatch goroutine.
// Registering a unit that is already present replaces it.
func (r *Registry) Register(unit *HandlerUnit) {
	if existing, ok := r.units.Get(unit.Name); ok {
		close(existing.(*registeredUnit).done)
	}

	ru := &registeredUnit{
		unit: unit,
		ch:   make(chan *Context, 64),
		done: make(chan struct{}),
	}
	r.units.Set(unit.Name, ru)
	unit.Load()

	go r.run(ru)
}

// Unregister removes unit from the broadcast set. The unit itself is not
// destroyed -- Register(unit) again resumes delivery to it.
func (r *Registry) Unregister(name string) {
	if existing, ok := r.units.Get(name); ok {
		existing.(*registeredUnit).unit.Unload()
		close(existing.(*registeredUnit).done)
		r.units.Remove(name)
	}
}

// Unit returns the named unit, if registered.
func (r *Registry) Unit(name string) (*HandlerUnit, bool) {
	v, ok := r.units.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*registeredUnit).unit, true
}

// Broadcast delivers msg asynchronously to every registered unit. Order of
// delivery across units is unspecified; delivery to any single unit is FIFO
// with respect to the order Broadcast was called (socket arrival order).
func (r *Registry) Broadcast(ctx *Context) {
	for item := range r.units.IterBuffered() {
		ru := item.Val.(*registeredUnit)
		select {
		case ru.ch <- ctx:
		case <-ru.done:
		}
	}
}

func (r *Registry) run(ru *registeredUnit) {
	for {
		select {
		case ctx := <-ru.ch:
			r.dispatchSafely(ru.unit, ctx)
		case <-ru.done:
			return
		}
	}
}

func (r *Registry) dispatchSafely(unit *HandlerUnit, ctx *Context) {
	defer func() {
		if p := recover(); p != nil {
			r.recoverFunc(&HandlerError{
				Unit:    unit.Name,
				Message: ctx.Message,
				Panic:   p,
				Stack:   debug.Stack(),
			})
		}
	}()

	if !unit.Loaded() {
		return
	}

	unit.dispatch(ctx)
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

// Package corebot is a declarative IRC bot dispatch engine: units of
// pattern-matched handlers, aliasing, per-match uniqueness and async
// policies, suspended await-response callbacks, per-channel state actors,
// and a reconnecting connection manager.
package corebot

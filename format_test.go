// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFmtExpandsAliases(t *testing.T) {
	assert.Equal(t, "\x0304test\x03", Fmt("{red}test{c}"))
}

func TestFmtLeavesPlainTextAlone(t *testing.T) {
	assert.Equal(t, "no formatting here", Fmt("no formatting here"))
}

func TestTrimFmtRemovesAliasesWithoutExpanding(t *testing.T) {
	assert.Equal(t, "test", TrimFmt("{red}test{c}"))
}

func TestStripColorsRemovesExpandedCodes(t *testing.T) {
	assert.Equal(t, "test", StripColors(Fmt("{red}test{c}")))
}

func BenchmarkFmt(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Fmt("{red}test {blue}2 {red}3 {brown} {italic}test{c}")
	}
}

// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package corebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatternLiteral(t *testing.T) {
	kind, re, err := compilePattern("hello", "")
	require.NoError(t, err)
	assert.Equal(t, kindLiteral, kind)
	assert.Nil(t, re)
}

func TestCompilePatternMatchAll(t *testing.T) {
	kind, _, err := compilePattern("*", "")
	require.NoError(t, err)
	assert.Equal(t, kindMatchAll, kind)
}

func TestCompilePatternTemplate(t *testing.T) {
	spec := &MatchSpec{Pattern: "!rand :low :high"}
	kind, re, err := compilePattern(spec.Pattern, "[0-9]+")
	require.NoError(t, err)
	require.Equal(t, kindTemplate, kind)
	spec.kind = kind
	spec.re = re

	captures, ok := spec.match("!rand 3 17")
	require.True(t, ok)
	assert.Equal(t, "3", captures["low"])
	assert.Equal(t, "17", captures["high"])

	_, ok = spec.match("!rand x 17")
	assert.False(t, ok)
}

func TestCompilePatternGreedyPlaceholder(t *testing.T) {
	kind, re, err := compilePattern("!say ~rest", "")
	require.NoError(t, err)
	spec := &MatchSpec{kind: kind, re: re}

	captures, ok := spec.match("!say hello there world")
	require.True(t, ok)
	assert.Equal(t, "hello there world", captures["rest"])
}

func TestCompilePatternInlineRegexOverride(t *testing.T) {
	kind, re, err := compilePattern("!pick :item([a-z]+)", "")
	require.NoError(t, err)
	spec := &MatchSpec{kind: kind, re: re}

	captures, ok := spec.match("!pick apple")
	require.True(t, ok)
	assert.Equal(t, "apple", captures["item"])

	_, ok = spec.match("!pick 123")
	assert.False(t, ok)
}

func TestRenderDoc(t *testing.T) {
	assert.Equal(t, "!rand <low> <high>", renderDoc("!rand :low :high"))
	assert.Equal(t, "!say <rest...>", renderDoc("!say ~rest"))
}

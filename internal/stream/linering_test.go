// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRing(t *testing.T) {
	r := NewLineRing(3)

	_, _ = fmt.Fprintf(r, "line1\n")
	_, _ = fmt.Fprintf(r, "line2\n")
	assert.Equal(t, []string{"line1", "line2"}, r.LastN(10))

	_, _ = fmt.Fprintf(r, "line3\n")
	assert.Equal(t, []string{"line1", "line2", "line3"}, r.LastN(10))

	// Wrap
	_, _ = fmt.Fprintf(r, "line4\n")
	assert.Equal(t, []string{"line2", "line3", "line4"}, r.LastN(10))
	assert.Equal(t, []string{"line3", "line4"}, r.LastN(2))
}

func TestLineRing_PartialWrites(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("frame= 1 fps"))
	assert.Empty(t, r.LastN(10))

	_, _ = r.Write([]byte("=15\r\nbar\nba"))
	assert.Equal(t, []string{"frame= 1 fps=15", "bar"}, r.LastN(10))

	_, _ = r.Write([]byte("z\n"))
	assert.Equal(t, []string{"frame= 1 fps=15", "bar", "baz"}, r.LastN(10))
}

func TestLineRing_LongLineIsCut(t *testing.T) {
	r := NewLineRing(2)
	n, err := r.Write([]byte(strings.Repeat("x", maxPartialLine+10)))
	assert.NoError(t, err)
	assert.Equal(t, maxPartialLine+10, n)

	lines := r.LastN(1)
	assert.Len(t, lines, 1)
	assert.Len(t, lines[0], maxPartialLine)
}

func TestLineRing_Empty(t *testing.T) {
	assert.Nil(t, NewLineRing(0).LastN(5))
}

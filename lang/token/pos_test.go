package token

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type startEnd struct{ s, e Pos }

func (se startEnd) Span() (start, end Pos) { return se.s, se.e }

func TestPosInside(t *testing.T) {
	cases := []struct {
		ref, test startEnd
		want      bool
	}{
		{startEnd{1, 2}, startEnd{3, 4}, false},
		{startEnd{1, 3}, startEnd{3, 4}, false},
		{startEnd{1, 4}, startEnd{3, 4}, true},
		{startEnd{2, 4}, startEnd{3, 4}, true},
		{startEnd{3, 4}, startEnd{3, 4}, true},
		{startEnd{4, 5}, startEnd{3, 4}, false},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%v-%v", c.ref, c.test), func(t *testing.T) {
			assert.Equal(t, c.want, PosInside(c.ref, c.test))
		})
	}
}

func TestFileLineCol(t *testing.T) {
	fset := NewFileSet()
	f := fset.AddFile("test", -1, 10)
	// byte offsets 3 and 6 start new lines (line2 at offset 3, line3 at
	// offset 6); the file has 10 bytes so Pos values 1..11 are valid
	// (11 being the one-past-the-end / EOF position).
	f.AddLine(3)
	f.AddLine(6)

	cases := []struct {
		pos      Pos
		wantLine int
		wantCol  int
	}{
		{f.Pos(0), 1, 1},
		{f.Pos(2), 1, 3},
		{f.Pos(3), 2, 1},
		{f.Pos(5), 2, 3},
		{f.Pos(6), 3, 1},
		{f.Pos(10), 3, 5},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("pos=%d", c.pos), func(t *testing.T) {
			line, col := f.LineCol(c.pos)
			assert.Equal(t, c.wantLine, line)
			assert.Equal(t, c.wantCol, col)
		})
	}
}

func TestFileSetSpansMultipleFiles(t *testing.T) {
	fset := NewFileSet()
	f0 := fset.AddFile("test", -1, 10)
	f1 := fset.AddFile("test_next", -1, 10)

	assert.Equal(t, f0, fset.File(f0.Pos(0)))
	assert.Equal(t, f1, fset.File(f1.Pos(0)))
	assert.NotEqual(t, f0.Base(), f1.Base())
}

func TestFormatPos(t *testing.T) {
	fset := NewFileSet()
	f0 := fset.AddFile("test", -1, 10)

	cases := []struct {
		pos  Pos
		mode PosMode
		want string
	}{
		{NoPos, PosLong, "test:-:-"},
		{NoPos, PosOffsets, "-"},
		{NoPos, PosRaw, "0"},
		{NoPos, PosNone, ""},
		{f0.Pos(0), PosLong, "test:1:1"},
		{f0.Pos(0), PosOffsets, "0"},
		{f0.Pos(0), PosRaw, fmt.Sprintf("%d", f0.Pos(0))},
		{f0.Pos(9), PosLong, "test:1:10"},
		{f0.Pos(9), PosOffsets, "9"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%d:%s", c.pos, c.mode), func(t *testing.T) {
			got := FormatPos(c.mode, f0, c.pos, true)
			assert.Equal(t, c.want, got)
		})
	}

	assert.Equal(t, ":1:1", FormatPos(PosLong, f0, f0.Pos(0), false))
}

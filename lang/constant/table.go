// Package constant implements the constant table the compiler interns
// scalar literals into: characters, floats, integers,
// and strings backed by a shared, monotonically growing byte pool. Booleans
// and bytes never reach this package — they fit in 16 bits and are encoded
// directly into an Address by the compiler, so the table only needs to de-duplicate the four constant kinds
// that don't.
package constant

import "github.com/dolthub/swiss"

// PoolRange is a half-open [Start, End) slice of the shared string pool.
// Two ranges where a.End == b.Start are byte-adjacent and can be fused into
// one wider range without copying.
type PoolRange struct {
	Start uint32
	End   uint32
}

// Table interns scalar constants. It grows monotonically during
// compilation; there is no finalize step required for correctness.
//
// The de-duplicating index maps are backed by dolthub/swiss.Map, the
// open-addressing hash map the resolver's lookup tables also use.
type Table struct {
	characters []rune
	floats     []float64
	integers   []int64
	strings    []PoolRange

	characterIndex *swiss.Map[rune, uint32]
	floatIndex     *swiss.Map[float64, uint32]
	integerIndex   *swiss.Map[int64, uint32]
	stringIndex    *swiss.Map[PoolRange, uint32]

	pool []byte
}

// New creates an empty constant table.
func New() *Table {
	return &Table{
		characterIndex: swiss.NewMap[rune, uint32](8),
		floatIndex:     swiss.NewMap[float64, uint32](8),
		integerIndex:   swiss.NewMap[int64, uint32](8),
		stringIndex:    swiss.NewMap[PoolRange, uint32](8),
	}
}

// AddCharacter interns a character constant, returning its existing index if
// already present.
func (t *Table) AddCharacter(c rune) uint32 {
	if idx, ok := t.characterIndex.Get(c); ok {
		return idx
	}
	idx := uint32(len(t.characters))
	t.characters = append(t.characters, c)
	t.characterIndex.Put(c, idx)
	return idx
}

// AddFloat interns a float constant. NaN is never de-duplicated against
// itself (NaN != NaN), matching IEEE-754 equality and mirroring how the
// source language's own float comparisons behave.
func (t *Table) AddFloat(f float64) uint32 {
	if f == f { // skip the interning map entirely for NaN
		if idx, ok := t.floatIndex.Get(f); ok {
			return idx
		}
	}
	idx := uint32(len(t.floats))
	t.floats = append(t.floats, f)
	if f == f {
		t.floatIndex.Put(f, idx)
	}
	return idx
}

// AddInteger interns an integer constant.
func (t *Table) AddInteger(i int64) uint32 {
	if idx, ok := t.integerIndex.Get(i); ok {
		return idx
	}
	idx := uint32(len(t.integers))
	t.integers = append(t.integers, i)
	t.integerIndex.Put(i, idx)
	return idx
}

// PushStrToStringPool appends bytes to the shared string pool and returns
// the half-open range they occupy. It never interns: every call grows the
// pool, even for byte-identical content, so that adjacent pushes remain
// physically adjacent and eligible for fusion (see AddPooledString).
func (t *Table) PushStrToStringPool(bytes []byte) PoolRange {
	start := uint32(len(t.pool))
	t.pool = append(t.pool, bytes...)
	return PoolRange{Start: start, End: uint32(len(t.pool))}
}

// GetStringPoolRange returns the slice of the pool named by r.
func (t *Table) GetStringPoolRange(r PoolRange) string {
	return string(t.pool[r.Start:r.End])
}

// AddPooledString interns the pool range as a string constant, returning its
// constant index. Two calls with the same range return the same index.
func (t *Table) AddPooledString(r PoolRange) uint32 {
	if idx, ok := t.stringIndex.Get(r); ok {
		return idx
	}
	idx := uint32(len(t.strings))
	t.strings = append(t.strings, r)
	t.stringIndex.Put(r, idx)
	return idx
}

// StringRange returns the raw PoolRange backing a string constant, used by
// the compiler's constant-folding path to test two strings for byte
// adjacency before deciding whether concatenation can fuse ranges instead
// of copying.
func (t *Table) StringRange(index uint32) (PoolRange, bool) {
	if int(index) >= len(t.strings) {
		return PoolRange{}, false
	}
	return t.strings[index], true
}

// FuseOrConcat returns the PoolRange holding a followed by b. When a.End ==
// b.Start the two ranges are already byte-adjacent in the pool (the common
// case for two string literals compiled back to back) and are fused
// without copying; otherwise fresh bytes are appended to the pool.
func (t *Table) FuseOrConcat(a, b PoolRange) PoolRange {
	if a.End == b.Start {
		return PoolRange{Start: a.Start, End: b.End}
	}
	content := append(append([]byte{}, t.pool[a.Start:a.End]...), t.pool[b.Start:b.End]...)
	return t.PushStrToStringPool(content)
}

// GetCharacter, GetFloat, GetInteger and GetString look a constant up by its
// index, as returned by the corresponding Add* method.
func (t *Table) GetCharacter(index uint32) (rune, bool) {
	if int(index) >= len(t.characters) {
		return 0, false
	}
	return t.characters[index], true
}

func (t *Table) GetFloat(index uint32) (float64, bool) {
	if int(index) >= len(t.floats) {
		return 0, false
	}
	return t.floats[index], true
}

func (t *Table) GetInteger(index uint32) (int64, bool) {
	if int(index) >= len(t.integers) {
		return 0, false
	}
	return t.integers[index], true
}

func (t *Table) GetString(index uint32) (string, bool) {
	if int(index) >= len(t.strings) {
		return "", false
	}
	return t.GetStringPoolRange(t.strings[index]), true
}

// CharacterCount, FloatCount, IntegerCount and StringCount report how many
// constants of each kind have been interned, used by the disassembler, the
// compile command's JSON summary and this package's de-duplication tests.
func (t *Table) CharacterCount() int { return len(t.characters) }
func (t *Table) FloatCount() int     { return len(t.floats) }
func (t *Table) IntegerCount() int   { return len(t.integers) }
func (t *Table) StringCount() int    { return len(t.strings) }

package compiler

// NativeTable assigns stable indices to native function names as they are
// first referenced by a CALL_NATIVE site, mirroring how
// Compiler.ensurePrototypeCompiled lazily assigns Program-level prototype
// indices to user-defined functions. Native functions (print, string
// conversion helpers, and so on) have no syntax tree of their own — they
// are implemented by whatever consumes a compiled Program — so there is
// nothing to compile, only a name to number.
type NativeTable struct {
	names []string
	index map[string]uint16
}

// NewNativeTable creates an empty table.
func NewNativeTable() *NativeTable {
	return &NativeTable{index: map[string]uint16{}}
}

// IndexOf returns name's stable index, assigning one if this is the first
// reference.
func (n *NativeTable) IndexOf(name string) uint16 {
	if id, ok := n.index[name]; ok {
		return id
	}
	id := uint16(len(n.names))
	n.names = append(n.names, name)
	n.index[name] = id
	return id
}

// Name returns the native function name at id, for disassembly.
func (n *NativeTable) Name(id uint16) (string, bool) {
	if int(id) >= len(n.names) {
		return "", false
	}
	return n.names[id], true
}

// Names returns every native function name referenced so far, in
// assignment order (index == position).
func (n *NativeTable) Names() []string { return n.names }

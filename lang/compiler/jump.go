package compiler

import "fmt"

// AnchorId references a jump target registered with a Manager.
type AnchorId uint32

// AnchorKind says how an anchor's target instruction index is determined.
type AnchorKind uint8

const (
	// AnchorForwardFromHere fixes the anchor's target to the instruction
	// index at which it is created. Jumps placed against it later are
	// backward jumps — the canonical case being a loop re-testing its
	// condition.
	AnchorForwardFromHere AnchorKind = iota
	// AnchorForwardToNext leaves the anchor unresolved until a later call
	// to Resolve supplies "whatever instruction comes next" — the
	// canonical case being an if/else branch jumping past the alternative
	// to the join point.
	AnchorForwardToNext
	// AnchorLoopStartHere is AnchorForwardFromHere specialized to a loop's
	// condition re-check point, used by "continue"-shaped jumps.
	AnchorLoopStartHere
	// AnchorLoopEndOnNext is AnchorForwardToNext specialized to a loop's
	// exit point, used by "break"-shaped jumps.
	AnchorLoopEndOnNext
)

// PlacementKind says how a registered jump is represented in the
// instruction stream.
type PlacementKind uint8

const (
	// PlacementStandaloneJump: the placement's InstructionIndex names a
	// JUMP instruction whose JumpDistance/JumpIsPositive fields are filled
	// in at Finish.
	PlacementStandaloneJump PlacementKind = iota
	// PlacementCoalesceMove: InstructionIndex names a MOVE instruction
	// already emitted for an unrelated reason; its jump fields are reused
	// to also perform this jump, eliding a standalone JUMP.
	PlacementCoalesceMove
	// PlacementCoalesceTest: InstructionIndex names a TEST instruction;
	// its JumpDistance field is filled in at Finish. TEST jumps are always
	// forward (it skips the next instruction on failure), so this
	// placement kind never carries a direction.
	PlacementCoalesceTest
	// PlacementCoalesceJumpDrop: InstructionIndex names a JUMP instruction
	// that also needs a drop-list range patched into its RangeStart/
	// RangeEnd fields, eliding a standalone DROP.
	PlacementCoalesceJumpDrop
)

// Placement is one registered use of an anchor: "when you resolve anchor,
// come back and patch InstructionIndex".
type Placement struct {
	Anchor           AnchorId
	InstructionIndex int
	Kind             PlacementKind
	DropStart        uint16
	DropEnd          uint16
}

// Manager tracks jump anchors and their placements across a function
// compilation, resolving every jump's relative distance and direction in
// one pass at Finish.
type Manager struct {
	targets    []int // -1 means unresolved
	placements []Placement
}

// NewManager creates an empty jump manager.
func NewManager() *Manager { return &Manager{} }

// NewAnchor registers a new anchor. For the *Here kinds its target is the
// current instruction index; for the *OnNext kinds the target is left
// unresolved until Resolve is called.
func (m *Manager) NewAnchor(kind AnchorKind, currentInstructionIndex int) AnchorId {
	id := AnchorId(len(m.targets))
	switch kind {
	case AnchorForwardFromHere, AnchorLoopStartHere:
		m.targets = append(m.targets, currentInstructionIndex)
	default:
		m.targets = append(m.targets, -1)
	}
	return id
}

// Resolve supplies the deferred target instruction index for an
// AnchorForwardToNext/AnchorLoopEndOnNext anchor. It is a programming error
// to resolve an anchor twice or to resolve a *Here anchor.
func (m *Manager) Resolve(id AnchorId, instructionIndex int) {
	if m.targets[id] != -1 {
		panic(fmt.Sprintf("jump: anchor %d resolved more than once", id))
	}
	m.targets[id] = instructionIndex
}

// PlaceJump registers a standalone JUMP instruction at instructionIndex
// that should jump to anchor.
func (m *Manager) PlaceJump(anchor AnchorId, instructionIndex int) {
	m.placements = append(m.placements, Placement{Anchor: anchor, InstructionIndex: instructionIndex, Kind: PlacementStandaloneJump})
}

// PlaceMoveCoalesce registers an already-emitted MOVE at instructionIndex
// whose jump fields should be patched to jump to anchor.
func (m *Manager) PlaceMoveCoalesce(anchor AnchorId, instructionIndex int) {
	m.placements = append(m.placements, Placement{Anchor: anchor, InstructionIndex: instructionIndex, Kind: PlacementCoalesceMove})
}

// PlaceTestCoalesce registers an already-emitted TEST at instructionIndex
// whose JumpDistance should be patched to jump to anchor.
func (m *Manager) PlaceTestCoalesce(anchor AnchorId, instructionIndex int) {
	m.placements = append(m.placements, Placement{Anchor: anchor, InstructionIndex: instructionIndex, Kind: PlacementCoalesceTest})
}

// PlaceJumpWithDrops registers a standalone JUMP at instructionIndex that
// jumps to anchor and also carries the [start,end) drop-list range that
// would otherwise need its own DROP instruction.
func (m *Manager) PlaceJumpWithDrops(anchor AnchorId, instructionIndex int, start, end uint16) {
	m.placements = append(m.placements, Placement{Anchor: anchor, InstructionIndex: instructionIndex, Kind: PlacementCoalesceJumpDrop, DropStart: start, DropEnd: end})
}

// relative computes the distance and direction a jump instruction at index
// from must encode to land on target, where distance is measured from the
// instruction immediately following from (the position the program
// counter holds once the jump instruction itself has executed).
func relative(target, from int) (distance uint16, positive bool) {
	diff := target - (from + 1)
	if diff < 0 {
		return uint16(-diff), false
	}
	return uint16(diff), true
}

// Finish resolves every registered placement against its anchor's target
// and patches the corresponding fields directly into instructions. Every
// anchor referenced by a placement must have been resolved by this point;
// Finish panics otherwise, since an unresolved anchor means a caller in
// this package forgot to close a branch or loop it opened.
func (m *Manager) Finish(instructions []Instruction) {
	for _, p := range m.placements {
		target := m.targets[p.Anchor]
		if target == -1 {
			panic(fmt.Sprintf("jump: anchor %d was never resolved", p.Anchor))
		}
		distance, positive := relative(target, p.InstructionIndex)
		switch p.Kind {
		case PlacementStandaloneJump:
			instructions[p.InstructionIndex].JumpDistance = distance
			instructions[p.InstructionIndex].JumpIsPositive = positive
		case PlacementCoalesceMove:
			instructions[p.InstructionIndex].JumpDistance = distance
			instructions[p.InstructionIndex].JumpIsPositive = positive
		case PlacementCoalesceTest:
			if !positive {
				panic("jump: TEST cannot coalesce a backward jump")
			}
			instructions[p.InstructionIndex].JumpDistance = distance
		case PlacementCoalesceJumpDrop:
			instructions[p.InstructionIndex].JumpDistance = distance
			instructions[p.InstructionIndex].JumpIsPositive = positive
			instructions[p.InstructionIndex].RangeStart = p.DropStart
			instructions[p.InstructionIndex].RangeEnd = p.DropEnd
		}
	}
}

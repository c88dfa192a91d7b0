package compiler

import "github.com/sirupsen/logrus"

// RegisterAllocator partitions a function's register file into two
// contiguous ranges: locals occupy [0,
// nextLocalRegister) and temporaries occupy [nextLocalRegister,
// nextTemporaryRegister). ExitScope reclaims both the locals and the
// temporaries allocated since the matching EnterScope, via ScopeMark.
type RegisterAllocator struct {
	nextLocalRegister     uint16
	nextTemporaryRegister uint16
	highWaterMark         uint16

	log *logrus.Entry
}

// NewRegisterAllocator creates an allocator with both partitions empty.
// log may be nil, in which case allocation events are not traced.
func NewRegisterAllocator(log *logrus.Entry) *RegisterAllocator {
	return &RegisterAllocator{log: log}
}

func (r *RegisterAllocator) bump(reg uint16) {
	if reg+1 > r.highWaterMark {
		r.highWaterMark = reg + 1
	}
}

// AllocateLocalRegister reserves the next register in the local partition
// and pushes the temporary partition's floor past it, so a local is never
// silently clobbered by a temporary allocated before it.
func (r *RegisterAllocator) AllocateLocalRegister() uint16 {
	reg := r.nextLocalRegister
	r.nextLocalRegister++
	if r.nextTemporaryRegister < r.nextLocalRegister {
		r.nextTemporaryRegister = r.nextLocalRegister
	}
	r.bump(reg)
	if r.log != nil {
		r.log.WithField("register", reg).Trace("allocated local register")
	}
	return reg
}

// AllocateTemporaryRegister reserves the next register in the temporary
// partition.
func (r *RegisterAllocator) AllocateTemporaryRegister() uint16 {
	reg := r.nextTemporaryRegister
	r.nextTemporaryRegister++
	r.bump(reg)
	if r.log != nil {
		r.log.WithField("register", reg).Trace("allocated temporary register")
	}
	return reg
}

// FreeTemporaryRegisters rewinds the temporary partition's floor back to
// watermark, making every temporary allocated since reusable. Locals are
// untouched.
func (r *RegisterAllocator) FreeTemporaryRegisters(watermark uint16) {
	r.nextTemporaryRegister = watermark
}

// NextTemporaryRegister reports the temporary partition's current
// watermark, to be passed back to FreeTemporaryRegisters later.
func (r *RegisterAllocator) NextTemporaryRegister() uint16 { return r.nextTemporaryRegister }

// ScopeMark snapshots both partitions' watermarks on scope entry, to be
// restored on scope exit.
type ScopeMark struct {
	LocalWatermark     uint16
	TemporaryWatermark uint16
}

// EnterScope records the allocator's current state so a later ExitScope
// call can reclaim everything allocated inside the scope.
func (r *RegisterAllocator) EnterScope() ScopeMark {
	return ScopeMark{LocalWatermark: r.nextLocalRegister, TemporaryWatermark: r.nextTemporaryRegister}
}

// ExitScope restores the allocator to the state captured by mark and
// reports the half-open range of local registers that just went out of
// scope. A block's DROP instruction does not use this range; it indexes
// the prototype's DropLists instead (see FunctionCompiler.exitBlockScope).
func (r *RegisterAllocator) ExitScope(mark ScopeMark) (droppedStart, droppedEnd uint16) {
	droppedStart = mark.LocalWatermark
	droppedEnd = r.nextLocalRegister
	r.nextLocalRegister = mark.LocalWatermark
	r.nextTemporaryRegister = mark.TemporaryWatermark
	if r.log != nil {
		r.log.WithFields(logrus.Fields{"start": droppedStart, "end": droppedEnd}).Trace("exited scope")
	}
	return droppedStart, droppedEnd
}

// RegisterCount reports the total number of registers the function ever
// used, the size its VM-level register file (or, for this repository's
// purposes, its Prototype) needs to allocate.
func (r *RegisterAllocator) RegisterCount() uint16 { return r.highWaterMark }

package compiler

import (
	"bytes"
	"fmt"
)

// Disassemble renders a compiled Program to human-readable text: a small
// buffering struct with write/writef helpers, one section per concern,
// each instruction printed on its own numbered line. Unlike a typical
// assembler/disassembler pair, this is output-only — Instruction is a
// plain Go struct rather than a packed byte-code stream, so there is no
// matching assembler to round-trip through.
func Disassemble(p *Program) string {
	d := &disasm{p: p, buf: new(bytes.Buffer)}
	d.constants()
	d.natives()
	for i, proto := range p.Prototypes {
		if i > 0 {
			d.write("\n")
		}
		d.prototype(uint32(i), proto)
	}
	return d.buf.String()
}

type disasm struct {
	p   *Program
	buf *bytes.Buffer
}

func (d *disasm) write(s string)               { d.buf.WriteString(s) }
func (d *disasm) writef(s string, args ...any) { fmt.Fprintf(d.buf, s, args...) }

func (d *disasm) constants() {
	c := d.p.Constants
	if c.IntegerCount() == 0 && c.FloatCount() == 0 && c.CharacterCount() == 0 && c.StringCount() == 0 {
		return
	}
	d.write("constants:\n")
	for i := 0; i < c.IntegerCount(); i++ {
		v, _ := c.GetInteger(uint32(i))
		d.writef("\tinteger\t%d\t# %03d\n", v, i)
	}
	for i := 0; i < c.FloatCount(); i++ {
		v, _ := c.GetFloat(uint32(i))
		d.writef("\tfloat\t%g\t# %03d\n", v, i)
	}
	for i := 0; i < c.CharacterCount(); i++ {
		v, _ := c.GetCharacter(uint32(i))
		d.writef("\tcharacter\t%q\t# %03d\n", v, i)
	}
	for i := 0; i < c.StringCount(); i++ {
		v, _ := c.GetString(uint32(i))
		d.writef("\tstring\t%q\t# %03d\n", v, i)
	}
	d.write("\n")
}

func (d *disasm) natives() {
	names := d.p.Natives.Names()
	if len(names) == 0 {
		return
	}
	d.write("natives:\n")
	for i, name := range names {
		d.writef("\t%s\t# %03d\n", name, i)
	}
	d.write("\n")
}

func (d *disasm) prototype(index uint32, proto *Prototype) {
	tag := ""
	if proto.IsMain {
		tag = " main"
	}
	d.writef("function: %s\tregisters=%d\tparams=%d%s\t# %03d\n", proto.Name, proto.RegisterCount, len(proto.Parameters), tag, index)
	for i, instr := range proto.Instructions {
		d.writef("\t%s\t# %03d\n", d.instruction(proto, instr), i)
	}
}

// instruction renders instr, additionally resolving a DROP or
// JUMP-with-drops range into the actual register numbers it names (the
// bare instruction only carries an index range into the prototype's
// DropLists).
func (d *disasm) instruction(proto *Prototype, instr Instruction) string {
	if instr.RangeEnd <= instr.RangeStart {
		return instr.String()
	}
	switch instr.Operation {
	case Drop, Jump:
		regs := proto.DropLists[instr.RangeStart:instr.RangeEnd]
		return fmt.Sprintf("%s registers=%v", instr.String(), regs)
	default:
		return instr.String()
	}
}

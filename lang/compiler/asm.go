package compiler

import (
	"fmt"
	"strings"
)

// Dasm renders p as human-readable pseudo-assembly: one function block per
// Funcode (top-level first, then Functions in declaration order), each
// instruction on its own line with its decoded operand(s). It exists for
// the disassemble command and for eyeballing what the compiler emitted
// while developing a new instruction; nothing in this package reads the
// format back in, unlike the reference compiler's round-trippable assembly
// text, so there is no matching Asm parser here.
func Dasm(p *Program) string {
	var b strings.Builder
	d := &dasm{p: p, b: &b}
	d.writef("program: %s\n", p.Filename)
	if len(p.Classes) > 0 {
		d.writef("classes:\n")
		for i, c := range p.Classes {
			d.writef("  %d: %s %v\n", i, c.Name, c.FieldSlots)
		}
	}
	if len(p.Names) > 0 {
		d.writef("names:\n")
		for i, n := range p.Names {
			d.writef("  %d: %s\n", i, n)
		}
	}
	if len(p.Constants) > 0 {
		d.writef("constants:\n")
		for i, c := range p.Constants {
			d.writef("  %d: %#v\n", i, c)
		}
	}

	d.function(p.Toplevel)
	for _, fn := range p.Functions {
		d.function(fn)
	}
	return b.String()
}

type dasm struct {
	p *Program
	b *strings.Builder
}

func (d *dasm) writef(format string, args ...any) {
	fmt.Fprintf(d.b, format, args...)
}

func (d *dasm) function(fn *Funcode) {
	owner := ""
	if fn.Owner != "" {
		owner = " owner=" + fn.Owner
	}
	d.writef("\nfunction: %s params=%d maxstack=%d%s\n", fn.Name, fn.NumParams, fn.MaxStack, owner)
	if len(fn.Locals) > 0 {
		d.writef("locals:\n")
		for i, l := range fn.Locals {
			cell := ""
			if fn.IsCell(i) {
				cell = " (cell)"
			}
			d.writef("  %d: %s%s\n", i, l.Name, cell)
		}
	}
	if len(fn.Upvalues) > 0 {
		d.writef("upvalues:\n")
		for i, u := range fn.Upvalues {
			from := "enclosing local"
			if !u.FromLocal {
				from = "enclosing upvalue"
			}
			d.writef("  %d: %s %d\n", i, from, u.Index)
		}
	}

	d.writef("code:\n")
	code := fn.Code
	for ip := 0; ip < len(code); {
		addr := ip
		word := Opcode(uint32(code[ip])<<24 | uint32(code[ip+1])<<16 | uint32(code[ip+2])<<8 | uint32(code[ip+3]))
		ip += 4
		op := word.Main()
		sec := word.Secondary()

		width := operandWidth(op)
		var operand string
		switch {
		case op == CLOSURE:
			funIdx := int(code[ip])<<8 | int(code[ip+1])
			ip += 2
			nup := int(code[ip])<<8 | int(code[ip+1])
			ip += 2
			var ups []string
			for i := 0; i < nup; i++ {
				fromLocal := code[ip] == 1
				ip++
				idx := int(code[ip])<<8 | int(code[ip+1])
				ip += 2
				kind := "upvalue"
				if fromLocal {
					kind = "local"
				}
				ups = append(ups, fmt.Sprintf("%s:%d", kind, idx))
			}
			target := "?"
			if funIdx < len(d.p.Functions) {
				target = d.p.Functions[funIdx].Name
			}
			operand = fmt.Sprintf("%d(%s) [%s]", funIdx, target, strings.Join(ups, " "))
		case width == 1:
			operand = fmt.Sprintf("%d", code[ip])
			ip++
		case width == 2:
			v := int(code[ip])<<8 | int(code[ip+1])
			ip += 2
			operand = d.decodeU16(op, v, addr)
		case width == 3:
			name := int(code[ip])<<8 | int(code[ip+1])
			argc := int(code[ip+2])
			ip += 3
			operand = fmt.Sprintf("%s argc=%d", d.name(name), argc)
		default:
			operand = ""
		}

		secStr := ""
		if sec != 0 {
			secStr = fmt.Sprintf(" sec=0x%x", sec)
		}
		if operand != "" {
			d.writef("  %4d: %-16s %s%s\n", addr, op.String(), operand, secStr)
		} else {
			d.writef("  %4d: %-16s%s\n", addr, op.String(), secStr)
		}
	}
}

// decodeU16 renders a two-byte operand in the unit it addresses: a jump
// target as an absolute instruction address, a name/constant/class index
// resolved to the thing it names, anything else as a bare slot number.
func (d *dasm) decodeU16(op MainOp, v, addr int) string {
	switch {
	case isJump(op):
		if op == LOOP {
			return fmt.Sprintf("-> %d", addr+6-v)
		}
		return fmt.Sprintf("-> %d", addr+6+v)
	case op == GET_GLOBAL, op == SET_GLOBAL, op == DEFINE_GLOBAL, op == GET_PREDECLARED,
		op == GET_PROPERTY, op == SET_PROPERTY, op == GET_SUPER, op == METHOD, op == INSTANCE:
		return d.name(v)
	case op == CLASS:
		if v < len(d.p.Classes) {
			return fmt.Sprintf("%d(%s)", v, d.p.Classes[v].Name)
		}
		return fmt.Sprintf("%d", v)
	case op == CONSTANT:
		if v < len(d.p.Constants) {
			return fmt.Sprintf("%d(%#v)", v, d.p.Constants[v])
		}
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func (d *dasm) name(i int) string {
	if i >= 0 && i < len(d.p.Names) {
		return fmt.Sprintf("%d(%s)", i, d.p.Names[i])
	}
	return fmt.Sprintf("%d", i)
}

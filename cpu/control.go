// control.go - the supplemented control-transfer family (component D,
// [NEW] per SPEC_FULL.md): JMP, the 16 Jcc conditions, CALL/RET, the LOOP
// family, SETcc and INT. Condition evaluation is shared between Jcc and
// SETcc exactly as teacher cpu_x86_ops.go's setcc()/opSETxx functions share
// it with the conditional jumps.
package cpu

func registerControl(c *CPU) {
	c.baseOps[0xEB] = func(c *CPU) { c.jmpRel(1) }
	c.baseOps[0xE9] = func(c *CPU) { c.jmpRel(c.OperandSize()) }

	for cc := byte(0); cc < 16; cc++ {
		cc := cc
		c.baseOps[0x70+cc] = func(c *CPU) { c.jcc(cc, 1) }
		c.extOps[0x80+cc] = func(c *CPU) { c.jcc(cc, c.OperandSize()) }
		c.extOps[0x90+cc] = func(c *CPU) { c.setcc(cc) }
	}

	c.baseOps[0xE8] = func(c *CPU) { c.callRel() }
	c.baseOps[0xC3] = func(c *CPU) { c.ret(0) }
	c.baseOps[0xC2] = func(c *CPU) { c.ret(int(c.fetch16())) }

	c.baseOps[0xE2] = func(c *CPU) { c.loop(loopPlain) }
	c.baseOps[0xE1] = func(c *CPU) { c.loop(loopE) }
	c.baseOps[0xE0] = func(c *CPU) { c.loop(loopNE) }

	c.baseOps[0xCD] = func(c *CPU) { c.int_(c.fetch8()) }
}

// jmpRel implements JMP rel8/rel32: EIP += sign-extended displacement.
func (c *CPU) jmpRel(dispSize int) {
	disp := c.fetchImmSigned(dispSize)
	c.EIP = uint32(int32(c.EIP) + disp)
}

// condition evaluates one of the 16 standard x86 condition codes against
// the current flags.
func (c *CPU) condition(cc byte) bool {
	f := c.Regs.EFLAGS()
	switch cc & 0x0E {
	case 0x00:
		return f.OF() != (cc&1 != 0)
	case 0x02:
		return f.CF() != (cc&1 != 0)
	case 0x04:
		return f.ZF() != (cc&1 != 0)
	case 0x06:
		return (f.CF() || f.ZF()) != (cc&1 != 0)
	case 0x08:
		return f.SF() != (cc&1 != 0)
	case 0x0A:
		return f.PF() != (cc&1 != 0)
	case 0x0C:
		return (f.SF() != f.OF()) != (cc&1 != 0)
	default: // 0x0E
		return (f.ZF() || (f.SF() != f.OF())) != (cc&1 != 0)
	}
}

func (c *CPU) jcc(cc byte, dispSize int) {
	disp := c.fetchImmSigned(dispSize)
	if c.condition(cc) {
		c.EIP = uint32(int32(c.EIP) + disp)
	}
}

func (c *CPU) setcc(cc byte) {
	rm, _ := c.ProcessModRM(1)
	if c.condition(cc) {
		c.WriteOperand(rm, 1)
	} else {
		c.WriteOperand(rm, 0)
	}
}

func (c *CPU) callRel() {
	disp := c.fetchImmSigned(c.OperandSize())
	c.push(c.EIP, c.OperandSize())
	c.EIP = uint32(int32(c.EIP) + disp)
}

func (c *CPU) ret(extraPop int) {
	size := c.OperandSize()
	target := c.pop(size)
	if extraPop != 0 {
		c.Regs.Set(RegESP, 4, c.Regs.Get(RegESP, 4)+uint32(extraPop))
	}
	c.EIP = target
}

type loopKind int

const (
	loopPlain loopKind = iota
	loopE
	loopNE
)

// loop implements LOOP/LOOPE/LOOPNE: ECX (or CX, under the address-size
// prefix) is decremented first, then the branch is taken if ECX != 0 and,
// for LOOPE/LOOPNE, ZF agrees.
func (c *CPU) loop(kind loopKind) {
	disp := c.fetchImmSigned(1)
	size := c.AddressSize()
	count := (c.Regs.Get(RegECX, size) - 1) & sizeMask(size)
	c.Regs.Set(RegECX, size, count)

	take := count != 0
	switch kind {
	case loopE:
		take = take && c.Regs.EFLAGS().ZF()
	case loopNE:
		take = take && !c.Regs.EFLAGS().ZF()
	}
	if take {
		c.EIP = uint32(int32(c.EIP) + disp)
	}
}

// int_ handles the INT imm8 opcode. Vector 0x80 is this core's Linux
// syscall entry point (spec.md §4.F); every other vector is a no-op, since
// this core implements no IDT.
func (c *CPU) int_(vector byte) {
	if vector == 0x80 && c.SyscallHandler != nil {
		c.SyscallHandler(c)
	}
}

// grp5Control handles the control-transfer members of the 0xFF group that
// stack.go's grp5 defers here: reg=2 CALL r/m32 (near, indirect), reg=4 JMP
// r/m32 (near, indirect). Far variants (reg=3,5) and reg=7 are not part of
// this core's supplemented instruction set.
func (c *CPU) grp5Control(reg uint32, rm Operand) {
	switch reg {
	case 2:
		target := c.ReadOperand(rm)
		c.push(c.EIP, c.OperandSize())
		c.EIP = target
	case 4:
		c.EIP = c.ReadOperand(rm)
	}
}

// alu.go - arithmetic and logical instruction family (component D):
// ADD/ADC/SUB/SBB/CMP/AND/OR/XOR/TEST/NEG/NOT/INC/DEC and their flags,
// grounded in teacher cpu_x86.go's setFlagsArith8/16/32 and
// setFlagsLogic8/16/32, generalized to a single size-parameterized
// implementation (spec.md §4.D computes "at full precision" regardless of
// width, which is what justifies unifying the teacher's three near-
// identical functions into one).
package cpu

func sizeMask(size int) uint32 {
	switch size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func signBitFor(size int) uint32 {
	return 1 << uint(size*8-1)
}

// setFlagsArith sets OF/CF/SF/ZF/AF/PF from a full-precision (64-bit)
// result and the size-masked operands, and returns the truncated result.
// full already has any carry-in/borrow-in folded in (ADC/SBB), so CF and
// the result reflect it correctly, but OF and AF are sign/nibble rules
// over the *original* operands plus the carry-in itself — folding the
// carry into b first and handing that through would answer "did a+b2
// overflow" instead of "did a+b+carry overflow", which is a different
// question whenever the carry flips b's sign or nibble-4 bit. carryIn is
// 0 for plain ADD/SUB/CMP/NEG and the incoming CF for ADC/SBB.
func (c *CPU) setFlagsArith(full uint64, a, b uint32, size int, sub bool, carryIn uint32) uint32 {
	mask := sizeMask(size)
	sign := signBitFor(size)
	r := uint32(full) & mask

	f := c.Regs.EFLAGS()
	f.SetCF(full > uint64(mask))
	f.SetZF(r == 0)
	f.SetSF(r&sign != 0)
	f.SetPF(parity(byte(r)))

	if sub {
		f.SetOF((a^b)&(a^r)&sign != 0)
		f.SetAF(a&0x0F < (b&0x0F)+carryIn)
	} else {
		f.SetOF(^(a^b)&(a^r)&sign != 0)
		f.SetAF((a&0x0F)+(b&0x0F)+carryIn > 0x0F)
	}
	return r
}

// setFlagsLogic sets CF=0, OF=0, SF/ZF/PF from result; AF is left
// undefined (unchanged), matching teacher setFlagsLogic8/16/32.
func (c *CPU) setFlagsLogic(result uint32, size int) uint32 {
	mask := sizeMask(size)
	sign := signBitFor(size)
	r := result & mask

	f := c.Regs.EFLAGS()
	f.SetCF(false)
	f.SetOF(false)
	f.SetZF(r == 0)
	f.SetSF(r&sign != 0)
	f.SetPF(parity(byte(r)))
	return r
}

type aluFamily int

const (
	aluADD aluFamily = iota
	aluOR
	aluADC
	aluSBB
	aluAND
	aluSUB
	aluXOR
	aluCMP
)

// aluApply computes family(a, b) at size, sets flags and returns the
// truncated result. For CMP the result is computed and flags set but the
// caller must not write it back.
func (c *CPU) aluApply(family aluFamily, a, b uint32, size int) uint32 {
	mask := sizeMask(size)
	a &= mask
	b &= mask

	carry := uint32(0)
	if c.Regs.EFLAGS().CF() {
		carry = 1
	}

	switch family {
	case aluADD:
		return c.setFlagsArith(uint64(a)+uint64(b), a, b, size, false, 0)
	case aluADC:
		return c.setFlagsArith(uint64(a)+uint64(b)+uint64(carry), a, b, size, false, carry)
	case aluSUB, aluCMP:
		return c.setFlagsArith(uint64(a)-uint64(b), a, b, size, true, 0)
	case aluSBB:
		return c.setFlagsArith(uint64(a)-uint64(b)-uint64(carry), a, b, size, true, carry)
	case aluAND:
		return c.setFlagsLogic(a&b, size)
	case aluOR:
		return c.setFlagsLogic(a|b, size)
	case aluXOR:
		return c.setFlagsLogic(a^b, size)
	}
	return 0
}

// aluNeg implements NEG as 0 - a, which reproduces the CF="a != 0",
// OF/SF/ZF/AF/PF-per-result rules spec.md §4.D specifies, since they fall
// directly out of the SUB flag formulas with a forced to zero.
func (c *CPU) aluNeg(a uint32, size int) uint32 {
	mask := sizeMask(size)
	a &= mask
	return c.setFlagsArith(uint64(0)-uint64(a), 0, a, size, true, 0)
}

// ---------------------------------------------------------------------
// Opcode registration
// ---------------------------------------------------------------------

func registerALU(c *CPU) {
	type fam struct {
		family aluFamily
		base   byte
	}
	families := []fam{
		{aluADD, 0x00}, {aluOR, 0x08}, {aluADC, 0x10}, {aluSBB, 0x18},
		{aluAND, 0x20}, {aluSUB, 0x28}, {aluXOR, 0x30}, {aluCMP, 0x38},
	}
	for _, fm := range families {
		fm := fm
		c.baseOps[fm.base+0x00] = func(c *CPU) { c.aluEbGb(fm.family) }
		c.baseOps[fm.base+0x01] = func(c *CPU) { c.aluEvGv(fm.family) }
		c.baseOps[fm.base+0x02] = func(c *CPU) { c.aluGbEb(fm.family) }
		c.baseOps[fm.base+0x03] = func(c *CPU) { c.aluGvEv(fm.family) }
		c.baseOps[fm.base+0x04] = func(c *CPU) { c.aluALIb(fm.family) }
		c.baseOps[fm.base+0x05] = func(c *CPU) { c.aluEAXIz(fm.family) }
	}

	c.baseOps[0x80] = opGrp1(1, 1)
	c.baseOps[0x81] = opGrp1(0, 0) // size = operand size, imm = operand size (Iz)
	c.baseOps[0x83] = opGrp1(0, 1) // size = operand size, imm = Ib sign-extended

	c.baseOps[0x84] = func(c *CPU) { c.testEbGb() }
	c.baseOps[0x85] = func(c *CPU) { c.testEvGv() }
	c.baseOps[0xA8] = func(c *CPU) { c.testALIb() }
	c.baseOps[0xA9] = func(c *CPU) { c.testEAXIz() }

	c.baseOps[0xF6] = func(c *CPU) { c.grp3(1) }
	c.baseOps[0xF7] = func(c *CPU) { c.grp3(0) }

	for r := 0; r < 8; r++ {
		c.baseOps[0x40+r] = func(c *CPU) { c.incDecReg(r, true) }
		c.baseOps[0x48+r] = func(c *CPU) { c.incDecReg(r, false) }
	}
}

func (c *CPU) aluEbGb(f aluFamily) {
	rm, reg := c.ProcessModRM(1)
	a := c.ReadOperand(rm)
	b := c.ReadOperand(reg)
	r := c.aluApply(f, a, b, 1)
	if f != aluCMP {
		c.WriteOperand(rm, r)
	}
}

func (c *CPU) aluEvGv(f aluFamily) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	a := c.ReadOperand(rm)
	b := c.ReadOperand(reg)
	r := c.aluApply(f, a, b, size)
	if f != aluCMP {
		c.WriteOperand(rm, r)
	}
}

func (c *CPU) aluGbEb(f aluFamily) {
	rm, reg := c.ProcessModRM(1)
	a := c.ReadOperand(reg)
	b := c.ReadOperand(rm)
	r := c.aluApply(f, a, b, 1)
	if f != aluCMP {
		c.WriteOperand(reg, r)
	}
}

func (c *CPU) aluGvEv(f aluFamily) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	a := c.ReadOperand(reg)
	b := c.ReadOperand(rm)
	r := c.aluApply(f, a, b, size)
	if f != aluCMP {
		c.WriteOperand(reg, r)
	}
}

func (c *CPU) aluALIb(f aluFamily) {
	a := c.Regs.Get(RegEAX, 1)
	b := c.fetchImm(1)
	r := c.aluApply(f, a, b, 1)
	if f != aluCMP {
		c.Regs.Set(RegEAX, 1, r)
	}
}

func (c *CPU) aluEAXIz(f aluFamily) {
	size := c.OperandSize()
	a := c.Regs.Get(RegEAX, size)
	b := c.fetchImm(size)
	r := c.aluApply(f, a, b, size)
	if f != aluCMP {
		c.Regs.Set(RegEAX, size, r)
	}
}

// opGrp1 builds the 0x80/0x81/0x83 handler. When size8 is true the operand
// is always a byte (0x80); otherwise it is the current operand size. When
// imm8 is true the immediate is one sign-extended byte (0x83); otherwise it
// matches the operand width (0x81).
func opGrp1(size8, imm8 int) OpHandler {
	return func(c *CPU) {
		size := c.OperandSize()
		if size8 == 1 {
			size = 1
		}
		rm, reg := c.ProcessModRM(size)
		a := c.ReadOperand(rm)

		var b uint32
		if imm8 == 1 {
			b = uint32(int32(int8(c.fetch8())))
			b &= sizeMask(size)
		} else {
			b = c.fetchImm(size)
		}

		family := grp1Family(byte(reg.Value))
		r := c.aluApply(family, a, b, size)
		if family != aluCMP {
			c.WriteOperand(rm, r)
		}
	}
}

// grp1Family maps a ModR/M reg field to its Group-1 family, per spec.md
// §4.D ("AND=4, OR=1, XOR=6").
func grp1Family(reg byte) aluFamily {
	switch reg {
	case 0:
		return aluADD
	case 1:
		return aluOR
	case 2:
		return aluADC
	case 3:
		return aluSBB
	case 4:
		return aluAND
	case 5:
		return aluSUB
	case 6:
		return aluXOR
	default:
		return aluCMP
	}
}

func (c *CPU) testEbGb() {
	rm, reg := c.ProcessModRM(1)
	c.setFlagsLogic(c.ReadOperand(rm)&c.ReadOperand(reg), 1)
}

func (c *CPU) testEvGv() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	c.setFlagsLogic(c.ReadOperand(rm)&c.ReadOperand(reg), size)
}

func (c *CPU) testALIb() {
	a := c.Regs.Get(RegEAX, 1)
	b := c.fetchImm(1)
	c.setFlagsLogic(a&b, 1)
}

func (c *CPU) testEAXIz() {
	size := c.OperandSize()
	a := c.Regs.Get(RegEAX, size)
	b := c.fetchImm(size)
	c.setFlagsLogic(a&b, size)
}

// grp3 implements the 0xF6/0xF7 group: reg=0 TEST Eb/Ev,Ib/Iz; reg=2 NOT;
// reg=3 NEG. Other reg values are left unassigned (spec.md §4.D only
// defines these three for this group).
func (c *CPU) grp3(forceByte int) {
	size := c.OperandSize()
	if forceByte == 1 {
		size = 1
	}
	rm, reg := c.ProcessModRM(size)

	switch reg.Value {
	case 0:
		var imm uint32
		if size == 1 {
			imm = c.fetchImm(1)
		} else {
			imm = c.fetchImm(size)
		}
		c.setFlagsLogic(c.ReadOperand(rm)&imm, size)
	case 2:
		v := c.ReadOperand(rm)
		c.WriteOperand(rm, ^v&sizeMask(size))
	case 3:
		v := c.ReadOperand(rm)
		c.WriteOperand(rm, c.aluNeg(v, size))
	}
}

// incDecReg implements the one-byte 0x40-0x4F INC/DEC r32 forms. CF is
// preserved, the one documented exception to the ADD/SUB flag table.
func (c *CPU) incDecReg(reg int, inc bool) {
	size := c.OperandSize()
	savedCF := c.Regs.EFLAGS().CF()
	a := c.Regs.Get(reg, size)
	var r uint32
	if inc {
		r = c.aluApply(aluADD, a, 1, size)
	} else {
		r = c.aluApply(aluSUB, a, 1, size)
	}
	c.Regs.EFLAGS().SetCF(savedCF)
	c.Regs.Set(reg, size, r)
}

// incDecRM implements the Group-5 0xFF reg=0/1 INC/DEC r/m forms (stack.go's
// grp5 registers 0xFF and dispatches here).
func (c *CPU) incDecRM(rm Operand, inc bool) {
	savedCF := c.Regs.EFLAGS().CF()
	a := c.ReadOperand(rm)
	var r uint32
	if inc {
		r = c.aluApply(aluADD, a, 1, rm.Size)
	} else {
		r = c.aluApply(aluSUB, a, 1, rm.Size)
	}
	c.Regs.EFLAGS().SetCF(savedCF)
	c.WriteOperand(rm, r)
}

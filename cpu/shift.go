// shift.go - SHL/SHR/SAR and the double-shifts SHLD/SHRD (component D),
// grounded in teacher cpu_x86_grp.go's shiftRotate8/16/32 and
// opSHLD_*/opSHRD_* families.
package cpu

func registerShift(c *CPU) {
	c.baseOps[0xD0] = func(c *CPU) { c.grp2(1, shiftCountOne) }
	c.baseOps[0xD1] = func(c *CPU) { c.grp2(0, shiftCountOne) }
	c.baseOps[0xD2] = func(c *CPU) { c.grp2(1, shiftCountCL) }
	c.baseOps[0xD3] = func(c *CPU) { c.grp2(0, shiftCountCL) }
	c.baseOps[0xC0] = func(c *CPU) { c.grp2(1, shiftCountImm) }
	c.baseOps[0xC1] = func(c *CPU) { c.grp2(0, shiftCountImm) }

	c.extOps[0xA4] = func(c *CPU) { c.shld(shiftCountImm) }
	c.extOps[0xA5] = func(c *CPU) { c.shld(shiftCountCL) }
	c.extOps[0xAC] = func(c *CPU) { c.shrd(shiftCountImm) }
	c.extOps[0xAD] = func(c *CPU) { c.shrd(shiftCountCL) }
}

type shiftCountKind int

const (
	shiftCountOne shiftCountKind = iota
	shiftCountCL
	shiftCountImm
)

// grp2 implements the 0xD0-0xD3/0xC0-0xC1 group: reg field selects among
// SHL(4 or 6)/SHR(5)/SAR(7); ROL/ROR/RCL/RCR (0-3) are not part of this
// core's supplemented instruction set and are left unassigned.
func (c *CPU) grp2(forceByte int, kind shiftCountKind) {
	size := c.OperandSize()
	if forceByte == 1 {
		size = 1
	}
	rm, reg := c.ProcessModRM(size)
	count := c.shiftCount(kind)
	if count == 0 {
		return
	}

	v := c.ReadOperand(rm)
	var r uint32
	switch reg.Value {
	case 4, 6:
		r = c.shiftLeft(v, count, size)
	case 5:
		r = c.shiftRightLogical(v, count, size)
	case 7:
		r = c.shiftRightArith(v, count, size)
	default:
		return
	}
	c.WriteOperand(rm, r)
}

// shiftCount fetches and masks the shift count to 0-31 (mod 32), per
// spec.md §4.D; the immediate form reads one byte regardless of operand
// size.
func (c *CPU) shiftCount(kind shiftCountKind) uint32 {
	switch kind {
	case shiftCountOne:
		return 1
	case shiftCountCL:
		return c.Regs.Get(RegECX, 1) & 0x1F
	default:
		return uint32(c.fetch8()) & 0x1F
	}
}

func (c *CPU) shiftLeft(v, count uint32, size int) uint32 {
	mask := sizeMask(size)
	sign := signBitFor(size)
	v &= mask

	var cf, of bool
	result := v
	for i := uint32(0); i < count; i++ {
		cf = result&sign != 0
		result = (result << 1) & mask
	}
	of = (result&sign != 0) != cf

	f := c.Regs.EFLAGS()
	f.SetCF(cf)
	if count == 1 {
		f.SetOF(of)
	}
	f.SetZF(result == 0)
	f.SetSF(result&sign != 0)
	f.SetPF(parity(byte(result)))
	return result
}

func (c *CPU) shiftRightLogical(v, count uint32, size int) uint32 {
	mask := sizeMask(size)
	sign := signBitFor(size)
	v &= mask

	origSign := v&sign != 0
	var cf bool
	result := v
	for i := uint32(0); i < count; i++ {
		cf = result&1 != 0
		result >>= 1
	}

	f := c.Regs.EFLAGS()
	f.SetCF(cf)
	if count == 1 {
		f.SetOF(origSign)
	}
	f.SetZF(result == 0)
	f.SetSF(result&sign != 0)
	f.SetPF(parity(byte(result)))
	return result
}

func (c *CPU) shiftRightArith(v, count uint32, size int) uint32 {
	mask := sizeMask(size)
	sign := signBitFor(size)
	v &= mask

	signed := signExtend(v, size)
	var cf bool
	result := signed
	for i := uint32(0); i < count; i++ {
		cf = result&1 != 0
		result >>= 1
		if signed < 0 {
			result |= int64(sign)
		}
	}
	r := uint32(result) & mask

	f := c.Regs.EFLAGS()
	f.SetCF(cf)
	if count == 1 {
		f.SetOF(false)
	}
	f.SetZF(r == 0)
	f.SetSF(r&sign != 0)
	f.SetPF(parity(byte(r)))
	return r
}

func signExtend(v uint32, size int) int64 {
	switch size {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	default:
		return int64(int32(v))
	}
}

// shld implements SHLD Ev,Gv,{Ib,CL}: the low `count` bits of the r/m
// operand are replaced by the high `count` bits of reg, shifted in from the
// right. Per the Open Question decision recorded in DESIGN.md, a count
// greater than or equal to the operand width is a no-op: this is reachable
// for the 16-bit form (a mod-32 count can land in 16..31 while width==16),
// and flags/destination must be left exactly as they were. A mod-32 count
// of 0 is the same documented no-op.
func (c *CPU) shld(kind shiftCountKind) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	count := c.shiftCount(kind)
	width := uint32(size * 8)
	if count == 0 || count >= width {
		return
	}

	mask := sizeMask(size)
	sign := signBitFor(size)
	dst := c.ReadOperand(rm) & mask
	src := c.ReadOperand(reg) & mask

	combined := uint64(dst)<<count | uint64(src)>>(width-count)
	cf := combined&(uint64(1)<<width) != 0
	r := uint32(combined) & mask

	f := c.Regs.EFLAGS()
	f.SetCF(cf)
	if count == 1 {
		f.SetOF((dst^r)&sign != 0)
	}
	f.SetZF(r == 0)
	f.SetSF(r&sign != 0)
	f.SetPF(parity(byte(r)))
	c.WriteOperand(rm, r)
}

// shrd implements SHRD Ev,Gv,{Ib,CL}: the high `count` bits of the r/m
// operand are replaced by the low `count` bits of reg, shifted in from the
// left. A count of 0, or >= the operand width, is a no-op — same reasoning
// as shld above.
func (c *CPU) shrd(kind shiftCountKind) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	count := c.shiftCount(kind)
	width := uint32(size * 8)
	if count == 0 || count >= width {
		return
	}

	mask := sizeMask(size)
	sign := signBitFor(size)
	dst := c.ReadOperand(rm) & mask
	src := c.ReadOperand(reg) & mask

	cf := (dst>>(count-1))&1 != 0
	r := (dst >> count) | (src << (width - count))
	r &= mask

	f := c.Regs.EFLAGS()
	f.SetCF(cf)
	if count == 1 {
		f.SetOF((dst^r)&sign != 0)
	}
	f.SetZF(r == 0)
	f.SetSF(r&sign != 0)
	f.SetPF(parity(byte(r)))
	c.WriteOperand(rm, r)
}

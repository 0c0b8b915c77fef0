// bitscan.go - BSF/BSR (component D), grounded in teacher cpu_x86_grp.go's
// opBSF_Gv_Ev/opBSR_Gv_Ev loop-based scans.
package cpu

func registerBitScan(c *CPU) {
	c.extOps[0xBC] = func(c *CPU) { c.bsf() }
	c.extOps[0xBD] = func(c *CPU) { c.bsr() }
}

// bsf scans from bit 0 upward for the first set bit. If the source is
// zero, ZF is set and the destination is left with an undefined-but-
// deterministic value of 0 (spec.md §4.D).
func (c *CPU) bsf() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	v := c.ReadOperand(rm) & sizeMask(size)

	f := c.Regs.EFLAGS()
	if v == 0 {
		f.SetZF(true)
		c.Regs.Set(int(reg.Value), size, 0)
		return
	}
	f.SetZF(false)
	idx := 0
	for v&1 == 0 {
		v >>= 1
		idx++
	}
	c.Regs.Set(int(reg.Value), size, uint32(idx))
}

// bsr scans from the top bit downward for the first set bit.
func (c *CPU) bsr() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	v := c.ReadOperand(rm) & sizeMask(size)

	f := c.Regs.EFLAGS()
	if v == 0 {
		f.SetZF(true)
		c.Regs.Set(int(reg.Value), size, 0)
		return
	}
	f.SetZF(false)
	idx := size*8 - 1
	top := uint32(1) << uint(idx)
	for v&top == 0 {
		top >>= 1
		idx--
	}
	c.Regs.Set(int(reg.Value), size, uint32(idx))
}

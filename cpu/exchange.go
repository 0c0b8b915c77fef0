// exchange.go - XCHG and CMPXCHG (component D), grounded in teacher
// cpu_x86_ops.go's opXCHG_* family and cpu_x86_grp.go's CMPXCHG handling.
package cpu

func registerExchange(c *CPU) {
	for r := 0; r < 8; r++ {
		r := r
		c.baseOps[0x90+r] = func(c *CPU) { c.xchgEAX(r) }
	}
	c.baseOps[0x86] = func(c *CPU) { c.xchgEbGb() }
	c.baseOps[0x87] = func(c *CPU) { c.xchgEvGv() }

	c.extOps[0xB0] = func(c *CPU) { c.cmpxchg(1) }
	c.extOps[0xB1] = func(c *CPU) { c.cmpxchg(0) }
}

// xchgEAX implements 0x90-0x97: XCHG eAX,r32 (0x90 with r=0 is NOP).
func (c *CPU) xchgEAX(r int) {
	if r == 0 {
		return
	}
	size := c.OperandSize()
	a := c.Regs.Get(RegEAX, size)
	b := c.Regs.Get(r, size)
	c.Regs.Set(RegEAX, size, b)
	c.Regs.Set(r, size, a)
}

func (c *CPU) xchgEbGb() {
	rm, reg := c.ProcessModRM(1)
	a := c.ReadOperand(rm)
	b := c.ReadOperand(reg)
	c.WriteOperand(rm, b)
	c.WriteOperand(reg, a)
}

func (c *CPU) xchgEvGv() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	a := c.ReadOperand(rm)
	b := c.ReadOperand(reg)
	c.WriteOperand(rm, b)
	c.WriteOperand(reg, a)
}

// cmpxchg implements CMPXCHG Eb/Ev,Gb/Gv: compares the accumulator against
// the destination; on equality the source register is written to the
// destination, otherwise the destination is loaded into the accumulator.
// Flags always reflect the comparison. PF is the real parity of the
// compare result's low byte (the Open Question decision recorded in
// DESIGN.md: the original CMPXCHG never actually assigned PF).
func (c *CPU) cmpxchg(forceByte int) {
	size := c.OperandSize()
	if forceByte == 1 {
		size = 1
	}
	rm, reg := c.ProcessModRM(size)

	acc := c.Regs.Get(RegEAX, size)
	dst := c.ReadOperand(rm)
	src := c.ReadOperand(reg)

	c.aluApply(aluCMP, acc, dst, size)

	if acc == dst&sizeMask(size) {
		c.WriteOperand(rm, src)
	} else {
		c.Regs.Set(RegEAX, size, dst)
	}
}

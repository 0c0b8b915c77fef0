// flagops.go - CLC/STC/CLD/STD/CMC (component D), each touching only its
// named flag bit, grounded in teacher cpu_x86_ops.go's opCLC/opSTC/opCLD/
// opSTD and instructions/memory.py's cmc (via original_source/).
package cpu

func registerFlagOps(c *CPU) {
	c.baseOps[0xF8] = func(c *CPU) { c.Regs.EFLAGS().SetCF(false) }
	c.baseOps[0xF9] = func(c *CPU) { c.Regs.EFLAGS().SetCF(true) }
	c.baseOps[0xFC] = func(c *CPU) { c.Regs.EFLAGS().SetDF(false) }
	c.baseOps[0xFD] = func(c *CPU) { c.Regs.EFLAGS().SetDF(true) }
	c.baseOps[0xF5] = func(c *CPU) { f := c.Regs.EFLAGS(); f.SetCF(!f.CF()) }
}

// signext.go - CBW/CWDE and CWD/CDQ (component D), grounded in the original VM's
// instructions/memory.py cbwcwde (via original_source/) and the analogous
// cwdcdq handling in cpu_x86_ops.go.
package cpu

func registerSignExtend(c *CPU) {
	c.baseOps[0x98] = func(c *CPU) { c.cbwCwde() }
	c.baseOps[0x99] = func(c *CPU) { c.cwdCdq() }
}

// cbwCwde implements CBW (16-bit operand size: sign-extend AL into AX) and
// CWDE (32-bit: sign-extend AX into EAX), selected by the operand-size
// prefix.
func (c *CPU) cbwCwde() {
	if c.opSize16 {
		al := int8(c.Regs.Get(RegEAX, 1))
		c.Regs.Set(RegEAX, 2, uint32(uint16(int16(al))))
		return
	}
	ax := int16(c.Regs.Get(RegEAX, 2))
	c.Regs.Set(RegEAX, 4, uint32(int32(ax)))
}

// cwdCdq implements CWD (sign-extend AX's top bit across DX) and CDQ
// (sign-extend EAX's top bit across EDX).
func (c *CPU) cwdCdq() {
	if c.opSize16 {
		ax := int16(c.Regs.Get(RegEAX, 2))
		var dx uint16
		if ax < 0 {
			dx = 0xFFFF
		}
		c.Regs.Set(RegEDX, 2, uint32(dx))
		return
	}
	eax := int32(c.Regs.Get(RegEAX, 4))
	var edx uint32
	if eax < 0 {
		edx = 0xFFFFFFFF
	}
	c.Regs.Set(RegEDX, 4, edx)
}

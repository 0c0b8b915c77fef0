// strings.go - MOVS (component D), grounded in the original VM's instructions/
// memory.py movs (via original_source/) and the teacher's segment-override
// save/set/restore discipline in cpu_x86.go.
//
// One element is moved per call; REP-style repetition is the caller's
// concern (spec.md §5 names repPrefix purely as decoded state, not as a
// looping directive the core itself executes).
package cpu

func registerStringMove(c *CPU) {
	c.baseOps[0xA4] = func(c *CPU) { c.movsOnce(1) }
	c.baseOps[0xA5] = func(c *CPU) { c.movsOnce(c.OperandSize()) }
}

func (c *CPU) movsOnce(size int) {
	addrSize := c.AddressSize()
	esi := c.Regs.Get(RegESI, addrSize)
	edi := c.Regs.Get(RegEDI, addrSize)

	// DS may be overridden by a segment prefix; ES (the destination) never
	// is, per the real x86 MOVS encoding.
	var v uint32
	c.Mem.WithSegmentOverride(SegDS, func() {
		c.recordSegment(SegDS)
		v = c.Mem.GetInt(esi, size, false)
	})
	c.Mem.WithSegmentOverride(SegES, func() {
		c.Mem.SegmentOverride = SegES
		c.Mem.SetInt(edi, size, v)
	})

	step := uint32(size)
	if c.Regs.EFLAGS().DF() {
		step = uint32(-int32(size))
	}
	mask := sizeMask(addrSize)
	c.Regs.Set(RegESI, addrSize, (esi+step)&mask)
	c.Regs.Set(RegEDI, addrSize, (edi+step)&mask)
}

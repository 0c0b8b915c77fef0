// movdata.go - data movement: MOV (all forms), MOVZX/MOVSX/MOVSXD, LEA
// (component D). None of these touch flags.
package cpu

func registerMoveData(c *CPU) {
	c.baseOps[0x88] = func(c *CPU) { c.movEbGb() }
	c.baseOps[0x89] = func(c *CPU) { c.movEvGv() }
	c.baseOps[0x8A] = func(c *CPU) { c.movGbEb() }
	c.baseOps[0x8B] = func(c *CPU) { c.movGvEv() }
	c.baseOps[0x8C] = func(c *CPU) { c.movEvSw() }
	c.baseOps[0x8E] = func(c *CPU) { c.movSwEv() }
	c.baseOps[0x8D] = func(c *CPU) { c.lea() }

	for r := 0; r < 8; r++ {
		r := r
		c.baseOps[0xB0+r] = func(c *CPU) { c.Regs.Set(r, 1, c.fetchImm(1)) }
		c.baseOps[0xB8+r] = func(c *CPU) { c.Regs.Set(r, c.OperandSize(), c.fetchImm(c.OperandSize())) }
	}

	c.baseOps[0xC6] = func(c *CPU) { c.movEbIb() }
	c.baseOps[0xC7] = func(c *CPU) { c.movEvIz() }

	c.baseOps[0xA0] = func(c *CPU) { c.movALMoffs() }
	c.baseOps[0xA1] = func(c *CPU) { c.movEAXMoffs() }
	c.baseOps[0xA2] = func(c *CPU) { c.movMoffsAL() }
	c.baseOps[0xA3] = func(c *CPU) { c.movMoffsEAX() }

	c.extOps[0xB6] = func(c *CPU) { c.movzx(1) }
	c.extOps[0xB7] = func(c *CPU) { c.movzx(2) }
	c.extOps[0xBE] = func(c *CPU) { c.movsx(1) }
	c.extOps[0xBF] = func(c *CPU) { c.movsx(2) }
	c.baseOps[0x63] = func(c *CPU) { c.movsxd() }
}

func (c *CPU) movEbGb() {
	rm, reg := c.ProcessModRM(1)
	c.WriteOperand(rm, c.ReadOperand(reg))
}

func (c *CPU) movEvGv() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	c.WriteOperand(rm, c.ReadOperand(reg))
}

func (c *CPU) movGbEb() {
	rm, reg := c.ProcessModRM(1)
	c.WriteOperand(reg, c.ReadOperand(rm))
}

func (c *CPU) movGvEv() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	c.WriteOperand(reg, c.ReadOperand(rm))
}

// movEvSw / movSwEv implement MOV r/m16,Sreg and MOV Sreg,r/m16. Segment
// registers carry no real base/limit enforcement in this flat-model core
// (spec.md §3); only the raw 16-bit selector is moved.
func (c *CPU) movEvSw() {
	rm, reg := c.ProcessModRM(2)
	c.WriteOperand(rm, uint32(c.Regs.Seg(int(reg.Value))))
}

func (c *CPU) movSwEv() {
	rm, reg := c.ProcessModRM(2)
	c.Regs.SetSeg(int(reg.Value), uint16(c.ReadOperand(rm)))
}

func (c *CPU) movEbIb() {
	rm, _ := c.ProcessModRM(1)
	imm := c.fetchImm(1)
	c.WriteOperand(rm, imm)
}

func (c *CPU) movEvIz() {
	size := c.OperandSize()
	rm, _ := c.ProcessModRM(size)
	imm := c.fetchImm(size)
	c.WriteOperand(rm, imm)
}

func (c *CPU) movALMoffs() {
	addr := c.fetchImm(c.AddressSize())
	c.recordSegment(SegDS)
	c.Regs.Set(RegEAX, 1, c.Mem.GetInt(addr, 1, false))
}

func (c *CPU) movEAXMoffs() {
	size := c.OperandSize()
	addr := c.fetchImm(c.AddressSize())
	c.recordSegment(SegDS)
	c.Regs.Set(RegEAX, size, c.Mem.GetInt(addr, size, false))
}

func (c *CPU) movMoffsAL() {
	addr := c.fetchImm(c.AddressSize())
	c.recordSegment(SegDS)
	c.Mem.SetInt(addr, 1, c.Regs.Get(RegEAX, 1))
}

func (c *CPU) movMoffsEAX() {
	size := c.OperandSize()
	addr := c.fetchImm(c.AddressSize())
	c.recordSegment(SegDS)
	c.Mem.SetInt(addr, size, c.Regs.Get(RegEAX, size))
}

// movzx zero-extends an 8- or 16-bit r/m source into the current operand
// size destination register.
func (c *CPU) movzx(srcSize int) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(srcSize, size)
	v := c.ReadOperand(Operand{Reg: rm.Reg, Value: rm.Value, Size: srcSize})
	c.Regs.Set(int(reg.Value), size, v)
}

// movsx sign-extends an 8- or 16-bit r/m source into the current operand
// size destination register.
func (c *CPU) movsx(srcSize int) {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(srcSize, size)
	v := c.ReadOperandSigned(Operand{Reg: rm.Reg, Value: rm.Value, Size: srcSize})
	c.Regs.Set(int(reg.Value), size, uint32(v))
}

// movsxd implements MOVSXD Gv,Ed (0x63): sign-extend a 32-bit r/m source.
func (c *CPU) movsxd() {
	rm, reg := c.ProcessModRM(4)
	v := c.ReadOperandSigned(rm)
	c.Regs.Set(int(reg.Value), 4, uint32(v))
}

// lea loads the computed effective address itself (never dereferencing
// memory) into the destination register, zero-extended if operand size
// exceeds address size.
func (c *CPU) lea() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	if rm.Reg {
		panic(&Fault{Kind: FaultDecoderInvariant, Detail: "LEA with register-mode r/m"})
	}
	c.Regs.Set(int(reg.Value), size, rm.Value)
}

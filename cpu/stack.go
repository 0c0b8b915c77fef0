// stack.go - PUSH/POP, PUSHF(D)/POPF(D) and PUSHA(D)/POPA(D) (component D),
// grounded in teacher cpu_x86.go's push32/pop32 and the PUSHA/POPA ordering
// used throughout cpu_x86_ops.go.
package cpu

func registerStack(c *CPU) {
	for r := 0; r < 8; r++ {
		r := r
		c.baseOps[0x50+r] = func(c *CPU) { c.pushReg(r) }
		c.baseOps[0x58+r] = func(c *CPU) { c.popReg(r) }
	}

	c.baseOps[0xFF] = func(c *CPU) { c.grp5() }

	c.baseOps[0x68] = func(c *CPU) { c.pushImm(c.OperandSize()) }
	c.baseOps[0x6A] = func(c *CPU) { c.pushImm(1) }

	c.baseOps[0x9C] = func(c *CPU) { c.pushf() }
	c.baseOps[0x9D] = func(c *CPU) { c.popf() }

	c.baseOps[0x60] = func(c *CPU) { c.pusha() }
	c.baseOps[0x61] = func(c *CPU) { c.popa() }
}

func (c *CPU) push(v uint32, size int) {
	sp := c.Regs.Get(RegESP, 4) - uint32(size)
	c.Regs.Set(RegESP, 4, sp)
	c.Mem.SetInt(sp, size, v)
}

func (c *CPU) pop(size int) uint32 {
	sp := c.Regs.Get(RegESP, 4)
	v := c.Mem.GetInt(sp, size, false)
	c.Regs.Set(RegESP, 4, sp+uint32(size))
	return v
}

func (c *CPU) pushReg(r int) {
	size := c.OperandSize()
	c.push(c.Regs.Get(r, size), size)
}

func (c *CPU) popReg(r int) {
	size := c.OperandSize()
	c.Regs.Set(r, size, c.pop(size))
}

// pushImm implements PUSH Iz/Ib; the byte form (0x6A) is sign-extended to
// the current operand size before being pushed.
func (c *CPU) pushImm(immSize int) {
	size := c.OperandSize()
	var v uint32
	if immSize == 1 {
		v = uint32(int32(int8(c.fetch8()))) & sizeMask(size)
	} else {
		v = c.fetchImm(size)
	}
	c.push(v, size)
}

// grp5 implements the subset of the 0xFF group this core supports:
// reg=0 INC, reg=1 DEC (alu.go), reg=6 PUSH r/m. CALL/JMP/far-variants
// (reg 2-5,7) belong to the supplemented control-transfer family and are
// passed to control.go's grp5Control.
func (c *CPU) grp5() {
	size := c.OperandSize()
	rm, reg := c.ProcessModRM(size)
	switch reg.Value {
	case 0:
		c.incDecRM(rm, true)
	case 1:
		c.incDecRM(rm, false)
	case 6:
		c.push(c.ReadOperand(rm), size)
	default:
		c.grp5Control(reg.Value, rm)
	}
}

func (c *CPU) pushf() {
	size := c.OperandSize()
	c.push(c.Regs.EFLAGS().Raw()&pushfMask, size)
}

func (c *CPU) popf() {
	size := c.OperandSize()
	v := c.pop(size)
	old := c.Regs.EFLAGS().Raw()
	merged := (old &^ pushfMask) | (v & pushfMask)
	c.Regs.EFLAGS().SetRaw(merged)
}

// pusha/popa implement PUSHA(D)/POPA(D): all eight general registers,
// pushed EAX,ECX,EDX,EBX,originalESP,EBP,ESI,EDI; popped in reverse with
// the saved ESP slot discarded (ESP is restored by the pop sequence itself,
// not from the stored value), matching teacher's opPUSHAD/opPOPAD.
func (c *CPU) pusha() {
	size := c.OperandSize()
	sp := c.Regs.Get(RegESP, size)
	order := []int{RegEAX, RegECX, RegEDX, RegEBX}
	for _, r := range order {
		c.push(c.Regs.Get(r, size), size)
	}
	c.push(sp, size)
	for _, r := range []int{RegEBP, RegESI, RegEDI} {
		c.push(c.Regs.Get(r, size), size)
	}
}

func (c *CPU) popa() {
	size := c.OperandSize()
	for _, r := range []int{RegEDI, RegESI, RegEBP} {
		c.Regs.Set(r, size, c.pop(size))
	}
	c.pop(size) // discard saved ESP
	for _, r := range []int{RegEBX, RegEDX, RegECX, RegEAX} {
		c.Regs.Set(r, size, c.pop(size))
	}
}

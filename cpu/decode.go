// decode.go - fetch/decode/dispatch: prefixes, ModR/M+SIB, and the
// (opcode, 0x0F-escape) handler tables (component C).
//
// Group opcodes are resolved the way the teacher's opGrp1/opGrp2/opGrp3
// handlers do it: one handler per opcode byte that fetches ModR/M and
// switches on the reg field itself, rather than a runtime try-each-
// candidate loop. Because the reg field is always known statically once
// ModR/M is fetched, there is no "this isn't my encoding, rewind EIP and
// try the next candidate" path left to exercise — the flat table the
// Design Notes recommend removes the need for it entirely.
package cpu

// OpHandler executes one fully-decoded instruction, including fetching any
// ModR/M/SIB/immediate bytes it needs and writing back its result.
type OpHandler func(c *CPU)

// Operand is the decoder's internal (location_kind, value, size) tuple.
type Operand struct {
	Reg   bool   // true: Value is a register index; false: Value is a virtual address
	Value uint32
	Size  int // 1, 2 or 4
}

// CPU is the full architectural core: registers, memory, GDT and the
// per-instruction decode state.
type CPU struct {
	Regs Registers
	Mem  *Memory
	GDT  GDT

	EIP     uint32
	Halted  bool
	Running bool
	Retcode int32

	LastFault *Fault

	// SyscallHandler, if set, is invoked for INT 0x80 (the one interrupt
	// vector this core gives meaning to); it reads EBX..EDI and EAX and
	// writes the return value back to EAX. A loader/CLI wires this to the
	// syscalls package; a bare CPU with no handler treats INT 0x80 as a
	// no-op, matching any other unhandled interrupt.
	SyscallHandler func(c *CPU)

	// Per-instruction prefix state, reset at the top of every Step.
	segOverride int // -1 = none, else SegES..SegGS
	repPrefix   int // 0 none, 1 REP/REPE, 2 REPNE
	opSize16    bool
	addrSize16  bool

	modrm       byte
	modrmLoaded bool
	sib         byte
	sibLoaded   bool

	baseOps [256]OpHandler
	extOps  [256]OpHandler // 0x0F xx
}

// NewCPU builds a CPU over the given memory and GDT with the opcode tables
// initialized and interrupts enabled, mirroring the teacher's Reset().
func NewCPU(mem *Memory, gdt GDT) *CPU {
	c := &CPU{Mem: mem, GDT: gdt, Running: true, segOverride: -1}
	c.Regs.EFLAGS().SetIF(true)
	c.buildOpcodeTables()
	return c
}

// OperandSize returns the current default-32, prefix-toggled operand width.
func (c *CPU) OperandSize() int {
	if c.opSize16 {
		return 2
	}
	return 4
}

// AddressSize returns the current default-32, prefix-toggled address width.
func (c *CPU) AddressSize() int {
	if c.addrSize16 {
		return 2
	}
	return 4
}

// ---------------------------------------------------------------------
// Fetch helpers
// ---------------------------------------------------------------------

func (c *CPU) fetch8() byte {
	v := byte(c.Mem.GetEIP(c.EIP, 1))
	c.EIP++
	return v
}

func (c *CPU) fetch16() uint16 {
	v := uint16(c.Mem.GetEIP(c.EIP, 2))
	c.EIP += 2
	return v
}

func (c *CPU) fetch32() uint32 {
	v := c.Mem.GetEIP(c.EIP, 4)
	c.EIP += 4
	return v
}

// fetchImm reads an n-byte (1/2/4) immediate and advances EIP, signed or
// not; used for Ib/Iv/Iz style immediates.
func (c *CPU) fetchImm(n int) uint32 {
	switch n {
	case 1:
		return uint32(c.fetch8())
	case 2:
		return uint32(c.fetch16())
	default:
		return c.fetch32()
	}
}

// fetchImmSigned reads an n-byte immediate sign-extended to 32 bits.
func (c *CPU) fetchImmSigned(n int) int32 {
	switch n {
	case 1:
		return int32(int8(c.fetch8()))
	case 2:
		return int32(int16(c.fetch16()))
	default:
		return int32(c.fetch32())
	}
}

// ---------------------------------------------------------------------
// ModR/M + SIB
// ---------------------------------------------------------------------

func (c *CPU) fetchModRM() byte {
	if !c.modrmLoaded {
		c.modrm = c.fetch8()
		c.modrmLoaded = true
	}
	return c.modrm
}

func (c *CPU) fetchSIB() byte {
	if !c.sibLoaded {
		c.sib = c.fetch8()
		c.sibLoaded = true
	}
	return c.sib
}

func modRMMod(b byte) byte { return (b >> 6) & 3 }
func modRMReg(b byte) byte { return (b >> 3) & 7 }
func modRMRM(b byte) byte  { return b & 7 }

// effectiveAddress computes the virtual address for the current ModR/M's
// r/m operand, honoring the address-size prefix, SIB and the mod=00/rm=101
// (EBP/disp32) and mod=00/rm=110 (disp16) special cases. It also records,
// into Mem.SegmentOverride, which segment the access would be relative to
// — a hint only; this flat-model core never adds a segment base (spec.md
// §3: "policy is expressed by the caller, not enforced by the store").
func (c *CPU) effectiveAddress() uint32 {
	if c.addrSize16 {
		return c.effectiveAddress16()
	}
	return c.effectiveAddress32()
}

func (c *CPU) effectiveAddress16() uint32 {
	modrm := c.fetchModRM()
	mod := modRMMod(modrm)
	rm := modRMRM(modrm)

	var base uint16
	seg := SegDS

	switch rm {
	case 0:
		base = uint16(c.Regs.Get(RegEBX, 2)) + uint16(c.Regs.Get(RegESI, 2))
	case 1:
		base = uint16(c.Regs.Get(RegEBX, 2)) + uint16(c.Regs.Get(RegEDI, 2))
	case 2:
		base = uint16(c.Regs.Get(RegEBP, 2)) + uint16(c.Regs.Get(RegESI, 2))
		seg = SegSS
	case 3:
		base = uint16(c.Regs.Get(RegEBP, 2)) + uint16(c.Regs.Get(RegEDI, 2))
		seg = SegSS
	case 4:
		base = uint16(c.Regs.Get(RegESI, 2))
	case 5:
		base = uint16(c.Regs.Get(RegEDI, 2))
	case 6:
		if mod == 0 {
			base = c.fetch16()
		} else {
			base = uint16(c.Regs.Get(RegEBP, 2))
			seg = SegSS
		}
	case 7:
		base = uint16(c.Regs.Get(RegEBX, 2))
	}

	switch mod {
	case 1:
		disp := int8(c.fetch8())
		base = uint16(int16(base) + int16(disp))
	case 2:
		base += c.fetch16()
	}

	c.recordSegment(seg)
	return uint32(base)
}

func (c *CPU) effectiveAddress32() uint32 {
	modrm := c.fetchModRM()
	mod := modRMMod(modrm)
	rm := modRMRM(modrm)

	var addr uint32
	seg := SegDS

	if rm == 4 {
		sib := c.fetchSIB()
		scale := (sib >> 6) & 3
		index := (sib >> 3) & 7
		base := sib & 7

		if base == 5 && mod == 0 {
			addr = c.fetch32()
		} else {
			addr = c.Regs.Get(int(base), 4)
			if base == 4 || base == 5 {
				seg = SegSS
			}
		}
		if index != 4 {
			addr += c.Regs.Get(int(index), 4) << scale
		}
	} else if rm == 5 && mod == 0 {
		addr = c.fetch32()
	} else {
		addr = c.Regs.Get(int(rm), 4)
		if rm == 4 || rm == 5 {
			seg = SegSS
		}
	}

	switch mod {
	case 1:
		disp := int8(c.fetch8())
		addr = uint32(int32(addr) + int32(disp))
	case 2:
		addr += c.fetch32()
	}

	c.recordSegment(seg)
	return addr
}

func (c *CPU) recordSegment(seg int) {
	if c.segOverride >= 0 {
		seg = c.segOverride
	}
	c.Mem.SegmentOverride = seg
}

// ProcessModRM decodes the current instruction's ModR/M (and SIB, if
// present) into the r/m operand and the reg operand. regSize defaults to
// rmSize when omitted, matching spec.md §6's
// process_ModRM(rm_size, [reg_size]) signature.
func (c *CPU) ProcessModRM(rmSize int, regSize ...int) (rm Operand, reg Operand) {
	rs := rmSize
	if len(regSize) > 0 {
		rs = regSize[0]
	}
	modrm := c.fetchModRM()
	reg = Operand{Reg: true, Value: uint32(modRMReg(modrm)), Size: rs}

	if modRMMod(modrm) == 3 {
		rm = Operand{Reg: true, Value: uint32(modRMRM(modrm)), Size: rmSize}
		return rm, reg
	}
	addr := c.effectiveAddress()
	rm = Operand{Reg: false, Value: addr, Size: rmSize}
	return rm, reg
}

// ReadOperand dereferences an Operand through the register file or memory.
func (c *CPU) ReadOperand(op Operand) uint32 {
	if op.Reg {
		return c.Regs.Get(int(op.Value), op.Size)
	}
	return c.Mem.GetInt(op.Value, op.Size, false)
}

// ReadOperandSigned is ReadOperand with sign extension to 32 bits.
func (c *CPU) ReadOperandSigned(op Operand) int32 {
	if op.Reg {
		v := c.Regs.Get(int(op.Value), op.Size)
		switch op.Size {
		case 1:
			return int32(int8(v))
		case 2:
			return int32(int16(v))
		default:
			return int32(v)
		}
	}
	return int32(c.Mem.GetInt(op.Value, op.Size, true))
}

// WriteOperand writes val, truncated to op.Size, back to its location.
func (c *CPU) WriteOperand(op Operand, val uint32) {
	if op.Reg {
		c.Regs.Set(int(op.Value), op.Size, val)
	} else {
		c.Mem.SetInt(op.Value, op.Size, val)
	}
}

// ---------------------------------------------------------------------
// Fetch-execute cycle
// ---------------------------------------------------------------------

// Step executes exactly one instruction and reports whether it completed
// (false if the CPU was already halted, or just became so).
func (c *CPU) Step() bool {
	if c.Halted || !c.Running {
		return false
	}

	c.segOverride = -1
	c.repPrefix = 0
	c.opSize16 = false
	c.addrSize16 = false
	c.modrmLoaded = false
	c.sibLoaded = false

	startEIP := c.EIP
	ok := true

	func() {
		defer func() {
			if r := recover(); r != nil {
				if f, isFault := r.(*Fault); isFault {
					f.EIP = startEIP
					c.Halted = true
					c.LastFault = f
					ok = false
					return
				}
				panic(r)
			}
		}()

		var opcode byte
		for {
			opcode = c.fetch8()
			switch opcode {
			case 0x26:
				c.segOverride = SegES
			case 0x2E:
				c.segOverride = SegCS
			case 0x36:
				c.segOverride = SegSS
			case 0x3E:
				c.segOverride = SegDS
			case 0x64:
				c.segOverride = SegFS
			case 0x65:
				c.segOverride = SegGS
			case 0x66:
				c.opSize16 = true
			case 0x67:
				c.addrSize16 = true
			case 0xF0: // LOCK, no-op for a single-threaded core
			case 0xF2:
				c.repPrefix = 2
			case 0xF3:
				c.repPrefix = 1
			default:
				goto decoded
			}
		}
	decoded:
		var handler OpHandler
		if opcode == 0x0F {
			opcode2 := c.fetch8()
			handler = c.extOps[opcode2]
		} else {
			handler = c.baseOps[opcode]
		}
		if handler == nil {
			c.Halted = true
			c.LastFault = &Fault{Kind: FaultIllegalInstruction, EIP: startEIP}
			ok = false
			return
		}
		handler(c)
	}()

	return ok
}

// RepPrefix reports the decoded REP/REPNE state for the current
// instruction (0 none, 1 REP/REPE, 2 REPNE). String-move handlers execute
// exactly one element per Step; repetition is a caller concern.
func (c *CPU) RepPrefix() int { return c.repPrefix }

// buildOpcodeTables populates baseOps/extOps once at construction time —
// a flat (opcode, 0x0F-escape) dispatch table built at init, per the
// Design Notes' recommendation, rather than per-instruction lookup logic.
func (c *CPU) buildOpcodeTables() {
	registerALU(c)
	registerShift(c)
	registerMoveData(c)
	registerStack(c)
	registerExchange(c)
	registerBitScan(c)
	registerStringMove(c)
	registerSignExtend(c)
	registerFlagOps(c)
	registerControl(c)
}

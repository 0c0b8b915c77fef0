// dispatch.go - the syscall dispatch table itself. kernel.py discovers its
// sys_* handlers through a metaclass that scans class-dict members by
// naming convention (SyscallsMixin_Meta); the Design Notes flag that
// pattern as unnecessary indirection for a fixed, known instruction set, so
// this is an explicit map literal instead — same effect, built once, no
// reflection.
package syscalls

import (
	"fmt"
	"sort"

	"github.com/intuitionamiga/iax86/cpu"
)

// Handler services one Linux syscall number: it reads its arguments out of
// EBX/ECX/EDX/ESI/EDI and writes its result back to EAX.
type Handler func(d *Dispatcher, c *cpu.CPU)

// Dispatcher owns everything a syscall handler needs beyond the CPU itself:
// the descriptor table, the GDT (set_thread_area writes new entries into
// it) and the code segment's end (brk's floor).
type Dispatcher struct {
	Descriptors    map[int32]Descriptor
	GDT            cpu.GDT
	CodeSegmentEnd uint32

	handlers map[uint32]Handler
}

// NewDispatcher builds a dispatcher with every syscall this core supports
// already registered.
func NewDispatcher(gdt cpu.GDT, codeSegmentEnd uint32, descriptors map[int32]Descriptor) *Dispatcher {
	d := &Dispatcher{
		Descriptors:    descriptors,
		GDT:            gdt,
		CodeSegmentEnd: codeSegmentEnd,
	}
	d.handlers = map[uint32]Handler{
		0x00:  sysPyDbg,
		0x01:  sysExit,
		0x03:  sysRead,
		0x04:  sysWrite,
		0x05:  sysOpen,
		0x2d:  sysBrk,
		0x36:  sysIoctl,
		0x7a:  sysNewuname,
		0x7b:  sysModifyLdt,
		0x8c:  sysLlseek,
		0x92:  sysWritev,
		0xae:  sysSigaction,
		0xaf:  sysRtSigprocmask,
		0xc0:  sysMmapPgoff,
		0xf3:  sysSetThreadArea,
		0xfc:  sysExitGroup,
		0x102: sysSetTidAddress,
		0x10e: sysTgkill,
	}
	return d
}

// SupportedSyscalls returns every syscall number this dispatcher has a
// handler for, in ascending order — useful for diagnostics and tests that
// want to assert on the full supported set without hardcoding it twice.
func (d *Dispatcher) SupportedSyscalls() []uint32 {
	out := make([]uint32, 0, len(d.handlers))
	for num := range d.handlers {
		out = append(out, num)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Handle services the vector-0x80 interrupt. It is wired to
// cpu.CPU.SyscallHandler by the loader/runner. An EAX value with no
// registered handler is a fatal fault (spec.md §7), unlike a serviced
// syscall's own I/O errors, which surface as -1 in EAX.
func (d *Dispatcher) Handle(c *cpu.CPU) {
	num := c.Regs.Get(cpu.RegEAX, 4)
	h, ok := d.handlers[num]
	if !ok {
		c.Halted = true
		c.LastFault = &cpu.Fault{
			Kind:   cpu.FaultUnsupportedSyscall,
			EIP:    c.EIP,
			Detail: fmt.Sprintf("syscall number %d (0x%x)", num, num),
		}
		return
	}
	h(d, c)
}

// setReturn writes a syscall's result into EAX, two's-complement negative
// for error returns, matching kernel.py's __return helper.
func setReturn(c *cpu.CPU, value int32) {
	c.Regs.Set(cpu.RegEAX, 4, uint32(value))
}

func arg(c *cpu.CPU, reg int) uint32 { return c.Regs.Get(reg, 4) }

// readCString reads a NUL-terminated byte string starting at addr.
func readCString(m *cpu.Memory, addr uint32) []byte {
	var out []byte
	for {
		b := m.GetBytes(addr, 1)[0]
		if b == 0 {
			return out
		}
		out = append(out, b)
		addr++
	}
}

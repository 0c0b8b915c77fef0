// handlers.go - the syscall implementations themselves, each grounded in
// the matching sys_* function in original_source/VM/kernel.py.
package syscalls

import (
	"fmt"

	"github.com/intuitionamiga/iax86/cpu"
)

// sysPyDbg (0x00) is the VM's own debug hatch: ECX selects how EBX is
// interpreted (0 = NUL-terminated string pointer, 1 = unsigned int,
// 2 = signed int), printed to stdout. It is not a real Linux syscall number
// but the core's one bit of host-visible tracing, grounded in kernel.py's
// sys_py_dbg.
func sysPyDbg(d *Dispatcher, c *cpu.CPU) {
	data := arg(c, cpu.RegEBX)
	kind := arg(c, cpu.RegECX)

	switch kind {
	case 0:
		s := readCString(c.Mem, data)
		fmt.Printf("[PY_DBG_STRING] %s\n", s)
	case 1:
		fmt.Printf("[PY_DBG_UINT] %d\n", data)
	case 2:
		fmt.Printf("[PY_DBG_INT] %d\n", int32(data))
	default:
		fmt.Printf("[PY_DBG_UNRECOGNIZED] %d\n", data)
	}
}

// sysExit (0x01) halts the VM with the exit code in EBX.
func sysExit(d *Dispatcher, c *cpu.CPU) {
	code := int32(arg(c, cpu.RegEBX))
	if stderr, ok := d.Descriptors[2]; ok {
		fmt.Fprintf(descriptorWriter{stderr}, "[!] Process exited with code %d\n", code)
	}
	c.Retcode = code
	c.Running = false
}

// sysExitGroup (0xfc) is exit() for this single-threaded core.
func sysExitGroup(d *Dispatcher, c *cpu.CPU) {
	sysExit(d, c)
}

// sysRead (0x03): ssize_t read(int fd, void *buf, size_t count).
func sysRead(d *Dispatcher, c *cpu.CPU) {
	fd := int32(arg(c, cpu.RegEBX))
	addr := arg(c, cpu.RegECX)
	count := arg(c, cpu.RegEDX)

	desc, ok := d.Descriptors[fd]
	if !ok {
		setReturn(c, -1)
		return
	}
	buf := make([]byte, count)
	n, err := desc.Read(buf)
	if err != nil && n == 0 {
		setReturn(c, -1)
		return
	}
	c.Mem.SetBytes(addr, buf[:n])
	setReturn(c, int32(n))
}

// sysWrite (0x04): ssize_t write(int fd, const char *buf, size_t count).
func sysWrite(d *Dispatcher, c *cpu.CPU) {
	fd := int32(arg(c, cpu.RegEBX))
	addr := arg(c, cpu.RegECX)
	count := arg(c, cpu.RegEDX)

	desc, ok := d.Descriptors[fd]
	if !ok {
		setReturn(c, -1)
		return
	}
	buf := c.Mem.GetBytes(addr, int(count))
	n, err := desc.Write(buf)
	if err != nil {
		setReturn(c, -1)
		return
	}
	setReturn(c, int32(n))
}

// sysOpen (0x05) is not implemented by this core; it always fails, matching
// kernel.py's sys_open stub.
func sysOpen(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, -1)
}

// sysBrk (0x2d): unsigned long brk(unsigned long brk). Requests below the
// code segment's end are rejected by returning the current break unchanged
// (not an error); a request equal to the current break is a no-op.
func sysBrk(d *Dispatcher, c *cpu.CPU) {
	requested := arg(c, cpu.RegEBX)

	if requested < d.CodeSegmentEnd {
		setReturn(c, int32(c.Mem.ProgramBreak))
		return
	}
	if requested == c.Mem.ProgramBreak {
		setReturn(c, int32(c.Mem.ProgramBreak))
		return
	}
	c.Mem.ProgramBreak = requested
	setReturn(c, int32(c.Mem.ProgramBreak))
}

// sysIoctl (0x36) answers only TIOCGWINSZ (0x5413); every other request
// fails, matching kernel.py's narrow sys_ioctl.
func sysIoctl(d *Dispatcher, c *cpu.CPU) {
	fd := int32(arg(c, cpu.RegEBX))
	request := arg(c, cpu.RegECX)
	dataAddr := arg(c, cpu.RegEDX)

	const tiocgwinsz = 0x5413
	if request == tiocgwinsz {
		if _, ok := d.Descriptors[fd]; !ok {
			setReturn(c, -1)
			return
		}
		winsize := []byte{0, 1, 0, 1, 0, 0, 0, 0} // row=256, col=256, xpixel=0, ypixel=0 (little-endian)
		c.Mem.SetBytes(dataAddr, winsize)
		setReturn(c, 0)
		return
	}
	setReturn(c, -1)
}

// sysNewuname (0x7a) fills struct new_utsname with six NUL-padded 65-byte
// fields.
func sysNewuname(d *Dispatcher, c *cpu.CPU) {
	bufAddr := arg(c, cpu.RegEBX)
	const fieldLen = 65

	fields := []string{"Linux", "iax86", "5.10.0-iax86", "#1", "i686", "(none)"}
	for _, s := range fields {
		field := make([]byte, fieldLen)
		copy(field, s)
		c.Mem.SetBytes(bufAddr, field)
		bufAddr += fieldLen
	}
	setReturn(c, 0)
}

// sysModifyLdt (0x7b) is not implemented; always fails.
func sysModifyLdt(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, -1)
}

// sysSetTidAddress (0x102) returns the 32-bit value stored at tidptr as the
// thread ID, per the Open Question decision recorded in DESIGN.md (kernel.py
// reads the pointed-to bytes and hands them straight back rather than
// returning the pointer itself).
func sysSetTidAddress(d *Dispatcher, c *cpu.CPU) {
	tidptr := arg(c, cpu.RegEBX)
	tid := c.Mem.GetInt(tidptr, 4, false)
	c.Regs.Set(cpu.RegEAX, 4, tid)
}

// sysWritev (0x92): ssize_t writev(int fd, const struct iovec *iov, int
// iovcnt). Each 8-byte iovec is {void *iov_base; size_t iov_len;}; the
// cursor advances by one iovec's width even for a zero-length entry.
func sysWritev(d *Dispatcher, c *cpu.CPU) {
	fd := int32(arg(c, cpu.RegEBX))
	iovAddr := arg(c, cpu.RegECX)
	iovcnt := int32(arg(c, cpu.RegEDX))

	desc, ok := d.Descriptors[fd]
	if !ok {
		setReturn(c, -1)
		return
	}

	var total int32
	for i := int32(0); i < iovcnt; i++ {
		base := c.Mem.GetInt(iovAddr, 4, false)
		length := c.Mem.GetInt(iovAddr+4, 4, false)
		iovAddr += 8
		if length == 0 {
			continue
		}
		buf := c.Mem.GetBytes(base, int(length))
		n, err := desc.Write(buf)
		if err != nil {
			setReturn(c, -1)
			return
		}
		total += int32(n)
	}
	setReturn(c, total)
}

// sysLlseek (0x8c): the 32-bit-friendly _llseek(fd, offset_high,
// offset_low, result, whence) that composes a 64-bit offset from two
// 32-bit halves and writes the resulting position through result.
func sysLlseek(d *Dispatcher, c *cpu.CPU) {
	fd := int32(arg(c, cpu.RegEBX))
	offsetHigh := arg(c, cpu.RegECX)
	offsetLow := arg(c, cpu.RegEDX)
	resultAddr := arg(c, cpu.RegESI)
	whence := arg(c, cpu.RegEDI)

	desc, ok := d.Descriptors[fd]
	if !ok {
		setReturn(c, -1)
		return
	}
	offset := int64(offsetHigh)<<32 | int64(offsetLow)
	pos, err := desc.Seek(offset, int(whence))
	if err != nil {
		setReturn(c, -1)
		return
	}
	c.Mem.SetInt(resultAddr, 4, uint32(pos))
	setReturn(c, 0)
}

// sysSetThreadArea (0xf3): struct user_desc { entry_number, base_addr,
// limit, ... }. An entry_number of 0xFFFFFFFF requests the first free GDT
// slot; this core only models that one path (kernel.py's own loop only
// ever fires for that case in practice, since no caller supplies an
// explicit entry_number in the traced workloads this was distilled from).
func sysSetThreadArea(d *Dispatcher, c *cpu.CPU) {
	addr := arg(c, cpu.RegEBX)
	entryNumber := c.Mem.GetInt(addr, 4, false)
	base := c.Mem.GetInt(addr+4, 4, false)
	limit := c.Mem.GetInt(addr+8, 4, false)

	var selector uint32
	if entryNumber == 0xFFFFFFFF {
		if idx := d.GDT.FirstFree(); idx > 0 {
			var desc cpu.Descriptor
			desc.SetBase(base)
			desc.SetLimit(limit)
			desc.SetPresent(true)
			d.GDT[idx] = desc
			selector = uint32(idx)
		}
	}
	c.Mem.SetInt(addr, 4, selector)
	setReturn(c, 0)
}

// sysMmapPgoff (0xc0) is not implemented; always fails.
func sysMmapPgoff(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, -1)
}

// sysRtSigprocmask (0xaf) pretends to succeed without doing anything; this
// core has no signal delivery model.
func sysRtSigprocmask(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, 0)
}

// sysTgkill (0x10e) pretends to succeed; there is no other thread/process
// to signal.
func sysTgkill(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, 0)
}

// sysSigaction (0xae) is not implemented; always fails.
func sysSigaction(d *Dispatcher, c *cpu.CPU) {
	setReturn(c, -1)
}

// descriptorWriter adapts a Descriptor to io.Writer for fmt.Fprintf.
type descriptorWriter struct{ d Descriptor }

func (w descriptorWriter) Write(p []byte) (int, error) { return w.d.Write(p) }

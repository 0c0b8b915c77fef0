package syscalls

import (
	"bytes"
	"testing"

	"github.com/intuitionamiga/iax86/cpu"
)

// memDescriptor is an in-memory stand-in for a HostDescriptor, used so
// these tests never touch real file descriptors.
type memDescriptor struct {
	buf *bytes.Buffer
	pos int64
}

func (m *memDescriptor) Read(p []byte) (int, error)  { return m.buf.Read(p) }
func (m *memDescriptor) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m *memDescriptor) Seek(offset int64, whence int) (int64, error) {
	m.pos = offset
	return m.pos, nil
}
func (m *memDescriptor) Fd() int { return -1 }

func newTestMachine() (*cpu.CPU, *Dispatcher) {
	store := cpu.NewFlatStore(65536)
	mem := cpu.NewMemory(store)
	gdt := cpu.NewGDT(8)
	c := cpu.NewCPU(mem, gdt)

	out := &memDescriptor{buf: &bytes.Buffer{}}
	descs := map[int32]Descriptor{1: out, 2: out}
	d := NewDispatcher(gdt, 0, descs)
	c.SyscallHandler = d.Handle
	return c, d
}

func TestSysExit_SetsRetcodeAndStopsRunning(t *testing.T) {
	c, _ := newTestMachine()
	c.Regs.Set(cpu.RegEAX, 4, 1)
	c.Regs.Set(cpu.RegEBX, 4, uint32(int32(-5)))
	c.SyscallHandler(c)

	if c.Running {
		t.Error("expected Running=false")
	}
	if c.Retcode != -5 {
		t.Errorf("Retcode = %d, want -5", c.Retcode)
	}
}

func TestSysWrite_WritesBufferContents(t *testing.T) {
	c, d := newTestMachine()
	msg := []byte("hello")
	c.Mem.SetBytes(0x1000, msg)

	c.Regs.Set(cpu.RegEAX, 4, 4)
	c.Regs.Set(cpu.RegEBX, 4, 1) // fd 1
	c.Regs.Set(cpu.RegECX, 4, 0x1000)
	c.Regs.Set(cpu.RegEDX, 4, uint32(len(msg)))
	c.SyscallHandler(c)

	out := d.Descriptors[1].(*memDescriptor).buf.String()
	if out != "hello" {
		t.Errorf("wrote %q, want %q", out, "hello")
	}
	if got := int32(c.Regs.Get(cpu.RegEAX, 4)); got != int32(len(msg)) {
		t.Errorf("EAX = %d, want %d", got, len(msg))
	}
}

func TestSysBrk_GrowsAndNoOps(t *testing.T) {
	c, d := newTestMachine()
	d.CodeSegmentEnd = 0x1000
	c.Mem.ProgramBreak = 0x1000

	c.Regs.Set(cpu.RegEAX, 4, 0x2d)
	c.Regs.Set(cpu.RegEBX, 4, 0x2000)
	c.SyscallHandler(c)
	if c.Mem.ProgramBreak != 0x2000 {
		t.Errorf("ProgramBreak = 0x%X, want 0x2000", c.Mem.ProgramBreak)
	}
	if got := c.Regs.Get(cpu.RegEAX, 4); got != 0x2000 {
		t.Errorf("EAX = 0x%X, want 0x2000", got)
	}

	// A request below the floor leaves the break untouched.
	c.Regs.Set(cpu.RegEAX, 4, 0x2d)
	c.Regs.Set(cpu.RegEBX, 4, 0x10)
	c.SyscallHandler(c)
	if c.Mem.ProgramBreak != 0x2000 {
		t.Errorf("ProgramBreak changed on a below-floor request: 0x%X", c.Mem.ProgramBreak)
	}
}

func TestSysSetThreadArea_AllocatesFreeGDTSlot(t *testing.T) {
	c, _ := newTestMachine()

	const uInfoAddr = 0x2000
	c.Mem.SetInt(uInfoAddr, 4, 0xFFFFFFFF) // entry_number = -1
	c.Mem.SetInt(uInfoAddr+4, 4, 0xDEAD0000)
	c.Mem.SetInt(uInfoAddr+8, 4, 0x0FFFFF)

	c.Regs.Set(cpu.RegEAX, 4, 0xf3)
	c.Regs.Set(cpu.RegEBX, 4, uInfoAddr)
	c.SyscallHandler(c)

	selector := c.Mem.GetInt(uInfoAddr, 4, false)
	if selector == 0 {
		t.Fatal("expected a nonzero GDT selector to be allocated")
	}
	desc := c.GDT[selector]
	if !desc.Present() {
		t.Error("expected the allocated descriptor to be marked present")
	}
	if desc.Base() != 0xDEAD0000 {
		t.Errorf("Base = 0x%X, want 0xDEAD0000", desc.Base())
	}
}

func TestSupportedSyscalls_IsSortedAndNonEmpty(t *testing.T) {
	_, d := newTestMachine()
	nums := d.SupportedSyscalls()
	if len(nums) == 0 {
		t.Fatal("expected a nonempty supported-syscall list")
	}
	for i := 1; i < len(nums); i++ {
		if nums[i-1] >= nums[i] {
			t.Fatalf("not strictly ascending at index %d: %v", i, nums)
		}
	}
}

func TestUnknownSyscall_Faults(t *testing.T) {
	c, _ := newTestMachine()
	c.Regs.Set(cpu.RegEAX, 4, 0xBAD)
	c.SyscallHandler(c)

	if !c.Halted {
		t.Error("expected an unknown syscall number to halt the CPU")
	}
	if c.LastFault == nil || c.LastFault.Kind != cpu.FaultUnsupportedSyscall {
		t.Errorf("LastFault = %+v, want FaultUnsupportedSyscall", c.LastFault)
	}
}

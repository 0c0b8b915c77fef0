// scenarios_test.go exercises the worked examples from spec.md's "Worked
// Scenarios" section end-to-end, one Step() at a time, as a single
// integration check over the decoder and instruction families together.
package cpu

import "testing"

func TestScenario_MovImmediate(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.loadCode([]byte{0xB8, 42, 0, 0, 0}) // MOV EAX, 42
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 42 {
		t.Fatalf("EAX = %d, want 42", c.Regs.Get(RegEAX, 4))
	}
}

func TestScenario_AddOverflowWraps(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEAX, 4, 0xFFFFFFFF)
	c.loadCode([]byte{0x05, 0x01, 0x00, 0x00, 0x00}) // ADD EAX, 1
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 0 || !c.Regs.EFLAGS().CF() || !c.Regs.EFLAGS().ZF() {
		t.Fatalf("EAX=0x%X CF=%v ZF=%v", c.Regs.Get(RegEAX, 4), c.Regs.EFLAGS().CF(), c.Regs.EFLAGS().ZF())
	}
}

func TestScenario_ShlTopBitOut(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEAX, 4, 0x80000000)
	c.loadCode([]byte{0xD1, 0xE0}) // SHL EAX, 1
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 0 || !c.Regs.EFLAGS().CF() {
		t.Fatalf("EAX=0x%X CF=%v", c.Regs.Get(RegEAX, 4), c.Regs.EFLAGS().CF())
	}
}

func TestScenario_BsfOnEBX(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEBX, 4, 0b0010_1000)
	c.loadCode([]byte{0x0F, 0xBC, 0xC3}) // BSF EAX, EBX
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 3 {
		t.Fatalf("EAX = %d, want 3", c.Regs.Get(RegEAX, 4))
	}
}

func TestScenario_SubEaxEbx(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEAX, 4, 5)
	c.Regs.Set(RegEBX, 4, 2)
	c.loadCode([]byte{0x29, 0xD8}) // SUB EAX, EBX
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 3 {
		t.Fatalf("EAX = %d, want 3", c.Regs.Get(RegEAX, 4))
	}
}

func TestScenario_Int80ExitRetcode(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.SyscallHandler = func(c *CPU) {
		if c.Regs.Get(RegEAX, 4) != 1 {
			return
		}
		c.Retcode = int32(c.Regs.Get(RegEBX, 4))
		c.Running = false
	}
	c.Regs.Set(RegEAX, 4, 1)
	c.Regs.Set(RegEBX, 4, 7)
	c.loadCode([]byte{0xCD, 0x80}) // int 0x80
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Running {
		t.Fatal("expected the VM to stop running")
	}
	if c.Retcode != 7 {
		t.Fatalf("Retcode = %d, want 7", c.Retcode)
	}
}

func TestUndefinedOpcodeHalts(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.loadCode([]byte{0x0F, 0xFF}) // a 0x0F escape byte with no registered handler
	if c.Step() {
		t.Fatal("expected Step to report failure on an undefined opcode")
	}
	if !c.Halted {
		t.Fatal("expected the CPU to halt")
	}
	if c.LastFault == nil || c.LastFault.Kind != FaultIllegalInstruction {
		t.Fatalf("LastFault = %+v, want FaultIllegalInstruction", c.LastFault)
	}
}

func TestMemoryFaultHalts(t *testing.T) {
	c := newTestCPU(t, 16)
	c.Regs.Set(RegEBX, 4, 0xFFFFFF00) // far out of range
	// MOV AL, [EBX]: 8A 03
	c.loadCode([]byte{0x8A, 0x03})
	if c.Step() {
		t.Fatal("expected Step to report failure on an out-of-range access")
	}
	if c.LastFault == nil || c.LastFault.Kind != FaultMemory {
		t.Fatalf("LastFault = %+v, want FaultMemory", c.LastFault)
	}
}

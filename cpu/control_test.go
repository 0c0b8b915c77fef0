package cpu

import "testing"

func TestJcc_TakenSkipsNOPs(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.EFLAGS().SetZF(true)
	// JZ +2 (0x74 0x02), then two NOPs (0x90 0x90), then INC EAX (0x40) at offset 4
	c.loadCode([]byte{0x74, 0x02, 0x90, 0x90, 0x40})
	if !c.Step() { // the Jcc itself
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.EIP != 4 {
		t.Fatalf("EIP = %d, want 4 (branch taken over the two NOPs)", c.EIP)
	}
	if !c.Step() { // INC EAX
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.Regs.Get(RegEAX, 4) != 1 {
		t.Error("expected the branch target to have executed")
	}
}

func TestLoop_DecrementsAndBranches(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegECX, 4, 2)
	// LOOP -2 (0xE2 0xFE): a tight one-instruction spin
	c.loadCode([]byte{0xE2, 0xFE})

	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.EIP != 0 {
		t.Errorf("EIP = %d, want 0 (ECX was 2, loop taken)", c.EIP)
	}
	if c.Regs.Get(RegECX, 4) != 1 {
		t.Errorf("ECX = %d, want 1", c.Regs.Get(RegECX, 4))
	}

	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if c.EIP != 2 {
		t.Errorf("EIP = %d, want 2 (ECX reached 0, loop falls through)", c.EIP)
	}
}

func TestCallRet_RoundTrip(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegESP, 4, 4096)
	// CALL +0 (E8 00 00 00 00) immediately followed by RET (C3) at the
	// call's own return address.
	c.loadCode([]byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0xC3})
	if !c.Step() { // CALL: pushes EIP=5, jumps to 5
		t.Fatalf("call step failed: %v", c.LastFault)
	}
	if c.EIP != 5 {
		t.Fatalf("EIP = %d, want 5", c.EIP)
	}
	if !c.Step() { // RET at address 5
		t.Fatalf("ret step failed: %v", c.LastFault)
	}
	if c.EIP != 5 {
		t.Errorf("EIP after ret = %d, want 5 (the pushed return address)", c.EIP)
	}
	if c.Regs.Get(RegESP, 4) != 4096 {
		t.Errorf("ESP = %d, want 4096 (stack balanced)", c.Regs.Get(RegESP, 4))
	}
}

func TestSetcc_WritesOneOrZero(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.EFLAGS().SetZF(true)
	c.Regs.Set(RegEAX, 4, 0xFFFFFFFF)
	// SETE AL: 0F 94 /0, ModRM mod=11 reg=000 rm=000 -> 0xC0
	c.loadCode([]byte{0x0F, 0x94, 0xC0})
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if got := c.Regs.Get(RegEAX, 1); got != 1 {
		t.Errorf("AL = %d, want 1", got)
	}
}

func TestInt80_DispatchesToSyscallHandler(t *testing.T) {
	c := newTestCPU(t, 4096)
	var sawEAX uint32
	c.SyscallHandler = func(c *CPU) {
		sawEAX = c.Regs.Get(RegEAX, 4)
		c.Running = false
		c.Retcode = int32(c.Regs.Get(RegEBX, 4))
	}
	c.Regs.Set(RegEAX, 4, 1) // sys_exit
	c.Regs.Set(RegEBX, 4, 7)

	// INT 0x80 (CD 80)
	c.loadCode([]byte{0xCD, 0x80})
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if sawEAX != 1 {
		t.Errorf("syscall handler saw EAX=%d, want 1", sawEAX)
	}
	if c.Running {
		t.Error("expected Running=false after simulated sys_exit")
	}
	if c.Retcode != 7 {
		t.Errorf("Retcode = %d, want 7", c.Retcode)
	}
}

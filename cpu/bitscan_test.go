package cpu

import "testing"

func TestBsf_FindsLowestSetBit(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEBX, 4, 0b0010_1000)

	// BSF EAX, EBX: 0F BC /r, ModRM mod=11 reg=000(EAX) rm=011(EBX) -> 0xC3
	c.loadCode([]byte{0x0F, 0xBC, 0xC3})
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if got := c.Regs.Get(RegEAX, 4); got != 3 {
		t.Errorf("EAX = %d, want 3", got)
	}
	if c.Regs.EFLAGS().ZF() {
		t.Error("expected ZF clear, source was nonzero")
	}
}

func TestBsf_ZeroSourceSetsZF(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEBX, 4, 0)
	c.loadCode([]byte{0x0F, 0xBC, 0xC3})
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if !c.Regs.EFLAGS().ZF() {
		t.Error("expected ZF set for a zero source")
	}
}

func TestBsr_FindsHighestSetBit(t *testing.T) {
	c := newTestCPU(t, 4096)
	c.Regs.Set(RegEBX, 4, 0b0010_1000)

	// BSR EAX, EBX: 0F BD /r, ModRM 0xC3
	c.loadCode([]byte{0x0F, 0xBD, 0xC3})
	if !c.Step() {
		t.Fatalf("step failed: %v", c.LastFault)
	}
	if got := c.Regs.Get(RegEAX, 4); got != 5 {
		t.Errorf("EAX = %d, want 5", got)
	}
}

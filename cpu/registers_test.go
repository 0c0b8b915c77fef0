package cpu

import "testing"

func TestRegisters_SubRegisterAliasing(t *testing.T) {
	var r Registers
	r.Set(RegEAX, 4, 0x12345678)

	if got := r.Get(RegEAX, 2); got != 0x5678 {
		t.Errorf("AX: got 0x%04X, want 0x5678", got)
	}
	if got := r.Get(RegEAX, 1); got != 0x78 {
		t.Errorf("AL: got 0x%02X, want 0x78", got)
	}

	r.Set(RegEAX, 1, 0xAB)
	if r.Get(RegEAX, 4) != 0x123456AB {
		t.Errorf("SetAL: EAX got 0x%08X, want 0x123456AB", r.Get(RegEAX, 4))
	}
}

// TestRegisters_HighByteAliasing exercises the one surprising corner of the
// 8-bit register encoding: index 4 at size 1 is AH, the high byte of EAX
// (index 0) - not the low byte of ESP (which is also index 4, but only at
// sizes 2 and 4).
func TestRegisters_HighByteAliasing(t *testing.T) {
	var r Registers
	r.Set(RegEAX, 4, 0x12345678)
	r.Set(RegESP, 4, 0xAAAAAAAA)

	const ah = RegESP // index 4 means AH at size 1, ESP at sizes 2/4
	if got := r.Get(ah, 1); got != 0x56 {
		t.Errorf("AH: got 0x%02X, want 0x56", got)
	}

	r.Set(ah, 1, 0xCD)
	if r.Get(RegEAX, 4) != 0x1234CD78 {
		t.Errorf("SetAH: EAX got 0x%08X, want 0x1234CD78", r.Get(RegEAX, 4))
	}
	if r.Get(RegESP, 4) != 0xAAAAAAAA {
		t.Errorf("SetAH must not disturb ESP, got 0x%08X", r.Get(RegESP, 4))
	}
}

func TestEFLAGS_PushfMask(t *testing.T) {
	var f EFLAGS
	f.SetRaw(0xFFFFFFFF)
	if f.Raw()&pushfMask != pushfMask {
		t.Fatalf("expected all masked bits set")
	}
}

func TestParity(t *testing.T) {
	cases := []struct {
		v    byte
		even bool
	}{
		{0x00, true},
		{0x01, false},
		{0x03, true},
		{0xFF, true},
		{0x80, false},
	}
	for _, c := range cases {
		if got := parity(c.v); got != c.even {
			t.Errorf("parity(0x%02X) = %v, want %v", c.v, got, c.even)
		}
	}
}

// fault.go - fatal error kinds (spec.md §7). Fatal conditions halt the CPU
// rather than threading an error return through every decode/execute call;
// recoverable problems (syscall I/O errors) are surfaced through EAX
// instead and never reach this type.
package cpu

import "fmt"

type FaultKind int

const (
	FaultIllegalInstruction FaultKind = iota
	FaultMemory
	FaultUnsupportedSyscall
	FaultDecoderInvariant
)

func (k FaultKind) String() string {
	switch k {
	case FaultIllegalInstruction:
		return "illegal instruction"
	case FaultMemory:
		return "memory fault"
	case FaultUnsupportedSyscall:
		return "unsupported syscall"
	case FaultDecoderInvariant:
		return "decoder invariant violation"
	default:
		return "unknown fault"
	}
}

// Fault is a fatal, halt-the-VM condition. Memory out-of-range accesses are
// raised by panicking with a *Fault (see memory.go); Step recovers it at
// the instruction boundary and turns it into CPU.Halted + CPU.LastFault.
type Fault struct {
	Kind   FaultKind
	EIP    uint32
	Detail string
}

func (e *Fault) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at EIP=0x%08X: %s", e.Kind, e.EIP, e.Detail)
	}
	return fmt.Sprintf("%s at EIP=0x%08X", e.Kind, e.EIP)
}

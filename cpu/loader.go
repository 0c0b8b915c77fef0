// loader.go - a minimal ELF32 program loader (outside components A-F, [NEW] per
// SPEC_FULL.md's domain-stack expansion). There is no ELF parser among the
// retrieval pack's third-party dependencies, so this uses the standard
// library's debug/elf — the DESIGN.md ledger records this as the one
// deliberate stdlib choice in the core, for lack of any ecosystem
// alternative in the examples.
package cpu

import (
	"debug/elf"
	"fmt"
)

// LoadResult carries the facts a loader needs to hand back to its caller:
// the entry point to start fetching from and the address just past the
// highest loaded segment, which becomes the initial program break.
type LoadResult struct {
	Entry          uint32
	CodeSegmentEnd uint32
}

// LoadELF32 maps every PT_LOAD segment of a 32-bit ELF executable into
// store at its p_vaddr, zero-filling the gap between a segment's file size
// and its memory size (.bss).
func LoadELF32(store ByteStore, f *elf.File) (LoadResult, error) {
	if f.Class != elf.ELFCLASS32 {
		return LoadResult{}, fmt.Errorf("iax86: not a 32-bit ELF binary")
	}
	if f.Machine != elf.EM_386 {
		return LoadResult{}, fmt.Errorf("iax86: not an i386 ELF binary")
	}

	var end uint32
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return LoadResult{}, fmt.Errorf("iax86: reading segment: %w", err)
		}
		base := uint32(prog.Vaddr)
		for i, b := range data {
			store.WriteByte(base+uint32(i), b)
		}
		for i := uint64(len(data)); i < prog.Memsz; i++ {
			store.WriteByte(base+uint32(i), 0)
		}
		if segEnd := uint32(prog.Vaddr + prog.Memsz); segEnd > end {
			end = segEnd
		}
	}

	return LoadResult{Entry: uint32(f.Entry), CodeSegmentEnd: end}, nil
}

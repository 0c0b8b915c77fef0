// Command iax86run loads a 32-bit Linux ELF executable and runs it under
// the iax86 core, translating its int 0x80 syscalls against the host.
//
// Its shape — a cobra root command wrapping a single fetch-execute loop —
// follows the teacher's CLI-runner convention of a thin command-line layer
// over a reusable core package.
package main

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/intuitionamiga/iax86/cpu"
	"github.com/intuitionamiga/iax86/syscalls"
)

func main() {
	var memSize uint32
	var trace bool

	root := &cobra.Command{
		Use:   "iax86run <elf-binary>",
		Short: "Run a 32-bit Linux ELF binary under the iax86 emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], memSize, trace)
		},
	}
	root.Flags().Uint32Var(&memSize, "mem-size", 64*1024*1024, "Guest address space size, in bytes")
	root.Flags().BoolVar(&trace, "trace", false, "Print an instruction-fetch count on exit")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string, memSize uint32, trace bool) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("iax86run: %w", err)
	}
	defer f.Close()

	store := cpu.NewFlatStore(memSize)
	result, err := cpu.LoadELF32(store, f)
	if err != nil {
		return fmt.Errorf("iax86run: %w", err)
	}

	mem := cpu.NewMemory(store)
	mem.ProgramBreak = result.CodeSegmentEnd

	gdt := cpu.NewGDT(8192)
	c := cpu.NewCPU(mem, gdt)
	c.EIP = result.Entry
	c.Regs.Set(cpu.RegESP, 4, memSize-4096)

	descriptors := map[int32]syscalls.Descriptor{
		0: syscalls.NewHostDescriptor(os.Stdin),
		1: syscalls.NewHostDescriptor(os.Stdout),
		2: syscalls.NewHostDescriptor(os.Stderr),
	}
	dispatcher := syscalls.NewDispatcher(gdt, result.CodeSegmentEnd, descriptors)
	c.SyscallHandler = dispatcher.Handle

	if stdinFd := int(os.Stdin.Fd()); term.IsTerminal(stdinFd) {
		oldState, err := term.MakeRaw(stdinFd)
		if err == nil {
			defer term.Restore(stdinFd, oldState)
		}
	}

	for !c.Halted && c.Running {
		c.Step()
	}

	if trace {
		fmt.Fprintf(os.Stderr, "iax86run: %d instruction-fetch reads\n", mem.Fetches())
	}

	if c.Halted && c.LastFault != nil {
		fmt.Fprintf(os.Stderr, "iax86run: %s\n", c.LastFault.Error())
		os.Exit(1)
	}

	os.Exit(int(c.Retcode))
	return nil
}

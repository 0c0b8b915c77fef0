// descriptors.go - the open-file-descriptor table syscalls read and write
// through, grounded in original_source/VM/kernel.py's self.descriptors list
// and its os.read/os.write/os.lseek host calls, and in the teacher's use of
// golang.org/x/sys/unix for raw host I/O.
package syscalls

import (
	"os"

	"golang.org/x/sys/unix"
)

// Descriptor is one entry in a process's open-file table.
type Descriptor interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Fd() int
}

// HostDescriptor backs a Descriptor with a real OS file, preferring the raw
// unix.Read/Write/Seek syscalls (so partial reads/writes and short seeks
// behave exactly like the host kernel) and falling back to the *os.File
// methods whenever the fd-based call returns an error — the same fallback
// shape as kernel.py's "except (AttributeError, UnsupportedOperation)"
// clause around os.read/os.write.
type HostDescriptor struct {
	file *os.File
}

// NewHostDescriptor wraps an already-open file (stdin/stdout/stderr, or a
// file opened by the loader).
func NewHostDescriptor(f *os.File) *HostDescriptor {
	return &HostDescriptor{file: f}
}

func (h *HostDescriptor) Fd() int { return int(h.file.Fd()) }

func (h *HostDescriptor) Read(p []byte) (int, error) {
	n, err := unix.Read(h.Fd(), p)
	if err != nil {
		return h.file.Read(p)
	}
	return n, nil
}

func (h *HostDescriptor) Write(p []byte) (int, error) {
	n, err := unix.Write(h.Fd(), p)
	if err != nil {
		return h.file.Write(p)
	}
	return n, nil
}

func (h *HostDescriptor) Seek(offset int64, whence int) (int64, error) {
	off, err := unix.Seek(h.Fd(), offset, whence)
	if err != nil {
		return h.file.Seek(offset, whence)
	}
	return off, nil
}

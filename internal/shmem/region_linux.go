//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux POSIX shared-memory backing for shmem.Region, adapted from the
// teacher's internal/transport raw-syscall idiom (direct golang.org/x/sys/unix
// calls instead of higher-level abstractions). Go has no direct shm_open
// binding, so this follows the standard Linux workaround of opening a file
// under /dev/shm by name — functionally identical to shm_open, which is
// itself documented as exactly that on Linux.
package shmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NamedRegion is a Region backed by a POSIX shared-memory object, openable
// by name from a separately-exec'd target process (spec.md §6: the fuzzer
// passes SHMEM_ETH_INTERFACE_NAME/SIZE and SHMEM_COVERAGE_NAME/SIZE in the
// child's environment).
type NamedRegion struct {
	*Region
	name string
	fd   int
}

// CreateNamedRegion creates (or truncates) and maps a shared-memory object
// of the given name, sized for two directional buffers of b payload bytes
// each. The caller owns the returned NamedRegion and must call Close to
// unmap and unlink it.
func CreateNamedRegion(name string, b int) (*NamedRegion, error) {
	path := "/dev/shm/" + name
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shmem: open %s: %w", path, err)
	}
	size := 2 * (b + sizeWordLen)
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmem: ftruncate %s to %d: %w", path, size, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmem: mmap %s: %w", path, err)
	}
	return &NamedRegion{Region: &Region{mem: data, b: b}, name: name, fd: fd}, nil
}

// OpenNamedRegion maps an already-created shared-memory object by name,
// given the payload capacity b of each directional buffer (the mapped size
// is 2*(b+4)), as the target process does on startup (spec.md §6, target
// interface step 1).
func OpenNamedRegion(name string, b int) (*NamedRegion, error) {
	path := "/dev/shm/" + name
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shmem: open %s: %w", path, err)
	}
	size := 2 * (b + sizeWordLen)
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmem: mmap %s: %w", path, err)
	}
	return &NamedRegion{Region: &Region{mem: data, b: b}, name: name, fd: fd}, nil
}

// Name returns the shared-memory object name, suitable for passing to a
// child process via SHMEM_ETH_INTERFACE_NAME / SHMEM_COVERAGE_NAME.
func (n *NamedRegion) Name() string { return n.name }

// Close unmaps the region, closes the backing descriptor, and unlinks the
// /dev/shm object so repeated client starts do not accumulate stale files.
func (n *NamedRegion) Close() error {
	err := unix.Munmap(n.mem)
	unix.Close(n.fd)
	unix.Unlink("/dev/shm/" + n.name)
	return err
}

//go:build !linux

// Stub shared-memory backing for platforms without /dev/shm semantics. The
// fuzzer's target-process model (spec.md §1, §6) is Linux-specific; this
// stub only keeps the package importable elsewhere, mirroring the teacher's
// affinity_stub.go pattern of an explicit "not supported" error rather than
// a silent no-op.
package shmem

import "errors"

// NamedRegion is unavailable on non-Linux platforms.
type NamedRegion struct{ *Region }

// CreateNamedRegion always fails on unsupported platforms.
func CreateNamedRegion(name string, b int) (*NamedRegion, error) {
	return nil, errors.New("shmem: named shared memory not supported on this platform")
}

// OpenNamedRegion always fails on unsupported platforms.
func OpenNamedRegion(name string, b int) (*NamedRegion, error) {
	return nil, errors.New("shmem: named shared memory not supported on this platform")
}

func (n *NamedRegion) Name() string { return "" }
func (n *NamedRegion) Close() error { return nil }

// Package shmem implements the two-ring shared-memory Ethernet-frame
// transport shared between the fuzzer and the target process.
//
// Layout mirrors spec.md §3: a contiguous region of 2*(B+4) bytes holds two
// independent directional buffers, each a signed 32-bit size word followed by
// B payload bytes. A negative size word (canonical -1) means empty; a
// non-negative size word is the length of a pending frame. Ordering between
// the size word and the payload is enforced with atomic release/acquire
// semantics rather than a plain memory store. The two size words are not
// padded apart; each sits directly before its own payload area.
package shmem

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrFrameTooLarge is returned by Ring.Send when a frame is longer than the
// configured payload capacity minus sizeWordLen bytes.
var ErrFrameTooLarge = errors.New("shmem: frame exceeds ring payload capacity")

// ErrClosed is returned by Ring operations after Close.
var ErrClosed = errors.New("shmem: ring closed")

// empty is the sentinel size-word value meaning "no frame pending".
const empty int32 = -1

// sizeWordLen is the width in bytes of the size word prefixing each
// directional buffer.
const sizeWordLen = 4

// Region owns the raw bytes backing both directional buffers. On Linux this
// is a memory-mapped POSIX shared-memory object (see region_linux.go); in
// tests it can be a plain heap-backed Region for speed and portability.
type Region struct {
	mem []byte
	b   int // payload capacity of each directional buffer
}

// NewHeapRegion allocates a Region backed by ordinary process memory, sized
// for two directional buffers of b payload bytes each, both starting empty.
// Used by unit tests and by any caller that does not need cross-process
// sharing.
func NewHeapRegion(b int) *Region {
	r := &Region{mem: make([]byte, 2*(b+sizeWordLen)), b: b}
	r.Reset()
	return r
}

// Size returns the total region length in bytes: 2*B + 8.
func (r *Region) Size() int { return len(r.mem) }

// directional returns a Ring bound to half of the region (0 = first half, 1
// = second half).
func (r *Region) directional(half int) *Ring {
	off := half * (r.b + sizeWordLen)
	return &Ring{
		sizeWord: (*int32)(atomicPointer(r.mem[off : off+sizeWordLen])),
		payload:  r.mem[off+sizeWordLen : off+sizeWordLen+r.b],
	}
}

// Fuzzer splits the region into the fuzzer's (tx, rx) ring pair: tx is the
// first half (fuzzer -> target), rx is the second half (target -> fuzzer).
// The target process is expected to open the same region and mirror the
// roles (see SPEC_FULL.md §4.1 and spec.md's target interface in §6).
func (r *Region) Fuzzer() (tx, rx *Ring) {
	return r.directional(0), r.directional(1)
}

// Target splits the region into the target's (rx, tx) ring pair, mirroring
// the fuzzer's roles: the target's rx is the fuzzer's tx half and the
// target's tx is the fuzzer's rx half (spec.md §4.1: "the target mirrors the
// roles").
func (r *Region) Target() (rx, tx *Ring) {
	fuzzerTx, fuzzerRx := r.Fuzzer()
	return fuzzerTx, fuzzerRx
}

// Reset zeroes the payload and stores the empty sentinel in both
// directional size words. Called before every execution (spec.md §4.5 step
// 1: "clear both shmem size words").
func (r *Region) Reset() {
	tx, rx := r.Fuzzer()
	tx.reset()
	rx.reset()
}

// Ring is a single-producer/single-consumer directional buffer: one size
// word plus a fixed payload area. A Region yields two independent Rings, one
// per direction; resetting one does not affect the other.
type Ring struct {
	sizeWord *int32
	payload  []byte
	closed   atomic.Bool
}

func (r *Ring) reset() {
	for i := range r.payload {
		r.payload[i] = 0
	}
	atomic.StoreInt32(r.sizeWord, empty)
}

// Close marks the ring closed; subsequent Send calls return ErrClosed.
// TryRecv does not check the closed flag. Close does not unmap memory — that
// is the Region's responsibility.
func (r *Ring) Close() { r.closed.Store(true) }

// Send blocks (busy-spinning, yielding the OS thread between polls) until
// the ring's previous frame has been consumed, then writes payload bytes
// before publishing the size word with release ordering, per spec.md §4.1
// step 1-3. Frames longer than B-4 bytes (B being the payload capacity) are
// rejected without touching the ring (fatal per spec.md §4.1: "frames
// exceeding B-4 bytes are rejected by the producer").
func (r *Ring) Send(frame []byte) error {
	if max := len(r.payload) - sizeWordLen; len(frame) > max {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), max)
	}
	for {
		if r.closed.Load() {
			return ErrClosed
		}
		if atomic.LoadInt32(r.sizeWord) < 0 {
			break
		}
		spinWait()
	}
	copy(r.payload, frame)
	atomic.StoreInt32(r.sizeWord, int32(len(frame))) // release
	return nil
}

// TryRecv performs a single non-blocking poll: if a frame is pending it
// copies it out, marks the ring empty again, and returns (frame, true). If
// nothing is pending it returns (nil, false). The caller (executor's poll
// loop, spec.md §4.5 step 3/4) is responsible for the polling cadence.
func (r *Ring) TryRecv() ([]byte, bool) {
	n := atomic.LoadInt32(r.sizeWord) // acquire
	if n < 0 {
		return nil, false
	}
	frame := make([]byte, n)
	copy(frame, r.payload[:n])
	atomic.StoreInt32(r.sizeWord, empty)
	return frame, true
}

// atomicPointer reinterprets the first 4 bytes of b as an *int32. b must be
// at least 4 bytes and, for true cross-process safety, 4-byte aligned. Both
// Region constructors place the first size word at the region base (on
// Linux, a page-aligned mmap base) and the second at offset b+4, so the
// second is 4-byte aligned only when b is a multiple of 4.
func atomicPointer(b []byte) *int32 {
	return (*int32)(unsafeSliceData(b))
}

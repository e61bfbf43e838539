package shmem

import (
	"runtime"
	"unsafe"
)

// unsafeSliceData returns a pointer to the first element of b, used to
// reinterpret the leading 4 bytes of a directional buffer as an *int32 size
// word. Mirrors the pointer-arithmetic style the teacher uses around its
// ring buffer padding and raw-syscall transports, rather than introducing a
// struct-of-channels abstraction.
func unsafeSliceData(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// spinWait backs off from a tight spin to an OS yield, matching the
// adaptive-backoff shape of the teacher's event loop (exponential backoff
// capped low, then runtime.Gosched) but collapsed to a single yield per poll
// since producer/consumer here cross process boundaries and a long busy-spin
// only burns the other process's CPU share.
func spinWait() {
	runtime.Gosched()
}

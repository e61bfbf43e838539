package input

import "github.com/riesentoaster/ftz/internal/proto"

// MutateTailBytes applies fn to the tail packet's TCP payload bytes,
// inserting a default packet first if the list is empty (spec.md §4.8's
// byte-level mutator delegation rule). fn receives the current payload and
// returns the replacement.
func (l *ListInput) MutateTailBytes(fn func([]byte) []byte) {
	tail := l.EnsureTail()
	tail.TCP.Payload = fn(tail.TCP.Payload)
}

// TailPacket returns the last packet, or nil for an empty list, without the
// insert-default-on-empty side effect of EnsureTail. Used by mutators that
// should skip rather than synthesize an input on an empty list (spec.md
// §4.9's last-entry mutator: "skipping on empty list").
func (l *ListInput) TailPacket() *proto.Packet {
	if len(l.Packets) == 0 {
		return nil
	}
	return l.Packets[len(l.Packets)-1]
}

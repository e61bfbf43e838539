package proto

// StateSpaceSize is N in spec.md §3: the size of the dense protocol-state
// index space shared by the absolute and transition-mode coverage maps.
//   0-255   the 8-bit TCP flag combination (TCPFlags.Byte8, excludes NS)
//   256     "no upper layer" recognised (ARP)
//   257     ICMPv6
//   258-266 nine parse-error categories, one index per ParseErrorCategory
//   267     "no previous state" sentinel for transition mode; Classify never
//           returns it — only the observer's transition-mode map uses it, to
//           mark the first packet of an execution as having no predecessor.
const StateSpaceSize = 268

const (
	stateNoUpperLayer = 256
	stateICMPv6       = 257
	stateParseErrBase = 258
	// StateNoPrevious is the transition-mode sentinel for "no previous
	// state" (spec.md §3). It is exported so internal/observer can seed a
	// transition map without importing a magic number.
	StateNoPrevious = stateParseErrBase + int(numParseErrorCategories)
)

// Classify maps a raw Ethernet frame to its index in [0, StateSpaceSize)
// per spec.md §3. It never returns StateNoPrevious: that index is reserved
// for the observer's own bookkeeping between executions.
func Classify(data []byte) int {
	return ClassifyFrame(Parse(data))
}

// ClassifyFrame maps an already-parsed Frame to its state index, avoiding a
// redundant Parse call when the caller already has one (e.g. the observer,
// which both classifies the Frame and checks its Kind).
func ClassifyFrame(f *Frame) int {
	if f.Err != nil {
		return stateParseErrBase + int(f.Err.Category)
	}
	switch f.Kind {
	case KindTCP:
		return int(f.TCPLayer.Flags.Byte8())
	case KindICMPv6:
		return stateICMPv6
	case KindARP:
		return stateNoUpperLayer
	default:
		// Parse always sets Err or one of the three Kinds; this is
		// unreachable but kept total rather than panicking on drift.
		return stateParseErrBase + int(UnknownLayer3)
	}
}

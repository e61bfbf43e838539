package proto

import "fmt"

// ParseErrorCategory enumerates the nine labelled parse-failure categories
// of spec.md §4.2 / §7, densely ordered so classify.go can map a category to
// a contiguous block of the state-index space (spec.md §3: "258-266 for
// nine parse-error categories").
type ParseErrorCategory int

const (
	MalformedEthernet ParseErrorCategory = iota
	MalformedIPv4
	MalformedIPv6
	MalformedARP
	MalformedTCP
	MalformedICMPv6
	MalformedHopopt
	UnknownLayer3
	UnknownLayer4
	numParseErrorCategories
)

func (c ParseErrorCategory) String() string {
	switch c {
	case MalformedEthernet:
		return "MalformedEthernet"
	case MalformedIPv4:
		return "MalformedIpv4"
	case MalformedIPv6:
		return "MalformedIpv6"
	case MalformedARP:
		return "MalformedArp"
	case MalformedTCP:
		return "MalformedTcp"
	case MalformedICMPv6:
		return "MalformedIcmpv6"
	case MalformedHopopt:
		return "MalformedHopopt"
	case UnknownLayer3:
		return "UnknownLayer3"
	case UnknownLayer4:
		return "UnknownLayer4"
	default:
		return "UnknownParseErrorCategory"
	}
}

// ParseError is the recoverable, observable parse failure described by
// spec.md §7: it never aborts an execution; it feeds the protocol-state map
// via its Category and is not otherwise surfaced or logged.
type ParseError struct {
	Category ParseErrorCategory
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("proto: %s: %s", e.Category, e.Reason)
}

func newParseError(cat ParseErrorCategory, reason string) *ParseError {
	return &ParseError{Category: cat, Reason: reason}
}

package proto

import "encoding/binary"

// Frame is the parser's tagged-union decode result (spec.md §4.2): a
// recognised path sets Kind and populates the *Layer fields along that path
// (IPv4Layer and TCPLayer for TCP); on failure Kind stays KindNone, Err holds
// the classification failure, and any layers decoded before the failing one
// remain populated. Kind mirrors which path matched so callers can switch on
// it instead of nil-checking every field.
type Frame struct {
	Eth Ethernet
	Kind

	IPv4Layer     *IPv4Header
	TCPLayer      *TCPHeader
	ARPLayer      *ARP
	IPv6Layer     *IPv6Header
	HopByHopLayer *HopByHop
	ICMPv6Layer   *ICMPv6

	Err *ParseError
}

// Kind discriminates which of the four recognised layer-2+ shapes a Frame
// carries, standing in for the sum type the original design favoured over
// struct inheritance (SPEC_FULL.md design notes).
type Kind int

const (
	KindNone Kind = iota
	KindTCP
	KindICMPv6
	KindARP
)

// ARP holds the fields of an Ethernet/IPv4 ARP packet (spec.md §4.2's
// fourth recognised path).
type ARP struct {
	HType, PType   uint16
	HLen, PLen     uint8
	Operation      uint16
	SenderMAC      MAC
	SenderIP       IPv4Addr
	TargetMAC      MAC
	TargetIP       IPv4Addr
}

const (
	ARPRequest uint16 = 1
	ARPReply   uint16 = 2
)

// IPv6Header holds the fixed 40-byte IPv6 header fields needed to reach the
// ICMPv6/Hop-by-Hop paths; IPv6 is never a mutable Packet element (only
// TCP/IPv4/Ethernet are, per spec.md §3), so this type exists solely for
// parsing and for the responder's replies.
type IPv6Header struct {
	TrafficClass uint8
	FlowLabel    uint32
	PayloadLen   uint16
	NextHeader   uint8
	HopLimit     uint8
	SrcAddr      IPv6Addr
	DstAddr      IPv6Addr
}

const (
	NextHeaderHopByHop uint8 = 0
	NextHeaderICMPv6   uint8 = 58
)

// HopByHop holds a single IPv6 Hop-by-Hop Options extension header.
type HopByHop struct {
	NextHeader uint8
	Options    []byte
}

// ICMPv6 holds an ICMPv6 message.
type ICMPv6 struct {
	Type, Code uint8
	Checksum   uint16
	Body       []byte
}

const (
	ICMPv6TypeRouterSolicit    uint8 = 133
	ICMPv6TypeRouterAdvert     uint8 = 134
	ICMPv6TypeNeighborSolicit  uint8 = 135
	ICMPv6TypeNeighborAdvert   uint8 = 136
)

const ethernetHeaderLen = 14

// Parse decodes a raw Ethernet frame, classifying it into one of the four
// recognised paths of spec.md §4.2 (Ethernet/IPv4/TCP, Ethernet/IPv6/ICMPv6,
// Ethernet/IPv6/HopByHop/ICMPv6, Ethernet/ARP) or returning a Frame whose Err
// names one of the nine malformed/unknown categories. Parse never panics:
// every length check is bounds-checked before any slice access, since it
// runs directly on fuzzer-mutated bytes (spec.md §7: a parse failure "is
// never fatal to the execution").
func Parse(data []byte) *Frame {
	f := &Frame{}
	if len(data) < ethernetHeaderLen {
		f.Err = newParseError(MalformedEthernet, "short Ethernet header")
		return f
	}
	copy(f.Eth.DstMAC[:], data[0:6])
	copy(f.Eth.SrcMAC[:], data[6:12])
	f.Eth.EtherType = binary.BigEndian.Uint16(data[12:14])
	rest := data[ethernetHeaderLen:]

	switch f.Eth.EtherType {
	case EtherTypeIPv4:
		return parseIPv4(f, rest)
	case EtherTypeIPv6:
		return parseIPv6(f, rest)
	case EtherTypeARP:
		return parseARP(f, rest)
	default:
		f.Err = newParseError(UnknownLayer3, "unrecognised EtherType")
		return f
	}
}

func parseIPv4(f *Frame, b []byte) *Frame {
	const minIPv4Len = 20
	if len(b) < minIPv4Len {
		f.Err = newParseError(MalformedIPv4, "short IPv4 header")
		return f
	}
	version := b[0] >> 4
	ihl := b[0] & 0x0F
	if version != 4 {
		f.Err = newParseError(MalformedIPv4, "version field is not 4")
		return f
	}
	hdrLen := int(ihl) * 4
	if ihl < 5 || hdrLen > len(b) {
		f.Err = newParseError(MalformedIPv4, "invalid IHL")
		return f
	}
	h := &IPv4Header{
		Version:     version,
		IHL:         ihl,
		DSCP:        b[1] >> 2,
		ECN:         b[1] & 0x03,
		TotalLength: binary.BigEndian.Uint16(b[2:4]),
		ID:          binary.BigEndian.Uint16(b[4:6]),
		Flags:       b[6] >> 5,
		FragOffset:  binary.BigEndian.Uint16(b[6:8]) & 0x1FFF,
		TTL:         b[8],
		Protocol:    b[9],
		Checksum:    binary.BigEndian.Uint16(b[10:12]),
	}
	copy(h.SrcAddr[:], b[12:16])
	copy(h.DstAddr[:], b[16:20])
	h.Options = append([]byte(nil), b[minIPv4Len:hdrLen]...)
	f.IPv4Layer = h

	payload := b[hdrLen:]
	if h.Protocol != ProtoTCP {
		f.Err = newParseError(UnknownLayer4, "non-TCP IPv4 protocol")
		return f
	}
	return parseTCP(f, payload)
}

func parseTCP(f *Frame, b []byte) *Frame {
	const minTCPLen = 20
	if len(b) < minTCPLen {
		f.Err = newParseError(MalformedTCP, "short TCP header")
		return f
	}
	dataOffset := b[12] >> 4
	hdrLen := int(dataOffset) * 4
	if dataOffset < 5 || hdrLen > len(b) {
		f.Err = newParseError(MalformedTCP, "invalid data offset")
		return f
	}
	flagByte := b[13]
	h := &TCPHeader{
		SrcPort:    binary.BigEndian.Uint16(b[0:2]),
		DstPort:    binary.BigEndian.Uint16(b[2:4]),
		Seq:        binary.BigEndian.Uint32(b[4:8]),
		Ack:        binary.BigEndian.Uint32(b[8:12]),
		DataOffset: dataOffset,
		Reserved:   (b[12] >> 1) & 0x07,
		Flags: TCPFlags{
			NS:  b[12]&0x01 != 0,
			CWR: flagByte&0x80 != 0,
			ECE: flagByte&0x40 != 0,
			URG: flagByte&0x20 != 0,
			ACK: flagByte&0x10 != 0,
			PSH: flagByte&0x08 != 0,
			RST: flagByte&0x04 != 0,
			SYN: flagByte&0x02 != 0,
			FIN: flagByte&0x01 != 0,
		},
		Window:   binary.BigEndian.Uint16(b[14:16]),
		Checksum: binary.BigEndian.Uint16(b[16:18]),
		Urgent:   binary.BigEndian.Uint16(b[18:20]),
	}
	h.Options = append([]byte(nil), b[minTCPLen:hdrLen]...)
	h.Payload = append([]byte(nil), b[hdrLen:]...)
	f.TCPLayer = h
	f.Kind = KindTCP
	return f
}

func parseARP(f *Frame, b []byte) *Frame {
	const arpLen = 28 // HType+PType+HLen+PLen+Op+SHA(6)+SPA(4)+THA(6)+TPA(4)
	if len(b) < arpLen {
		f.Err = newParseError(MalformedARP, "short ARP packet")
		return f
	}
	a := &ARP{
		HType:     binary.BigEndian.Uint16(b[0:2]),
		PType:     binary.BigEndian.Uint16(b[2:4]),
		HLen:      b[4],
		PLen:      b[5],
		Operation: binary.BigEndian.Uint16(b[6:8]),
	}
	if a.HLen != 6 || a.PLen != 4 {
		f.Err = newParseError(MalformedARP, "unsupported hardware/protocol address length")
		return f
	}
	copy(a.SenderMAC[:], b[8:14])
	copy(a.SenderIP[:], b[14:18])
	copy(a.TargetMAC[:], b[18:24])
	copy(a.TargetIP[:], b[24:28])
	f.ARPLayer = a
	f.Kind = KindARP
	return f
}

func parseIPv6(f *Frame, b []byte) *Frame {
	const ipv6HeaderLen = 40
	if len(b) < ipv6HeaderLen {
		f.Err = newParseError(MalformedIPv6, "short IPv6 header")
		return f
	}
	if b[0]>>4 != 6 {
		f.Err = newParseError(MalformedIPv6, "version field is not 6")
		return f
	}
	h := &IPv6Header{
		TrafficClass: (b[0]&0x0F)<<4 | b[1]>>4,
		FlowLabel:    binary.BigEndian.Uint32(b[0:4]) & 0x000FFFFF,
		PayloadLen:   binary.BigEndian.Uint16(b[4:6]),
		NextHeader:   b[6],
		HopLimit:     b[7],
	}
	copy(h.SrcAddr[:], b[8:24])
	copy(h.DstAddr[:], b[24:40])
	f.IPv6Layer = h

	rest := b[ipv6HeaderLen:]
	switch h.NextHeader {
	case NextHeaderICMPv6:
		return parseICMPv6(f, rest)
	case NextHeaderHopByHop:
		return parseHopByHop(f, rest)
	default:
		f.Err = newParseError(UnknownLayer4, "unrecognised IPv6 next header")
		return f
	}
}

func parseHopByHop(f *Frame, b []byte) *Frame {
	const minHopoptLen = 2
	if len(b) < minHopoptLen {
		f.Err = newParseError(MalformedHopopt, "short Hop-by-Hop header")
		return f
	}
	nextHeader := b[0]
	hdrLen := (int(b[1]) + 1) * 8
	if hdrLen > len(b) {
		f.Err = newParseError(MalformedHopopt, "Hop-by-Hop header length exceeds packet")
		return f
	}
	hop := &HopByHop{NextHeader: nextHeader, Options: append([]byte(nil), b[minHopoptLen:hdrLen]...)}
	f.HopByHopLayer = hop

	rest := b[hdrLen:]
	if nextHeader != NextHeaderICMPv6 {
		f.Err = newParseError(UnknownLayer4, "Hop-by-Hop next header is not ICMPv6")
		return f
	}
	return parseICMPv6(f, rest)
}

func parseICMPv6(f *Frame, b []byte) *Frame {
	const minICMPv6Len = 4
	if len(b) < minICMPv6Len {
		f.Err = newParseError(MalformedICMPv6, "short ICMPv6 message")
		return f
	}
	f.ICMPv6Layer = &ICMPv6{
		Type:     b[0],
		Code:     b[1],
		Checksum: binary.BigEndian.Uint16(b[2:4]),
		Body:     append([]byte(nil), b[minICMPv6Len:]...),
	}
	f.Kind = KindICMPv6
	return f
}

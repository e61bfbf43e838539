// Package proto implements the structured TCP-over-IPv4-over-Ethernet packet
// model (spec.md §3, §4.8), its hand-rolled parser (§4.2) and the
// interactive ICMPv6/ARP responder (§4.3). Field names mirror spec.md §3
// exactly so the mutator suite in internal/mutate can address them by name.
//
// The parser never uses github.com/google/gopacket's decoder: it receives
// arbitrary fuzzer-mutated bytes and must tolerate and classify malformed
// input rather than panic on it, which is easiest to guarantee in a small
// hand-rolled decoder than through a general-purpose layered decoder. gopacket
// is used elsewhere in this module only for pcap file output (internal/pcapio),
// which spec.md §6 calls out as "standard and referenced only".
package proto

// MAC is a 6-byte hardware address.
type MAC [6]byte

// IPv4Addr is a 4-byte IPv4 address.
type IPv4Addr [4]byte

// IPv6Addr is a 16-byte IPv6 address.
type IPv6Addr [16]byte

// Ethernet holds the fixed Ethernet-II header fields.
type Ethernet struct {
	DstMAC    MAC
	SrcMAC    MAC
	EtherType uint16
}

const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeIPv6 uint16 = 0x86DD
)

// IPv4Header holds the IPv4 header fields named in spec.md §3. TotalLength
// and IHL are recomputed at serialization time from the current options and
// payload length (spec.md §3 invariant (b)) rather than trusted from the
// mutable struct, so mutators are free to set them to any value without
// risking a desynchronized frame.
type IPv4Header struct {
	Version     uint8 // written as-is on serialize; only IHL/TotalLength are recomputed
	IHL         uint8 // header length in 32-bit words; recomputed on serialize
	DSCP        uint8 // 6 bits
	ECN         uint8 // 2 bits
	TotalLength uint16
	ID          uint16
	Flags       uint8  // 3 bits: reserved, DF, MF
	FragOffset  uint16 // 13 bits
	TTL         uint8
	Protocol    uint8
	Checksum    uint16 // recomputed on serialize, never read back
	SrcAddr     IPv4Addr
	DstAddr     IPv4Addr
	Options     []byte
}

const (
	ProtoTCP    uint8 = 6
	ProtoICMPv6 uint8 = 58
)

// TCPFlags is the 9-bit TCP control-flag set named in spec.md §3. Each flag
// is a bool for direct addressing by the bool mutator suite (spec.md §4.9).
type TCPFlags struct {
	NS, CWR, ECE, URG, ACK, PSH, RST, SYN, FIN bool
}

// Byte8 packs the classic 8 flags (excluding NS, the ECN-nonce bit that
// predates most stacks' state machines) into the single byte used as the
// dense TCP state index of spec.md §3 ("0-255 reserved for the 8-bit TCP
// flag combination").
func (f TCPFlags) Byte8() uint8 {
	var b uint8
	if f.CWR {
		b |= 1 << 7
	}
	if f.ECE {
		b |= 1 << 6
	}
	if f.URG {
		b |= 1 << 5
	}
	if f.ACK {
		b |= 1 << 4
	}
	if f.PSH {
		b |= 1 << 3
	}
	if f.RST {
		b |= 1 << 2
	}
	if f.SYN {
		b |= 1 << 1
	}
	if f.FIN {
		b |= 1 << 0
	}
	return b
}

// TCPHeader holds the TCP header fields named in spec.md §3. Checksum is
// always recomputed on serialization (invariant (a)); the struct field
// exists only to round-trip a parsed value for inspection, never to drive
// serialization.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8 // 4 bits, in 32-bit words; recomputed on serialize
	Reserved   uint8 // 3 bits
	Flags      TCPFlags
	Window     uint16
	Checksum   uint16
	Urgent     uint16
	Options    []byte
	Payload    []byte
}

// Packet is the single mutable, fuzzer-facing record of spec.md §3's data
// model: Ethernet + IPv4 + TCP fields only — ARP/IPv6/ICMPv6 are recognised
// by the parser (for classifying observed traffic) and synthesised by the
// interactive responder (for replies), but are never themselves elements of
// a ListInput, matching spec.md §4.9's mutator/generator stack, which only
// ever produces TCP/IPv4/Ethernet packets.
type Packet struct {
	Eth  Ethernet
	IPv4 IPv4Header
	TCP  TCPHeader
}

// NewPacket returns a zero-valued Packet with IPv4/TCP defaults filled in,
// the shape produced whenever a default packet must be inserted (spec.md
// §4.8: byte-level mutators "if the list is empty they first insert a
// default packet").
func NewPacket() *Packet {
	p := &Packet{}
	p.Eth.EtherType = EtherTypeIPv4
	p.IPv4.Version = 4
	p.IPv4.TTL = 64
	p.IPv4.Protocol = ProtoTCP
	p.TCP.DataOffset = 5
	return p
}

// Clone returns a deep copy so the corpus and mutators never alias byte
// slices between candidates.
func (p *Packet) Clone() *Packet {
	cp := *p
	cp.IPv4.Options = append([]byte(nil), p.IPv4.Options...)
	cp.TCP.Options = append([]byte(nil), p.TCP.Options...)
	cp.TCP.Payload = append([]byte(nil), p.TCP.Payload...)
	return &cp
}

// Package generate implements the two packet generators of spec.md §4.9:
// the fixed-trace generator (golden-trace prefixes, used for initial corpus
// seeding) and the random TCP generator (used by the appending(random)
// mutator).
package generate

import (
	"math/rand"

	"github.com/riesentoaster/ftz/internal/proto"
)

// GoldenTrace is the recorded outgoing-TCP interaction referenced in
// spec.md §8 scenario 2/3: a short, hand-authored SYN/SYN-ACK/ACK/data/FIN
// exchange sharing one Ethernet/IPv4 address pair throughout.
var GoldenTrace = buildGoldenTrace()

func buildGoldenTrace() []*proto.Packet {
	base := proto.NewPacket()
	base.Eth.SrcMAC = proto.MAC{0x02, 0, 0, 0, 0, 1}
	base.Eth.DstMAC = proto.MAC{0x02, 0, 0, 0, 0, 2}
	base.IPv4.SrcAddr = proto.IPv4Addr{10, 0, 0, 1}
	base.IPv4.DstAddr = proto.IPv4Addr{10, 0, 0, 2}
	base.TCP.SrcPort = 40000
	base.TCP.DstPort = 4242

	clone := func(seq, ack uint32, flags proto.TCPFlags, payload []byte) *proto.Packet {
		p := base.Clone()
		p.TCP.Seq = seq
		p.TCP.Ack = ack
		p.TCP.Flags = flags
		p.TCP.Payload = payload
		return p
	}

	return []*proto.Packet{
		clone(1000, 0, proto.TCPFlags{SYN: true}, nil),
		clone(1000, 2000, proto.TCPFlags{SYN: true, ACK: true}, nil), // observed-direction shape, kept in the trace for prefix generation
		clone(1001, 2001, proto.TCPFlags{ACK: true}, nil),
		clone(1001, 2001, proto.TCPFlags{ACK: true, PSH: true}, []byte("hello")),
		clone(1006, 2001, proto.TCPFlags{ACK: true}, nil),
		clone(1006, 2001, proto.TCPFlags{FIN: true, ACK: true}, nil),
		clone(1007, 2002, proto.TCPFlags{ACK: true}, nil),
	}
}

// FixedTraceGenerator yields successive packets from GoldenTrace, wrapping
// around once exhausted (spec.md §4.9).
type FixedTraceGenerator struct {
	trace []*proto.Packet
	next  int
}

// NewFixedTraceGenerator returns a generator over trace, starting at index 0.
func NewFixedTraceGenerator(trace []*proto.Packet) *FixedTraceGenerator {
	return &FixedTraceGenerator{trace: trace}
}

// Generate returns the next packet in the trace, wrapping around.
func (g *FixedTraceGenerator) Generate(rng *rand.Rand) *proto.Packet {
	if len(g.trace) == 0 {
		return proto.NewPacket()
	}
	p := g.trace[g.next%len(g.trace)].Clone()
	g.next++
	return p
}

// InitialCorpusPrefixes returns k = len(trace)+1 prefixes of increasing
// length 0..=n, one ListInput-worth of packets per prefix, so the initial
// corpus contains every conversational cut of the golden trace (spec.md
// §4.9: "produces k prefixes of increasing length (0..=n)").
func InitialCorpusPrefixes(trace []*proto.Packet) [][]*proto.Packet {
	prefixes := make([][]*proto.Packet, len(trace)+1)
	for i := range prefixes {
		cut := make([]*proto.Packet, i)
		for j := 0; j < i; j++ {
			cut[j] = trace[j].Clone()
		}
		prefixes[i] = cut
	}
	return prefixes
}

// RandomTCPGenerator builds a random TCP/IPv4/Ethernet packet per spec.md
// §4.9: random fields, a random flag combination, up to four random TCP
// options, a random-length payload, with Ethernet/IPv4 addresses pinned to
// the golden trace's first packet.
type RandomTCPGenerator struct {
	srcMAC, dstMAC   proto.MAC
	srcAddr, dstAddr proto.IPv4Addr
}

// NewRandomTCPGenerator derives address fields from seed (conventionally
// GoldenTrace[0]).
func NewRandomTCPGenerator(seed *proto.Packet) *RandomTCPGenerator {
	return &RandomTCPGenerator{
		srcMAC:  seed.Eth.SrcMAC,
		dstMAC:  seed.Eth.DstMAC,
		srcAddr: seed.IPv4.SrcAddr,
		dstAddr: seed.IPv4.DstAddr,
	}
}

var tcpOptionBuilders = []func(rng *rand.Rand) []byte{
	func(rng *rand.Rand) []byte { return []byte{0x02, 0x04, byte(rng.Intn(256)), byte(rng.Intn(256))} }, // MSS
	func(rng *rand.Rand) []byte { return []byte{0x03, 0x03, byte(rng.Intn(15))} },                        // Window Scale
	func(rng *rand.Rand) []byte { return []byte{0x04, 0x02} },                                           // SAck-Permitted
	func(rng *rand.Rand) []byte { return []byte{0x05, 0x0A, 0, 0, 0, 1, 0, 0, 0, 2} },                    // SAck
	func(rng *rand.Rand) []byte { return []byte{0x08, 0x0A, 0, 0, 0, 1, 0, 0, 0, 2} },                    // Timestamp
	func(rng *rand.Rand) []byte { return []byte{0x01} },                                                 // Noop
}

func (g *RandomTCPGenerator) Generate(rng *rand.Rand) *proto.Packet {
	p := proto.NewPacket()
	p.Eth.SrcMAC = g.srcMAC
	p.Eth.DstMAC = g.dstMAC
	p.IPv4.SrcAddr = g.srcAddr
	p.IPv4.DstAddr = g.dstAddr
	p.IPv4.TTL = uint8(rng.Intn(256))
	p.IPv4.ID = uint16(rng.Intn(65536))

	p.TCP.SrcPort = uint16(rng.Intn(65536))
	p.TCP.DstPort = uint16(rng.Intn(65536))
	p.TCP.Seq = rng.Uint32()
	p.TCP.Ack = rng.Uint32()
	p.TCP.Window = uint16(rng.Intn(65536))
	p.TCP.Flags = proto.TCPFlags{
		NS:  rng.Intn(2) == 1,
		CWR: rng.Intn(2) == 1,
		ECE: rng.Intn(2) == 1,
		URG: rng.Intn(2) == 1,
		ACK: rng.Intn(2) == 1,
		PSH: rng.Intn(2) == 1,
		RST: rng.Intn(2) == 1,
		SYN: rng.Intn(2) == 1,
		FIN: rng.Intn(2) == 1,
	}

	numOpts := rng.Intn(5) // up to four options
	var opts []byte
	for i := 0; i < numOpts; i++ {
		opts = append(opts, tcpOptionBuilders[rng.Intn(len(tcpOptionBuilders))](rng)...)
	}
	p.TCP.Options = opts

	payload := make([]byte, rng.Intn(64))
	rng.Read(payload)
	p.TCP.Payload = payload

	return p
}

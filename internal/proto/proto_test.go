package proto

import (
	"bytes"
	"testing"
)

func goldenSYN() *Packet {
	p := NewPacket()
	p.Eth.SrcMAC = MAC{0x02, 0, 0, 0, 0, 1}
	p.Eth.DstMAC = MAC{0x02, 0, 0, 0, 0, 2}
	p.IPv4.SrcAddr = IPv4Addr{10, 0, 0, 1}
	p.IPv4.DstAddr = IPv4Addr{10, 0, 0, 2}
	p.TCP.SrcPort = 40000
	p.TCP.DstPort = 4242
	p.TCP.Seq = 1000
	p.TCP.Flags.SYN = true
	return p
}

func TestSerializeParseRoundTrip(t *testing.T) {
	p := goldenSYN()
	wire := Serialize(p)
	frame := Parse(wire)
	if frame.Err != nil {
		t.Fatalf("unexpected parse error: %v", frame.Err)
	}
	if frame.Kind != KindTCP {
		t.Fatalf("expected KindTCP, got %v", frame.Kind)
	}
	if frame.TCPLayer.SrcPort != p.TCP.SrcPort || frame.TCPLayer.DstPort != p.TCP.DstPort {
		t.Fatalf("port mismatch: got %+v", frame.TCPLayer)
	}
	if !frame.TCPLayer.Flags.SYN || frame.TCPLayer.Flags.ACK {
		t.Fatalf("flag mismatch: got %+v", frame.TCPLayer.Flags)
	}
	if frame.IPv4Layer.SrcAddr != p.IPv4.SrcAddr || frame.IPv4Layer.DstAddr != p.IPv4.DstAddr {
		t.Fatalf("address mismatch: got %+v", frame.IPv4Layer)
	}
}

func TestSerializeRecomputesChecksums(t *testing.T) {
	p := goldenSYN()
	p.IPv4.Checksum = 0xDEAD // stale value must be ignored
	p.TCP.Checksum = 0xBEEF
	wire := Serialize(p)

	ipHdrLen := int(wire[14]&0x0F) * 4
	ipHeader := wire[14 : 14+ipHdrLen]
	if checksum16(ipHeader) != 0 {
		t.Fatalf("IPv4 header checksum does not fold to zero: %x", ipHeader)
	}

	tcpSegment := wire[14+ipHdrLen:]
	pseudo := ipv4PseudoHeader(p.IPv4.SrcAddr, p.IPv4.DstAddr, ProtoTCP, uint16(len(tcpSegment)))
	if checksum16(append(pseudo, tcpSegment...)) != 0 {
		t.Fatalf("TCP checksum does not fold to zero over pseudo-header+segment")
	}
}

func TestSerializePreservesOptionsAndPayload(t *testing.T) {
	p := goldenSYN()
	p.TCP.Options = []byte{0x02, 0x04, 0x05, 0xB4} // MSS option
	p.TCP.Payload = []byte("payload-bytes")
	wire := Serialize(p)
	frame := Parse(wire)
	if frame.Err != nil {
		t.Fatalf("unexpected parse error: %v", frame.Err)
	}
	if !bytes.Equal(frame.TCPLayer.Payload, p.TCP.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", frame.TCPLayer.Payload, p.TCP.Payload)
	}
	if !bytes.HasPrefix(frame.TCPLayer.Options, p.TCP.Options) {
		t.Fatalf("options mismatch: got %x want prefix %x", frame.TCPLayer.Options, p.TCP.Options)
	}
}

func TestClassifyTCPFlagByte(t *testing.T) {
	p := goldenSYN()
	p.TCP.Flags.ACK = true
	wire := Serialize(p)
	idx := Classify(wire)
	want := int((TCPFlags{SYN: true, ACK: true}).Byte8())
	if idx != want {
		t.Fatalf("got state index %d, want %d", idx, want)
	}
	if idx < 0 || idx >= 256 {
		t.Fatalf("TCP state index %d out of [0,256) range", idx)
	}
}

func TestClassifyMalformedEthernetShortFrame(t *testing.T) {
	idx := Classify([]byte{0x01, 0x02, 0x03})
	want := stateParseErrBase + int(MalformedEthernet)
	if idx != want {
		t.Fatalf("got %d, want %d", idx, want)
	}
}

func TestClassifyUnknownEtherType(t *testing.T) {
	data := make([]byte, ethernetHeaderLen)
	data[12], data[13] = 0x12, 0x34 // not IPv4/IPv6/ARP
	idx := Classify(data)
	want := stateParseErrBase + int(UnknownLayer3)
	if idx != want {
		t.Fatalf("got %d, want %d", idx, want)
	}
}

func TestClassifyIsTotalOverStateSpace(t *testing.T) {
	// Every index Classify can produce must lie in [0, StateSpaceSize) and
	// never equal the transition-mode-only sentinel.
	inputs := [][]byte{
		{},
		make([]byte, ethernetHeaderLen),
		Serialize(goldenSYN()),
	}
	for _, in := range inputs {
		idx := Classify(in)
		if idx < 0 || idx >= StateSpaceSize {
			t.Fatalf("index %d out of range for input %x", idx, in)
		}
		if idx == StateNoPrevious {
			t.Fatalf("Classify must never return the no-previous-state sentinel")
		}
	}
}

func TestRespondToARPRequest(t *testing.T) {
	local := MAC{0xAA, 0, 0, 0, 0, 1}
	localIP := IPv4Addr{192, 168, 0, 1}
	req := &ARP{
		HType: 1, PType: EtherTypeIPv4, HLen: 6, PLen: 4,
		Operation: ARPRequest,
		SenderMAC: MAC{0x02, 0, 0, 0, 0, 9},
		SenderIP:  IPv4Addr{192, 168, 0, 9},
		TargetIP:  localIP,
	}
	frame := &Frame{Kind: KindARP, ARPLayer: req, Eth: Ethernet{SrcMAC: req.SenderMAC}}
	reply, ok := Respond(frame, local, localIP, IPv6Addr{})
	if !ok {
		t.Fatalf("expected a reply for an ARP request")
	}
	parsed := Parse(reply)
	if parsed.Err != nil || parsed.Kind != KindARP {
		t.Fatalf("reply did not parse back as ARP: %+v", parsed.Err)
	}
	if parsed.ARPLayer.Operation != ARPReply {
		t.Fatalf("expected ARPReply, got %d", parsed.ARPLayer.Operation)
	}
	if parsed.ARPLayer.SenderIP != localIP {
		t.Fatalf("reply sender IP mismatch: got %v", parsed.ARPLayer.SenderIP)
	}
}

func TestRespondIgnoresNonRequest(t *testing.T) {
	frame := &Frame{Kind: KindNone}
	if _, ok := Respond(frame, MAC{}, IPv4Addr{}, IPv6Addr{}); ok {
		t.Fatalf("expected no reply for an unrecognised frame kind")
	}
}

package proto

import "encoding/binary"

// Serialize renders a Packet to wire bytes: Ethernet + IPv4 + TCP, the only
// shape a mutable Packet ever takes (spec.md §3). IHL, TotalLength, and both
// checksums (IPv4 header, pseudo-header TCP) are always recomputed
// from the current Options/Payload rather than read from the struct (spec.md
// §3 invariants (a)/(b)): a mutator that resizes TCP.Options or TCP.Payload
// never has to remember to fix up a length or checksum field itself.
func Serialize(p *Packet) []byte {
	tcp := serializeTCP(&p.TCP, p.IPv4.SrcAddr, p.IPv4.DstAddr)
	ipv4 := serializeIPv4(&p.IPv4, tcp)
	eth := make([]byte, ethernetHeaderLen)
	copy(eth[0:6], p.Eth.DstMAC[:])
	copy(eth[6:12], p.Eth.SrcMAC[:])
	binary.BigEndian.PutUint16(eth[12:14], p.Eth.EtherType)
	return append(eth, ipv4...)
}

func serializeTCP(h *TCPHeader, src, dst IPv4Addr) []byte {
	optLen := len(h.Options)
	padded := (optLen + 3) / 4 * 4
	hdrLen := 20 + padded
	dataOffset := uint8(hdrLen / 4)

	b := make([]byte, hdrLen+len(h.Payload))
	binary.BigEndian.PutUint16(b[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(b[2:4], h.DstPort)
	binary.BigEndian.PutUint32(b[4:8], h.Seq)
	binary.BigEndian.PutUint32(b[8:12], h.Ack)
	b[12] = dataOffset<<4 | (h.Reserved&0x07)<<1
	if h.Flags.NS {
		b[12] |= 0x01
	}
	var flagByte uint8
	if h.Flags.CWR {
		flagByte |= 0x80
	}
	if h.Flags.ECE {
		flagByte |= 0x40
	}
	if h.Flags.URG {
		flagByte |= 0x20
	}
	if h.Flags.ACK {
		flagByte |= 0x10
	}
	if h.Flags.PSH {
		flagByte |= 0x08
	}
	if h.Flags.RST {
		flagByte |= 0x04
	}
	if h.Flags.SYN {
		flagByte |= 0x02
	}
	if h.Flags.FIN {
		flagByte |= 0x01
	}
	b[13] = flagByte
	binary.BigEndian.PutUint16(b[14:16], h.Window)
	// checksum written below, after the pseudo-header sum
	binary.BigEndian.PutUint16(b[18:20], h.Urgent)
	copy(b[20:20+optLen], h.Options)
	copy(b[hdrLen:], h.Payload)

	pseudo := ipv4PseudoHeader(src, dst, ProtoTCP, uint16(len(b)))
	sum := checksum16(append(pseudo, b...))
	binary.BigEndian.PutUint16(b[16:18], sum)
	return b
}

func serializeIPv4(h *IPv4Header, upper []byte) []byte {
	optLen := len(h.Options)
	padded := (optLen + 3) / 4 * 4
	hdrLen := 20 + padded
	ihl := uint8(hdrLen / 4)
	totalLen := uint16(hdrLen + len(upper))

	b := make([]byte, hdrLen+len(upper))
	b[0] = h.Version<<4 | ihl
	b[1] = h.DSCP<<2 | h.ECN&0x03
	binary.BigEndian.PutUint16(b[2:4], totalLen)
	binary.BigEndian.PutUint16(b[4:6], h.ID)
	flagsAndFrag := uint16(h.Flags&0x07)<<13 | h.FragOffset&0x1FFF
	binary.BigEndian.PutUint16(b[6:8], flagsAndFrag)
	b[8] = h.TTL
	b[9] = h.Protocol
	// checksum written below
	copy(b[12:16], h.SrcAddr[:])
	copy(b[16:20], h.DstAddr[:])
	copy(b[20:20+optLen], h.Options)
	copy(b[hdrLen:], upper)

	sum := checksum16(b[0:hdrLen])
	binary.BigEndian.PutUint16(b[10:12], sum)
	return b
}

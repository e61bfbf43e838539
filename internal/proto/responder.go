package proto

import "encoding/binary"

// Respond implements the interactive responder of spec.md §4.3: given a
// parsed incoming Frame, it returns the wire bytes of the single reply the
// harness's neighbour-discovery/ARP stub sends back, or (nil, false) if the
// Frame does not match one of the three recognised request shapes. These are
// pure functions — no state is kept between calls — matching the original
// design note that the responder "never needs history, only the current
// request".
func Respond(f *Frame, localMAC MAC, localIPv4 IPv4Addr, localIPv6 IPv6Addr) ([]byte, bool) {
	switch f.Kind {
	case KindARP:
		return respondARP(f, localMAC)
	case KindICMPv6:
		return respondICMPv6(f, localMAC, localIPv6)
	default:
		return nil, false
	}
}

func respondARP(f *Frame, localMAC MAC) ([]byte, bool) {
	req := f.ARPLayer
	if req == nil || req.Operation != ARPRequest {
		return nil, false
	}
	reply := &ARP{
		HType:     req.HType,
		PType:     req.PType,
		HLen:      req.HLen,
		PLen:      req.PLen,
		Operation: ARPReply,
		SenderMAC: localMAC,
		SenderIP:  req.TargetIP,
		TargetMAC: req.SenderMAC,
		TargetIP:  req.SenderIP,
	}
	body := serializeARP(reply)
	return serializeEthernet(localMAC, req.SenderMAC, EtherTypeARP, body), true
}

func respondICMPv6(f *Frame, localMAC MAC, localIPv6 IPv6Addr) ([]byte, bool) {
	icmp := f.ICMPv6Layer
	ip6 := f.IPv6Layer
	if icmp == nil || ip6 == nil {
		return nil, false
	}
	switch icmp.Type {
	case ICMPv6TypeNeighborSolicit:
		return neighborAdvert(f, localMAC, localIPv6), true
	case ICMPv6TypeRouterSolicit:
		return routerAdvert(f, localMAC, localIPv6), true
	default:
		return nil, false
	}
}

// neighborAdvert builds a solicited Neighbor Advertisement in reply to a
// Neighbor Solicitation, echoing the target address and carrying a
// Target Link-Layer Address option pointing at localMAC.
func neighborAdvert(f *Frame, localMAC MAC, localIPv6 IPv6Addr) []byte {
	ns := f.ICMPv6Layer
	var targetAddr IPv6Addr
	if len(ns.Body) >= 20 {
		copy(targetAddr[:], ns.Body[4:20])
	}
	body := make([]byte, 20+8)
	body[0] = 0xE0 // Router=1, Solicited=1, Override=1
	copy(body[4:20], targetAddr[:])
	body[20] = 2 // Target Link-Layer Address option
	body[21] = 1 // length in 8-byte units
	copy(body[22:28], localMAC[:])

	icmp := &ICMPv6{Type: ICMPv6TypeNeighborAdvert, Code: 0, Body: body}
	ip6 := serializeIPv6WithICMPv6(localIPv6, f.IPv6Layer.SrcAddr, icmp)
	return serializeEthernet(localMAC, f.Eth.SrcMAC, EtherTypeIPv6, ip6)
}

// routerAdvert builds a Router Advertisement in reply to a Router
// Solicitation; minimal fixed fields only, no prefix/MTU options.
func routerAdvert(f *Frame, localMAC MAC, localIPv6 IPv6Addr) []byte {
	body := make([]byte, 12)
	body[0] = 64            // current hop limit
	body[1] = 0             // flags
	binary.BigEndian.PutUint16(body[2:4], 1800) // router lifetime seconds
	icmp := &ICMPv6{Type: ICMPv6TypeRouterAdvert, Code: 0, Body: body}
	ip6 := serializeIPv6WithICMPv6(localIPv6, f.IPv6Layer.SrcAddr, icmp)
	return serializeEthernet(localMAC, f.Eth.SrcMAC, EtherTypeIPv6, ip6)
}

func serializeEthernet(srcMAC, dstMAC MAC, etherType uint16, payload []byte) []byte {
	b := make([]byte, ethernetHeaderLen+len(payload))
	copy(b[0:6], dstMAC[:])
	copy(b[6:12], srcMAC[:])
	binary.BigEndian.PutUint16(b[12:14], etherType)
	copy(b[14:], payload)
	return b
}

func serializeARP(a *ARP) []byte {
	b := make([]byte, 28)
	binary.BigEndian.PutUint16(b[0:2], a.HType)
	binary.BigEndian.PutUint16(b[2:4], a.PType)
	b[4] = a.HLen
	b[5] = a.PLen
	binary.BigEndian.PutUint16(b[6:8], a.Operation)
	copy(b[8:14], a.SenderMAC[:])
	copy(b[14:18], a.SenderIP[:])
	copy(b[18:24], a.TargetMAC[:])
	copy(b[24:28], a.TargetIP[:])
	return b
}

// serializeIPv6WithICMPv6 wraps an ICMPv6 message in an IPv6 header (no
// Hop-by-Hop extension — neither reply path the responder produces needs
// one). It returns the IPv6 packet only; callers add the Ethernet header.
func serializeIPv6WithICMPv6(src, dst IPv6Addr, icmp *ICMPv6) []byte {
	pseudo := ipv6PseudoHeader(src, dst, NextHeaderICMPv6, uint32(4+len(icmp.Body)))
	msg := make([]byte, 4+len(icmp.Body))
	msg[0] = icmp.Type
	msg[1] = icmp.Code
	copy(msg[4:], icmp.Body)
	sum := checksum16(append(pseudo, msg...))
	binary.BigEndian.PutUint16(msg[2:4], sum)

	ip6 := make([]byte, 40+len(msg))
	ip6[0] = 6 << 4
	binary.BigEndian.PutUint16(ip6[4:6], uint16(len(msg)))
	ip6[6] = NextHeaderICMPv6
	ip6[7] = 64
	copy(ip6[8:24], src[:])
	copy(ip6[24:40], dst[:])
	copy(ip6[40:], msg)

	return ip6
}

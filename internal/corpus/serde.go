package corpus

import (
	"encoding/json"

	"github.com/riesentoaster/ftz/internal/proto"
)

// newPacketFromRaw deserializes a rawPacket back into a *proto.Packet,
// the inverse of toRawPackets. Used by Testcase.List when reconstructing a
// testcase loaded from disk.
func newPacketFromRaw(rp rawPacket) (*proto.Packet, error) {
	p := &proto.Packet{}
	if err := json.Unmarshal(rp.Eth, &p.Eth); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rp.IPv4, &p.IPv4); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rp.TCP, &p.TCP); err != nil {
		return nil, err
	}
	return p, nil
}

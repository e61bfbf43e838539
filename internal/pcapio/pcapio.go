// Package pcapio writes a per-execution packet log to the standard pcap
// format (spec.md §6: "pcap output format is standard and referenced
// only"), using github.com/google/gopacket/pcapgo rather than a hand-rolled
// writer. This is the one place in the module gopacket is wired in — its
// decoder is deliberately not used (internal/proto hand-rolls parsing); only
// pcapgo's file-format writer is, grounded on Gh0st0ne-netcap's and
// m-lab-etl's pcapgo-based writers in the retrieval pack.
package pcapio

import (
	"bytes"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"github.com/riesentoaster/ftz/internal/observer"
	"github.com/riesentoaster/ftz/pool"
)

// bufPool recycles the scratch buffer DumpEntries builds its pcap stream in,
// since PacketMetadata calls it on every admitted testcase. Adapted from the
// teacher's pool.SyncPool[T] generic object pool.
var bufPool = pool.NewSyncPool(func() *bytes.Buffer { return new(bytes.Buffer) })

// DumpEntries renders a per-execution packet log as pcap bytes, one record
// per logged frame in timestamp order, for embedding (base64) in a
// testcase's metadata (spec.md §4.7 PacketMetadata) or for a standalone
// debug dump.
func DumpEntries(log []observer.Entry) ([]byte, error) {
	buf := bufPool.Get()
	buf.Reset()
	defer bufPool.Put(buf)

	w := pcapgo.NewWriter(buf)
	if err := w.WriteFileHeader(65535, gopacket.LinkTypeEthernet); err != nil {
		return nil, err
	}
	base := time.Unix(0, 0)
	for _, e := range log {
		ci := gopacket.CaptureInfo{
			Timestamp:     base.Add(e.Timestamp),
			CaptureLength: len(e.Bytes),
			Length:        len(e.Bytes),
		}
		if err := w.WritePacket(ci, e.Bytes); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

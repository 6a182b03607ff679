package eventlog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Entry encoding: uvarint headerLen | header | payload | crc32c(header|payload)

// ErrCorrupt reports an entry whose framing or checksum does not verify.
var ErrCorrupt = errors.New("eventlog: corrupt entry")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func checksum(header, payload []byte) uint32 {
	return crc32.Update(crc32.Update(0, castagnoli, header), castagnoli, payload)
}

// EncodeRecord frames header and payload with a trailing checksum.
func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)
	return binary.BigEndian.AppendUint32(out, checksum(header, payload))
}

type Decoded struct {
	Header  []byte
	Payload []byte
}

// DecodeRecord verifies and splits an encoded entry. The returned slices are copies.
func DecodeRecord(b []byte) (Decoded, error) {
	if len(b) < 5 {
		return Decoded{}, ErrCorrupt
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || n+4 > len(b) || uint64(len(b)-n-4) < hlen {
		return Decoded{}, ErrCorrupt
	}
	body := b[n : len(b)-4]
	header, payload := body[:hlen], body[hlen:]
	if checksum(header, payload) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Decoded{}, ErrCorrupt
	}
	return Decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, nil
}

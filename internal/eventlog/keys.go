package eventlog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - log/{topic}/m
// - log/{topic}/e/{seq_be8}
// - log/{topic}/x/{uvarint len}{value}{seq_be8}
//
// The index value is length-prefixed so that one value is never a key prefix
// of a longer one.

var (
	logPrefix  = []byte("log/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	indexSeg   = []byte("/x/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func topicKey(topic string, seg []byte, extra int) []byte {
	k := make([]byte, 0, len(logPrefix)+len(topic)+len(seg)+extra)
	k = append(k, logPrefix...)
	k = append(k, topic...)
	return append(k, seg...)
}

// KeyLogMeta builds the metadata key holding the last assigned seq.
func KeyLogMeta(topic string) []byte {
	return topicKey(topic, metaSuffix, 0)
}

// KeyLogEntry builds the entry key with a big-endian sequence for ordering.
func KeyLogEntry(topic string, seq uint64) []byte {
	return appendBE8(topicKey(topic, entrySeg, 8), seq)
}

// KeyIndexPrefix covers every index key for value.
func KeyIndexPrefix(topic string, value []byte) []byte {
	k := topicKey(topic, indexSeg, binary.MaxVarintLen64+len(value)+8)
	k = binary.AppendUvarint(k, uint64(len(value)))
	return append(k, value...)
}

// KeyIndex builds the index key pointing value at seq.
func KeyIndex(topic string, value []byte, seq uint64) []byte {
	return appendBE8(KeyIndexPrefix(topic, value), seq)
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func seqSuffix(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

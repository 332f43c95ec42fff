package storage

import "encoding/binary"

// key layout: t:<currency-code>:<8-byte-unixnano><8-byte-counter>
// Big-endian stamps keep iteration order chronological within a currency.

func tradePrefix(code string) []byte {
	return append(append([]byte("t:"), code...), ':')
}

func tradeKey(code string, unixNano int64, counter uint64) []byte {
	k := tradePrefix(code)
	var stamp [16]byte
	binary.BigEndian.PutUint64(stamp[:8], uint64(unixNano))
	binary.BigEndian.PutUint64(stamp[8:], counter)
	return append(k, stamp[:]...)
}

// keyUpperBound returns the smallest key strictly greater than every key with
// the given prefix, for use as a pebble iterator upper bound.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff
}

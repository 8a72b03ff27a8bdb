// Package leb128 implements the LEB128 variable-length integer encoding
// used throughout the WASM binary format.
package leb128

import (
	"bytes"
	"fmt"
	"io"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

// EncodeInt32 encodes v as a signed LEB128 byte sequence.
func EncodeInt32(v int32) []byte {
	return encodeSigned(int64(v), 32)
}

// EncodeInt64 encodes v as a signed LEB128 byte sequence.
func EncodeInt64(v int64) []byte {
	return encodeSigned(v, 64)
}

// EncodeUint32 encodes v as an unsigned LEB128 byte sequence.
func EncodeUint32(v uint32) []byte {
	return encodeUnsigned(uint64(v))
}

// EncodeUint64 encodes v as an unsigned LEB128 byte sequence.
func EncodeUint64(v uint64) []byte {
	return encodeUnsigned(v)
}

func encodeUnsigned(v uint64) []byte {
	var buf []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

func encodeSigned(v int64, size int) []byte {
	var buf []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			return buf
		}
		buf = append(buf, b|0x80)
	}
}

// LoadInt32 decodes a signed 32-bit LEB128 value from the head of buf,
// returning the value and the number of bytes consumed.
func LoadInt32(buf []byte) (int32, uint64, error) {
	v, n, err := decodeSigned(bytes.NewReader(buf), 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// LoadInt64 decodes a signed 64-bit LEB128 value from the head of buf.
func LoadInt64(buf []byte) (int64, uint64, error) {
	return decodeSigned(bytes.NewReader(buf), 64)
}

// LoadUint32 decodes an unsigned 32-bit LEB128 value from the head of buf.
func LoadUint32(buf []byte) (uint32, uint64, error) {
	v, n, err := decodeUnsigned(bytes.NewReader(buf), 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(v), n, nil
}

// LoadUint64 decodes an unsigned 64-bit LEB128 value from the head of buf.
func LoadUint64(buf []byte) (uint64, uint64, error) {
	return decodeUnsigned(bytes.NewReader(buf), 64)
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value (the shape used
// by WASM block types) widened to int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeSignedReader(r, 33)
}

// DecodeUint32 decodes an unsigned 32-bit LEB128 value from r.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	v, n, err := decodeUnsignedReader(r, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(v), n, nil
}

// DecodeUint64 decodes an unsigned 64-bit LEB128 value from r.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	return decodeUnsignedReader(r, 64)
}

// DecodeInt32 decodes a signed 32-bit LEB128 value from r.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, n, err := decodeSignedReader(r, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// DecodeInt64 decodes a signed 64-bit LEB128 value from r.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeSignedReader(r, 64)
}

func decodeUnsigned(r io.ByteReader, size int) (uint64, uint64, error) {
	return decodeUnsignedReader(r, size)
}

func decodeUnsignedReader(r io.ByteReader, size int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var n uint64
	maxBytes := (size + 6) / 7
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("leb128: unexpected EOF decoding unsigned value: %w", err)
		}
		n++
		if int(n) > maxBytes {
			return 0, 0, fmt.Errorf("leb128: unsigned value overflows %d bits", size)
		}
		low := uint64(b & 0x7f)
		if shift == uint(maxBytes-1)*7 {
			// Final byte: any set bits above the value's own width are an error.
			used := size - int(shift)
			if used < 7 {
				mask := byte(0xff << uint(used))
				if b&mask&0x7f != 0 {
					return 0, 0, fmt.Errorf("leb128: unsigned value overflows %d bits", size)
				}
			}
		}
		result |= low << shift
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
	}
}

func decodeSigned(r io.ByteReader, size int) (int64, uint64, error) {
	return decodeSignedReader(r, size)
}

func decodeSignedReader(r io.ByteReader, size int) (int64, uint64, error) {
	var result int64
	var shift uint
	var n uint64
	maxBytes := (size + 6) / 7
	var b byte
	for {
		var err error
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("leb128: unexpected EOF decoding signed value: %w", err)
		}
		n++
		if int(n) > maxBytes {
			return 0, 0, fmt.Errorf("leb128: signed value overflows %d bits", size)
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if size < 64 {
		min := -(int64(1) << uint(size-1))
		max := (int64(1) << uint(size-1)) - 1
		if result < min || result > max {
			return 0, 0, fmt.Errorf("leb128: signed value overflows %d bits", size)
		}
	}
	return result, n, nil
}

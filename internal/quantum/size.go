package quantum

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size encoding prefixes. The encoder always picks the narrowest explicit
// width; bucket tokens are only emitted for summary records where a lossy
// approximation is acceptable.
const (
	SizePrefix8  = 0x00
	SizePrefix16 = 0x01
	SizePrefix32 = 0x02
	SizePrefix64 = 0x03
)

// Lossy size-class tokens. Each token stands for a fixed bucket value;
// 0xA5 through 0xAF are reserved for future buckets.
const (
	TokenSizeZero   = 0xA0
	TokenSizeTiny   = 0xA1 // ~512 B
	TokenSizeSmall  = 0xA2 // ~50 KiB
	TokenSizeMedium = 0xA3 // ~5 MiB
	TokenSizeLarge  = 0xA4 // ~50 MiB

	tokenRangeLo = 0xA0
	tokenRangeHi = 0xAF
)

// Bucket values the tokens decode to.
const (
	bucketTiny   = 512
	bucketSmall  = 50 * 1024
	bucketMedium = 5 * 1024 * 1024
	bucketLarge  = 50 * 1024 * 1024
)

var (
	// ErrTruncatedInput is returned when the buffer ends in the middle of a field.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidSizePrefix is returned for an unrecognized size-encoding prefix byte.
	ErrInvalidSizePrefix = errors.New("invalid size prefix")
)

// EncodeSize encodes size using the narrowest explicit-width representation.
func EncodeSize(size uint64) []byte {
	switch {
	case size <= 0xFF:
		return []byte{SizePrefix8, byte(size)}
	case size <= 0xFFFF:
		buf := make([]byte, 3)
		buf[0] = SizePrefix16
		binary.LittleEndian.PutUint16(buf[1:], uint16(size))
		return buf
	case size <= 0xFFFFFFFF:
		buf := make([]byte, 5)
		buf[0] = SizePrefix32
		binary.LittleEndian.PutUint32(buf[1:], uint32(size))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = SizePrefix64
		binary.LittleEndian.PutUint64(buf[1:], size)
		return buf
	}
}

// SizeToken maps a size onto the nearest lossy bucket token. Only summary
// records use this; regular entries carry exact sizes.
func SizeToken(size uint64) byte {
	switch {
	case size == 0:
		return TokenSizeZero
	case size <= 4*1024:
		return TokenSizeTiny
	case size <= 1024*1024:
		return TokenSizeSmall
	case size <= 20*1024*1024:
		return TokenSizeMedium
	default:
		return TokenSizeLarge
	}
}

// TokenValue returns the bucket value a size token decodes to. Reserved
// tokens in the 0xA5-0xAF range decode to 0; callers who care about future
// extensions must check the token byte themselves before decoding.
func TokenValue(token byte) uint64 {
	switch token {
	case TokenSizeZero:
		return 0
	case TokenSizeTiny:
		return bucketTiny
	case TokenSizeSmall:
		return bucketSmall
	case TokenSizeMedium:
		return bucketMedium
	case TokenSizeLarge:
		return bucketLarge
	default:
		return 0
	}
}

// DecodeSize decodes a variable-length size at offset and returns the value
// and the offset of the first byte after it.
func DecodeSize(data []byte, offset int) (uint64, int, error) {
	if offset >= len(data) {
		return 0, offset, fmt.Errorf("%w: no size prefix at offset %d", ErrTruncatedInput, offset)
	}

	prefix := data[offset]
	switch prefix {
	case SizePrefix8:
		if offset+1 >= len(data) {
			return 0, offset, fmt.Errorf("%w: 8-bit size at offset %d", ErrTruncatedInput, offset)
		}
		return uint64(data[offset+1]), offset + 2, nil
	case SizePrefix16:
		if offset+2 >= len(data) {
			return 0, offset, fmt.Errorf("%w: 16-bit size at offset %d", ErrTruncatedInput, offset)
		}
		return uint64(binary.LittleEndian.Uint16(data[offset+1:])), offset + 3, nil
	case SizePrefix32:
		if offset+4 >= len(data) {
			return 0, offset, fmt.Errorf("%w: 32-bit size at offset %d", ErrTruncatedInput, offset)
		}
		return uint64(binary.LittleEndian.Uint32(data[offset+1:])), offset + 5, nil
	case SizePrefix64:
		if offset+8 >= len(data) {
			return 0, offset, fmt.Errorf("%w: 64-bit size at offset %d", ErrTruncatedInput, offset)
		}
		return binary.LittleEndian.Uint64(data[offset+1:]), offset + 9, nil
	default:
		if prefix >= tokenRangeLo && prefix <= tokenRangeHi {
			return TokenValue(prefix), offset + 1, nil
		}
		return 0, offset, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidSizePrefix, prefix, offset)
	}
}

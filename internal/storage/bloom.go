package storage

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// BloomFilter is a fixed-size bloom filter using xxHash and Murmur3 as the
// two base hashes for double hashing. Built over the entry names of a
// stream, it answers "might this tree contain a node named X" without
// decompressing and decoding the stream again.
type BloomFilter struct {
	bits    []byte
	numHash uint
}

// NewBloomFilter creates a new bloom filter with size bits and numHash
// probes per item.
func NewBloomFilter(size uint, numHash uint) *BloomFilter {
	return &BloomFilter{
		bits:    make([]byte, (size+7)/8),
		numHash: numHash,
	}
}

// Add adds an item to the bloom filter
func (b *BloomFilter) Add(data []byte) {
	h1 := xxhash.Sum64(data)
	h2 := murmur3.Sum64(data)

	for i := uint(0); i < b.numHash; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(len(b.bits)*8)
		b.bits[idx/8] |= 1 << (idx % 8)
	}
}

// Contains checks if an item might be in the bloom filter
func (b *BloomFilter) Contains(data []byte) bool {
	h1 := xxhash.Sum64(data)
	h2 := murmur3.Sum64(data)

	for i := uint(0); i < b.numHash; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(len(b.bits)*8)
		if b.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}

	return true
}

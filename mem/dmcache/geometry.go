package dmcache

import (
	"fmt"
	"math/bits"
)

// geometry describes the shape of the cache. All the fields are fixed when
// the cache is built. The bit-field widths are derived from the address
// width, the word size, the line size, and the total capacity.
type geometry struct {
	addrWidth int
	wordSize  uint64
	lineSize  uint64
	cacheSize uint64

	numLines     uint64
	wordsPerLine int
	offsetBits   int
	indexBits    int
	tagBits      int
}

func makeGeometry(
	addrWidth int,
	wordSize, lineSize, cacheSize uint64,
) geometry {
	g := geometry{
		addrWidth: addrWidth,
		wordSize:  wordSize,
		lineSize:  lineSize,
		cacheSize: cacheSize,
	}

	g.mustBeValid()

	g.numLines = cacheSize / lineSize
	g.wordsPerLine = int(lineSize / wordSize)
	g.offsetBits = log2(lineSize)
	g.indexBits = log2(g.numLines)
	g.tagBits = addrWidth - g.indexBits - g.offsetBits

	return g
}

func (g geometry) mustBeValid() {
	if !isPowerOfTwo(g.wordSize) ||
		!isPowerOfTwo(g.lineSize) ||
		!isPowerOfTwo(g.cacheSize) {
		panic("word size, line size, and cache size must be powers of two")
	}

	if g.lineSize%g.wordSize != 0 {
		panic("line size must be a multiple of the word size")
	}

	if g.cacheSize%g.lineSize != 0 {
		panic("cache size must be a multiple of the line size")
	}

	if g.addrWidth <= 0 || g.addrWidth > 64 {
		panic(fmt.Sprintf("address width %d out of range", g.addrWidth))
	}

	numLines := g.cacheSize / g.lineSize
	if log2(g.lineSize)+log2(numLines) >= g.addrWidth {
		panic("cache geometry leaves no room for the tag field")
	}
}

// decompose splits an address into its tag, index, and offset fields. Any
// address is acceptable; bits beyond the address width are ignored.
func (g geometry) decompose(addr uint64) (tag, index, offset uint64) {
	addr &= g.addrMask()

	offset = addr & (g.lineSize - 1)
	index = (addr >> g.offsetBits) & (g.numLines - 1)
	tag = addr >> (g.offsetBits + g.indexBits)

	return tag, index, offset
}

// lineAddr reassembles the address of the first byte of a line from its tag
// and index fields.
func (g geometry) lineAddr(tag, index uint64) uint64 {
	return tag<<(g.offsetBits+g.indexBits) | index<<g.offsetBits
}

// wordIndex returns the position of the word that an in-line offset falls in.
func (g geometry) wordIndex(offset uint64) int {
	return int(offset / g.wordSize)
}

func (g geometry) addrMask() uint64 {
	if g.addrWidth == 64 {
		return ^uint64(0)
	}

	return 1<<g.addrWidth - 1
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func log2(v uint64) int {
	return bits.Len64(v) - 1
}

package dmcache

// A line is one direct-mapped slot of the cache: the stored tag, the valid
// and dirty flags, and the data payload of the line.
type line struct {
	tag   uint64
	valid bool
	dirty bool
	data  []byte
}

// A directory is the storage of the cache. Each index maps to exactly one
// line. The controller FSM is the only mutator of the directory.
type directory struct {
	geometry geometry
	lines    []line
}

func newDirectory(g geometry) *directory {
	d := &directory{
		geometry: g,
		lines:    make([]line, g.numLines),
	}

	for i := range d.lines {
		d.lines[i].data = make([]byte, g.lineSize)
	}

	return d
}

// isHit returns true if the line at the index is valid and holds the tag.
func (d *directory) isHit(index, tag uint64) bool {
	l := &d.lines[index]
	return l.valid && l.tag == tag
}

// readWord returns a copy of one word of the line at the index.
func (d *directory) readWord(index uint64, wordIdx int) []byte {
	g := d.geometry
	word := make([]byte, g.wordSize)
	copy(word, d.lines[index].data[uint64(wordIdx)*g.wordSize:])

	return word
}

// writeWord overwrites one word of the line at the index.
func (d *directory) writeWord(index uint64, wordIdx int, data []byte) {
	g := d.geometry

	if uint64(len(data)) != g.wordSize {
		panic("write data is not exactly one word")
	}

	copy(d.lines[index].data[uint64(wordIdx)*g.wordSize:], data)
}

// evictView returns a snapshot of the occupant of the index for a
// write-back. It does not mutate the line.
func (d *directory) evictView(
	index uint64,
) (tag uint64, valid, dirty bool, data []byte) {
	l := &d.lines[index]

	data = make([]byte, len(l.data))
	copy(data, l.data)

	return l.tag, l.valid, l.dirty, data
}

// installLine replaces the occupant of the index with a newly fetched line.
// The installed line is valid and clean.
func (d *directory) installLine(index, tag uint64, data []byte) {
	l := &d.lines[index]

	if uint64(len(data)) != d.geometry.lineSize {
		panic("installed data is not exactly one line")
	}

	l.tag = tag
	l.valid = true
	l.dirty = false
	copy(l.data, data)
}

func (d *directory) markDirty(index uint64) {
	if !d.lines[index].valid {
		panic("marking an invalid line dirty")
	}

	d.lines[index].dirty = true
}

func (d *directory) clearDirty(index uint64) {
	d.lines[index].dirty = false
}

package mem

// AddressConverter can convert the address between two domains
type AddressConverter interface {
	ConvertExternalToInternal(external uint64) uint64
	ConvertInternalToExternal(internal uint64) uint64
}

// InterleavingConverter is an address converter that can convert the address
// in an interleaved memory space
type InterleavingConverter struct {
	InterleavingSize    uint64
	TotalNumOfElements  int
	CurrentElementIndex int
	Offset              uint64
}

// ConvertExternalToInternal converts an address in the global address space
// to an address that is local to the current interleaved element.
func (c InterleavingConverter) ConvertExternalToInternal(external uint64) uint64 {
	external -= c.Offset

	numRound := external / (c.InterleavingSize * uint64(c.TotalNumOfElements))
	inUnitOffset := external % c.InterleavingSize

	return numRound*c.InterleavingSize + inUnitOffset
}

// ConvertInternalToExternal converts an address local to the current
// interleaved element to an address in the global address space.
func (c InterleavingConverter) ConvertInternalToExternal(internal uint64) uint64 {
	numRound := internal / c.InterleavingSize
	inUnitOffset := internal % c.InterleavingSize

	external := numRound*c.InterleavingSize*uint64(c.TotalNumOfElements) +
		uint64(c.CurrentElementIndex)*c.InterleavingSize +
		inUnitOffset

	return external + c.Offset
}

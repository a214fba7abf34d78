// Package mem provides the basic data types and structures for the memory
// system modeling. It defines the message types that travel between memory
// components and the storage that backs them.
package mem

import "errors"

// Defines the byte size units.
const (
	_ = iota
	// KB is kibibyte
	KB uint64 = 1 << (10 * iota)
	// MB is mibibyte
	MB
	// GB is gibibyte
	GB
	// TB is tebibyte
	TB
)

// A Storage keeps the data of the simulated system.
//
// A storage is an abstraction of all types of storage, including registers,
// main memory, and hard drives.
//
// The storage implementation manages the storage in units. For units that are
// never touched by a Read or Write, no memory is allocated.
type Storage struct {
	unitSize uint64
	Capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = 4096
	storage.Capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

func (s *Storage) createOrGetStorageUnit(address uint64) ([]byte, error) {
	if address >= s.Capacity {
		return nil, errors.New(
			"accessing physical address beyond the storage capacity")
	}

	baseAddr, _ := s.parseAddress(address)
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read reads a certain number of bytes from the storage, starting at the
// given address.
func (s *Storage) Read(address uint64, byteSize uint64) ([]byte, error) {
	currAddr := address
	lenLeft := byteSize
	dataOffset := uint64(0)
	res := make([]byte, byteSize)

	for currAddr < address+byteSize {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return nil, err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenLeftInUnit := baseAddr + s.unitSize - currAddr
		lenToRead := lenLeft
		if lenToRead > lenLeftInUnit {
			lenToRead = lenLeftInUnit
		}

		copy(res[dataOffset:dataOffset+lenToRead],
			unit[inUnitAddr:inUnitAddr+lenToRead])
		lenLeft -= lenToRead
		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write writes the given data into the storage, starting at the given
// address.
func (s *Storage) Write(address uint64, data []byte) error {
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return err
		}

		_, inUnitAddr := s.parseAddress(currAddr)
		lenLeftInData := uint64(len(data)) - dataOffset
		lenLeftInUnit := currAddr/s.unitSize*s.unitSize + s.unitSize - currAddr
		lenToWrite := lenLeftInData
		if lenToWrite > lenLeftInUnit {
			lenToWrite = lenLeftInUnit
		}

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])
		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

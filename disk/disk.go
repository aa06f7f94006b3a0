package disk

import (
	"github.com/tim70036/OS-Nachos/common"
)

// Sector is a SectorSize-byte buffer
type Sector = []byte

// Disk provides access to a logical sector-based disk
type Disk interface {
	// ReadSector reads the sector at a into buf.
	//
	// Expects a < NumSectors() and len(buf) == SectorSize.
	ReadSector(a common.Snum, buf Sector) error

	// WriteSector updates the sector at a.
	//
	// Expects a < NumSectors() and len(v) == SectorSize.
	WriteSector(a common.Snum, v Sector) error

	// NumSectors reports how big the disk is, in sectors
	NumSectors() int32

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

// MkSector returns a zeroed sector-sized buffer.
func MkSector() Sector {
	return make([]byte, common.SectorSize)
}

package common

// Snum is an on-disk sector number. Lookups that can miss return -1.
type Snum = int32

const (
	// SectorSize is the unit of raw disk I/O, in bytes.
	SectorSize int32 = 128

	// NumSectors is the total sector count of the simulated disk.
	NumSectors int32 = 1024

	// FreeMapSector holds the file header of the free-space-map file.
	FreeMapSector Snum = 0

	// DirectorySector holds the file header of the root directory file.
	DirectorySector Snum = 1

	// FileNameMaxLen is the longest single path segment, not counting
	// the trailing NUL of the fixed-width on-disk field.
	FileNameMaxLen = 9

	// NumDirEntries is the default directory capacity chosen at format.
	NumDirEntries int32 = 64

	// FreeMapFileSize is the byte length of the free-map file: one bit
	// per sector, packed.
	FreeMapFileSize int32 = NumSectors / 8

	// MaxOpenFiles bounds the filesystem's open-file table.
	MaxOpenFiles = 487
)

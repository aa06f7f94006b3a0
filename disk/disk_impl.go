package disk

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/tim70036/OS-Nachos/common"
)

var _ Disk = (*fileDisk)(nil)

// fileDisk persists sectors in a flat image file, one sector after the
// other, using positioned I/O.
type fileDisk struct {
	fd         int
	numSectors int32
}

func NewFileDisk(path string, numSectors int32) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, err
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	size := int64(numSectors) * int64(common.SectorSize)
	if (stat.Mode&unix.S_IFREG) != 0 && stat.Size != size {
		err = unix.Ftruncate(fd, size)
		if err != nil {
			unix.Close(fd)
			return nil, err
		}
	}
	return &fileDisk{fd: fd, numSectors: numSectors}, nil
}

func (d *fileDisk) boundsCheck(a common.Snum, buf Sector) {
	if int32(len(buf)) != common.SectorSize {
		panic(fmt.Errorf("buffer is not sector-sized (%d bytes)", len(buf)))
	}
	if a < 0 || a >= d.numSectors {
		panic(fmt.Errorf("out-of-bounds access at %v", a))
	}
}

func (d *fileDisk) ReadSector(a common.Snum, buf Sector) error {
	d.boundsCheck(a, buf)
	_, err := unix.Pread(d.fd, buf, int64(a)*int64(common.SectorSize))
	if err != nil {
		return fmt.Errorf("read sector %d: %w", a, err)
	}
	return nil
}

func (d *fileDisk) WriteSector(a common.Snum, v Sector) error {
	d.boundsCheck(a, v)
	_, err := unix.Pwrite(d.fd, v, int64(a)*int64(common.SectorSize))
	if err != nil {
		return fmt.Errorf("write sector %d: %w", a, err)
	}
	return nil
}

func (d *fileDisk) NumSectors() int32 {
	return d.numSectors
}

func (d *fileDisk) Close() error {
	return unix.Close(d.fd)
}

var _ Disk = (*memDisk)(nil)

// memDisk simulates the raw disk in memory. Access is single-threaded,
// like everything above it.
type memDisk struct {
	sectors [][]byte
}

func NewMemDisk(numSectors int32) *memDisk {
	sectors := make([][]byte, numSectors)
	for i := range sectors {
		sectors[i] = make([]byte, common.SectorSize)
	}
	return &memDisk{sectors: sectors}
}

func (d *memDisk) boundsCheck(a common.Snum, buf Sector) {
	if int32(len(buf)) != common.SectorSize {
		panic(fmt.Errorf("buffer is not sector-sized (%d bytes)", len(buf)))
	}
	if a < 0 || a >= int32(len(d.sectors)) {
		panic(fmt.Errorf("out-of-bounds access at %v", a))
	}
}

func (d *memDisk) ReadSector(a common.Snum, buf Sector) error {
	d.boundsCheck(a, buf)
	copy(buf, d.sectors[a])
	return nil
}

func (d *memDisk) WriteSector(a common.Snum, v Sector) error {
	d.boundsCheck(a, v)
	copy(d.sectors[a], v)
	return nil
}

func (d *memDisk) NumSectors() int32 {
	return int32(len(d.sectors))
}

func (d *memDisk) Close() error { return nil }

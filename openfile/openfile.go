// Package openfile implements the in-memory cursor over an allocated
// file: a cached header plus a seek position, reading and writing
// through the raw disk one sector at a time.
package openfile

import (
	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/filehdr"
	"github.com/tim70036/OS-Nachos/util"
)

type OpenFile struct {
	d       disk.Disk
	hdr     *filehdr.FileHeader
	sector  common.Snum
	seekPos int32

	// release frees this handle's open-file-table slot, when the
	// filesystem registered one.
	release func()
}

// MkOpenFile brings the header at sector into memory and returns a
// cursor positioned at the start of the file.
func MkOpenFile(d disk.Disk, sector common.Snum) (*OpenFile, error) {
	hdr := filehdr.MkFileHeader()
	if err := hdr.FetchFrom(d, sector); err != nil {
		return nil, err
	}
	return &OpenFile{d: d, hdr: hdr, sector: sector}, nil
}

func (f *OpenFile) Seek(position int32) {
	f.seekPos = position
}

// ReadAt copies up to len(p) bytes starting at position into p. Reads
// at or past end of file return 0.
func (f *OpenFile) ReadAt(p []byte, position int32) (int32, error) {
	fileLength := f.hdr.Length()
	if position >= fileLength || len(p) == 0 {
		return 0, nil
	}
	numBytes := util.Min(int32(len(p)), fileLength-position)

	var done int32
	buf := disk.MkSector()
	for done < numBytes {
		pos := position + done
		sectorOff := pos % common.SectorSize
		n := util.Min(common.SectorSize-sectorOff, numBytes-done)
		if err := f.d.ReadSector(f.hdr.ByteToSector(pos), buf); err != nil {
			return done, err
		}
		copy(p[done:done+n], buf[sectorOff:])
		done += n
	}
	return done, nil
}

// WriteAt copies up to len(p) bytes from p into the file starting at
// position. Files are fixed-size, so writes are truncated at end of
// file. Partial first and last sectors are read back first so the
// bytes around the write survive.
func (f *OpenFile) WriteAt(p []byte, position int32) (int32, error) {
	fileLength := f.hdr.Length()
	if position >= fileLength || len(p) == 0 {
		return 0, nil
	}
	numBytes := util.Min(int32(len(p)), fileLength-position)

	var done int32
	buf := disk.MkSector()
	for done < numBytes {
		pos := position + done
		sectorOff := pos % common.SectorSize
		n := util.Min(common.SectorSize-sectorOff, numBytes-done)
		sector := f.hdr.ByteToSector(pos)
		if n < common.SectorSize {
			if err := f.d.ReadSector(sector, buf); err != nil {
				return done, err
			}
		}
		copy(buf[sectorOff:sectorOff+n], p[done:done+n])
		if err := f.d.WriteSector(sector, buf); err != nil {
			return done, err
		}
		done += n
	}
	return done, nil
}

// Read transfers from the current seek position and advances it.
func (f *OpenFile) Read(p []byte) (int32, error) {
	n, err := f.ReadAt(p, f.seekPos)
	f.seekPos += n
	return n, err
}

// Write transfers to the current seek position and advances it.
func (f *OpenFile) Write(p []byte) (int32, error) {
	n, err := f.WriteAt(p, f.seekPos)
	f.seekPos += n
	return n, err
}

func (f *OpenFile) Length() int32 {
	return f.hdr.Length()
}

func (f *OpenFile) Sector() common.Snum {
	return f.sector
}

func (f *OpenFile) Disk() disk.Disk {
	return f.d
}

func (f *OpenFile) Hdr() *filehdr.FileHeader {
	return f.hdr
}

// SetReleaser installs the open-file-table slot release hook.
func (f *OpenFile) SetReleaser(release func()) {
	f.release = release
}

// Close releases the handle's table slot, if it has one. The cursor
// itself holds no other resources; persistence is eager.
func (f *OpenFile) Close() {
	if f.release != nil {
		f.release()
		f.release = nil
	}
}

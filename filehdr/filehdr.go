// Package filehdr implements the on-disk file header: a one-sector index
// block recording a file's byte length and the data sectors holding its
// contents. Files larger than the direct table chain overflow headers,
// each occupying a sector of its own.
package filehdr

import (
	"fmt"
	"io"

	"github.com/tchajed/marshal"

	"github.com/tim70036/OS-Nachos/bitmap"
	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/util"
)

// NumDirect is how many data sectors one header sector can index:
// numBytes, numSectors and next take 4 bytes each, the rest is table.
const NumDirect = (common.SectorSize - 3*4) / 4

// On disk, next == noNext marks the end of the header chain. Sector 0
// holds the free-map header and can never be a chain target.
const noNext common.Snum = 0

// FileHeader is the in-memory view of a header chain: the full data
// sector list plus the sectors occupied by overflow headers.
type FileHeader struct {
	numBytes int32
	sectors  []common.Snum // data sectors, in file order
	overflow []common.Snum // header sectors past the primary one
}

func MkFileHeader() *FileHeader {
	return &FileHeader{}
}

// Allocate reserves data sectors for a file of fileSize bytes, plus
// overflow header sectors when the direct table is not enough. It
// returns the total header+data bytes consumed (counting the primary
// header's sector), or -1 when the free map cannot hold the file.
// On failure the free map is untouched.
func (h *FileHeader) Allocate(freeMap *bitmap.Bitmap, fileSize int32) int32 {
	if fileSize < 0 {
		return -1
	}
	dataSectors := util.RoundUp(fileSize, common.SectorSize)
	var overflowHdrs int32
	if dataSectors > NumDirect {
		overflowHdrs = util.RoundUp(dataSectors-NumDirect, NumDirect)
	}
	if freeMap.NumClear() < dataSectors+overflowHdrs {
		return -1
	}

	h.numBytes = fileSize
	h.sectors = make([]common.Snum, 0, dataSectors)
	h.overflow = make([]common.Snum, 0, overflowHdrs)
	for i := int32(0); i < dataSectors; i++ {
		h.sectors = append(h.sectors, freeMap.FindAndSet())
	}
	for i := int32(0); i < overflowHdrs; i++ {
		h.overflow = append(h.overflow, freeMap.FindAndSet())
	}
	return (1 + overflowHdrs + dataSectors) * common.SectorSize
}

// Deallocate returns every sector the header owns to the free map: all
// data sectors and all overflow header sectors. The primary header's
// own sector belongs to the caller.
func (h *FileHeader) Deallocate(freeMap *bitmap.Bitmap) {
	for _, s := range h.sectors {
		freeMap.Clear(s)
	}
	for _, s := range h.overflow {
		freeMap.Clear(s)
	}
}

// FetchFrom reads the header chain starting at sector.
func (h *FileHeader) FetchFrom(d disk.Disk, sector common.Snum) error {
	h.sectors = nil
	h.overflow = nil

	cur := sector
	first := true
	for {
		buf := disk.MkSector()
		if err := d.ReadSector(cur, buf); err != nil {
			return err
		}
		dec := marshal.NewDec(buf)
		numBytes := int32(dec.GetInt32())
		numSectors := int32(dec.GetInt32())
		next := common.Snum(dec.GetInt32())
		if first {
			h.numBytes = numBytes
			first = false
		}
		n := util.Min(numSectors, NumDirect)
		for i := int32(0); i < NumDirect; i++ {
			s := common.Snum(dec.GetInt32())
			if i < n {
				h.sectors = append(h.sectors, s)
			}
		}
		if next == noNext {
			break
		}
		h.overflow = append(h.overflow, next)
		cur = next
	}
	return nil
}

// WriteBack stores the header chain, primary header at sector and each
// overflow header at the sector recorded for it.
func (h *FileHeader) WriteBack(d disk.Disk, sector common.Snum) error {
	hdrSectors := append([]common.Snum{sector}, h.overflow...)
	remBytes := h.numBytes
	remSectors := int32(len(h.sectors))
	off := int32(0)

	for i, hs := range hdrSectors {
		next := noNext
		if i+1 < len(hdrSectors) {
			next = hdrSectors[i+1]
		}
		enc := marshal.NewEnc(uint64(common.SectorSize))
		enc.PutInt32(uint32(remBytes))
		enc.PutInt32(uint32(remSectors))
		enc.PutInt32(uint32(next))
		for j := int32(0); j < NumDirect; j++ {
			var s common.Snum
			if off+j < int32(len(h.sectors)) {
				s = h.sectors[off+j]
			}
			enc.PutInt32(uint32(s))
		}
		if err := d.WriteSector(hs, enc.Finish()); err != nil {
			return err
		}
		consumed := util.Min(remSectors, NumDirect)
		off += consumed
		remSectors -= consumed
		remBytes -= util.Min(remBytes, consumed*common.SectorSize)
	}
	return nil
}

// ByteToSector maps a byte offset within the file to the data sector
// holding it.
func (h *FileHeader) ByteToSector(offset int32) common.Snum {
	idx := offset / common.SectorSize
	if idx < 0 || idx >= int32(len(h.sectors)) {
		panic(fmt.Errorf("filehdr: offset %d outside file of %d bytes", offset, h.numBytes))
	}
	return h.sectors[idx]
}

func (h *FileHeader) Length() int32 {
	return h.numBytes
}

func (h *FileHeader) NumSectors() int32 {
	return int32(len(h.sectors))
}

func (h *FileHeader) Print(w io.Writer) {
	fmt.Fprintf(w, "FileHeader contents.  File size: %d.  File blocks:\n", h.numBytes)
	for _, s := range h.sectors {
		fmt.Fprintf(w, "%d ", s)
	}
	fmt.Fprintf(w, "\n")
	if len(h.overflow) > 0 {
		fmt.Fprintf(w, "Overflow header blocks:\n")
		for _, s := range h.overflow {
			fmt.Fprintf(w, "%d ", s)
		}
		fmt.Fprintf(w, "\n")
	}
}

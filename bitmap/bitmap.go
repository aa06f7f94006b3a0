// Package bitmap implements the persistent free-space map: a packed bit
// array with one bit per disk sector, kept as a normal file so that it
// survives reboots.
package bitmap

import (
	"fmt"
	"io"

	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/util"
)

// File is the slice of the open-file contract the bitmap needs to load
// and store its image.
type File interface {
	ReadAt(p []byte, off int32) (int32, error)
	WriteAt(p []byte, off int32) (int32, error)
}

// Bitmap tracks which of numBits sectors are in use. Bit i set means
// sector i is allocated.
type Bitmap struct {
	numBits int32
	data    []byte
}

func MkBitmap(numBits int32) *Bitmap {
	return &Bitmap{
		numBits: numBits,
		data:    make([]byte, util.RoundUp(numBits, 8)),
	}
}

// MkBitmapFrom reads a fresh view of the persisted map, the way every
// filesystem operation starts.
func MkBitmapFrom(f File, numBits int32) (*Bitmap, error) {
	b := MkBitmap(numBits)
	if err := b.FetchFrom(f); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bitmap) boundsCheck(which common.Snum) {
	if which < 0 || which >= b.numBits {
		panic(fmt.Errorf("bitmap: bit %d out of range", which))
	}
}

func (b *Bitmap) Mark(which common.Snum) {
	b.boundsCheck(which)
	b.data[which/8] |= 1 << (which % 8)
}

func (b *Bitmap) Clear(which common.Snum) {
	b.boundsCheck(which)
	b.data[which/8] &= ^(byte(1) << (which % 8))
}

func (b *Bitmap) Test(which common.Snum) bool {
	b.boundsCheck(which)
	return b.data[which/8]&(1<<(which%8)) != 0
}

// FindAndSet returns the lowest clear bit and marks it, or -1 when the
// map is exhausted. Lowest-first keeps allocation deterministic.
func (b *Bitmap) FindAndSet() common.Snum {
	for i := int32(0); i < b.numBits; i++ {
		if !b.Test(i) {
			b.Mark(i)
			return i
		}
	}
	return -1
}

// NumClear reports how many sectors are still free.
func (b *Bitmap) NumClear() int32 {
	var count int32
	for i := int32(0); i < b.numBits; i++ {
		if !b.Test(i) {
			count++
		}
	}
	return count
}

func (b *Bitmap) FetchFrom(f File) error {
	n, err := f.ReadAt(b.data, 0)
	if err != nil {
		return err
	}
	if n != int32(len(b.data)) {
		return fmt.Errorf("bitmap: short read (%d of %d bytes)", n, len(b.data))
	}
	return nil
}

func (b *Bitmap) WriteBack(f File) error {
	n, err := f.WriteAt(b.data, 0)
	if err != nil {
		return err
	}
	if n != int32(len(b.data)) {
		return fmt.Errorf("bitmap: short write (%d of %d bytes)", n, len(b.data))
	}
	return nil
}

// Bytes exposes the packed image, for byte-for-byte comparisons.
func (b *Bitmap) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (b *Bitmap) Print(w io.Writer) {
	fmt.Fprintf(w, "Bitmap set:\n")
	for i := int32(0); i < b.numBits; i++ {
		if b.Test(i) {
			fmt.Fprintf(w, "%d, ", i)
		}
	}
	fmt.Fprintf(w, "\n")
}

package openfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tim70036/OS-Nachos/bitmap"
	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/filehdr"
)

// mkTestFile allocates a size-byte file on a fresh mem disk with its
// header at sector 2 and returns an open cursor over it.
func mkTestFile(t *testing.T, size int32) *OpenFile {
	t.Helper()
	d := disk.NewMemDisk(common.NumSectors)
	freeMap := bitmap.MkBitmap(common.NumSectors)
	freeMap.Mark(0)
	freeMap.Mark(1)
	freeMap.Mark(2)

	hdr := filehdr.MkFileHeader()
	if hdr.Allocate(freeMap, size) < 0 {
		t.Fatal("allocate failed")
	}
	if err := hdr.WriteBack(d, 2); err != nil {
		t.Fatal(err)
	}
	f, err := MkOpenFile(d, 2)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestWriteReadAcrossSectors(t *testing.T) {
	assert := assert.New(t)
	f := mkTestFile(t, 3*common.SectorSize)

	data := bytes.Repeat([]byte("abcdefgh"), 40) // 320 bytes, 2.5 sectors
	n, err := f.WriteAt(data, 17)
	assert.NoError(err)
	assert.Equal(int32(len(data)), n)

	got := make([]byte, len(data))
	n, err = f.ReadAt(got, 17)
	assert.NoError(err)
	assert.Equal(int32(len(data)), n)
	assert.Equal(data, got)
}

func TestPartialSectorWritePreservesNeighbors(t *testing.T) {
	assert := assert.New(t)
	f := mkTestFile(t, 2*common.SectorSize)

	base := bytes.Repeat([]byte{0xAA}, int(2*common.SectorSize))
	_, err := f.WriteAt(base, 0)
	assert.NoError(err)

	_, err = f.WriteAt([]byte{1, 2, 3}, common.SectorSize-1)
	assert.NoError(err)

	got := make([]byte, 2*common.SectorSize)
	_, err = f.ReadAt(got, 0)
	assert.NoError(err)
	assert.Equal(byte(0xAA), got[common.SectorSize-2])
	assert.Equal([]byte{1, 2, 3}, got[common.SectorSize-1:common.SectorSize+2])
	assert.Equal(byte(0xAA), got[common.SectorSize+2])
}

func TestReadPastEOF(t *testing.T) {
	assert := assert.New(t)
	f := mkTestFile(t, 100)

	buf := make([]byte, 10)
	n, err := f.ReadAt(buf, 100)
	assert.NoError(err)
	assert.Equal(int32(0), n)

	n, err = f.ReadAt(buf, 95)
	assert.NoError(err)
	assert.Equal(int32(5), n, "truncated at end of file")
}

func TestWriteTruncatedAtEOF(t *testing.T) {
	assert := assert.New(t)
	f := mkTestFile(t, 100)

	n, err := f.WriteAt(bytes.Repeat([]byte{7}, 20), 90)
	assert.NoError(err)
	assert.Equal(int32(10), n, "fixed-size file")
}

func TestSeekReadWrite(t *testing.T) {
	assert := assert.New(t)
	f := mkTestFile(t, 64)

	n, err := f.Write([]byte("hello"))
	assert.NoError(err)
	assert.Equal(int32(5), n)

	f.Seek(0)
	buf := make([]byte, 5)
	n, err = f.Read(buf)
	assert.NoError(err)
	assert.Equal(int32(5), n)
	assert.Equal([]byte("hello"), buf)

	n, err = f.Read(buf)
	assert.NoError(err)
	assert.Equal(int32(5), n, "seek position advanced")
}

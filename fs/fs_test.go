package fs

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/disk"
)

func mkFS(t *testing.T) *FileSystem {
	t.Helper()
	d := disk.NewMemDisk(common.NumSectors)
	fs, err := MkFileSystem(d, true)
	if err != nil {
		t.Fatal(err)
	}
	fs.SetOutput(new(bytes.Buffer))
	return fs
}

func listOutput(t *testing.T, fs *FileSystem, path string, recursive bool) string {
	t.Helper()
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	if err := fs.List(path, recursive); err != nil {
		t.Fatalf("list %q: %v", path, err)
	}
	return buf.String()
}

func freeMapBytes(t *testing.T, fs *FileSystem) []byte {
	t.Helper()
	b, err := fs.FreeMapBytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFormatAndRootList(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.Equal("", listOutput(t, fs, "/", false), "freshly formatted root is empty")

	b, err := fs.FreeMapBytes()
	assert.NoError(err)
	assert.NotZero(b[0]&1, "sector 0 used")
	assert.NotZero(b[0]&2, "sector 1 used")
	assert.Zero(b[len(b)-1], "tail of the disk is free")
}

func TestCreateOpenRemoveRoundTrip(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)
	clean := freeMapBytes(t, fs)

	assert.NoError(fs.Create("/a", 100, false))
	f, err := fs.Open("/a")
	assert.NoError(err)
	assert.Equal(int32(100), f.Length())
	f.Close()

	assert.NoError(fs.Remove("/a", false))
	_, err = fs.Open("/a")
	assert.ErrorIs(err, ErrNoSuchEntry)

	assert.Equal(clean, freeMapBytes(t, fs), "free map restored byte for byte")
}

func TestCreateZeroSize(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/empty", 0, false))
	f, err := fs.Open("/empty")
	assert.NoError(err)
	assert.Equal(int32(0), f.Length())

	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 0)
	assert.NoError(err)
	assert.Equal(int32(0), n)
	f.Close()
}

func TestCreateDuplicateFails(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/a", 10, false))
	after := freeMapBytes(t, fs)
	assert.ErrorIs(fs.Create("/a", 10, false), ErrAlreadyExists)
	assert.Equal(after, freeMapBytes(t, fs), "failed create persisted nothing")
}

func TestNestedDirectories(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)
	clean := freeMapBytes(t, fs)

	assert.NoError(fs.Create("/d", 0, true))
	assert.NoError(fs.Create("/d/f", 50, false))
	assert.Equal("f\n", listOutput(t, fs, "/d", false))

	assert.NoError(fs.Create("/d/e", 0, true))
	assert.NoError(fs.Create("/d/e/g", 10, false))
	assert.Equal("f\ne\n  g\n", listOutput(t, fs, "/d", true))

	assert.NoError(fs.Remove("/d", true))
	assert.Equal("", listOutput(t, fs, "/", false))
	assert.Equal(clean, freeMapBytes(t, fs), "recursive remove frees everything")
}

func TestNewDirectoryReadsEmpty(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/d", 0, true))
	assert.Equal("", listOutput(t, fs, "/d", false), "fresh directory parses as an empty table")
}

func TestIntermediateSegmentMustBeDirectory(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/f", 10, false))
	assert.ErrorIs(fs.Create("/f/x", 10, false), ErrPathNotFound)
	assert.ErrorIs(fs.Create("/nodir/x", 10, false), ErrPathNotFound)

	_, err := fs.Open("/f/x")
	assert.ErrorIs(err, ErrPathNotFound)
}

func TestPathValidation(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.ErrorIs(fs.Create("", 10, false), ErrPathInvalid)
	assert.ErrorIs(fs.Create("/", 10, false), ErrPathInvalid)
	assert.ErrorIs(fs.Create("///", 10, false), ErrPathInvalid)
	assert.ErrorIs(fs.Create("/0123456789", 10, false), ErrPathInvalid, "segment over the name limit")
}

func TestRemoveAbsentIsFailureNoOp(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)
	clean := freeMapBytes(t, fs)

	assert.ErrorIs(fs.Remove("/ghost", false), ErrNoSuchEntry)
	assert.Equal(clean, freeMapBytes(t, fs))
}

func TestRemoveNonEmptyDirNeedsRecursive(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/d", 0, true))
	assert.NoError(fs.Create("/d/f", 10, false))

	assert.ErrorIs(fs.Remove("/d", false), ErrDirectoryNotEmpty)
	assert.Equal("f\n", listOutput(t, fs, "/d", false), "nothing removed")

	assert.NoError(fs.Remove("/d/f", false))
	assert.NoError(fs.Remove("/d", false), "empty directory removes non-recursively")
}

func TestOutOfSpaceLeavesMapUntouched(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)
	clean := freeMapBytes(t, fs)

	// As many data sectors as the whole disk has, far more than are free.
	assert.ErrorIs(fs.Create("/big", common.NumSectors*common.SectorSize, false), ErrNoFreeSector)
	assert.Equal(clean, freeMapBytes(t, fs))
}

func TestExactFitThenExhausted(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	// Post-format: sectors 0, 1, one free-map data sector, and eight
	// root-directory data sectors are used, leaving 1013 free. A
	// 979-data-sector file needs 33 overflow headers and the primary
	// header sector: 1 + 979 + 33 = 1013, an exact fit.
	assert.NoError(fs.Create("/big", 979*common.SectorSize, false))

	before := freeMapBytes(t, fs)
	assert.ErrorIs(fs.Create("/tiny", 0, false), ErrNoFreeSector, "no sector left for a header")
	assert.Equal(before, freeMapBytes(t, fs))

	assert.NoError(fs.Remove("/big", false))
	assert.NoError(fs.Create("/tiny", 0, false))
}

func TestDirectoryFull(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	for i := int32(0); i < common.NumDirEntries; i++ {
		assert.NoError(fs.Create(fmt.Sprintf("/f%d", i), 0, false))
	}
	assert.ErrorIs(fs.Create("/onemore", 0, false), ErrDirectoryFull)
}

func TestOpenTableCapacityAndRelease(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	assert.NoError(fs.Create("/a", 10, false))
	handles := make([]interface{ Close() }, 0, common.MaxOpenFiles)
	for i := 0; i < common.MaxOpenFiles; i++ {
		f, err := fs.Open("/a")
		assert.NoError(err)
		handles = append(handles, f)
	}
	_, err := fs.Open("/a")
	assert.ErrorIs(err, ErrOpenTableFull)

	handles[0].Close()
	f, err := fs.Open("/a")
	assert.NoError(err, "closed handle frees its slot")
	f.Close()
}

func TestFileContentsSurviveReopen(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(common.NumSectors)
	fs, err := MkFileSystem(d, true)
	assert.NoError(err)
	fs.SetOutput(new(bytes.Buffer))

	assert.NoError(fs.Create("/data", 300, false))
	f, err := fs.Open("/data")
	assert.NoError(err)
	payload := bytes.Repeat([]byte("xyzw"), 75)
	_, err = f.WriteAt(payload, 0)
	assert.NoError(err)
	f.Close()
	fs.Close()

	// Boot again on the same disk without formatting.
	fs2, err := MkFileSystem(d, false)
	assert.NoError(err)
	fs2.SetOutput(new(bytes.Buffer))
	f2, err := fs2.Open("/data")
	assert.NoError(err)
	got := make([]byte, len(payload))
	_, err = f2.ReadAt(got, 0)
	assert.NoError(err)
	assert.Equal(payload, got)
}

func TestPrintMentionsWellKnownHeaders(t *testing.T) {
	assert := assert.New(t)
	fs := mkFS(t)

	var buf bytes.Buffer
	fs.SetOutput(&buf)
	assert.NoError(fs.Print())
	assert.Contains(buf.String(), "Bit map file header")
	assert.Contains(buf.String(), "Directory file header")
	assert.Contains(buf.String(), "Bitmap set:")
}

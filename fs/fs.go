// Package fs manages the overall operation of the filesystem: mapping
// textual paths to files, creating and removing them, and keeping the
// on-disk structures consistent.
//
// Each file has a file header stored in a sector of its own, a number
// of data sectors, and an entry in some directory. The free-space map
// and the root directory are themselves files; their headers live in
// well-known sectors (0 and 1) so the filesystem can find them on
// boot. Both are kept open for the lifetime of the filesystem.
//
// Operations that modify the directory or the free map write the
// changes back to disk before returning success. On failure the
// modified in-memory copies are simply discarded, so nothing partial
// is persisted. There is no protection against crashes mid-operation
// and no synchronization for concurrent access.
package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/tim70036/OS-Nachos/bitmap"
	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/directory"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/filehdr"
	"github.com/tim70036/OS-Nachos/openfile"
	"github.com/tim70036/OS-Nachos/util"
)

type FileSystem struct {
	d disk.Disk

	// The free-map and root-directory files stay open while the
	// filesystem is up; all operations go through these handles.
	freeMapFile   *openfile.OpenFile
	directoryFile *openfile.OpenFile

	numDirEntries int32
	out           io.Writer

	openTable [common.MaxOpenFiles]*openfile.OpenFile
}

func (fs *FileSystem) freeMapFileSize() int32 {
	return util.RoundUp(fs.d.NumSectors(), 8)
}

// MkFileSystem initializes the filesystem on d with the default
// directory capacity. With format set the disk contents are assumed
// arbitrary and an empty filesystem is laid down; otherwise the two
// well-known headers are just opened.
func MkFileSystem(d disk.Disk, format bool) (*FileSystem, error) {
	return MkFileSystemSized(d, format, common.NumDirEntries)
}

// MkFileSystemSized is MkFileSystem with the directory capacity chosen
// by the caller. The capacity is fixed at format time; opening an
// existing disk must pass the capacity it was formatted with.
func MkFileSystemSized(d disk.Disk, format bool, numDirEntries int32) (*FileSystem, error) {
	fs := &FileSystem{
		d:             d,
		numDirEntries: numDirEntries,
		out:           os.Stdout,
	}
	var freeMap *bitmap.Bitmap
	if format {
		var err error
		freeMap, err = fs.layoutDisk()
		if err != nil {
			return nil, err
		}
	}
	var err error
	fs.freeMapFile, err = openfile.MkOpenFile(d, common.FreeMapSector)
	if err != nil {
		return nil, err
	}
	fs.directoryFile, err = openfile.MkOpenFile(d, common.DirectorySector)
	if err != nil {
		return nil, err
	}
	if format {
		// With the two files open, store the initial contents: the
		// bitmap reflecting the sectors taken so far, and an empty
		// directory.
		if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
			return nil, err
		}
		dir := directory.MkDirectory(fs.numDirEntries)
		if err := dir.WriteBack(fs.directoryFile); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// layoutDisk lays down the two file headers on a disk of arbitrary
// contents and returns the free map describing them. Running out of
// room here is a geometry bug, not a runtime condition.
func (fs *FileSystem) layoutDisk() (*bitmap.Bitmap, error) {
	util.DPrintf(1, "Formatting the file system.")
	freeMap := bitmap.MkBitmap(fs.d.NumSectors())
	freeMap.Mark(common.FreeMapSector)
	freeMap.Mark(common.DirectorySector)

	mapHdr := filehdr.MkFileHeader()
	dirHdr := filehdr.MkFileHeader()
	if mapHdr.Allocate(freeMap, fs.freeMapFileSize()) < 0 {
		panic("format: disk cannot hold the free map")
	}
	if dirHdr.Allocate(freeMap, directory.FileSize(fs.numDirEntries)) < 0 {
		panic("format: disk cannot hold the root directory")
	}

	if err := mapHdr.WriteBack(fs.d, common.FreeMapSector); err != nil {
		return nil, err
	}
	if err := dirHdr.WriteBack(fs.d, common.DirectorySector); err != nil {
		return nil, err
	}
	return freeMap, nil
}

// SetOutput redirects List and Print output, which default to stdout.
func (fs *FileSystem) SetOutput(w io.Writer) {
	fs.out = w
}

// Close releases the two long-lived handles. State is not flushed;
// persistence is eager.
func (fs *FileSystem) Close() {
	fs.freeMapFile.Close()
	fs.directoryFile.Close()
}

// Create makes a new file or directory at path. Files are fixed-size,
// so the initial size is final; directory creates override it with the
// directory file size. On failure nothing is persisted.
func (fs *FileSystem) Create(path string, initialSize int32, isDir bool) error {
	if isDir {
		initialSize = directory.FileSize(fs.numDirEntries)
	}
	util.DPrintf(1, "Creating %q size %d", path, initialSize)

	cursor, name, err := fs.findParentDirectory(path)
	if err != nil {
		return err
	}
	defer cursor.Close()
	if len(name) > common.FileNameMaxLen {
		return ErrPathInvalid
	}

	dir := directory.MkDirectory(fs.numDirEntries)
	if err := dir.FetchFrom(cursor.file); err != nil {
		return err
	}
	if dir.Find(name) != -1 {
		return ErrAlreadyExists
	}

	freeMap, err := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.NumSectors())
	if err != nil {
		return err
	}
	sector := freeMap.FindAndSet() // sector for the new file header
	if sector == -1 {
		return ErrNoFreeSector
	}
	if !dir.Add(name, sector, isDir) {
		return ErrDirectoryFull
	}
	hdr := filehdr.MkFileHeader()
	if hdr.Allocate(freeMap, initialSize) < 0 {
		return ErrNoFreeSector
	}

	// Everything worked: flush the header, the parent directory and
	// the free map, in that order.
	if err := hdr.WriteBack(fs.d, sector); err != nil {
		return err
	}
	if err := dir.WriteBack(cursor.file); err != nil {
		return err
	}
	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return err
	}

	if isDir {
		// Initialize the new directory to an empty table; the data
		// sectors hold whatever the disk held before otherwise.
		sub, err := openfile.MkOpenFile(fs.d, sector)
		if err != nil {
			return err
		}
		empty := directory.MkDirectory(fs.numDirEntries)
		if err := empty.WriteBack(sub); err != nil {
			return err
		}
	}
	return nil
}

// Open returns a handle over the file at path, registered in the
// open-file table.
func (fs *FileSystem) Open(path string) (*openfile.OpenFile, error) {
	cursor, name, err := fs.findParentDirectory(path)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	dir := directory.MkDirectory(fs.numDirEntries)
	if err := dir.FetchFrom(cursor.file); err != nil {
		return nil, err
	}
	util.DPrintf(1, "Opening %q", path)

	slot := -1
	for i := range fs.openTable {
		if fs.openTable[i] == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, ErrOpenTableFull
	}
	sector := dir.Find(name)
	if sector == -1 {
		return nil, ErrNoSuchEntry
	}

	f, err := openfile.MkOpenFile(fs.d, sector)
	if err != nil {
		return nil, err
	}
	fs.openTable[slot] = f
	f.SetReleaser(func() { fs.openTable[slot] = nil })
	return f, nil
}

// Remove deletes the file or directory at path: the entry leaves the
// parent directory, the header sector and every data sector return to
// the free map. Removing a non-empty directory requires recursive;
// children are removed first, deepest paths re-resolved from the root.
func (fs *FileSystem) Remove(path string, recursive bool) error {
	cursor, name, err := fs.findParentDirectory(path)
	if err != nil {
		return err
	}
	defer cursor.Close()

	dir := directory.MkDirectory(fs.numDirEntries)
	if err := dir.FetchFrom(cursor.file); err != nil {
		return err
	}
	util.DPrintf(1, "Removing %q", path)

	sector := dir.Find(name)
	if sector == -1 {
		return ErrNoSuchEntry
	}

	if dir.IsDir(name) {
		target, err := openfile.MkOpenFile(fs.d, sector)
		if err != nil {
			return err
		}
		targetDir := directory.MkDirectory(fs.numDirEntries)
		if err := targetDir.FetchFrom(target); err != nil {
			return err
		}
		if !recursive && !targetDir.IsEmpty() {
			return ErrDirectoryNotEmpty
		}
		for _, e := range targetDir.Entries() {
			if err := fs.Remove(path+"/"+e.Name, true); err != nil {
				return err
			}
		}
	}

	hdr := filehdr.MkFileHeader()
	if err := hdr.FetchFrom(fs.d, sector); err != nil {
		return err
	}
	freeMap, err := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.NumSectors())
	if err != nil {
		return err
	}
	hdr.Deallocate(freeMap) // data and overflow header sectors
	freeMap.Clear(sector)   // the header sector itself
	dir.Remove(name)

	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return err
	}
	return dir.WriteBack(cursor.file)
}

// List prints the entries of the directory at path, one line per live
// entry; recursive mode descends with increasing indentation.
func (fs *FileSystem) List(path string, recursive bool) error {
	if path == "/" {
		dir := directory.MkDirectory(fs.numDirEntries)
		if err := dir.FetchFrom(fs.directoryFile); err != nil {
			return err
		}
		return dir.List(fs.out, recursive, 0)
	}

	cursor, name, err := fs.findParentDirectory(path)
	if err != nil {
		return err
	}
	defer cursor.Close()

	dir := directory.MkDirectory(fs.numDirEntries)
	if err := dir.FetchFrom(cursor.file); err != nil {
		return err
	}
	sector := dir.Find(name)
	if sector == -1 || !dir.IsDir(name) {
		return ErrNoSuchEntry
	}

	target, err := openfile.MkOpenFile(fs.d, sector)
	if err != nil {
		return err
	}
	targetDir := directory.MkDirectory(fs.numDirEntries)
	if err := targetDir.FetchFrom(target); err != nil {
		return err
	}
	return targetDir.List(fs.out, recursive, 0)
}

// Print dumps everything about the filesystem: the two well-known
// headers, the free map, and the root directory.
func (fs *FileSystem) Print() error {
	bitHdr := filehdr.MkFileHeader()
	if err := bitHdr.FetchFrom(fs.d, common.FreeMapSector); err != nil {
		return err
	}
	fmt.Fprintf(fs.out, "Bit map file header (%s):\n", humanize.Bytes(uint64(bitHdr.Length())))
	bitHdr.Print(fs.out)

	dirHdr := filehdr.MkFileHeader()
	if err := dirHdr.FetchFrom(fs.d, common.DirectorySector); err != nil {
		return err
	}
	fmt.Fprintf(fs.out, "Directory file header (%s):\n", humanize.Bytes(uint64(dirHdr.Length())))
	dirHdr.Print(fs.out)

	freeMap, err := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.NumSectors())
	if err != nil {
		return err
	}
	freeMap.Print(fs.out)

	dir := directory.MkDirectory(fs.numDirEntries)
	if err := dir.FetchFrom(fs.directoryFile); err != nil {
		return err
	}
	dir.Print(fs.out)
	return nil
}

// FreeMapBytes returns the persisted free-map image, for inspection.
func (fs *FileSystem) FreeMapBytes() ([]byte, error) {
	freeMap, err := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.NumSectors())
	if err != nil {
		return nil, err
	}
	return freeMap.Bytes(), nil
}

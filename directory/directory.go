// Package directory implements the fixed-capacity table mapping names
// to file-header sectors. A directory is itself a file: its bytes are
// the serialized entry table. Add and Remove change only the in-memory
// table; WriteBack stores it through an open file.
package directory

import (
	"fmt"
	"io"
	"strings"

	"github.com/tchajed/marshal"

	"github.com/tim70036/OS-Nachos/common"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/openfile"
)

// EntryBytes is the fixed width of one serialized entry:
// inUse (1) | isDir (1) | sector (4) | name (FileNameMaxLen+1).
const EntryBytes = 1 + 1 + 4 + (common.FileNameMaxLen + 1)

// FileSize is the byte length of a directory file holding numEntries.
func FileSize(numEntries int32) int32 {
	return numEntries * EntryBytes
}

// Entry is one name→sector record. Name is a single path segment.
type Entry struct {
	InUse  bool
	IsDir  bool
	Sector common.Snum
	Name   string
}

type Directory struct {
	table []Entry
	d     disk.Disk // captured at fetch, for descending into children
}

func MkDirectory(size int32) *Directory {
	return &Directory{table: make([]Entry, size)}
}

// FetchFrom reads the directory contents from file and parses them.
func (dir *Directory) FetchFrom(file *openfile.OpenFile) error {
	raw := make([]byte, FileSize(int32(len(dir.table))))
	n, err := file.ReadAt(raw, 0)
	if err != nil {
		return err
	}
	if n != int32(len(raw)) {
		return fmt.Errorf("directory: short read (%d of %d bytes)", n, len(raw))
	}
	dec := marshal.NewDec(raw)
	for i := range dir.table {
		inUse := dec.GetBytes(1)[0] != 0
		isDir := dec.GetBytes(1)[0] != 0
		sector := common.Snum(dec.GetInt32())
		name := dec.GetBytes(common.FileNameMaxLen + 1)
		end := 0
		for end < len(name) && name[end] != 0 {
			end++
		}
		dir.table[i] = Entry{
			InUse:  inUse,
			IsDir:  isDir,
			Sector: sector,
			Name:   string(name[:end]),
		}
	}
	dir.d = file.Disk()
	return nil
}

// WriteBack serializes the table and stores it through file.
func (dir *Directory) WriteBack(file *openfile.OpenFile) error {
	enc := marshal.NewEnc(uint64(FileSize(int32(len(dir.table)))))
	for _, e := range dir.table {
		flags := [2]byte{}
		if e.InUse {
			flags[0] = 1
		}
		if e.IsDir {
			flags[1] = 1
		}
		enc.PutBytes(flags[:])
		enc.PutInt32(uint32(e.Sector))
		name := make([]byte, common.FileNameMaxLen+1)
		copy(name, e.Name)
		enc.PutBytes(name)
	}
	raw := enc.Finish()
	n, err := file.WriteAt(raw, 0)
	if err != nil {
		return err
	}
	if n != int32(len(raw)) {
		return fmt.Errorf("directory: short write (%d of %d bytes)", n, len(raw))
	}
	return nil
}

func (dir *Directory) findIndex(name string) int {
	for i, e := range dir.table {
		if e.InUse && e.Name == name {
			return i
		}
	}
	return -1
}

// Find returns the header sector of name, or -1. Comparison is
// byte-exact; there is no case folding.
func (dir *Directory) Find(name string) common.Snum {
	if i := dir.findIndex(name); i != -1 {
		return dir.table[i].Sector
	}
	return -1
}

// IsDir reports whether name exists and is a directory.
func (dir *Directory) IsDir(name string) bool {
	if i := dir.findIndex(name); i != -1 {
		return dir.table[i].IsDir
	}
	return false
}

// Add records name at sector. It fails when the name is empty, too
// long, already present, or the table is full.
func (dir *Directory) Add(name string, sector common.Snum, isDir bool) bool {
	if name == "" || len(name) > common.FileNameMaxLen {
		return false
	}
	if dir.findIndex(name) != -1 {
		return false
	}
	for i := range dir.table {
		if !dir.table[i].InUse {
			dir.table[i] = Entry{InUse: true, IsDir: isDir, Sector: sector, Name: name}
			return true
		}
	}
	return false
}

// Remove drops name from the table. The caller is responsible for the
// sectors the entry pointed at.
func (dir *Directory) Remove(name string) bool {
	i := dir.findIndex(name)
	if i == -1 {
		return false
	}
	dir.table[i].InUse = false
	return true
}

// Entries returns the live entries in table order.
func (dir *Directory) Entries() []Entry {
	var live []Entry
	for _, e := range dir.table {
		if e.InUse {
			live = append(live, e)
		}
	}
	return live
}

// IsEmpty reports whether the directory has no live entries.
func (dir *Directory) IsEmpty() bool {
	for _, e := range dir.table {
		if e.InUse {
			return false
		}
	}
	return true
}

// List prints one line per live entry, indented two spaces per depth
// level. In recursive mode it descends into sub-directories, fetching
// each from the disk this table came from.
func (dir *Directory) List(w io.Writer, recursive bool, depth int) error {
	for _, e := range dir.table {
		if !e.InUse {
			continue
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), e.Name)
		if recursive && e.IsDir {
			sub, err := openfile.MkOpenFile(dir.d, e.Sector)
			if err != nil {
				return err
			}
			subDir := MkDirectory(int32(len(dir.table)))
			if err := subDir.FetchFrom(sub); err != nil {
				sub.Close()
				return err
			}
			if err := subDir.List(w, recursive, depth+1); err != nil {
				sub.Close()
				return err
			}
			sub.Close()
		}
	}
	return nil
}

func (dir *Directory) Print(w io.Writer) {
	fmt.Fprintf(w, "Directory contents:\n")
	for _, e := range dir.table {
		if e.InUse {
			kind := "F"
			if e.IsDir {
				kind = "D"
			}
			fmt.Fprintf(w, "Name: %s, Type: %s, Sector: %d\n", e.Name, kind, e.Sector)
		}
	}
	fmt.Fprintf(w, "\n")
}

package fs

import (
	"strings"

	"github.com/tim70036/OS-Nachos/directory"
	"github.com/tim70036/OS-Nachos/openfile"
	"github.com/tim70036/OS-Nachos/util"
)

// dirCursor is an open handle to a directory reached during path
// resolution. The root directory's handle is shared with the
// filesystem and must never be closed; intermediate handles are owned
// and released by Close. Keying release off the variant avoids the
// pointer-identity comparison trap.
type dirCursor struct {
	file *openfile.OpenFile
	root bool
}

func (c *dirCursor) Close() {
	if !c.root {
		c.file.Close()
	}
}

// findParentDirectory walks path down to the directory that should
// contain its terminal segment and returns a cursor to it plus the
// terminal segment itself. The caller closes the cursor on all paths.
func (fs *FileSystem) findParentDirectory(path string) (*dirCursor, string, error) {
	var tokens []string
	for _, tok := range strings.Split(path, "/") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil, "", ErrPathInvalid
	}

	cur := &dirCursor{file: fs.directoryFile, root: true}
	for _, tok := range tokens[:len(tokens)-1] {
		dir := directory.MkDirectory(fs.numDirEntries)
		if err := dir.FetchFrom(cur.file); err != nil {
			cur.Close()
			return nil, "", err
		}
		sector := dir.Find(tok)
		if sector == -1 || !dir.IsDir(tok) {
			util.DPrintf(2, "findParentDirectory: %q not found under cursor", tok)
			cur.Close()
			return nil, "", ErrPathNotFound
		}
		next, err := openfile.MkOpenFile(fs.d, sector)
		if err != nil {
			cur.Close()
			return nil, "", err
		}
		cur.Close()
		cur = &dirCursor{file: next}
	}
	return cur, tokens[len(tokens)-1], nil
}

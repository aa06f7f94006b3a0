package fs

import "errors"

var (
	// ErrPathInvalid is returned for an empty or malformed path.
	ErrPathInvalid = errors.New("path is empty or malformed")

	// ErrPathNotFound is returned when an intermediate path segment is
	// missing or is not a directory.
	ErrPathNotFound = errors.New("intermediate directory not found")

	// ErrAlreadyExists is returned when the target name is already
	// present in the parent directory.
	ErrAlreadyExists = errors.New("name already exists")

	// ErrNoFreeSector is returned when the free-space map cannot hold
	// the file header or its data blocks.
	ErrNoFreeSector = errors.New("no free sector")

	// ErrDirectoryFull is returned when the parent directory has no
	// free entry.
	ErrDirectoryFull = errors.New("directory is full")

	// ErrNoSuchEntry is returned when the terminal name is absent.
	ErrNoSuchEntry = errors.New("no such file or directory")

	// ErrOpenTableFull is returned when the open-file table is at
	// capacity.
	ErrOpenTableFull = errors.New("open-file table is full")

	// ErrDirectoryNotEmpty is returned when removing a non-empty
	// directory without recursive set.
	ErrDirectoryNotEmpty = errors.New("directory not empty")
)
